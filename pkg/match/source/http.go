package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/typewell/promptarea/internal/logger"
)

// HTTP queries the host-provided clause endpoints:
//
//	GET <base><samplePath>?limit=N          -> ["...", ...]
//	GET <base><matchPath>/<phrase>?limit=N  -> ["...", ...]
//
// Both return JSON arrays of ranked candidate strings. The client carries
// a bounded timeout so a hung server never stalls an update forever.
type HTTP struct {
	base       *url.URL
	samplePath string
	matchPath  string
	client     *http.Client
	log        *log.Logger
}

// NewHTTP builds a client for baseURL. The timeout bounds every request;
// non-positive values default to 3 seconds.
func NewHTTP(baseURL, samplePath, matchPath string, timeout time.Duration) (*HTTP, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTP{
		base:       base,
		samplePath: samplePath,
		matchPath:  matchPath,
		client:     &http.Client{Timeout: timeout},
		log:        logger.Default("source"),
	}, nil
}

func (h *HTTP) Matches(ctx context.Context, phrase string, limit int) ([]string, error) {
	// JoinPath keeps Path/RawPath consistent so the phrase is escaped
	// exactly once on the wire.
	return h.fetch(ctx, h.base.JoinPath(h.matchPath, phrase), limit)
}

func (h *HTTP) Samples(ctx context.Context, limit int) ([]string, error) {
	return h.fetch(ctx, h.base.JoinPath(h.samplePath), limit)
}

func (h *HTTP) fetch(ctx context.Context, endpoint *url.URL, limit int) ([]string, error) {
	query := endpoint.Query()
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("lookup %s: unexpected status %d", endpoint.Path, resp.StatusCode)
	}

	var candidates []string
	if err := json.NewDecoder(resp.Body).Decode(&candidates); err != nil {
		return nil, fmt.Errorf("lookup %s: decoding response: %w", endpoint.Path, err)
	}
	return candidates, nil
}
