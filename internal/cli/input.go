package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/typewell/promptarea/pkg/textarea"
)

// InputHandler drives a textarea.Manager from stdin lines for testing and
// debugging. Plain lines become the surface value; colon commands poke the
// rest of the API.
type InputHandler struct {
	manager  *textarea.Manager
	renderer *ConsoleRenderer
}

// NewInputHandler creates a handler over an already-initialized manager.
func NewInputHandler(manager *textarea.Manager, renderer *ConsoleRenderer) *InputHandler {
	return &InputHandler{
		manager:  manager,
		renderer: renderer,
	}
}

// Start begins the input loop. It returns on stdin EOF or read error.
func (h *InputHandler) Start() error {
	log.Print("promptarea CLI")
	log.Print("type a prompt and press enter; :sel N accepts candidate N, :help lists commands (Ctrl+C to exit):")
	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Fprint(os.Stderr, "> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimRight(line, "\n")
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			h.handleCommand(line)
			continue
		}
		h.manager.SetValue(line)
	}
}

func (h *InputHandler) handleCommand(line string) {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":sel":
		if len(fields) < 2 {
			log.Warn("usage: :sel N")
			return
		}
		i, err := strconv.Atoi(fields[1])
		if err != nil {
			log.Warnf("not a candidate index: %s", fields[1])
			return
		}
		c, ok := h.renderer.Candidate(i)
		if !ok {
			log.Warnf("no candidate %d in the last list", i)
			return
		}
		h.manager.SelectCandidate(c)
		log.Printf("value: %q cursor=%d", h.manager.GetValue(), h.manager.GetCursorPosition())
	case ":value":
		log.Printf("value: %q cursor=%d", h.manager.GetValue(), h.manager.GetCursorPosition())
	case ":save":
		h.manager.SaveToHistory()
		log.Printf("saved, history size %d", len(h.manager.GetHistory()))
	case ":hist":
		for i, entry := range h.manager.GetHistory() {
			log.Printf("  [%d] %s", i, entry)
		}
	case ":load":
		if len(fields) < 2 {
			log.Warn("usage: :load N")
			return
		}
		i, err := strconv.Atoi(fields[1])
		if err != nil || !h.manager.LoadFromHistory(i) {
			log.Warnf("no history entry %s", fields[1])
			return
		}
		log.Printf("value: %q", h.manager.GetValue())
	case ":metrics":
		m := h.manager.GetMetrics()
		log.Printf("autoResizes=%d droppedMatches=%d manualResizes=%d pasteOperations=%d",
			m.AutoResizes, m.DroppedMatches, m.ManualResizes, m.PasteOperations)
	case ":clear":
		h.manager.Clear()
	case ":help":
		log.Print(":sel N | :value | :save | :hist | :load N | :metrics | :clear | :help")
	default:
		log.Warnf("unknown command %s, try :help", fields[0])
	}
}
