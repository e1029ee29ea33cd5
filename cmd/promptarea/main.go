/*
Package main runs the promptarea manager graph as an interactive CLI.

Promptarea is a library for prompt-input surfaces: it auto-sizes the
surface to its content, matches clause completions against the trailing
words as the user types, applies accepted candidates back into the text,
and keeps a small durable state (manual height, prompt history) across
sessions. The library is host-agnostic; this binary drives it against an
in-memory surface for testing and debugging.

# Usage

Run with the built-in offline clause index:

	promptarea -offline

Point the matcher at a clause server:

	promptarea -base https://example.com

Type a prompt and press enter; the candidate list prints under it.
Accept a candidate by number:

	> a photo of a dog in soft
	  [0] soft natural lighting
	  [1] soft focus
	:sel 0

Colon commands drive the rest of the API: :value, :save, :hist, :load N,
:metrics, :clear, :help.

# Configuration

Runtime configuration is a TOML file with sections per manager:

	[match]
	limit = 10
	min_token_len = 2
	max_window_words = 3

	[resize]
	viewport_ratio = 0.9
	height_tolerance = 3.0

	[events]
	input_debounce_ms = 150
	suppression_ms = 100

	[remote]
	base_url = "https://example.com"
	timeout_ms = 3000

The config file is created with defaults if it doesn't exist. A broken
file is partially parsed: sections that still read cleanly apply, the
rest keep defaults.

# Command Line Flags

	-config string
	    Custom config file path
	-d  Enable debug mode with detailed logging
	-base string
	    Clause server base URL (overrides [remote].base_url)
	-offline
	    Use the built-in local clause index instead of a server
	-limit int
	    Number of candidates to return (default from config)
	-state string
	    State snapshot path (default [config dir]/state.bin)
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/typewell/promptarea/internal/cli"
	"github.com/typewell/promptarea/pkg/config"
	"github.com/typewell/promptarea/pkg/match"
	"github.com/typewell/promptarea/pkg/match/source"
	"github.com/typewell/promptarea/pkg/store"
	"github.com/typewell/promptarea/pkg/surface"
	"github.com/typewell/promptarea/pkg/textarea"
)

const (
	Version = "0.3.0"
	AppName = "promptarea"
	gh      = "https://github.com/typewell/promptarea"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main wires the managers together and hands control to the input loop.
// main() does not implement logic for them and only manages the flow.
func main() {
	sigHandler()

	showVersion := flag.Bool("version", false, "Show current version")
	configPath := flag.String("config", "", "Custom config file path")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	baseURL := flag.String("base", "", "Clause server base URL")
	offline := flag.Bool("offline", false, "Use the built-in local clause index")
	limit := flag.Int("limit", 0, "Number of candidates to return (0 = config default)")
	statePath := flag.String("state", "", "State snapshot path")

	flag.Parse()

	if *showVersion {
		logger := log.NewWithOptions(os.Stderr, log.Options{
			ReportCaller:    false,
			ReportTimestamp: false,
			Prefix:          "",
		})

		styles := log.DefaultStyles()
		styles.Values["version"] = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
		styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
		logger.SetStyles(styles)

		logger.Print("")
		logger.Print("[ promptarea ] Self-sizing, self-completing prompt surfaces.")
		logger.Print("", "version", Version)
		logger.Print("")
		logger.Print("use -h or --help to see available options")
		logger.Print("Github Repo", "gh", gh)

		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
		log.SetReportTimestamp(false)
	}

	cfg, loadedPath, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
		os.Exit(1)
	}
	if loadedPath != "" {
		log.Debugf("Using config file: (%s)", loadedPath)
	}
	if *limit > 0 {
		cfg.Match.Limit = *limit
	}
	if *baseURL != "" {
		cfg.Remote.BaseURL = *baseURL
	}

	useLocal := *offline || cfg.Remote.BaseURL == ""
	lookup, err := buildLookup(cfg, useLocal)
	if err != nil {
		log.Fatalf("Failed to build candidate source: %v", err)
		os.Exit(1)
	}

	resolvedStatePath := *statePath
	if resolvedStatePath == "" {
		resolvedStatePath = cfg.Storage.Path
	}
	if resolvedStatePath == "" {
		resolvedStatePath, err = config.DefaultStatePath()
		if err != nil {
			log.Warnf("Failed to determine state path: %v. Running without persistence", err)
			resolvedStatePath = ""
		}
	}
	log.Debugf("Using state snapshot at: %s", resolvedStatePath)

	surf := surface.NewMemory()
	renderer := cli.NewConsoleRenderer()

	manager, err := textarea.New(textarea.Deps{
		Provider: func() (surface.Surface, error) { return surf, nil },
		Lookup:   lookup,
		Renderer: renderer,
		Store:    store.Open(resolvedStatePath),
		Config:   cfg,
	})
	if err != nil {
		log.Fatalf("Failed to construct manager: %v", err)
		os.Exit(1)
	}
	if err := manager.Init(); err != nil {
		log.Fatalf("Failed to initialize manager: %v", err)
		os.Exit(1)
	}
	defer manager.Destroy()

	showStartupInfo(useLocal)

	inputHandler := cli.NewInputHandler(manager, renderer)
	if err := inputHandler.Start(); err != nil {
		log.Debugf("Input loop ended: %v", err)
	}
}

// buildLookup picks the candidate source: the HTTP client when a base URL
// is configured, otherwise the seeded local index.
func buildLookup(cfg *config.Config, useLocal bool) (match.Lookup, error) {
	if !useLocal {
		timeout := time.Duration(cfg.Remote.TimeoutMs) * time.Millisecond
		return source.NewHTTP(cfg.Remote.BaseURL, cfg.Remote.SamplePath, cfg.Remote.MatchPath, timeout)
	}
	local := source.NewLocal()
	local.Seed(seedClauses)
	return local, nil
}

// seedClauses is a tiny built-in clause index for offline runs. Weights
// rank the candidates; heavier phrases list first.
var seedClauses = map[string]int{
	"soft natural lighting":   90,
	"soft focus":              70,
	"soft pastel colors":      55,
	"highly detailed":         95,
	"high resolution":         80,
	"cinematic composition":   75,
	"cinematic lighting":      85,
	"golden hour glow":        60,
	"shallow depth of field":  65,
	"shot on 35mm film":       50,
	"dramatic shadows":        45,
	"watercolor texture":      40,
	"minimalist background":   35,
	"vibrant color palette":   58,
	"studio portrait setup":   30,
	"wide angle perspective":  28,
	"moody atmosphere":        42,
	"hyperrealistic render":   52,
	"volumetric light rays":   38,
	"intricate line work":     26,
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(offline bool) {
	pid := os.Getpid()
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	println("============")
	println(" promptarea ")
	println("============")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", pid)
	if offline {
		log.Info("source: local index")
	} else {
		log.Info("source: remote")
	}
	log.Info("status: ready")
	println("============")

	log.SetLevel(currentLevel)
}
