/*
Package config manages TOML config for the promptarea managers.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/typewell/promptarea/internal/utils"
)

// Config holds the entire config structure.
type Config struct {
	Match   MatchConfig   `toml:"match"`
	Resize  ResizeConfig  `toml:"resize"`
	Events  EventsConfig  `toml:"events"`
	History HistoryConfig `toml:"history"`
	Storage StorageConfig `toml:"storage"`
	Remote  RemoteConfig  `toml:"remote"`
}

// MatchConfig has phrase-matching options.
type MatchConfig struct {
	Limit          int `toml:"limit"`
	SampleLimit    int `toml:"sample_limit"`
	MinTokenLen    int `toml:"min_token_len"`
	MaxWindowWords int `toml:"max_window_words"`
}

// ResizeConfig holds auto-resize options.
type ResizeConfig struct {
	ViewportRatio      float64 `toml:"viewport_ratio"`
	EstimateLines      int     `toml:"estimate_lines"`
	DefaultLineHeight  float64 `toml:"default_line_height"`
	VisibilityPollMs   int     `toml:"visibility_poll_ms"`
	MaxVisibilityPolls int     `toml:"max_visibility_polls"`
	HeightTolerance    float64 `toml:"height_tolerance"`
}

// EventsConfig holds event debounce windows, in milliseconds.
type EventsConfig struct {
	InputDebounceMs    int `toml:"input_debounce_ms"`
	ViewportDebounceMs int `toml:"viewport_debounce_ms"`
	FrameDelayMs       int `toml:"frame_delay_ms"`
	SuppressionMs      int `toml:"suppression_ms"`
}

// HistoryConfig holds local history options.
type HistoryConfig struct {
	MaxEntries int `toml:"max_entries"`
}

// StorageConfig points at the durable client-side state file.
type StorageConfig struct {
	Path string `toml:"path"`
}

// RemoteConfig describes the candidate lookup endpoints.
type RemoteConfig struct {
	BaseURL    string `toml:"base_url"`
	SamplePath string `toml:"sample_path"`
	MatchPath  string `toml:"match_path"`
	TimeoutMs  int    `toml:"timeout_ms"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/promptarea
// 2. ~/Library/Application Support/promptarea (macOS layout)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		execDir, execErr := utils.GetExecutableDir()
		if execErr != nil {
			return "", execErr
		}
		return execDir, nil
	}
	primaryPath := filepath.Join(homeDir, ".config", "promptarea")
	if utils.DirWritable(primaryPath) {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", "promptarea")
	if utils.DirWritable(macOSPath) {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml.
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/promptarea/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	var config *Config
	var err error

	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err = LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err = InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Match: MatchConfig{
			Limit:          10,
			SampleLimit:    12,
			MinTokenLen:    2,
			MaxWindowWords: 3,
		},
		Resize: ResizeConfig{
			ViewportRatio:      0.9,
			EstimateLines:      3,
			DefaultLineHeight:  20,
			VisibilityPollMs:   100,
			MaxVisibilityPolls: 50,
			HeightTolerance:    3.0,
		},
		Events: EventsConfig{
			InputDebounceMs:    150,
			ViewportDebounceMs: 250,
			FrameDelayMs:       16,
			SuppressionMs:      100,
		},
		History: HistoryConfig{
			MaxEntries: 50,
		},
		Storage: StorageConfig{
			Path: "",
		},
		Remote: RemoteConfig{
			BaseURL:    "",
			SamplePath: "/api/clauses/samples",
			MatchPath:  "/api/clauses/match",
			TimeoutMs:  3000,
		},
	}
}

// InitConfig loads config from file or creates a default one if missing.
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := utils.SaveTOMLFile(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse salvages whatever sections still parse from a broken
// config file, keeping defaults for the rest.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	loose, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(loose, "match"); ok {
		extractMatchConfig(section, &config.Match)
	}
	if section, ok := utils.ExtractSection(loose, "resize"); ok {
		extractResizeConfig(section, &config.Resize)
	}
	if section, ok := utils.ExtractSection(loose, "events"); ok {
		extractEventsConfig(section, &config.Events)
	}
	if section, ok := utils.ExtractSection(loose, "history"); ok {
		if val, ok := utils.ExtractInt(section, "max_entries"); ok {
			config.History.MaxEntries = val
		}
	}
	if section, ok := utils.ExtractSection(loose, "storage"); ok {
		if val, ok := utils.ExtractString(section, "path"); ok {
			config.Storage.Path = val
		}
	}
	if section, ok := utils.ExtractSection(loose, "remote"); ok {
		extractRemoteConfig(section, &config.Remote)
	}
	return config, nil
}

func extractMatchConfig(data map[string]any, match *MatchConfig) {
	if val, ok := utils.ExtractInt(data, "limit"); ok {
		match.Limit = val
	}
	if val, ok := utils.ExtractInt(data, "sample_limit"); ok {
		match.SampleLimit = val
	}
	if val, ok := utils.ExtractInt(data, "min_token_len"); ok {
		match.MinTokenLen = val
	}
	if val, ok := utils.ExtractInt(data, "max_window_words"); ok {
		match.MaxWindowWords = val
	}
}

func extractResizeConfig(data map[string]any, resize *ResizeConfig) {
	if val, ok := utils.ExtractFloat(data, "viewport_ratio"); ok {
		resize.ViewportRatio = val
	}
	if val, ok := utils.ExtractInt(data, "estimate_lines"); ok {
		resize.EstimateLines = val
	}
	if val, ok := utils.ExtractFloat(data, "default_line_height"); ok {
		resize.DefaultLineHeight = val
	}
	if val, ok := utils.ExtractInt(data, "visibility_poll_ms"); ok {
		resize.VisibilityPollMs = val
	}
	if val, ok := utils.ExtractInt(data, "max_visibility_polls"); ok {
		resize.MaxVisibilityPolls = val
	}
	if val, ok := utils.ExtractFloat(data, "height_tolerance"); ok {
		resize.HeightTolerance = val
	}
}

func extractEventsConfig(data map[string]any, events *EventsConfig) {
	if val, ok := utils.ExtractInt(data, "input_debounce_ms"); ok {
		events.InputDebounceMs = val
	}
	if val, ok := utils.ExtractInt(data, "viewport_debounce_ms"); ok {
		events.ViewportDebounceMs = val
	}
	if val, ok := utils.ExtractInt(data, "frame_delay_ms"); ok {
		events.FrameDelayMs = val
	}
	if val, ok := utils.ExtractInt(data, "suppression_ms"); ok {
		events.SuppressionMs = val
	}
}

func extractRemoteConfig(data map[string]any, remote *RemoteConfig) {
	if val, ok := utils.ExtractString(data, "base_url"); ok {
		remote.BaseURL = val
	}
	if val, ok := utils.ExtractString(data, "sample_path"); ok {
		remote.SamplePath = val
	}
	if val, ok := utils.ExtractString(data, "match_path"); ok {
		remote.MatchPath = val
	}
	if val, ok := utils.ExtractInt(data, "timeout_ms"); ok {
		remote.TimeoutMs = val
	}
}

// DefaultStatePath returns the default durable state file path, used when
// [storage].path is empty.
func DefaultStatePath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "state.bin"), nil
}
