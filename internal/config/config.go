// Package config loads client configuration from JSONC files and the
// environment.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
)

// Config holds the settings a client needs to reach a server.
type Config struct {
	// ServerURL is the http(s) base URL of the Driftline server.
	ServerURL string `json:"server_url"`
	// Token is a pre-issued session token. Takes precedence over
	// LoginID/Password when both are configured.
	Token string `json:"token"`
	// LoginID and Password select password login.
	LoginID  string `json:"login_id"`
	Password string `json:"password"`
	// TeamID scopes channel lookups in the CLI.
	TeamID string `json:"team_id"`
	// LogLevel is DEBUG, INFO, WARN, ERROR or FATAL.
	LogLevel string `json:"log_level"`
	// RequestTimeoutSeconds bounds correlated stream requests.
	RequestTimeoutSeconds int `json:"request_timeout_seconds"`
	// ReconnectSeconds is the delay between reconnect attempts.
	ReconnectSeconds int `json:"reconnect_seconds"`
}

// RequestTimeout returns the configured timeout, or 0 for the default.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// ReconnectInterval returns the configured delay, or 0 for the default.
func (c *Config) ReconnectInterval() time.Duration {
	return time.Duration(c.ReconnectSeconds) * time.Second
}

// Load loads configuration from multiple sources (priority order):
// 1. Global config (~/.driftline/)
// 2. XDG config (~/.config/driftline/)
// 3. Project config (directory and directory/.driftline/)
// 4. DRIFTLINE_CONFIG file
// 5. DRIFTLINE_CONFIG_CONTENT inline JSON
// 6. Environment variables
func Load(directory string) (*Config, error) {
	config := &Config{}

	loaded := make(map[string]bool)
	loadOnce := func(path, baseDir string) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return
		}
		if loaded[absPath] {
			return
		}
		if loadConfigFile(path, config, baseDir) == nil {
			loaded[absPath] = true
		}
	}

	home := os.Getenv("HOME")
	if home != "" {
		globalDir := filepath.Join(home, ".driftline")
		loadOnce(filepath.Join(globalDir, "driftline.json"), globalDir)
		loadOnce(filepath.Join(globalDir, "driftline.jsonc"), globalDir)

		xdgDir := filepath.Join(home, ".config", "driftline")
		loadOnce(filepath.Join(xdgDir, "driftline.json"), xdgDir)
		loadOnce(filepath.Join(xdgDir, "driftline.jsonc"), xdgDir)
	}

	if directory != "" {
		projectDir := filepath.Join(directory, ".driftline")
		loadOnce(filepath.Join(directory, "driftline.json"), directory)
		loadOnce(filepath.Join(directory, "driftline.jsonc"), directory)
		loadOnce(filepath.Join(projectDir, "driftline.json"), projectDir)
		loadOnce(filepath.Join(projectDir, "driftline.jsonc"), projectDir)
	}

	if configPath := os.Getenv("DRIFTLINE_CONFIG"); configPath != "" {
		loadOnce(configPath, filepath.Dir(configPath))
	}

	if content := os.Getenv("DRIFTLINE_CONFIG_CONTENT"); content != "" {
		var inline Config
		if err := json.Unmarshal([]byte(content), &inline); err == nil {
			merge(config, &inline)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// loadConfigFile loads a single config file with interpolation support.
func loadConfigFile(path string, config *Config, baseDir string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err // File doesn't exist, skip
	}

	data = jsonc.ToJSON(data)
	data = interpolate(data, baseDir)

	var fileConfig Config
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return err
	}

	merge(config, &fileConfig)
	return nil
}

// interpolate processes {env:VAR} and {file:path} placeholders.
func interpolate(data []byte, baseDir string) []byte {
	str := string(data)

	envPattern := regexp.MustCompile(`\{env:([^}]+)\}`)
	str = envPattern.ReplaceAllStringFunc(str, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})

	filePattern := regexp.MustCompile(`\{file:([^}]+)\}`)
	str = filePattern.ReplaceAllStringFunc(str, func(match string) string {
		filePath := filePattern.FindStringSubmatch(match)[1]

		if strings.HasPrefix(filePath, "~/") {
			filePath = filepath.Join(os.Getenv("HOME"), filePath[2:])
		} else if !filepath.IsAbs(filePath) {
			filePath = filepath.Join(baseDir, filePath)
		}

		content, err := os.ReadFile(filePath)
		if err != nil {
			return match // Keep original if file not found
		}
		return strings.TrimSpace(string(content))
	})

	return []byte(str)
}

func merge(target, source *Config) {
	if source.ServerURL != "" {
		target.ServerURL = source.ServerURL
	}
	if source.Token != "" {
		target.Token = source.Token
	}
	if source.LoginID != "" {
		target.LoginID = source.LoginID
	}
	if source.Password != "" {
		target.Password = source.Password
	}
	if source.TeamID != "" {
		target.TeamID = source.TeamID
	}
	if source.LogLevel != "" {
		target.LogLevel = source.LogLevel
	}
	if source.RequestTimeoutSeconds > 0 {
		target.RequestTimeoutSeconds = source.RequestTimeoutSeconds
	}
	if source.ReconnectSeconds > 0 {
		target.ReconnectSeconds = source.ReconnectSeconds
	}
}

// applyEnvOverrides applies environment variable overrides, the
// highest-priority source.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("DRIFTLINE_SERVER_URL"); v != "" {
		config.ServerURL = v
	}
	if v := os.Getenv("DRIFTLINE_TOKEN"); v != "" {
		config.Token = v
	}
	if v := os.Getenv("DRIFTLINE_LOGIN_ID"); v != "" {
		config.LoginID = v
	}
	if v := os.Getenv("DRIFTLINE_PASSWORD"); v != "" {
		config.Password = v
	}
	if v := os.Getenv("DRIFTLINE_TEAM_ID"); v != "" {
		config.TeamID = v
	}
	if v := os.Getenv("DRIFTLINE_LOG_LEVEL"); v != "" {
		config.LogLevel = v
	}
}

// Save writes the configuration to a file.
func Save(config *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
