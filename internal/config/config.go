package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/clipask/clipask/internal/llm"
)

type Config struct {
	Provider        string `mapstructure:"provider"`
	Model           string `mapstructure:"model"`
	APIKey          string `mapstructure:"api_key"`
	BaseURL         string `mapstructure:"base_url"`
	GitHubToken     string `mapstructure:"github_token"`
	EnableStreaming bool   `mapstructure:"enable_streaming"`
	WatchDir        string `mapstructure:"watch_dir"`
}

func Load() (*Config, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config dir: %w", err)
	}

	configPath := filepath.Join(configDir, "clipask")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)
	viper.AddConfigPath(".")

	// Set defaults
	viper.SetDefault("provider", "openai")
	viper.SetDefault("model", "gpt-4o")
	viper.SetDefault("enable_streaming", true)

	// Read config file (optional - won't error if missing)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Credential fields may hold op:// URLs, $(command) forms, or env
	// references; resolve them before handing the values downstream.
	if cfg.APIKey, err = ResolveValue(cfg.APIKey); err != nil {
		return nil, fmt.Errorf("failed to resolve api_key: %w", err)
	}
	if cfg.GitHubToken, err = ResolveValue(cfg.GitHubToken); err != nil {
		return nil, fmt.Errorf("failed to resolve github_token: %w", err)
	}
	if cfg.BaseURL, err = ResolveValue(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("failed to resolve base_url: %w", err)
	}

	// Fall back to environment variables if credentials not set. The config
	// layer is the only place the environment is consulted; nothing below it
	// reads or writes env vars.
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.GitHubToken == "" {
		cfg.GitHubToken = os.Getenv("GITHUB_TOKEN")
	}

	return &cfg, nil
}

// ApplyOverrides layers command-line flag values over the loaded config.
// Empty strings leave the corresponding field untouched.
func (c *Config) ApplyOverrides(provider, model string) {
	if provider != "" {
		c.Provider = provider
	}
	if model != "" {
		c.Model = model
	}
}

// Backend converts the file-level config into the snapshot the backend
// manager consumes.
func (c *Config) Backend() llm.BackendConfig {
	return llm.BackendConfig{
		Provider:        llm.ParseProviderID(c.Provider),
		Model:           c.Model,
		APIKey:          c.APIKey,
		BaseURL:         c.BaseURL,
		GitHubToken:     c.GitHubToken,
		EnableStreaming: c.EnableStreaming,
	}
}

// expandEnv expands ${VAR} or $VAR in a string
func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		varName := s[2 : len(s)-1]
		return os.Getenv(varName)
	}
	if strings.HasPrefix(s, "$") {
		return os.Getenv(s[1:])
	}
	return s
}

// GetConfigPath returns the path where the config file should be located
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "clipask", "config.yaml"), nil
}

// Exists returns true if a config file exists
func Exists() bool {
	path, err := GetConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// NeedsSetup returns true if config file doesn't exist
func NeedsSetup() bool {
	return !Exists()
}

// Save writes the config to disk with 0600 permissions. Values are written
// verbatim; callers that want secret indirection to survive a round trip
// must pass the reference form (e.g. ${OPENAI_API_KEY}), since Load returns
// resolved values.
func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fmt.Sprintf(`provider: %s
model: %s

# Credentials may be literals, ${ENV_VAR} references, op:// URLs, or
# $(command) forms; they are resolved at load time.
api_key: %q
github_token: %q

# Custom OpenAI-compatible endpoint (optional, srv:// records supported)
base_url: %q

enable_streaming: %t

# Directory watched for screenshot captures (optional)
watch_dir: %q
`, cfg.Provider, cfg.Model, cfg.APIKey, cfg.GitHubToken, cfg.BaseURL, cfg.EnableStreaming, cfg.WatchDir)

	return os.WriteFile(path, []byte(content), 0600)
}
