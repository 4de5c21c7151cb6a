// Package config loads and persists pptx-translator settings from a JSON
// file, a .env file and the process environment.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"pptx-translator/internal/logger"
	"pptx-translator/internal/types"
)

const (
	// DefaultConfigFileName is the default configuration file name
	DefaultConfigFileName = "pptx-translator-config.json"
	// DefaultEnvFile is read from the working directory when present
	DefaultEnvFile = ".env"

	EnvOpenAIAPIKey  = "OPENAI_API_KEY"
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"
	EnvOpenAIModel   = "OPENAI_MODEL"

	DefaultBaseURL        = "https://api.openai.com/v1"
	DefaultModel          = "gpt-4o-mini"
	DefaultTemperature    = 0.3
	DefaultTargetLanguage = "Spanish"
	DefaultBatchMaxChars  = 6000
	DefaultConcurrency    = 1
	DefaultInterBatchMs   = 200
	DefaultMaxRetries     = 3
	DefaultRequestTimeout = 120
	DefaultLogFile        = "pptx-translator.log"
)

// ConfigManager manages application configuration
type ConfigManager struct {
	configPath string
	envFile    string
	config     *types.Config
	env        map[string]string
}

// NewConfigManager creates a ConfigManager. An empty configPath selects
// ~/.config/pptx-translator/pptx-translator-config.json.
func NewConfigManager(configPath string) (*ConfigManager, error) {
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			logger.Error("failed to get user home directory", err)
			return nil, types.NewAppError(types.ErrConfig, "failed to get user home directory", err)
		}
		configPath = filepath.Join(homeDir, ".config", "pptx-translator", DefaultConfigFileName)
	}

	logger.Debug("ConfigManager initialized", logger.String("configPath", configPath))
	return &ConfigManager{
		configPath: configPath,
		envFile:    DefaultEnvFile,
		config:     defaultConfig(),
		env:        map[string]string{},
	}, nil
}

// SetEnvFile changes the .env file consulted by Load. An empty path disables it.
func (m *ConfigManager) SetEnvFile(path string) {
	m.envFile = path
}

func defaultConfig() *types.Config {
	return &types.Config{
		OpenAIBaseURL:     DefaultBaseURL,
		OpenAIModel:       DefaultModel,
		Temperature:       DefaultTemperature,
		TargetLanguage:    DefaultTargetLanguage,
		BatchMaxChars:     DefaultBatchMaxChars,
		Concurrency:       DefaultConcurrency,
		InterBatchDelayMs: DefaultInterBatchMs,
		MaxRetries:        DefaultMaxRetries,
		RequestTimeoutSec: DefaultRequestTimeout,
		LogFilePath:       DefaultLogFile,
		LogLevel:          "info",
	}
}

// Load reads the config file, then the .env file. Values in the process
// environment win over .env values. A missing file means defaults. An
// unreadable or malformed file also falls back to defaults, and the
// problem is returned as a CONFIG_ERROR for the caller to report.
func (m *ConfigManager) Load() error {
	logger.Debug("loading configuration", logger.String("path", m.configPath))

	var problem error
	data, err := os.ReadFile(m.configPath)
	switch {
	case os.IsNotExist(err):
		logger.Debug("config file not found, using defaults", logger.String("path", m.configPath))
		m.config = defaultConfig()
	case err != nil:
		m.config = defaultConfig()
		problem = types.NewAppErrorWithDetails(types.ErrConfig, "failed to read config file", m.configPath, err)
	default:
		cfg := &types.Config{}
		if err := json.Unmarshal(data, cfg); err != nil {
			cfg = defaultConfig()
			problem = types.NewAppErrorWithDetails(types.ErrConfig, "invalid config file", m.configPath, err)
		}
		m.config = cfg
	}
	applyDefaults(m.config)

	m.env = map[string]string{}
	if m.envFile != "" {
		values, err := godotenv.Read(m.envFile)
		switch {
		case err == nil:
			m.env = values
			logger.Debug("loaded env file", logger.String("path", m.envFile), logger.Int("keys", len(values)))
		case !os.IsNotExist(err) && problem == nil:
			problem = types.NewAppErrorWithDetails(types.ErrConfig, "invalid env file", m.envFile, err)
		}
	}
	return problem
}

func applyDefaults(c *types.Config) {
	d := defaultConfig()
	if c.OpenAIModel == "" {
		c.OpenAIModel = d.OpenAIModel
	}
	if c.OpenAIBaseURL == "" {
		c.OpenAIBaseURL = d.OpenAIBaseURL
	}
	if c.Temperature <= 0 {
		c.Temperature = d.Temperature
	}
	if c.TargetLanguage == "" {
		c.TargetLanguage = d.TargetLanguage
	}
	if c.BatchMaxChars <= 0 {
		c.BatchMaxChars = d.BatchMaxChars
	}
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.InterBatchDelayMs < 0 {
		c.InterBatchDelayMs = d.InterBatchDelayMs
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.RequestTimeoutSec <= 0 {
		c.RequestTimeoutSec = d.RequestTimeoutSec
	}
	if c.LogFilePath == "" {
		c.LogFilePath = d.LogFilePath
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

// Save writes the configuration with owner-only permissions.
func (m *ConfigManager) Save() error {
	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Error("failed to create config directory", err, logger.String("dir", dir))
		return types.NewAppError(types.ErrConfig, "failed to create config directory", err)
	}

	data, err := json.MarshalIndent(m.GetConfig(), "", "  ")
	if err != nil {
		return types.NewAppError(types.ErrConfig, "failed to marshal config", err)
	}
	if err := os.WriteFile(m.configPath, data, 0600); err != nil {
		logger.Error("failed to write config file", err, logger.String("path", m.configPath))
		return types.NewAppError(types.ErrConfig, "failed to write config file", err)
	}

	logger.Info("configuration saved", logger.String("path", m.configPath))
	return nil
}

// lookup prefers the process environment, then the .env file.
func (m *ConfigManager) lookup(key string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return m.env[key]
}

// GetAPIKey returns the config file key, falling back to OPENAI_API_KEY.
func (m *ConfigManager) GetAPIKey() string {
	if m.config != nil && m.config.OpenAIAPIKey != "" {
		return m.config.OpenAIAPIKey
	}
	return m.lookup(EnvOpenAIAPIKey)
}

// GetBaseURL returns OPENAI_BASE_URL when set, otherwise the configured URL.
func (m *ConfigManager) GetBaseURL() string {
	if v := m.lookup(EnvOpenAIBaseURL); v != "" {
		return v
	}
	if m.config != nil && m.config.OpenAIBaseURL != "" {
		return m.config.OpenAIBaseURL
	}
	return DefaultBaseURL
}

// GetModel returns OPENAI_MODEL when set, otherwise the configured model.
func (m *ConfigManager) GetModel() string {
	if v := m.lookup(EnvOpenAIModel); v != "" {
		return v
	}
	if m.config != nil && m.config.OpenAIModel != "" {
		return m.config.OpenAIModel
	}
	return DefaultModel
}

// GetConfig returns the current configuration.
func (m *ConfigManager) GetConfig() *types.Config {
	if m.config == nil {
		return defaultConfig()
	}
	return m.config
}

// Resolved returns a copy of the configuration with environment
// overrides applied to the credential and endpoint fields.
func (m *ConfigManager) Resolved() *types.Config {
	c := *m.GetConfig()
	c.OpenAIAPIKey = m.GetAPIKey()
	c.OpenAIBaseURL = m.GetBaseURL()
	c.OpenAIModel = m.GetModel()
	return &c
}

// SetConfig sets the entire configuration.
func (m *ConfigManager) SetConfig(config *types.Config) {
	m.config = config
}

// GetConfigPath returns the path to the config file.
func (m *ConfigManager) GetConfigPath() string {
	return m.configPath
}

// SetAPIKey stores the key and saves the configuration.
func (m *ConfigManager) SetAPIKey(key string) error {
	if m.config == nil {
		m.config = defaultConfig()
	}
	m.config.OpenAIAPIKey = key
	return m.Save()
}
