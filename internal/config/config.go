package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath            string
	LogDir              string
	CacheDir            string
	ReportDir           string
	HTTPAddr            string
	SettingsFile        string
	EnableMermaidCharts bool

	// Defaults applied when a command does not pass explicit overrides.
	Defaults Settings
	// Settings is the parsed settings file, if any.
	Settings SettingsFile
}

// Load loads the configuration from .env files, environment variables and the
// optional YAML settings file.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables")
	}

	// 3. Resolve data paths
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = "."
	}

	cfg := &AppConfig{
		DataPath:            dataPath,
		LogDir:              getEnv("LOGS_FOLDER", filepath.Join(dataPath, "logs")),
		CacheDir:            filepath.Join(dataPath, "cache"),
		ReportDir:           getEnv("REPORT_DIR", filepath.Join(dataPath, "reports")),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		SettingsFile:        getEnv("EPIC_SETTINGS_FILE", ""),
		EnableMermaidCharts: getEnvBool("ENABLE_MERMAID_CHARTS", true),
		Defaults: Settings{
			TeamMembers: getEnvInt("EPIC_TEAM_MEMBERS", 0),
			Velocity:    getEnvFloat("EPIC_VELOCITY", 0),
		},
	}

	for _, dir := range []string{cfg.CacheDir, cfg.ReportDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Warn().Err(err).Str("path", dir).Msg("Failed to create directory")
		}
	}

	// 4. Settings file overrides environment defaults
	if cfg.SettingsFile != "" {
		file, err := LoadSettingsFile(cfg.SettingsFile)
		if err != nil {
			return nil, err
		}
		cfg.Settings = file
		cfg.Defaults = cfg.Defaults.Merge(file.Defaults())
		log.Debug().Str("path", cfg.SettingsFile).Msg("Loaded settings file")
	}

	if err := cfg.Defaults.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ResolveSettings returns the overrides for a project key: environment and file
// defaults, then the file's project entry.
func (c *AppConfig) ResolveSettings(projectKey string) Settings {
	s := c.Defaults
	if p, ok := c.Settings.Projects[projectKey]; ok {
		s = s.Merge(p)
	}
	return s
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-integer environment value")
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-numeric environment value")
	}
	return fallback
}
