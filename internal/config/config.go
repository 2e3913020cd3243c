package config

import (
	"fmt"
	"os"
	"strings"

	"weightmate/internal/logger"
)

type Config struct {
	Line   LineConfig
	Sheets SheetsConfig
	Server ServerConfig
	Logger LoggerConfig
}

type LineConfig struct {
	ChannelSecret      string
	ChannelAccessToken string
}

type SheetsConfig struct {
	CredentialsJSON string
	SpreadsheetID   string
}

type ServerConfig struct {
	Port          string
	PublicBaseURL string
	GraphDir      string
	GraphFontPath string
}

type LoggerConfig struct {
	Level      logger.LogLevel
	OutputPath string
	Format     string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.LevelDebug
	case "info":
		return logger.LevelInfo
	case "warn", "warning":
		return logger.LevelWarn
	case "error":
		return logger.LevelError
	default:
		return logger.LevelInfo
	}
}

// Load reads configuration from the environment. Startup must fail fast when
// a required variable is missing, so the error names every absent one.
func Load() (*Config, error) {
	cfg := &Config{
		Line: LineConfig{
			ChannelSecret:      os.Getenv("LINE_CHANNEL_SECRET"),
			ChannelAccessToken: os.Getenv("LINE_CHANNEL_ACCESS_TOKEN"),
		},
		Sheets: SheetsConfig{
			CredentialsJSON: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"),
			SpreadsheetID:   os.Getenv("SPREADSHEET_ID"),
		},
		Server: ServerConfig{
			Port:          getEnvOrDefault("PORT", "8080"),
			PublicBaseURL: strings.TrimRight(os.Getenv("PUBLIC_BASE_URL"), "/"),
			GraphDir:      getEnvOrDefault("GRAPH_DIR", "static/graphs"),
			GraphFontPath: os.Getenv("GRAPH_FONT_PATH"),
		},
		Logger: LoggerConfig{
			Level:      parseLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
			OutputPath: getEnvOrDefault("LOG_OUTPUT", "stdout"),
			Format:     getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	var missing []string
	for _, v := range []struct{ name, value string }{
		{"LINE_CHANNEL_SECRET", cfg.Line.ChannelSecret},
		{"LINE_CHANNEL_ACCESS_TOKEN", cfg.Line.ChannelAccessToken},
		{"GOOGLE_APPLICATION_CREDENTIALS_JSON", cfg.Sheets.CredentialsJSON},
		{"SPREADSHEET_ID", cfg.Sheets.SpreadsheetID},
		{"PUBLIC_BASE_URL", cfg.Server.PublicBaseURL},
	} {
		if v.value == "" {
			missing = append(missing, v.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}
