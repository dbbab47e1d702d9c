package config

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
	"thirdcoast.systems/channelscribe/internal/drive"
	"thirdcoast.systems/channelscribe/pkg/encryption"
)

type Config struct {
	// WebServer Configuration
	WebServerPort int    `mapstructure:"WEBSERVER_PORT" validate:"gte=0,lte=65535"`
	SessionSecret string `mapstructure:"SESSION_SECRET"`

	// Pipeline Configuration
	OutputDir          string `mapstructure:"OUTPUT_DIR" validate:"required"`
	ResultsDir         string `mapstructure:"RESULTS_DIR" validate:"required"`
	DefaultOutputFile  string `mapstructure:"DEFAULT_OUTPUT_FILE" validate:"required"`
	TranscriptLanguage string `mapstructure:"TRANSCRIPT_LANGUAGE" validate:"required,bcp47_language_tag"`
	YtDlpPath          string `mapstructure:"YTDLP_PATH"`

	// Google Drive Configuration
	DriveCredentialsFile string `mapstructure:"DRIVE_CREDENTIALS_FILE"`
	DriveTokenFile       string `mapstructure:"DRIVE_TOKEN_FILE" validate:"required"`
	DriveFolderID        string `mapstructure:"DRIVE_FOLDER_ID"`
	DriveRedirectURL     string `mapstructure:"DRIVE_REDIRECT_URL" validate:"omitempty,url"`
	// DriveTokenKey (base64 or hex, 32 bytes) encrypts the cached token.
	DriveTokenKey string `mapstructure:"DRIVE_TOKEN_KEY"`

	// Page Configuration
	BackgroundImage string `mapstructure:"BACKGROUND_IMAGE"`
	PageNotice      string `mapstructure:"PAGE_NOTICE"`

	// Database Configuration (optional; enables run history)
	DatabaseDSN     string `mapstructure:"DATABASE_DSN"`
	DatabaseRetries int    `mapstructure:"DATABASE_RETRIES"`
}

// DriveOptions builds the uploader options implied by the configuration.
func (c Config) DriveOptions() ([]drive.Option, error) {
	if c.DriveTokenKey == "" {
		return nil, nil
	}
	m, err := encryption.NewManagerFromKey(c.DriveTokenKey)
	if err != nil {
		return nil, fmt.Errorf("DRIVE_TOKEN_KEY: %w", err)
	}
	return []drive.Option{drive.WithTokenEncryption(m)}, nil
}

// HistoryEnabled reports whether runs should be recorded in Postgres.
func (c Config) HistoryEnabled() bool {
	return c.DatabaseDSN != ""
}

// LanguageTag returns the parsed transcript language, falling back to English.
func (c Config) LanguageTag() language.Tag {
	tag, err := language.Parse(c.TranscriptLanguage)
	if err != nil {
		return language.English
	}
	return tag
}

// use reflect to bind environment variables based on mapstructure tags
func bindEnv(c Config) {
	val := reflect.ValueOf(c)
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		fieldVal := val.Field(i)
		tag := field.Tag.Get("mapstructure")

		if tag != "" {
			viper.BindEnv(tag)
		}

		// Handle nested structs
		if field.Type.Kind() == reflect.Struct && tag == "" {
			nestedTyp := fieldVal.Type()
			for j := 0; j < fieldVal.NumField(); j++ {
				nestedField := nestedTyp.Field(j)
				nestedTag := nestedField.Tag.Get("mapstructure")
				if nestedTag != "" {
					viper.BindEnv(nestedTag)
				}
			}
		}
	}
	slog.Debug("Environment variables bound")
}

func LoadConfig(ctx context.Context) (*Config, error) {
	// A .env file is optional; real environment variables win.
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded .env file")
	}

	bindEnv(Config{})
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("WEBSERVER_PORT", 8080)
	viper.SetDefault("OUTPUT_DIR", "transcripts")
	viper.SetDefault("RESULTS_DIR", ".")
	viper.SetDefault("DEFAULT_OUTPUT_FILE", "combined_transcripts.txt")
	viper.SetDefault("TRANSCRIPT_LANGUAGE", "en")
	viper.SetDefault("YTDLP_PATH", "yt-dlp")
	viper.SetDefault("DRIVE_CREDENTIALS_FILE", "credentials.json")
	viper.SetDefault("DRIVE_TOKEN_FILE", "token.json")
	viper.SetDefault("DRIVE_FOLDER_ID", "1QpJxFsWU6INW0aLQdDrHVZ9qZ6QQf0zw")
	viper.SetDefault("BACKGROUND_IMAGE", "assets/youtube_bg.webp")
	viper.SetDefault("DATABASE_RETRIES", 10)

	cfg := Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	slog.Info("Loaded configuration",
		"port", cfg.WebServerPort,
		"output_dir", cfg.OutputDir,
		"language", cfg.TranscriptLanguage,
		"history", cfg.HistoryEnabled(),
	)

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
