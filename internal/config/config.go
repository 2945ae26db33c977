package config

import (
	"errors"
	"fmt"
	"os"

	"gameshelf/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Google     GoogleConfig     `yaml:"google"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Rental     RentalConfig     `yaml:"rental"`
	Exports    ExportConfig     `yaml:"exports"`
	Admins     []string         `yaml:"admins"`
	Games      []models.Game    `yaml:"games"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type RentalConfig struct {
	MaxRentalDays int `yaml:"max_rental_days"`
	RateLimit     int `yaml:"rate_limit"`
	RateWindow    int `yaml:"rate_window"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	GRPC      APIGRPCConfig      `yaml:"grpc"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIGRPCConfig struct {
	Enabled    bool         `yaml:"enabled"`
	Port       int          `yaml:"port"`
	Reflection bool         `yaml:"reflection"`
	TLS        APITLSConfig `yaml:"tls"`
}

type APITLSConfig struct {
	Enabled           bool   `yaml:"enabled"`
	CertFile          string `yaml:"cert_file"`
	KeyFile           string `yaml:"key_file"`
	ClientCAFile      string `yaml:"client_ca_file"`
	RequireClientCert bool   `yaml:"require_client_cert"`
}

type APIAuthConfig struct {
	Enabled        bool           `yaml:"enabled"`
	HeaderAPIKey   string         `yaml:"header_api_key"`
	HeaderUserID   string         `yaml:"header_user_id"`
	HeaderUserMail string         `yaml:"header_user_email"`
	APIKeys        []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type GoogleConfig struct {
	GoogleCredentialsFile string `yaml:"credentials_file"`
	RosterSpreadSheetID   string `yaml:"roster_spreadsheet_id"`
}

type TelegramConfig struct {
	BotToken    string `yaml:"bot_token"`
	AdminChatID int64  `yaml:"admin_chat_id"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; ignore a missing file
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	return ValidateGames(c.Games)
}

// ValidateGames rejects seed catalogs with zero or duplicate ids and
// unknown status tags.
func ValidateGames(games []models.Game) error {
	gameIDs := make(map[int64]bool)
	for _, game := range games {
		if game.ID == 0 {
			return fmt.Errorf("game '%s' has invalid ID 0", game.Name)
		}
		if gameIDs[game.ID] {
			return fmt.Errorf("duplicate game ID found: %d", game.ID)
		}
		if game.Status != "" && !game.Status.Valid() {
			return fmt.Errorf("game '%s' has unknown status: %q", game.Name, game.Status)
		}
		gameIDs[game.ID] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 8081
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderUserID == "" {
		c.API.Auth.HeaderUserID = "x-user-id"
	}
	if c.API.Auth.HeaderUserMail == "" {
		c.API.Auth.HeaderUserMail = "x-user-email"
	}

	if c.Rental.MaxRentalDays == 0 {
		c.Rental.MaxRentalDays = models.MaxRentalDays
	}
	if c.Rental.RateLimit == 0 {
		c.Rental.RateLimit = models.RateLimitRequests
	}
	if c.Rental.RateWindow == 0 {
		c.Rental.RateWindow = models.RateLimitWindow
	}
}
