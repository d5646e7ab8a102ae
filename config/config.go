package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Minio     MinioConfig     `yaml:"minio"`
	Assistant AssistantConfig `yaml:"assistant"`
	Auth      AuthConfig      `yaml:"auth"`
	Google    GoogleConfig    `yaml:"google"`
	Database  DatabaseConfig  `yaml:"database"`
	Store     StoreConfig     `yaml:"store"`
	Checklist ChecklistConfig `yaml:"checklist"`
	Log       LogConfig       `yaml:"log"`
	Users     []User          `yaml:"users"`
}

type ServerConfig struct {
	Port            int `yaml:"port"`
	RateLimit       int `yaml:"rate_limit"`       // requests per minute per client IP
	MaxUploadMB     int `yaml:"max_upload_mb"`    // multipart limit for /upload
	ShutdownTimeout int `yaml:"shutdown_timeout"` // seconds
}

// MinioConfig is optional: uploads are only archived when Endpoint is set.
type MinioConfig struct {
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Bucket     string `yaml:"bucket"`
	UseSSL     bool   `yaml:"use_ssl"`
	ExpireDays int    `yaml:"expire_days"`
}

// AssistantConfig configures the model behind /upload verification and /chat.
// An empty APIKey selects the offline keyword verifier and canned answers.
type AssistantConfig struct {
	APIKey       string  `yaml:"api_key"`
	Model        string  `yaml:"model"`
	Temperature  float32 `yaml:"temperature"`
	MaxTokens    int32   `yaml:"max_tokens"`
	HistoryTurns int     `yaml:"history_turns"`
	RetrieveK    int     `yaml:"retrieve_k"` // reference passages per query, negative disables retrieval
	Source       string  `yaml:"source"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
	CookieName       string `yaml:"cookie_name"`
}

type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	TokenInfoURL string `yaml:"token_info_url"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, postgres
	DSN    string `yaml:"dsn"`
}

type StoreConfig struct {
	MaxDocuments int `yaml:"max_documents"`
}

type ChecklistConfig struct {
	Path string `yaml:"path"` // optional override of the bundled table
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// User is an account seeded into the identity store at startup.
type User struct {
	Email       string `yaml:"email"`
	Password    string `yaml:"password"`
	DisplayName string `yaml:"display_name"`
}

var GlobalConfig *Config

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	GlobalConfig = &cfg
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = 100
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = 10
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 5
	}
	if c.Minio.ExpireDays == 0 {
		c.Minio.ExpireDays = 7
	}
	if c.Assistant.Model == "" {
		c.Assistant.Model = "gemini-2.5-flash"
	}
	if c.Assistant.Temperature == 0 {
		c.Assistant.Temperature = 0.7
	}
	if c.Assistant.MaxTokens == 0 {
		c.Assistant.MaxTokens = 512
	}
	if c.Assistant.HistoryTurns == 0 {
		c.Assistant.HistoryTurns = 10
	}
	if c.Assistant.RetrieveK == 0 {
		c.Assistant.RetrieveK = 3
	}
	if c.Assistant.Source == "" {
		c.Assistant.Source = "Customs Clearance AI"
	}
	if c.Auth.TokenExpireHours == 0 {
		c.Auth.TokenExpireHours = 24
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "cc_session"
	}
	if c.Google.TokenInfoURL == "" {
		c.Google.TokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = "clearance.db"
	}
	if c.Store.MaxDocuments == 0 {
		c.Store.MaxDocuments = 500
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// FindUser finds a seeded user by email, case-insensitively
func (c *Config) FindUser(email string) *User {
	for i := range c.Users {
		if strings.EqualFold(c.Users[i].Email, email) {
			return &c.Users[i]
		}
	}
	return nil
}
