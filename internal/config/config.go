package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	SSLDisable    = "disable"
	SSLRequire    = "require"
	SSLVerifyFull = "verify-full"
)

const (
	ProviderCloudinary = "cloudinary"
	ProviderS3         = "s3"
	ProviderMinio      = "minio"
	ProviderLocal      = "local"
)

type Config struct {
	Port          string
	LogLevel      string
	CORSOrigins   []string
	MaxUploadMB   int64
	UploadTimeout time.Duration
	ServeWeb      bool
	Database      *Database
	Storage       *Storage
}

type Database struct {
	URL      string
	SSLMode  string
	MaxConns int32
}

type Storage struct {
	Provider string

	// cloudinary
	CloudName string
	APIKey    string
	APISecret string
	Folder    string

	// s3 / minio
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PublicURL string

	// local
	LocalDir string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "3000")
	v.SetDefault("log_level", "info")
	v.SetDefault("cors_allowed_origins", "*")
	v.SetDefault("max_upload_mb", 10)
	v.SetDefault("upload_timeout", "30s")
	v.SetDefault("serve_web", true)
	v.SetDefault("database_ssl_mode", SSLDisable)
	v.SetDefault("database_max_conns", 10)
	v.SetDefault("image_provider", ProviderCloudinary)
	v.SetDefault("cloudinary_folder", "lost-and-found")
	v.SetDefault("storage_region", "us-east-1")
	v.SetDefault("storage_use_ssl", true)
	v.SetDefault("storage_local_dir", "./uploads")
}

// Load reads the configuration from the environment and, if path is set,
// from a config file. Environment variables win over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Port:          v.GetString("port"),
		LogLevel:      strings.ToLower(v.GetString("log_level")),
		CORSOrigins:   splitList(v.GetString("cors_allowed_origins")),
		MaxUploadMB:   v.GetInt64("max_upload_mb"),
		UploadTimeout: v.GetDuration("upload_timeout"),
		ServeWeb:      v.GetBool("serve_web"),
		Database:      getDatabaseConfig(v),
		Storage:       getStorageConfig(v),
	}
}

func getDatabaseConfig(v *viper.Viper) *Database {
	return &Database{
		URL:      v.GetString("database_url"),
		SSLMode:  strings.ToLower(v.GetString("database_ssl_mode")),
		MaxConns: v.GetInt32("database_max_conns"),
	}
}

func getStorageConfig(v *viper.Viper) *Storage {
	return &Storage{
		Provider:  strings.ToLower(v.GetString("image_provider")),
		CloudName: v.GetString("cloudinary_cloud_name"),
		APIKey:    v.GetString("cloudinary_api_key"),
		APISecret: v.GetString("cloudinary_api_secret"),
		Folder:    v.GetString("cloudinary_folder"),
		Endpoint:  v.GetString("storage_endpoint"),
		Region:    v.GetString("storage_region"),
		Bucket:    v.GetString("storage_bucket"),
		AccessKey: v.GetString("storage_access_key"),
		SecretKey: v.GetString("storage_secret_key"),
		UseSSL:    v.GetBool("storage_use_ssl"),
		PublicURL: strings.TrimRight(v.GetString("storage_public_url"), "/"),
		LocalDir:  v.GetString("storage_local_dir"),
	}
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is empty")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}
	if c.UploadTimeout <= 0 {
		return fmt.Errorf("UPLOAD_TIMEOUT must be positive, got %s", c.UploadTimeout)
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	return c.Storage.Validate()
}

func (d *Database) Validate() error {
	if d.URL == "" {
		return errors.New("DATABASE_URL is not set")
	}
	switch d.SSLMode {
	case SSLDisable, SSLRequire, SSLVerifyFull:
	default:
		return fmt.Errorf("unsupported DATABASE_SSL_MODE: %q", d.SSLMode)
	}
	if d.MaxConns <= 0 {
		return fmt.Errorf("DATABASE_MAX_CONNS must be positive, got %d", d.MaxConns)
	}
	return nil
}

func (s *Storage) Validate() error {
	switch s.Provider {
	case ProviderCloudinary:
		if s.CloudName == "" || s.APIKey == "" || s.APISecret == "" {
			return errors.New("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required for cloudinary")
		}
	case ProviderS3:
		if s.Bucket == "" || s.AccessKey == "" || s.SecretKey == "" {
			return errors.New("STORAGE_BUCKET, STORAGE_ACCESS_KEY and STORAGE_SECRET_KEY are required for s3")
		}
	case ProviderMinio:
		if s.Endpoint == "" || s.Bucket == "" || s.AccessKey == "" || s.SecretKey == "" {
			return errors.New("STORAGE_ENDPOINT, STORAGE_BUCKET, STORAGE_ACCESS_KEY and STORAGE_SECRET_KEY are required for minio")
		}
	case ProviderLocal:
		if s.LocalDir == "" {
			return errors.New("STORAGE_LOCAL_DIR is empty")
		}
	default:
		return fmt.Errorf("unsupported IMAGE_PROVIDER: %q", s.Provider)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
