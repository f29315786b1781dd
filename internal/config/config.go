package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SecurityConfig struct {
	JWTSecret  string
	SessionTTL time.Duration
}

// StorageConfig selects where finished avatars live. Driver is "disk" or
// "s3"; the S3 fields are only consulted for the latter.
type StorageConfig struct {
	Driver        string
	TempDir       string
	AvatarDir     string
	PublicBaseURL string
	MaxUploadSize int64

	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
}

type MailConfig struct {
	APIKey        string
	From          string
	LinkBaseURL   string
	Stream        string
	ClaimInterval time.Duration
	ResendMax     int
	ResendWindow  time.Duration
}

type JobsConfig struct {
	TempSweepSpec string
	TempMaxAge    time.Duration
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Security         SecurityConfig
	Storage          StorageConfig
	Mail             MailConfig
	Jobs             JobsConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("CONTACTS")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 3000)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.maxopen", 20)
	v.SetDefault("postgres.maxidle", 5)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("security.sessionttl", "24h")

	v.SetDefault("storage.driver", "disk")
	v.SetDefault("storage.tempdir", "tmp")
	v.SetDefault("storage.avatardir", "public/avatars")
	v.SetDefault("storage.publicbaseurl", "http://localhost:3000")
	v.SetDefault("storage.maxuploadsize", 5<<20)
	v.SetDefault("storage.bucket", "contacthub-avatars")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("mail.from", "no-reply@contacthub.local")
	v.SetDefault("mail.linkbaseurl", "http://localhost:3000")
	v.SetDefault("mail.stream", "mail:outbound")
	v.SetDefault("mail.claiminterval", "1m")
	v.SetDefault("mail.resendmax", 3)
	v.SetDefault("mail.resendwindow", "15m")

	v.SetDefault("jobs.tempsweepspec", "0 */10 * * * *")
	v.SetDefault("jobs.tempmaxage", "1h")
}
