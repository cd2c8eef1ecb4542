package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "khiels"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "KHIELS_DB_DSN"
	EnvDBHost = "KHIELS_DB_HOST"
	EnvDBUser = "KHIELS_DB_USER"
	EnvDBName = "KHIELS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	PayOS        PayOSConfig
	Sendgrid     SendgridConfig
	Email        EmailConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"KHIELS_APP_ENV" required:"true"`
	Port         string `envconfig:"KHIELS_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"KHIELS_APP_BASE_URL" default:"http://localhost:8080"`
	LogLevel     string `envconfig:"KHIELS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KHIELS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"KHIELS_DB_DSN"`
	Driver string `envconfig:"KHIELS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"KHIELS_DB_HOST"`
	LegacyPort     int    `envconfig:"KHIELS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"KHIELS_DB_USER"`
	LegacyPassword string `envconfig:"KHIELS_DB_PASSWORD"`
	LegacyName     string `envconfig:"KHIELS_DB_NAME"`
	LegacySSLMode  string `envconfig:"KHIELS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KHIELS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KHIELS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KHIELS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KHIELS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KHIELS_REDIS_URL"`
	Address      string        `envconfig:"KHIELS_REDIS_ADDR"`
	Password     string        `envconfig:"KHIELS_REDIS_PASSWORD"`
	DB           int           `envconfig:"KHIELS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KHIELS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KHIELS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KHIELS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KHIELS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KHIELS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"KHIELS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"KHIELS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"KHIELS_JWT_EXPIRATION_MINUTES" default:"60"`
}

// PayOSConfig holds the hosted payment gateway credentials. Secrets carry
// no defaults and must come from the environment.
type PayOSConfig struct {
	BaseURL     string        `envconfig:"KHIELS_PAYOS_BASE_URL" default:"https://api-merchant.payos.vn"`
	ClientID    string        `envconfig:"KHIELS_PAYOS_CLIENT_ID"`
	APIKey      string        `envconfig:"KHIELS_PAYOS_API_KEY"`
	ChecksumKey string        `envconfig:"KHIELS_PAYOS_CHECKSUM_KEY"`
	ReturnURL   string        `envconfig:"KHIELS_PAYOS_RETURN_URL"`
	CancelURL   string        `envconfig:"KHIELS_PAYOS_CANCEL_URL"`
	Timeout     time.Duration `envconfig:"KHIELS_PAYOS_TIMEOUT" default:"10s"`
}

type SendgridConfig struct {
	APIKey      string `envconfig:"KHIELS_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"KHIELS_SENDGRID_FROM_EMAIL"`
	FromName    string `envconfig:"KHIELS_SENDGRID_FROM_NAME" default:"Khiels Skincare"`
}

type EmailConfig struct {
	TemplateDir string `envconfig:"KHIELS_EMAIL_TEMPLATE_DIR" default:"assets/emailtemplates"`
}

type CronConfig struct {
	Interval          time.Duration `envconfig:"KHIELS_CRON_INTERVAL" default:"1h"`
	PendingPaymentTTL time.Duration `envconfig:"KHIELS_CRON_PENDING_PAYMENT_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"KHIELS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"KHIELS_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
