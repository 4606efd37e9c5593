package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable the service reads.
	EnvPrefix = "DNA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	Session       SessionConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Mail          MailConfig
	Google        GoogleConfig
	Booking       BookingConfig
	Cron          CronConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"DNA_APP_ENV" required:"true"`
	Port         string `envconfig:"DNA_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"DNA_APP_BASE_URL" required:"true"`
	LogLevel     string `envconfig:"DNA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DNA_LOG_WARN_STACK" default:"false"`

	// HQChurchID pins the internal "DNA HQ" church used for demo content.
	HQChurchID string `envconfig:"DNA_HQ_CHURCH_ID"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"DNA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"DNA_DB_DSN"`
	Driver string `envconfig:"DNA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DNA_DB_HOST"`
	LegacyPort     int    `envconfig:"DNA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DNA_DB_USER"`
	LegacyPassword string `envconfig:"DNA_DB_PASSWORD"`
	LegacyName     string `envconfig:"DNA_DB_NAME"`
	LegacySSLMode  string `envconfig:"DNA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DNA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DNA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DNA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DNA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DNA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DNA_REDIS_ADDR"`
	Password     string        `envconfig:"DNA_REDIS_PASSWORD"`
	DB           int           `envconfig:"DNA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DNA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DNA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DNA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DNA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DNA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SessionConfig governs the signed session cookie and the role-resolution cache.
type SessionConfig struct {
	JWTSecret      string        `envconfig:"DNA_SESSION_JWT_SECRET" required:"true"`
	JWTIssuer      string        `envconfig:"DNA_SESSION_JWT_ISSUER" default:"dna-discipleship"`
	CookieName     string        `envconfig:"DNA_SESSION_COOKIE_NAME" default:"dna_session"`
	LegacyCookie   string        `envconfig:"DNA_SESSION_LEGACY_COOKIE_NAME" default:"dna_token"`
	CookieMaxAge   time.Duration `envconfig:"DNA_SESSION_COOKIE_MAX_AGE" default:"720h"`
	CacheTTL       time.Duration `envconfig:"DNA_SESSION_CACHE_TTL" default:"2m"`
	MagicLinkTTL   time.Duration `envconfig:"DNA_MAGIC_LINK_TTL" default:"24h"`
	CookieSecure   bool          `envconfig:"DNA_SESSION_COOKIE_SECURE" default:"true"`
	CookieDomain   string        `envconfig:"DNA_SESSION_COOKIE_DOMAIN"`
	CookieHTTPOnly bool          `envconfig:"DNA_SESSION_COOKIE_HTTP_ONLY" default:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"DNA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"DNA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"DNA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"DNA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"DNA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	MagicLinkWindow     time.Duration `envconfig:"DNA_AUTH_RATE_LIMIT_MAGIC_LINK_WINDOW" default:"5m"`
	MagicLinkEmailLimit int           `envconfig:"DNA_AUTH_RATE_LIMIT_MAGIC_LINK_EMAIL_LIMIT" default:"3"`
	MagicLinkIPLimit    int           `envconfig:"DNA_AUTH_RATE_LIMIT_MAGIC_LINK_IP_LIMIT" default:"20"`
	LoginWindow         time.Duration `envconfig:"DNA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit     int           `envconfig:"DNA_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit        int           `envconfig:"DNA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type MailConfig struct {
	SMTPHost     string        `envconfig:"DNA_SMTP_HOST"`
	SMTPPort     int           `envconfig:"DNA_SMTP_PORT" default:"587"`
	SMTPUser     string        `envconfig:"DNA_SMTP_USER"`
	SMTPPassword string        `envconfig:"DNA_SMTP_PASSWORD"`
	FromAddress  string        `envconfig:"DNA_MAIL_FROM" default:"team@dnadiscipleship.com"`
	FromName     string        `envconfig:"DNA_MAIL_FROM_NAME" default:"DNA Discipleship"`
	ReplyTo      string        `envconfig:"DNA_MAIL_REPLY_TO"`
	SendTimeout  time.Duration `envconfig:"DNA_MAIL_SEND_TIMEOUT" default:"10s"`

	// AdminEmail receives internal alerts (assessment submitted, milestone done).
	AdminEmail string `envconfig:"DNA_MAIL_ADMIN_EMAIL" default:"team@dnadiscipleship.com"`
}

// Enabled reports whether outbound mail is configured at all.
func (m MailConfig) Enabled() bool {
	return m.SMTPHost != ""
}

type GoogleConfig struct {
	ClientID     string `envconfig:"DNA_GOOGLE_CLIENT_ID"`
	ClientSecret string `envconfig:"DNA_GOOGLE_CLIENT_SECRET"`
	RedirectURI  string `envconfig:"DNA_GOOGLE_REDIRECT_URI"`
	CalendarID   string `envconfig:"DNA_GOOGLE_CALENDAR_ID" default:"primary"`
}

// Enabled reports whether the calendar integration can run.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

type BookingConfig struct {
	DiscoveryCallURL string `envconfig:"DNA_BOOKING_DISCOVERY_URL"`
	StrategyCallURL  string `envconfig:"DNA_BOOKING_STRATEGY_URL"`

	// TrainingManualURL is mailed to participants when they finish the assessment.
	TrainingManualURL string `envconfig:"DNA_BOOKING_TRAINING_MANUAL_URL"`
}

type CronConfig struct {
	Interval              time.Duration `envconfig:"DNA_CRON_INTERVAL" default:"15m"`
	LockTTL               time.Duration `envconfig:"DNA_CRON_LOCK_TTL" default:"10m"`
	MetricsPort           string        `envconfig:"DNA_CRON_METRICS_PORT" default:"9091"`
	NotificationRetention time.Duration `envconfig:"DNA_NOTIFICATION_LOG_RETENTION" default:"2160h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DNA_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		"DNA_DB_HOST": db.LegacyHost,
		"DNA_DB_USER": db.LegacyUser,
		"DNA_DB_NAME": db.LegacyName,
	}
	for _, key := range []string{"DNA_DB_HOST", "DNA_DB_USER", "DNA_DB_NAME"} {
		if legacyValues[key] == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either DNA_DB_DSN or %s are required", strings.Join(missing, ", "))
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
