package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Identity     IdentityConfig
	Snapshots    SnapshotsConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Snapshots.validate(); err != nil {
		return nil, err
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if cfg.Snapshots.Backend == SnapshotBackendRedis && !cfg.Redis.Configured() {
		return nil, fmt.Errorf("%s=%s requires %s or %s", EnvSnapshotBackend, SnapshotBackendRedis, EnvRedisURL, EnvRedisAddr)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CRM_APP_ENV" required:"true"`
	Port         string `envconfig:"CRM_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CRM_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"CRM_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"CRM_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CRM_DB_DSN"`
	Driver string `envconfig:"CRM_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CRM_DB_HOST"`
	LegacyPort     int    `envconfig:"CRM_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CRM_DB_USER"`
	LegacyPassword string `envconfig:"CRM_DB_PASSWORD"`
	LegacyName     string `envconfig:"CRM_DB_NAME"`
	LegacySSLMode  string `envconfig:"CRM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CRM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CRM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CRM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CRM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"CRM_REDIS_URL"`
	Address      string        `envconfig:"CRM_REDIS_ADDR"`
	Password     string        `envconfig:"CRM_REDIS_PASSWORD"`
	DB           int           `envconfig:"CRM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CRM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CRM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CRM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CRM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CRM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Configured reports whether any redis endpoint was supplied.
func (r RedisConfig) Configured() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// IdentityConfig describes how bearer tokens from the external identity
// provider are verified.
type IdentityConfig struct {
	JWTSecret       string `envconfig:"CRM_IDENTITY_JWT_SECRET" required:"true"`
	Issuer          string `envconfig:"CRM_IDENTITY_ISSUER" required:"true"`
	Audience        string `envconfig:"CRM_IDENTITY_AUDIENCE" default:"authenticated"`
	TokenTTLMinutes int    `envconfig:"CRM_IDENTITY_TOKEN_TTL_MINUTES" default:"60"`
}

// TokenTTL returns the access token lifetime configured in minutes.
func (i IdentityConfig) TokenTTL() time.Duration {
	if i.TokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(i.TokenTTLMinutes) * time.Minute
}

type SnapshotsConfig struct {
	Backend string `envconfig:"CRM_SNAPSHOT_BACKEND" default:"db"`
}

func (s *SnapshotsConfig) validate() error {
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	switch s.Backend {
	case "":
		s.Backend = SnapshotBackendDB
	case SnapshotBackendDB, SnapshotBackendRedis:
	default:
		return fmt.Errorf("%s must be %q or %q, got %q", EnvSnapshotBackend, SnapshotBackendDB, SnapshotBackendRedis, s.Backend)
	}
	return nil
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CRM_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CRM_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CRM_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = DefaultSQLiteDSN
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
