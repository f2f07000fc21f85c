package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Media         MediaConfig
	Reports       ReportsConfig
	History       HistoryConfig
	CORS          CORSConfig
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
	Env          string `envconfig:"RUTAVENTAS_APP_ENV" required:"true"`
	Port         string `envconfig:"RUTAVENTAS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"RUTAVENTAS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RUTAVENTAS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"RUTAVENTAS_DB_DSN"`
	Driver string `envconfig:"RUTAVENTAS_DB_DRIVER" default:"postgres"`
	// Schema pins the postgres search_path; empty keeps the server default.
	Schema string `envconfig:"RUTAVENTAS_DB_SCHEMA"`

	LegacyHost     string `envconfig:"RUTAVENTAS_DB_HOST"`
	LegacyPort     int    `envconfig:"RUTAVENTAS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RUTAVENTAS_DB_USER"`
	LegacyPassword string `envconfig:"RUTAVENTAS_DB_PASSWORD"`
	LegacyName     string `envconfig:"RUTAVENTAS_DB_NAME"`
	LegacySSLMode  string `envconfig:"RUTAVENTAS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RUTAVENTAS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RUTAVENTAS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RUTAVENTAS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RUTAVENTAS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded sqlite engine.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"RUTAVENTAS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"RUTAVENTAS_REDIS_ADDR"`
	Password     string        `envconfig:"RUTAVENTAS_REDIS_PASSWORD"`
	DB           int           `envconfig:"RUTAVENTAS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RUTAVENTAS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RUTAVENTAS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RUTAVENTAS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RUTAVENTAS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RUTAVENTAS_REDIS_WRITE_TIMEOUT" default:"5s"`
	// RouteLockTTL bounds how long a route edit lock survives a crashed holder.
	RouteLockTTL time.Duration `envconfig:"RUTAVENTAS_REDIS_ROUTE_LOCK_TTL" default:"30s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"RUTAVENTAS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"RUTAVENTAS_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"RUTAVENTAS_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"RUTAVENTAS_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"RUTAVENTAS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"RUTAVENTAS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"RUTAVENTAS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"RUTAVENTAS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"RUTAVENTAS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"RUTAVENTAS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit int           `envconfig:"RUTAVENTAS_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"RUTAVENTAS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type MediaConfig struct {
	Root          string `envconfig:"RUTAVENTAS_MEDIA_ROOT" default:"media"`
	PublicBaseURL string `envconfig:"RUTAVENTAS_MEDIA_PUBLIC_BASE_URL" default:"/media"`
	MaxUploadMB   int    `envconfig:"RUTAVENTAS_MAX_UPLOAD_MB" default:"20"`
}

// MaxUploadBytes converts the configured upload ceiling into bytes.
func (m MediaConfig) MaxUploadBytes() int64 {
	if m.MaxUploadMB <= 0 {
		return 20 << 20
	}
	return int64(m.MaxUploadMB) << 20
}

type ReportsConfig struct {
	// Dir defaults to the OS temp dir when empty.
	Dir string `envconfig:"RUTAVENTAS_REPORTS_DIR"`
}

type HistoryConfig struct {
	ArchiveOnRecorrido bool `envconfig:"RUTAVENTAS_HISTORY_ARCHIVE_ON_RECORRIDO" default:"true"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"RUTAVENTAS_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"RUTAVENTAS_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
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

// ConnectionDSN returns the DSN handed to the driver, with the schema pinned
// through search_path when one is configured.
func (db DBConfig) ConnectionDSN() string {
	schema := strings.TrimSpace(db.Schema)
	if schema == "" || db.IsSQLite() {
		return db.DSN
	}
	if strings.Contains(db.DSN, "://") {
		u, err := url.Parse(db.DSN)
		if err != nil {
			return db.DSN
		}
		q := u.Query()
		q.Set("search_path", schema)
		u.RawQuery = q.Encode()
		return u.String()
	}
	return strings.TrimSpace(db.DSN) + " search_path=" + schema
}
