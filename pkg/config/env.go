package config

const EnvPrefix = "RUTAVENTAS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "RUTAVENTAS_APP_ENV"
	EnvPort     = "RUTAVENTAS_APP_PORT"
	EnvLogLevel = "RUTAVENTAS_LOG_LEVEL"

	EnvDBDSN    = "RUTAVENTAS_DB_DSN"
	EnvDBDriver = "RUTAVENTAS_DB_DRIVER"
	EnvDBSchema = "RUTAVENTAS_DB_SCHEMA"
	EnvDBHost   = "RUTAVENTAS_DB_HOST"
	EnvDBUser   = "RUTAVENTAS_DB_USER"
	EnvDBName   = "RUTAVENTAS_DB_NAME"

	EnvRedisURL = "RUTAVENTAS_REDIS_URL"

	EnvJWTSecret              = "RUTAVENTAS_JWT_SECRET"
	EnvJWTIssuer              = "RUTAVENTAS_JWT_ISSUER"
	EnvJWTExpMins             = "RUTAVENTAS_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "RUTAVENTAS_REFRESH_TOKEN_TTL_MINUTES"

	EnvMediaRoot        = "RUTAVENTAS_MEDIA_ROOT"
	EnvReportsDir       = "RUTAVENTAS_REPORTS_DIR"
	EnvArchiveRecorrido = "RUTAVENTAS_HISTORY_ARCHIVE_ON_RECORRIDO"
	EnvCORSOrigins      = "RUTAVENTAS_CORS_ALLOWED_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
