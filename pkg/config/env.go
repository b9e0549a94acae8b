package config

const EnvPrefix = "CRM"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	DefaultSQLiteDSN = "file:crm.db?cache=shared&_fk=1"
)

const (
	SnapshotBackendDB    = "db"
	SnapshotBackendRedis = "redis"
)

const (
	EnvAppEnv   = "CRM_APP_ENV"
	EnvPort     = "CRM_APP_PORT"
	EnvLogLevel = "CRM_LOG_LEVEL"

	EnvDBDSN    = "CRM_DB_DSN"
	EnvDBDriver = "CRM_DB_DRIVER"
	EnvDBHost   = "CRM_DB_HOST"
	EnvDBUser   = "CRM_DB_USER"
	EnvDBName   = "CRM_DB_NAME"

	EnvRedisURL  = "CRM_REDIS_URL"
	EnvRedisAddr = "CRM_REDIS_ADDR"

	EnvIdentitySecret = "CRM_IDENTITY_JWT_SECRET"
	EnvIdentityIssuer = "CRM_IDENTITY_ISSUER"

	EnvSnapshotBackend = "CRM_SNAPSHOT_BACKEND"
	EnvUseSQLite       = "CRM_USE_SQLITE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
