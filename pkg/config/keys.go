package config

// EnvPrefix is applied by envconfig on top of the explicit tags below.
const EnvPrefix = "ESTOQUE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv    = "ESTOQUE_APP_ENV"
	EnvPort      = "ESTOQUE_APP_PORT"
	EnvDBDSN     = "ESTOQUE_DB_DSN"
	EnvDBHost    = "ESTOQUE_DB_HOST"
	EnvDBUser    = "ESTOQUE_DB_USER"
	EnvDBName    = "ESTOQUE_DB_NAME"
	EnvRedisURL  = "ESTOQUE_REDIS_URL"
	EnvJWTSecret = "ESTOQUE_JWT_SECRET"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
