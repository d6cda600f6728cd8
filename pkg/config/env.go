package config

// EnvPrefix is handed to envconfig; every field carries its full variable name.
const EnvPrefix = "AASTA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv            = "AASTA_APP_ENV"
	EnvPort              = "AASTA_APP_PORT"
	EnvDBDSN             = "AASTA_DB_DSN"
	EnvDBHost            = "AASTA_DB_HOST"
	EnvDBUser            = "AASTA_DB_USER"
	EnvDBName            = "AASTA_DB_NAME"
	EnvRedisURL          = "AASTA_REDIS_URL"
	EnvJWTSecret         = "AASTA_JWT_SECRET"
	EnvRazorpayKeyID     = "AASTA_RAZORPAY_KEY_ID"
	EnvRazorpayKeySecret = "AASTA_RAZORPAY_KEY_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
