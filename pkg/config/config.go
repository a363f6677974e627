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
	JWT          JWTConfig
	Access       AccessConfig
	Reservations ReservationConfig
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
	Env          string `envconfig:"ESTOQUE_APP_ENV" required:"true"`
	Port         string `envconfig:"ESTOQUE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ESTOQUE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ESTOQUE_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"ESTOQUE_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ESTOQUE_DB_DSN"`
	Driver string `envconfig:"ESTOQUE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"ESTOQUE_DB_HOST"`
	Port     int    `envconfig:"ESTOQUE_DB_PORT" default:"5432"`
	User     string `envconfig:"ESTOQUE_DB_USER"`
	Password string `envconfig:"ESTOQUE_DB_PASSWORD"`
	Name     string `envconfig:"ESTOQUE_DB_NAME"`
	SSLMode  string `envconfig:"ESTOQUE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ESTOQUE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ESTOQUE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ESTOQUE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ESTOQUE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ESTOQUE_REDIS_URL"`
	Address      string        `envconfig:"ESTOQUE_REDIS_ADDR"`
	Password     string        `envconfig:"ESTOQUE_REDIS_PASSWORD"`
	DB           int           `envconfig:"ESTOQUE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ESTOQUE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ESTOQUE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ESTOQUE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ESTOQUE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ESTOQUE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig describes how tokens minted by the external auth provider are
// verified. The API never issues credentials itself.
type JWTConfig struct {
	Secret string `envconfig:"ESTOQUE_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"ESTOQUE_JWT_ISSUER"`
}

// AccessConfig carries the privileged-user authorization list.
type AccessConfig struct {
	MasterEmails []string `envconfig:"ESTOQUE_MASTER_EMAILS"`
}

type ReservationConfig struct {
	TTL time.Duration `envconfig:"ESTOQUE_RESERVATION_TTL" default:"168h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ESTOQUE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
