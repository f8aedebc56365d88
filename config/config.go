package config

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-provider-api/auth"
	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	// EnvPrefix and EnvDelimiter map APP_AUTH__SIGNING_KEY to auth.signing_key
	EnvPrefix    = "APP_"
	EnvDelimiter = "__"
)

// Config is the application configuration
type Config struct {
	App      App           `koanf:"app" yaml:"app" json:"app"`
	HTTP     HTTP          `koanf:"http" yaml:"http" json:"http"`
	Database Database      `koanf:"database" yaml:"database" json:"database"`
	Auth     Auth          `koanf:"auth" yaml:"auth" json:"auth"`
	Policies []auth.Policy `koanf:"policies" yaml:"policies" json:"policies"`
}

type App struct {
	Name        string `koanf:"name" yaml:"name" json:"name"`
	Environment string `koanf:"environment" yaml:"environment" json:"environment"`
	Debug       bool   `koanf:"debug" yaml:"debug" json:"debug"`
}

type HTTP struct {
	Address         string `koanf:"address" yaml:"address" json:"address"`
	ShutdownTimeout string `koanf:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	Metrics         bool   `koanf:"metrics" yaml:"metrics" json:"metrics"`
}

type Database struct {
	Driver         string `koanf:"driver" yaml:"driver" json:"driver"`
	DSN            string `koanf:"dsn" yaml:"dsn" json:"dsn"`
	Debug          bool   `koanf:"debug" yaml:"debug" json:"debug"`
	PingTimeout    string `koanf:"ping_timeout" yaml:"ping_timeout" json:"ping_timeout"`
	OtelIdentifier string `koanf:"otel_identifier" yaml:"otel_identifier" json:"otel_identifier"`
}

type Auth struct {
	SigningKey       string               `koanf:"signing_key" yaml:"signing_key" json:"signing_key"`
	SigningMethod    string               `koanf:"signing_method" yaml:"signing_method" json:"signing_method"`
	ContextKey       string               `koanf:"context_key" yaml:"context_key" json:"context_key"`
	TokenLookup      string               `koanf:"token_lookup" yaml:"token_lookup" json:"token_lookup"`
	AuthScheme       string               `koanf:"auth_scheme" yaml:"auth_scheme" json:"auth_scheme"`
	Issuer           string               `koanf:"issuer" yaml:"issuer" json:"issuer"`
	Audience         []string             `koanf:"audience" yaml:"audience" json:"audience"`
	ExpirationHours  int                  `koanf:"expiration_hours" yaml:"expiration_hours" json:"expiration_hours"`
	MaxLoginAttempts int                  `koanf:"max_login_attempts" yaml:"max_login_attempts" json:"max_login_attempts"`
	LockoutPeriod    string               `koanf:"lockout_period" yaml:"lockout_period" json:"lockout_period"`
	BcryptCost       int                  `koanf:"bcrypt_cost" yaml:"bcrypt_cost" json:"bcrypt_cost"`
	UseHashid        bool                 `koanf:"use_hashid" yaml:"use_hashid" json:"use_hashid"`
	PasswordPolicy   *auth.PasswordPolicy `koanf:"password_policy" yaml:"password_policy" json:"password_policy"`
	Grants           []auth.ClaimGrant    `koanf:"grants" yaml:"grants" json:"grants"`
}

// Default returns a configuration usable for local development
func Default() Config {
	return Config{
		App: App{
			Name:        "provider-api",
			Environment: EnvDevelopment,
		},
		HTTP: HTTP{
			Address:         ":8080",
			ShutdownTimeout: "10s",
			Metrics:         true,
		},
		Database: Database{
			Driver:      DriverSQLite,
			DSN:         "file:providers.db?cache=shared",
			PingTimeout: "5s",
		},
		Auth: Auth{
			SigningMethod:    "HS256",
			ContextKey:       "user",
			TokenLookup:      "header:Authorization",
			AuthScheme:       "Bearer",
			Issuer:           "provider-api",
			Audience:         []string{"provider-api"},
			ExpirationHours:  1,
			MaxLoginAttempts: 5,
			LockoutPeriod:    auth.DefaultLockoutPeriod,
			BcryptCost:       auth.DefaultPasswordCost,
		},
		Policies: auth.DefaultPolicies(),
	}
}

// Option customizes the go-config container used to load the
// configuration
type Option func(*gconfig.Container[*Config])

// WithLogger sets the logger the container reports provider activity to
func WithLogger(l glog.Logger) Option {
	return func(c *gconfig.Container[*Config]) {
		if l != nil {
			c.WithLogger(l)
		}
	}
}

func newContainer(cfg *Config, opts ...Option) *gconfig.Container[*Config] {
	container := gconfig.New(cfg).
		WithLogger(glog.Nop())
	for _, opt := range opts {
		opt(container)
	}
	return container
}

// Load reads a YAML file on top of Default. An empty path returns the
// defaults. The result is not validated.
func Load(path string, opts ...Option) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	container := newContainer(&cfg, opts...).
		WithValidation(false).
		WithProvider(gconfig.FileProvider[*Config](path))

	if err := container.Load(context.Background()); err != nil {
		return Config{}, err
	}
	return *container.Raw(), nil
}

// LoadFromEnv loads a .env file when present, reads path when set and
// applies environment overrides before validating the result.
// APP_ prefixed variables map onto keys, e.g. APP_HTTP__ADDRESS, and
// the short names handled by applyEnv win over them.
func LoadFromEnv(path string, opts ...Option) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	var providers []gconfig.ProviderBuilder[*Config]
	if path != "" {
		providers = append(providers, gconfig.FileProvider[*Config](path))
	}
	providers = append(providers, gconfig.EnvProvider[*Config](EnvPrefix, EnvDelimiter))

	container := newContainer(&cfg, opts...).
		WithProvider(providers...).
		WithNormalizer(func(c *Config) error {
			c.applyEnv(os.Getenv)
			return nil
		})

	if err := container.Load(context.Background()); err != nil {
		return Config{}, err
	}
	return *container.Raw(), nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("APP_ENV"); v != "" {
		c.App.Environment = v
	}
	if v := getenv("APP_DEBUG"); v != "" {
		c.App.Debug, _ = strconv.ParseBool(v)
	}
	if v := getenv("HTTP_ADDR"); v != "" {
		c.HTTP.Address = v
	}
	if v := getenv("DATABASE_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := getenv("DATABASE_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := getenv("JWT_SECRET"); v != "" {
		c.Auth.SigningKey = v
	}
	if v := getenv("JWT_ISSUER"); v != "" {
		c.Auth.Issuer = v
	}
	if v := getenv("JWT_AUDIENCE"); v != "" {
		c.Auth.Audience = strings.Split(v, ",")
	}
	if v := getenv("JWT_EXPIRATION_HOURS"); v != "" {
		if hours, err := strconv.Atoi(v); err == nil {
			c.Auth.ExpirationHours = hours
		}
	}
}

// Validate checks the loaded values
func (c Config) Validate() error {
	err := validation.Errors{
		"app": validation.ValidateStruct(&c.App,
			validation.Field(&c.App.Environment, validation.Required),
		),
		"http": validation.ValidateStruct(&c.HTTP,
			validation.Field(&c.HTTP.Address, validation.Required),
			validation.Field(&c.HTTP.ShutdownTimeout, validation.By(isDuration)),
		),
		"database": validation.ValidateStruct(&c.Database,
			validation.Field(&c.Database.Driver, validation.Required, validation.In(DriverSQLite, DriverPostgres)),
			validation.Field(&c.Database.DSN, validation.Required),
			validation.Field(&c.Database.PingTimeout, validation.By(isDuration)),
		),
		"auth": validation.ValidateStruct(&c.Auth,
			validation.Field(&c.Auth.SigningKey, validation.Required, validation.Length(16, 0)),
			validation.Field(&c.Auth.SigningMethod, validation.In("HS256", "HS384", "HS512")),
			validation.Field(&c.Auth.ExpirationHours, validation.Required, validation.Min(1)),
			validation.Field(&c.Auth.MaxLoginAttempts, validation.Min(0)),
			validation.Field(&c.Auth.LockoutPeriod, validation.By(isDuration)),
		),
	}.Filter()

	if err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid configuration")
	}
	return nil
}

func isDuration(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := time.ParseDuration(s); err != nil {
		return errors.New("must be a valid duration", errors.CategoryValidation)
	}
	return nil
}

func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.App.Environment, EnvDevelopment)
}

func (c Config) GetShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.HTTP.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

func (c Config) GetLockout() auth.LockoutOptions {
	return auth.LockoutOptions{
		MaxAttempts: c.Auth.MaxLoginAttempts,
		Period:      c.Auth.LockoutPeriod,
	}
}

func (c Config) GetPasswordPolicy() auth.PasswordPolicy {
	if c.Auth.PasswordPolicy == nil {
		return auth.DefaultPasswordPolicy()
	}
	return *c.Auth.PasswordPolicy
}

func (c Config) GetPolicies() []auth.Policy {
	if len(c.Policies) == 0 {
		return auth.DefaultPolicies()
	}
	return c.Policies
}

var _ auth.Config = Config{}

func (c Config) GetSigningKey() string    { return c.Auth.SigningKey }
func (c Config) GetSigningMethod() string { return c.Auth.SigningMethod }
func (c Config) GetContextKey() string    { return c.Auth.ContextKey }
func (c Config) GetTokenExpiration() int  { return c.Auth.ExpirationHours }
func (c Config) GetTokenLookup() string   { return c.Auth.TokenLookup }
func (c Config) GetAuthScheme() string    { return c.Auth.AuthScheme }
func (c Config) GetIssuer() string        { return c.Auth.Issuer }
func (c Config) GetAudience() []string    { return c.Auth.Audience }

func (d Database) GetDriver() string         { return d.Driver }
func (d Database) GetDSN() string            { return d.DSN }
func (d Database) GetServer() string         { return d.DSN }
func (d Database) GetDebug() bool            { return d.Debug }
func (d Database) GetOtelIdentifier() string { return d.OtelIdentifier }

// GetPingTimeout bounds the connection check made when the client is
// built
func (d Database) GetPingTimeout() time.Duration {
	t, err := time.ParseDuration(d.PingTimeout)
	if err != nil || t <= 0 {
		return 5 * time.Second
	}
	return t
}
