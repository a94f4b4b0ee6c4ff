// Package config loads application settings from defaults, command-line flags,
// a .env file and environment variables, in that order of precedence
// (environment wins), and validates the result.
package config

import (
	"flag"
	"log"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the service.
type Config struct {
	RunAddr             string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	LogLevel            string        `env:"LOG_LEVEL" validate:"loglevel"`
	DatabaseDSN         string        `env:"DATABASE_DSN"`
	DBFileName          string        `env:"FILE_STORAGE_PATH" validate:"omitempty,filepath_creatable"`
	DBConnectionTimeout time.Duration `env:"DB_CONNECTION_TIMEOUT"`
	MigrationsDir       string        `env:"MIGRATIONS_DIR"`

	// TokenSigningSecretKey is the base64-encoded HMAC secret used to sign
	// and verify bearer tokens.
	TokenSigningSecretKey string `env:"TOKEN_SIGNING_SECRET_KEY" validate:"required,base64url"`

	// AuthScheme is the scheme string in the Authorization header. The source
	// system uses a custom "JWT" scheme rather than the standard "Bearer".
	AuthScheme string `env:"AUTH_SCHEME" validate:"required"`

	RapidAPIKey        string `env:"RAPIDAPI_KEY"`
	AirportAPIBaseURL  string `env:"AIRPORT_API_BASE_URL" validate:"url"`
	CountryAPIBaseURL  string `env:"COUNTRY_API_BASE_URL" validate:"url"`
	ProxyClientTimeout time.Duration `env:"PROXY_CLIENT_TIMEOUT"`
}

func validateFilePathCreatable(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	_, err := os.Stat(path)

	return err == nil || os.IsNotExist(err)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[fieldLevel.Field().String()]
}

func validate(cfg *Config) error {
	validate := validator.New()

	if err := validate.RegisterValidation("loglevel", validateLogLevel); err != nil {
		return err
	}

	if err := validate.RegisterValidation("filepath_creatable", validateFilePathCreatable); err != nil {
		return err
	}

	return validate.Struct(cfg)
}

// InitOption configures the behavior of New.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing skips flag.Parse(); tests use it because the test
// binary defines its own flags.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// New builds and validates the configuration.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	cfg := &Config{
		RunAddr:             ":8080",
		LogLevel:            "info",
		DatabaseDSN:         "",
		DBFileName:          "",
		DBConnectionTimeout: 10 * time.Second,
		MigrationsDir:       "migrations",

		// Development default; override in every real deployment.
		TokenSigningSecretKey: "c3VwZXJzZWNyZXRrZXk=",
		AuthScheme:            "JWT",

		AirportAPIBaseURL:  "https://airport-info.p.rapidapi.com",
		CountryAPIBaseURL:  "https://restcountries.com/v3.1",
		ProxyClientTimeout: 10 * time.Second,
	}

	if !options.disableFlagsParsing {
		flag.StringVar(&cfg.RunAddr, "a", cfg.RunAddr, "address and port to run server")
		flag.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "logger level")
		flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "a string with the database connection details")
		flag.StringVar(&cfg.DBFileName, "f", cfg.DBFileName, "JSON file name with database")
		flag.StringVar(&cfg.MigrationsDir, "m", cfg.MigrationsDir, "directory with the goose migrations")
		flag.Parse()
	}

	var valuesFromEnv Config
	if err := env.Parse(&valuesFromEnv); err != nil {
		return nil, err
	}

	if valuesFromEnv.RunAddr != "" {
		cfg.RunAddr = valuesFromEnv.RunAddr
	}

	if valuesFromEnv.LogLevel != "" {
		cfg.LogLevel = valuesFromEnv.LogLevel
	}

	if valuesFromEnv.DatabaseDSN != "" {
		cfg.DatabaseDSN = valuesFromEnv.DatabaseDSN
	}

	if valuesFromEnv.DBFileName != "" {
		cfg.DBFileName = valuesFromEnv.DBFileName
	}

	if valuesFromEnv.DBConnectionTimeout != 0 {
		cfg.DBConnectionTimeout = valuesFromEnv.DBConnectionTimeout
	}

	if valuesFromEnv.MigrationsDir != "" {
		cfg.MigrationsDir = valuesFromEnv.MigrationsDir
	}

	if valuesFromEnv.TokenSigningSecretKey != "" {
		cfg.TokenSigningSecretKey = valuesFromEnv.TokenSigningSecretKey
	}

	if valuesFromEnv.AuthScheme != "" {
		cfg.AuthScheme = valuesFromEnv.AuthScheme
	}

	if valuesFromEnv.RapidAPIKey != "" {
		cfg.RapidAPIKey = valuesFromEnv.RapidAPIKey
	}

	if valuesFromEnv.AirportAPIBaseURL != "" {
		cfg.AirportAPIBaseURL = valuesFromEnv.AirportAPIBaseURL
	}

	if valuesFromEnv.CountryAPIBaseURL != "" {
		cfg.CountryAPIBaseURL = valuesFromEnv.CountryAPIBaseURL
	}

	if valuesFromEnv.ProxyClientTimeout != 0 {
		cfg.ProxyClientTimeout = valuesFromEnv.ProxyClientTimeout
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
