package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "gosocial"

// Env holds the environment-provided defaults for the command line flags.
// Variables are read with the GOSOCIAL_ prefix, e.g. GOSOCIAL_ADDR.
type Env struct {
	Addr           string        `envconfig:"ADDR" default:"localhost:8000"`
	DSN            string        `envconfig:"DSN" default:"host=localhost user=postgres password=postgres dbname=postgres sslmode=disable"`
	SigningKey     string        `envconfig:"SIGNING_KEY"`
	AllowedOrigins []string      `envconfig:"ALLOWED_ORIGINS"`
	SendBufferSize int           `envconfig:"SEND_BUFFER_SIZE" default:"256"`
	TokenExpiry    time.Duration `envconfig:"TOKEN_EXPIRY" default:"24h"`
	Migrate        bool          `envconfig:"MIGRATE" default:"false"`
}

// LoadEnv loads the given dotenv files (".env" when none are given) into the
// process environment and decodes the GOSOCIAL_ variables. Missing dotenv
// files are not an error.
func LoadEnv(files ...string) (Env, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Env{}, fmt.Errorf("load env file: %w", err)
	}

	var env Env
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return Env{}, fmt.Errorf("process env: %w", err)
	}

	return env, nil
}
