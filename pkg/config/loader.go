package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load fills cfg, a pointer to a struct with `env` tags, from the process
// environment.
//
//	type Config struct {
//	    APIURL string `env:"STOREFRONT_API_URL" envDefault:"http://localhost:8000"`
//	}
func Load(cfg any) error {
	return parse(cfg, env.Options{})
}

// LoadFrom reads variables from environ only. The CLI passes an explicit
// environment so tests never touch os.Environ.
func LoadFrom(cfg any, environ map[string]string) error {
	return parse(cfg, env.Options{Environment: environ})
}

func parse(cfg any, opts env.Options) error {
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
