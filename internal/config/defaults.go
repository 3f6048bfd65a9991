package config

import (
	"github.com/creasty/defaults"
)

// Defaults returns the default configuration, filled from the struct tags.
func Defaults() *Config {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		// Tags are static; a failure here is a programming error.
		panic(err)
	}
	return cfg
}
