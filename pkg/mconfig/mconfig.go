// Package mconfig loads env-tagged configuration structs, the OSS
// equivalent of the teacher's internal libCommons.SetConfigFromEnvVars.
package mconfig

import (
	"github.com/caarlos0/env/v10"
)

// Load populates cfg (a pointer to a struct whose fields carry
// `env:"..."` tags) from the process environment.
func Load(cfg any) error {
	return env.Parse(cfg)
}

// MustLoad is Load but panics on failure, for use in cmd/ entrypoints
// during startup the way the teacher's bootstrap.NewConfig does.
func MustLoad(cfg any) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
