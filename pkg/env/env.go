// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package env

import (
	"github.com/spf13/viper"
)

const (
	Local      = "local"
	Production = "production"
	Testing    = "testing"
)

// Env is the deployment environment. It is resolved by Load after the
// configuration sources have been registered with viper.
var Env = Local

func IsLocal() bool {
	return Env == Local
}

func IsProduction() bool {
	return Env == Production
}

// Load reads ENV from viper, defaulting to Local.
func Load() string {
	Env = viper.GetString("env")
	if Env == "" {
		Env = Local
	}
	return Env
}
