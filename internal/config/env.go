package config

import (
	"sync"

	"github.com/spf13/viper"
)

var (
	env     *viper.Viper
	envOnce sync.Once
)

// Env returns the shared viper instance backed by process environment.
// godotenv.Load must run before the first call so .env values are visible.
func Env() *viper.Viper {
	envOnce.Do(func() {
		env = viper.New()
		env.AutomaticEnv()
	})
	return env
}
