package config

import (
	"time"

	"github.com/spf13/viper"
)

// Viper adapts a *viper.Viper to Configuration, the way apilo's CLI
// layers cobra flags over a viper-backed config source.
type Viper struct {
	v *viper.Viper
}

// NewViper wraps v. A nil v wraps a fresh, empty viper.Viper so every
// lookup falls through to its default.
func NewViper(v *viper.Viper) *Viper {
	if v == nil {
		v = viper.New()
	}
	return &Viper{v: v}
}

func (c *Viper) Bool(key string, def bool) bool {
	if !c.v.IsSet(key) {
		return def
	}
	return c.v.GetBool(key)
}

func (c *Viper) Int(key string, def int) int {
	if !c.v.IsSet(key) {
		return def
	}
	return c.v.GetInt(key)
}

func (c *Viper) Float64(key string, def float64) float64 {
	if !c.v.IsSet(key) {
		return def
	}
	return c.v.GetFloat64(key)
}

func (c *Viper) String(key string, def string) string {
	if !c.v.IsSet(key) {
		return def
	}
	return c.v.GetString(key)
}

func (c *Viper) Duration(key string, def time.Duration) time.Duration {
	if !c.v.IsSet(key) {
		return def
	}
	return c.v.GetDuration(key)
}

func (c *Viper) StringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}
