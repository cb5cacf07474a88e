// Package config defines the Configuration contract the request
// monitor reads typed values from (spec: "external collaborator,
// referenced only by interface") and a github.com/spf13/viper-backed
// adapter.
package config

import "time"

// Configuration supplies typed values on demand, keyed by the dotted
// configuration names spec §6 lists (e.g. "stagemonitor.active",
// "requestmonitor.warmupRequests").
type Configuration interface {
	Bool(key string, def bool) bool
	Int(key string, def int) int
	Float64(key string, def float64) float64
	String(key string, def string) string
	Duration(key string, def time.Duration) time.Duration
	StringSlice(key string) []string
}
