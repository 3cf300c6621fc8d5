package config

import (
	"os"
	"strconv"
	"strings"
)

// Get returns the environment value for name, or def when it is unset or blank.
func Get(name, def string) string {
	if v, ok := os.LookupEnv(name); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

// GetInt returns the integer environment value for name. Unset or unparsable
// values fall back to def.
func GetInt(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
