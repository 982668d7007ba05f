// Package config reads runtime settings from the environment and loads
// the static point registry.
package config

import (
	"os"
	"strconv"
)

// Get returns the environment value for key, or fallback when unset or
// empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// GetInt returns the integer environment value for key, or fallback
// when unset or not a valid integer.
func GetInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
