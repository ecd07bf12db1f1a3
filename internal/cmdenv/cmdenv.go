// Package cmdenv holds the environment and flag helpers shared by the
// raymarch commands.
package cmdenv

import (
	"fmt"
	"os"
	"strconv"
)

// Get returns the value of key, or fallback when it is unset.
func Get(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// Int returns key parsed as an int, or fallback when unset or malformed.
func Int(key string, fallback int) int {
	if v, err := strconv.Atoi(Get(key, "")); err == nil {
		return v
	}
	return fallback
}

func Bool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(Get(key, "")); err == nil {
		return v
	}
	return fallback
}

func Float(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(Get(key, ""), 64); err == nil {
		return v
	}
	return fallback
}

// Positive reports an error naming the flag when v < 1.
func Positive(name string, v int) error {
	if v < 1 {
		return fmt.Errorf("%s must be positive, got %d", name, v)
	}
	return nil
}
