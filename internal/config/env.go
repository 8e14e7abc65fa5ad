package config

import (
	"os"
	"strconv"
)

// applyEnv overrides file values from PLANLOOM_* variables. Unset or
// unparsable values are ignored.
func (c *Config) applyEnv() {
	if val := getEnvInt("PLANLOOM_DAYS"); val > 0 {
		c.Defaults.Days = val
	}
	if val := getEnvInt("PLANLOOM_MAX_ROWS"); val > 0 {
		c.Defaults.MaxRows = val
	}
	if level := os.Getenv("PLANLOOM_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

func getEnvInt(key string) int {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return n
}
