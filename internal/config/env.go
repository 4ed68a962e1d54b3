// Package config provides configuration helpers for go-playspace commands.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Default dashboard configuration.
const (
	DefaultPort     = 8090
	DefaultLogLevel = "info"
)

// Port returns the dashboard port from PLAYSPACE_PORT.
// Falls back to the provided default if unset or not a valid port.
func Port(defaultPort int) int {
	if v := os.Getenv("PLAYSPACE_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 && p < 65536 {
			return p
		}
	}
	return defaultPort
}

// LogLevel returns the log level from PLAYSPACE_LOG_LEVEL or the default.
func LogLevel(defaultLevel string) string {
	if lvl := os.Getenv("PLAYSPACE_LOG_LEVEL"); lvl != "" {
		return lvl
	}
	return defaultLevel
}

// DashboardAPI returns the dashboard's HTTP base URL.
func DashboardAPI(host string, port int) string {
	return fmt.Sprintf("http://%s:%d/api", host, port)
}

// DashboardURL returns the websocket frames URL for a dashboard on host.
func DashboardURL(host string, port int) string {
	return fmt.Sprintf("ws://%s:%d/ws/frames", host, port)
}
