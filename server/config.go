package server

import "time"

// Config configures the HTTP serving layer.
type Config struct {
	Host           string
	Port           int
	Mode           string
	AskTimeout     time.Duration
	InteractionLog string
	HistoryTurns   int
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:           "0.0.0.0",
		Port:           8000,
		Mode:           "release",
		AskTimeout:     120 * time.Second,
		InteractionLog: "cases.json",
		HistoryTurns:   10,
	}
}
