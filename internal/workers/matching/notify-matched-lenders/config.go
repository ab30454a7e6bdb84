// internal/workers/matching/notify-matched-lenders/config.go
package notifymatchedlenders

import "time"

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	// Lenders scoring at or above this threshold also get an SMS.
	SMSMinScore float64
	Timeout     time.Duration
}

func LoadConfig() *Config {
	return &Config{
		EmailEnabled: true,
		SMSEnabled:   false,
		SMSMinScore:  90,
		Timeout:      30 * time.Second,
	}
}
