// internal/workers/matching/match-lenders/config.go
package matchlenders

import "time"

type Config struct {
	// MaxResults caps the ranked list; 0 returns everything.
	MaxResults int
	// MinScore drops survivors below the threshold; 0 keeps everyone.
	MinScore float64
	CacheTTL time.Duration
	Timeout  time.Duration
}

func LoadConfig() *Config {
	return &Config{
		CacheTTL: 5 * time.Minute,
		Timeout:  30 * time.Second,
	}
}
