// internal/workers/infrastructure/build-match-response/config.go
package buildmatchresponse

import "time"

type Config struct {
	RegistryPath string
	CacheTTL     time.Duration
	AppVersion   string
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		RegistryPath: "configs/task-registry.json",
		CacheTTL:     5 * time.Minute,
		Timeout:      10 * time.Second,
	}
}
