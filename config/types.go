package config

import "time"

type AppConfig struct {
	DBDriver   string        `yaml:"db_driver" env:"CRIMETRACK_DB_DRIVER" env-default:"sqlite"`
	DBURL      string        `yaml:"db_url" env:"CRIMETRACK_DB_URL" env-default:"data/crimetrack.db"`
	ListenAddr string        `yaml:"listen_addr" env:"CRIMETRACK_LISTEN_ADDR" env-default:"0.0.0.0:8080"`
	SessionTTL time.Duration `yaml:"session_ttl" env:"CRIMETRACK_SESSION_TTL" env-default:"3h"`
	Pepper     string        `yaml:"pepper" env:"CRIMETRACK_PEPPER"`
	SeedDemo   bool          `yaml:"seed_demo" env:"CRIMETRACK_SEED_DEMO" env-default:"false"`
	Cases      CasesConfig   `yaml:"cases"`
	Reports    ReportsConfig `yaml:"reports"`
}

type CasesConfig struct {
	// NumberPrefix is prepended to the generated per-year sequence,
	// producing numbers like CASE-2024-0001.
	NumberPrefix string `yaml:"number_prefix" env:"CRIMETRACK_CASE_NUMBER_PREFIX" env-default:"CASE"`
}

type ReportsConfig struct {
	RefreshEnabled bool   `yaml:"refresh_enabled" env:"CRIMETRACK_REPORTS_REFRESH_ENABLED" env-default:"true"`
	RefreshSpec    string `yaml:"refresh_spec" env:"CRIMETRACK_REPORTS_REFRESH_SPEC" env-default:"@every 5m"`
}

const maxUserSessionTTL = 12 * time.Hour

func (c *AppConfig) EffectiveSessionTTL() time.Duration {
	ttl := 3 * time.Hour
	if c != nil && c.SessionTTL > 0 {
		ttl = c.SessionTTL
	}
	if ttl > maxUserSessionTTL {
		return maxUserSessionTTL
	}
	return ttl
}
