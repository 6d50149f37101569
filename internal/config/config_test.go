package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	os.Clearenv()
	os.Setenv("DB_PASSWORD", "test_password")
	os.Setenv("TX_MAX_RETRIES", "3")
	defer os.Clearenv()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.DBPassword != "test_password" {
		t.Errorf("DBPassword = %q, want %q", cfg.DBPassword, "test_password")
	}
	if cfg.TxMaxRetries != 3 {
		t.Errorf("TxMaxRetries = %d, want 3", cfg.TxMaxRetries)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if got := cfg.GetRetryBackoff(); got != 75*time.Millisecond {
		t.Errorf("GetRetryBackoff() = %v, want 75ms", got)
	}
}

func TestLoadConfig_InvalidIntFallsBack(t *testing.T) {
	os.Clearenv()
	os.Setenv("DB_PASSWORD", "pw")
	os.Setenv("GUILD_CACHE_SIZE", "lots")
	defer os.Clearenv()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.GuildCacheSize != 256 {
		t.Errorf("GuildCacheSize = %d, want default 256", cfg.GuildCacheSize)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DBPassword:             "password",
			TxMaxRetries:           5,
			TxRetryBackoffMS:       75,
			TxRetryMaxBackoffMS:    1200,
			GuildCacheSize:         16,
			RateLimitWindowSeconds: 60,
		}
	}

	tests := []struct {
		name      string
		mutate    func(c *Config)
		shouldErr bool
	}{
		{"Valid", func(c *Config) {}, false},
		{"Zero retries allowed", func(c *Config) { c.TxMaxRetries = 0 }, false},
		{"Missing DB_PASSWORD", func(c *Config) { c.DBPassword = "" }, true},
		{"Negative retries", func(c *Config) { c.TxMaxRetries = -1 }, true},
		{"Zero backoff", func(c *Config) { c.TxRetryBackoffMS = 0 }, true},
		{"Max backoff below base", func(c *Config) { c.TxRetryMaxBackoffMS = 10 }, true},
		{"Zero cache", func(c *Config) { c.GuildCacheSize = 0 }, true},
		{"Zero window", func(c *Config) { c.RateLimitWindowSeconds = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.shouldErr {
				t.Errorf("Validate() error = %v, shouldErr %v", err, tt.shouldErr)
			}
		})
	}
}

func TestValidateProductionSecurity(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *Config
		shouldErr bool
	}{
		{
			name:      "Valid production config",
			cfg:       &Config{AppEnv: "production", DBSSLMode: "require", DBPassword: "s3cret"},
			shouldErr: false,
		},
		{
			name:      "Development mode - no validation",
			cfg:       &Config{AppEnv: "development", DBSSLMode: "disable"},
			shouldErr: false,
		},
		{
			name:      "Production without SSL",
			cfg:       &Config{AppEnv: "production", DBSSLMode: "disable", DBPassword: "s3cret"},
			shouldErr: true,
		},
		{
			name:      "Production with default password",
			cfg:       &Config{AppEnv: "production", DBSSLMode: "require", DBPassword: "change_me"},
			shouldErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateProductionSecurity()
			if (err != nil) != tt.shouldErr {
				t.Errorf("ValidateProductionSecurity() error = %v, shouldErr %v", err, tt.shouldErr)
			}
		})
	}
}

func TestGetDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "n", DBSSLMode: "disable"}
	want := "host=db port=5432 user=u password=p dbname=n sslmode=disable"
	if got := cfg.GetDSN(); got != want {
		t.Errorf("GetDSN() = %q, want %q", got, want)
	}
}
