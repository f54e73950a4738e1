package config

import (
	"testing"
	"time"
)

func TestRequireEnv(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		wantPanic bool
	}{
		{name: "variable set", key: "TEST_VAR", value: "test_value"},
		{name: "variable not set", key: "TEST_VAR_MISSING", wantPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnv() should have panicked")
					}
				}()
			}

			result := requireEnv(tt.key)
			if !tt.wantPanic && result != tt.value {
				t.Errorf("requireEnv() = %v, want %v", result, tt.value)
			}
		})
	}
}

func TestGetenvInt(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      int
		expected int
	}{
		{"valid integer", "42", 0, 42},
		{"invalid integer uses default", "not_a_number", 7, 7},
		{"missing variable uses default", "", 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_INT", tt.value)
			if got := getenvInt("TEST_INT", tt.def); got != tt.expected {
				t.Errorf("getenvInt() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{"valid duration", "5s", time.Second, 5 * time.Second},
		{"invalid duration uses default", "invalid", 10 * time.Second, 10 * time.Second},
		{"missing variable uses default", "", 15 * time.Second, 15 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			if got := mustDuration("TEST_DURATION", tt.def); got != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      bool
		expected bool
	}{
		{"true value", "true", false, true},
		{"false value", "false", true, false},
		{"invalid value uses default", "invalid", true, true},
		{"missing variable uses default", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)
			if got := mustBool("TEST_BOOL", tt.def); got != tt.expected {
				t.Errorf("mustBool() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseAllowedIPs(t *testing.T) {
	got := parseAllowedIPs(` 10.0.0.0/8, "192.168.1.4" ,, `)
	want := []string{"10.0.0.0/8", "192.168.1.4"}
	if len(got) != len(want) {
		t.Fatalf("parseAllowedIPs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("parseAllowedIPs()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if parseAllowedIPs("") != nil {
		t.Error("parseAllowedIPs(\"\") should be nil")
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"REFLUX_STORAGE", "REFLUX_LISTEN_ADDR", "REFLUX_TIMEZONE", "REFLUX_LOCALE", "REFLUX_LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	if cfg.Storage != StorageSQLite || cfg.SQLitePath != "reflux.db" {
		t.Errorf("storage = %q %q", cfg.Storage, cfg.SQLitePath)
	}
	if cfg.ListenAddr != "127.0.0.1:8080" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.Location == nil || cfg.Locale != "en" {
		t.Errorf("Location = %v, Locale = %q", cfg.Location, cfg.Locale)
	}
	if cfg.TrustProxy {
		t.Error("TrustProxy should default to false")
	}
}

func TestLoadRedis(t *testing.T) {
	t.Setenv("REFLUX_STORAGE", "Redis")
	t.Setenv("REFLUX_REDIS_ADDR", "localhost:6379")
	t.Setenv("REFLUX_REDIS_PASSWORD", "s3cret")
	t.Setenv("REFLUX_REDIS_DB", "2")

	cfg := Load()

	if cfg.Storage != StorageRedis || cfg.RedisAddr != "localhost:6379" || cfg.RedisDB != 2 {
		t.Errorf("redis config = %+v", cfg.Redacted())
	}
	if r := cfg.Redacted(); r.RedisPassword == "s3cret" || cfg.RedisPassword != "s3cret" {
		t.Error("Redacted() must hide the password and leave the original intact")
	}
}

func TestLoadPanics(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown storage", map[string]string{"REFLUX_STORAGE": "postgres"}},
		{"bad timezone", map[string]string{"REFLUX_TIMEZONE": "Mars/Olympus"}},
		{"bad locale", map[string]string{"REFLUX_LOCALE": "xx"}},
		{"redis without addr", map[string]string{"REFLUX_STORAGE": "redis", "REFLUX_REDIS_ADDR": ""}},
		{"redis without password", map[string]string{
			"REFLUX_STORAGE":        "redis",
			"REFLUX_REDIS_ADDR":     "localhost:6379",
			"REFLUX_REDIS_PASSWORD": "",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("Load() should have panicked")
				}
			}()
			Load()
		})
	}
}
