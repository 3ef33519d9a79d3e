package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	os.Clearenv()

	cfg := Load()

	if cfg.HTTPPort != "8001" {
		t.Errorf("HTTPPort = %q, want %q", cfg.HTTPPort, "8001")
	}
	if cfg.DBName != "ev_fleet" {
		t.Errorf("DBName = %q, want %q", cfg.DBName, "ev_fleet")
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q, want %q", cfg.RedisAddr, "localhost:6379")
	}
	if cfg.CloudURL != "" {
		t.Errorf("CloudURL = %q, want empty (forwarding disabled)", cfg.CloudURL)
	}
	if cfg.MQTTAddr != "" {
		t.Errorf("MQTTAddr = %q, want empty (MQTT disabled)", cfg.MQTTAddr)
	}
	if cfg.StoreBatchSize != 500 {
		t.Errorf("StoreBatchSize = %d, want 500", cfg.StoreBatchSize)
	}
	if cfg.DecisionWorkers != 3 {
		t.Errorf("DecisionWorkers = %d, want 3", cfg.DecisionWorkers)
	}
	if cfg.DedupTTLSeconds != 300 {
		t.Errorf("DedupTTLSeconds = %d, want 300", cfg.DedupTTLSeconds)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_PORT", "9999")
	os.Setenv("STORE_BATCH_SIZE", "50")
	os.Setenv("VALID_API_KEYS", "key-a,key-b")
	os.Setenv("CLOUD_URL", "https://cloud.example.com/data")

	cfg := Load()

	if cfg.HTTPPort != "9999" {
		t.Errorf("HTTPPort = %q, want %q", cfg.HTTPPort, "9999")
	}
	if cfg.StoreBatchSize != 50 {
		t.Errorf("StoreBatchSize = %d, want 50", cfg.StoreBatchSize)
	}
	if len(cfg.ValidAPIKeys) != 2 || cfg.ValidAPIKeys[0] != "key-a" {
		t.Errorf("ValidAPIKeys = %v, want [key-a key-b]", cfg.ValidAPIKeys)
	}
	if cfg.CloudURL != "https://cloud.example.com/data" {
		t.Errorf("CloudURL = %q, want the override", cfg.CloudURL)
	}
}

func TestLoadBadIntFallsBack(t *testing.T) {
	os.Clearenv()
	os.Setenv("STORE_BATCH_SIZE", "not-a-number")

	cfg := Load()
	if cfg.StoreBatchSize != 500 {
		t.Errorf("StoreBatchSize = %d, want default 500 on bad input", cfg.StoreBatchSize)
	}
}
