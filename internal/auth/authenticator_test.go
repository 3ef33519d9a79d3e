package auth

import (
	"context"
	"testing"

	"ev-fleet/optimizer/internal/config"
)

type memLookup struct {
	keys  map[string]string
	calls int
}

func (m *memLookup) GetAPIKey(ctx context.Context, apiKey string) (string, error) {
	m.calls++
	return m.keys[apiKey], nil
}

func TestValidateStaticKey(t *testing.T) {
	cfg := &config.Config{ValidAPIKeys: []string{"static-key", ""}, AuthCacheTTLSeconds: 300}
	a := NewAuthenticator(cfg, &memLookup{})

	if !a.Validate(context.Background(), "static-key") {
		t.Error("static key rejected")
	}
	if a.Validate(context.Background(), "") {
		t.Error("empty key accepted")
	}
}

func TestValidateLookupAndCache(t *testing.T) {
	lookup := &memLookup{keys: map[string]string{"ev-key": "EV-101"}}
	cfg := &config.Config{AuthCacheTTLSeconds: 300}
	a := NewAuthenticator(cfg, lookup)

	if !a.Validate(context.Background(), "ev-key") {
		t.Fatal("known key rejected")
	}
	if !a.Validate(context.Background(), "ev-key") {
		t.Fatal("known key rejected on second call")
	}
	if lookup.calls != 1 {
		t.Errorf("lookup calls = %d, want 1 (second hit served from cache)", lookup.calls)
	}
}

func TestValidateUnknownKey(t *testing.T) {
	lookup := &memLookup{keys: map[string]string{}}
	cfg := &config.Config{AuthCacheTTLSeconds: 300}
	a := NewAuthenticator(cfg, lookup)

	if a.Validate(context.Background(), "nope") {
		t.Error("unknown key accepted")
	}
}
