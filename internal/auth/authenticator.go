package auth

import (
	"context"
	"sync"
	"time"

	"ev-fleet/optimizer/internal/config"
)

// KeyLookup resolves an API key to the vehicle (or fleet) it belongs to.
// The Redis store satisfies this; tests use an in-memory map.
type KeyLookup interface {
	GetAPIKey(ctx context.Context, apiKey string) (string, error)
}

type cacheEntry struct {
	vehicleID string
	expiresAt time.Time
}

type Authenticator struct {
	localCache sync.Map
	lookup     KeyLookup
	ttl        time.Duration
	staticKeys map[string]bool
}

func NewAuthenticator(cfg *config.Config, lookup KeyLookup) *Authenticator {
	staticKeys := make(map[string]bool, len(cfg.ValidAPIKeys))
	for _, k := range cfg.ValidAPIKeys {
		if k != "" {
			staticKeys[k] = true
		}
	}

	return &Authenticator{
		lookup:     lookup,
		ttl:        time.Duration(cfg.AuthCacheTTLSeconds) * time.Second,
		staticKeys: staticKeys,
	}
}

func (a *Authenticator) Validate(ctx context.Context, apiKey string) bool {
	// Level 0: static config keys
	if a.staticKeys[apiKey] {
		return true
	}

	// Level 1: in-memory cache
	if raw, ok := a.localCache.Load(apiKey); ok {
		entry := raw.(cacheEntry)
		if time.Now().Before(entry.expiresAt) {
			return true
		}
		a.localCache.Delete(apiKey)
	}

	// Level 2: Redis lookup
	vehicleID, err := a.lookup.GetAPIKey(ctx, apiKey)
	if err != nil || vehicleID == "" {
		return false
	}

	a.localCache.Store(apiKey, cacheEntry{
		vehicleID: vehicleID,
		expiresAt: time.Now().Add(a.ttl),
	})

	return true
}
