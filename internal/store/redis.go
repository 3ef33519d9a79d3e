package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ev-fleet/optimizer/internal/config"
	"ev-fleet/optimizer/internal/domain"
)

// Pub/sub channels bridged to dashboard consumers.
const (
	TelemetryChannel = "fleet:telemetry"
	CommandChannel   = "fleet:commands"
)

type RedisStore struct {
	client   *redis.Client
	dedupTTL time.Duration
}

func NewRedisStore(ctx context.Context, cfg *config.Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     20,
		MinIdleConns: 5,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{
		client:   client,
		dedupTTL: time.Duration(cfg.DedupTTLSeconds) * time.Second,
	}, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Client() *redis.Client {
	return r.client
}

// PipelineStateUpdate refreshes the live view of one vehicle: state hash,
// fleet geo index, and the telemetry pub/sub channel, in one round trip.
func (r *RedisStore) PipelineStateUpdate(ctx context.Context, snap *domain.TelemetrySnapshot) error {
	stateData := map[string]interface{}{
		"vehicle_id":    snap.VehicleID,
		"battery_pct":   snap.BatteryPct,
		"lat":           snap.Latitude,
		"lng":           snap.Longitude,
		"speed_kmh":     snap.SpeedKmh,
		"temp_c":        snap.TempC,
		"charge_status": string(snap.ChargeStatus),
		"timestamp":     snap.Timestamp.Unix(),
	}

	pubPayload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	vehicleStateKey := fmt.Sprintf("vehicle:%s:state", snap.VehicleID)

	pipe := r.client.Pipeline()

	pipe.HSet(ctx, vehicleStateKey, stateData)
	pipe.Expire(ctx, vehicleStateKey, 30*time.Second)
	pipe.GeoAdd(ctx, "fleet:geo", &redis.GeoLocation{
		Name:      snap.VehicleID,
		Longitude: snap.Longitude,
		Latitude:  snap.Latitude,
	})
	pipe.Publish(ctx, TelemetryChannel, pubPayload)

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}

	return nil
}

func (r *RedisStore) GetAPIKey(ctx context.Context, apiKey string) (string, error) {
	key := fmt.Sprintf("vehicle:auth:%s", apiKey)
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get api key failed: %w", err)
	}
	return val, nil
}

// CheckRecommendationDedup reports whether the same recommendation was
// already issued for the vehicle inside the dedup window.
func (r *RedisStore) CheckRecommendationDedup(ctx context.Context, vehicleID string, rec domain.Recommendation) (bool, error) {
	key := fmt.Sprintf("recommendation:%s:%s", vehicleID, string(rec))
	count, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check failed: %w", err)
	}
	return count > 0, nil
}

func (r *RedisStore) SetRecommendationDedup(ctx context.Context, vehicleID string, rec domain.Recommendation) error {
	key := fmt.Sprintf("recommendation:%s:%s", vehicleID, string(rec))
	return r.client.Set(ctx, key, "1", r.dedupTTL).Err()
}

func (r *RedisStore) PublishCommand(ctx context.Context, payload []byte) error {
	return r.client.Publish(ctx, CommandChannel, payload).Err()
}
