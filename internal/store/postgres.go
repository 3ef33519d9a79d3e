package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ev-fleet/optimizer/internal/config"
	"ev-fleet/optimizer/internal/domain"
	"ev-fleet/optimizer/internal/remotecontrol"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, cfg *config.Config) (*PostgresStore, error) {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?pool_max_conns=%d",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBMaxConns,
	)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create db pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

var snapshotColumns = []string{
	"timestamp",
	"vehicle_id",
	"battery_pct",
	"latitude",
	"longitude",
	"speed_kmh",
	"temp_c",
	"charge_status",
}

func (s *PostgresStore) BatchInsert(ctx context.Context, snaps []*domain.TelemetrySnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	rows := make([][]interface{}, len(snaps))
	for i, snap := range snaps {
		rows[i] = []interface{}{
			snap.Timestamp,
			snap.VehicleID,
			snap.BatteryPct,
			snap.Latitude,
			snap.Longitude,
			snap.SpeedKmh,
			snap.TempC,
			string(snap.ChargeStatus),
		}
	}

	_, err := s.pool.CopyFrom(
		ctx,
		pgx.Identifier{"vehicle_telemetry"},
		snapshotColumns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("CopyFrom failed for batch of %d: %w", len(snaps), err)
	}

	return nil
}

func (s *PostgresStore) InsertRecommendation(
	ctx context.Context,
	vehicleID string,
	rec domain.Recommendation,
	batteryPct int,
	speedKmh float64,
) error {
	query := `
		INSERT INTO vehicle_recommendations
			(vehicle_id, recommendation, battery_pct, speed_kmh, created_at)
		VALUES
			($1, $2, $3, $4, NOW())
		ON CONFLICT DO NOTHING
	`
	_, err := s.pool.Exec(ctx, query, vehicleID, string(rec), batteryPct, speedKmh)
	return err
}

func (s *PostgresStore) InsertCommand(ctx context.Context, cmd remotecontrol.Command) error {
	query := `
		INSERT INTO remote_commands
			(id, vehicle_id, action, description, issued_at)
		VALUES
			($1, $2, $3, $4, $5)
	`
	_, err := s.pool.Exec(ctx, query, cmd.ID, cmd.VehicleID, string(cmd.Action), cmd.Description, cmd.IssuedAt)
	return err
}

// LatestSnapshots returns the most recent snapshot per vehicle, ordered by
// vehicle_id so aggregation over the result is deterministic.
func (s *PostgresStore) LatestSnapshots(ctx context.Context) ([]domain.TelemetrySnapshot, error) {
	query := `
		SELECT DISTINCT ON (vehicle_id)
			timestamp, vehicle_id, battery_pct, latitude, longitude,
			speed_kmh, temp_c, charge_status
		FROM vehicle_telemetry
		ORDER BY vehicle_id, timestamp DESC
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("latest snapshots query failed: %w", err)
	}
	defer rows.Close()

	var snaps []domain.TelemetrySnapshot
	for rows.Next() {
		var snap domain.TelemetrySnapshot
		var status string
		if err := rows.Scan(
			&snap.Timestamp,
			&snap.VehicleID,
			&snap.BatteryPct,
			&snap.Latitude,
			&snap.Longitude,
			&snap.SpeedKmh,
			&snap.TempC,
			&status,
		); err != nil {
			return nil, fmt.Errorf("latest snapshots scan failed: %w", err)
		}
		snap.ChargeStatus = domain.ChargeStatus(status)
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}
