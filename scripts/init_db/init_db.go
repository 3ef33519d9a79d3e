package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found — using system environment variables")
	}

	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		dbGetEnv("DB_USER", "fleet_user"),
		dbGetEnv("DB_PASSWORD", "fleet_password"),
		dbGetEnv("DB_HOST", "localhost"),
		dbGetEnv("DB_PORT", "5432"),
		dbGetEnv("DB_NAME", "ev_fleet"),
	)

	ctx := context.Background()

	fmt.Println("Connecting to Postgres...")
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		log.Fatalf("Connection failed: %v\n\nMake sure Postgres is running:\n  docker-compose up -d postgres", err)
	}
	defer conn.Close(ctx)
	fmt.Println("✓ Connected")

	step1_telemetry_table(ctx, conn)
	step2_recommendations_table(ctx, conn)
	step3_commands_table(ctx, conn)
	step4_indexes(ctx, conn)
	step5_verify(ctx, conn)

	fmt.Println("\n✅ Database initialised successfully")
	fmt.Println("   Run next: go run scripts/seed_redis/seed_redis.go")
}

func step1_telemetry_table(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 1: vehicle_telemetry table ─────────────")

	execOrFatal(ctx, conn, `
		CREATE TABLE IF NOT EXISTS vehicle_telemetry (

			-- Vehicle clock time; received rows keep their original instant
			timestamp     TIMESTAMPTZ      NOT NULL,

			vehicle_id    TEXT             NOT NULL,

			-- Battery percentage, clamped to [0,100] before insert
			battery_pct   INTEGER          NOT NULL DEFAULT 0,

			latitude      DOUBLE PRECISION NOT NULL,
			longitude     DOUBLE PRECISION NOT NULL,

			speed_kmh     DOUBLE PRECISION NOT NULL DEFAULT 0,
			temp_c        DOUBLE PRECISION NOT NULL DEFAULT 0,

			-- 'charging' or 'discharging'
			charge_status TEXT             NOT NULL
		);
	`, "vehicle_telemetry table created")
}

func step2_recommendations_table(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 2: vehicle_recommendations table ───────")

	execOrFatal(ctx, conn, `
		CREATE TABLE IF NOT EXISTS vehicle_recommendations (
			vehicle_id     TEXT             NOT NULL,
			recommendation TEXT             NOT NULL,

			-- Trigger values captured at decision time
			battery_pct    INTEGER          NOT NULL,
			speed_kmh      DOUBLE PRECISION NOT NULL,

			created_at     TIMESTAMPTZ      NOT NULL DEFAULT NOW()
		);
	`, "vehicle_recommendations table created")
}

func step3_commands_table(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 3: remote_commands table ───────────────")

	execOrFatal(ctx, conn, `
		CREATE TABLE IF NOT EXISTS remote_commands (
			id          UUID        PRIMARY KEY,
			vehicle_id  TEXT        NOT NULL,
			action      TEXT        NOT NULL,
			description TEXT        NOT NULL,
			issued_at   TIMESTAMPTZ NOT NULL
		);
	`, "remote_commands table created")
}

func step4_indexes(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 4: Indexes ─────────────────────────────")

	// Serves the DISTINCT ON (vehicle_id) ... ORDER BY timestamp DESC query
	execOrFatal(ctx, conn, `
		CREATE INDEX IF NOT EXISTS idx_telemetry_vehicle_time
		ON vehicle_telemetry (vehicle_id, timestamp DESC);
	`, "idx_telemetry_vehicle_time")

	execOrFatal(ctx, conn, `
		CREATE INDEX IF NOT EXISTS idx_recommendations_vehicle
		ON vehicle_recommendations (vehicle_id, created_at DESC);
	`, "idx_recommendations_vehicle")

	execOrFatal(ctx, conn, `
		CREATE INDEX IF NOT EXISTS idx_commands_vehicle
		ON remote_commands (vehicle_id, issued_at DESC);
	`, "idx_commands_vehicle")
}

func step5_verify(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 5: Verification ────────────────────────")

	tables := []string{"vehicle_telemetry", "vehicle_recommendations", "remote_commands"}
	for _, table := range tables {
		var count int
		err := conn.QueryRow(ctx,
			"SELECT COUNT(*) FROM information_schema.tables WHERE table_name = $1",
			table,
		).Scan(&count)
		if err != nil || count == 0 {
			log.Fatalf("Verification failed for %s: %v", table, err)
		}
		fmt.Printf("  ✓ %s exists\n", table)
	}
}

func execOrFatal(ctx context.Context, conn *pgx.Conn, sql, label string) {
	if _, err := conn.Exec(ctx, sql); err != nil {
		log.Fatalf("Failed: %s: %v", label, err)
	}
	fmt.Printf("  ✓ %s\n", label)
}

func dbGetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
