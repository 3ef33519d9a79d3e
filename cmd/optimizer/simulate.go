package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"ev-fleet/optimizer/internal/collector"
)

func simulateCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "Generate telemetry snapshots and POST them to an ingest endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8001/telemetry", Usage: "ingest endpoint"},
			&cli.StringFlag{Name: "api-key", Usage: "X-API-Key header value"},
			&cli.IntFlag{Name: "vehicles", Value: 4, Usage: "number of simulated vehicles"},
			&cli.DurationFlag{Name: "interval", Value: time.Second, Usage: "delay between rounds"},
			&cli.IntFlag{Name: "rounds", Value: 0, Usage: "rounds to send (0 = until interrupted)"},
			&cli.Int64Flag{Name: "seed", Value: time.Now().UnixNano(), Usage: "random seed"},
		},
		Action: simulateAction(logger),
	}
}

func simulateAction(logger *zerolog.Logger) cli.ActionFunc {
	return func(cliCtx *cli.Context) error {
		gen := collector.New(cliCtx.Int64("seed"))
		client := &http.Client{Timeout: 5 * time.Second}

		vehicles := make([]string, cliCtx.Int("vehicles"))
		for i := range vehicles {
			vehicles[i] = fmt.Sprintf("EV-%03d", 101+i)
		}

		rounds := cliCtx.Int("rounds")
		ticker := time.NewTicker(cliCtx.Duration("interval"))
		defer ticker.Stop()

		for sent := 0; rounds == 0 || sent < rounds; sent++ {
			for _, snap := range gen.Batch(vehicles) {
				body, err := json.Marshal(snap)
				if err != nil {
					return err
				}

				req, err := http.NewRequestWithContext(cliCtx.Context, http.MethodPost, cliCtx.String("url"), bytes.NewReader(body))
				if err != nil {
					return err
				}
				req.Header.Set("Content-Type", "application/json")
				if key := cliCtx.String("api-key"); key != "" {
					req.Header.Set("X-API-Key", key)
				}

				resp, err := client.Do(req)
				if err != nil {
					logger.Warn().Err(err).Str("vehicle", snap.VehicleID).Msg("failed to send snapshot")
					continue
				}
				resp.Body.Close()

				if resp.StatusCode >= 300 {
					logger.Warn().Int("status", resp.StatusCode).Str("vehicle", snap.VehicleID).Msg("snapshot rejected")
				} else {
					logger.Info().Str("vehicle", snap.VehicleID).Msg("snapshot sent")
				}
			}

			select {
			case <-ticker.C:
			case <-cliCtx.Context.Done():
				return nil
			}
		}
		return nil
	}
}
