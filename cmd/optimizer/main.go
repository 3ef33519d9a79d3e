package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"ev-fleet/optimizer/internal/finance"
)

func buildLogger() *zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(zerolog.InfoLevel)
	return &logger
}

func buildApp(logger *zerolog.Logger) *cli.App {
	app := cli.NewApp()
	app.Name = "ev-fleet-optimizer"
	app.Usage = "EV fleet telemetry decision pipeline"
	app.Version = Version
	app.Commands = []*cli.Command{
		serveCommand(logger),
		simulateCommand(logger),
		roiCommand(),
	}
	return app
}

func roiCommand() *cli.Command {
	return &cli.Command{
		Name:  "roi",
		Usage: "Compute fleet return on investment from annual cost figures",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "investment", Usage: "initial fleet investment", Required: true},
			&cli.Float64Flag{Name: "maintenance", Usage: "annual maintenance costs"},
			&cli.Float64Flag{Name: "fuel-savings", Usage: "annual fuel savings"},
			&cli.Float64Flag{Name: "charging-costs", Usage: "annual charging costs"},
		},
		Action: func(cliCtx *cli.Context) error {
			roi, err := finance.ROI(finance.Costs{
				InitialInvestment: cliCtx.Float64("investment"),
				MaintenanceCosts:  cliCtx.Float64("maintenance"),
				FuelSavings:       cliCtx.Float64("fuel-savings"),
				ChargingCosts:     cliCtx.Float64("charging-costs"),
			})
			if err != nil {
				return err
			}
			fmt.Printf("ROI: %.2f%%\n", roi)
			return nil
		},
	}
}

func main() {
	logger := buildLogger()

	if err := godotenv.Load(); err != nil {
		logger.Info().Msg("no .env file, using system environment variables")
	}

	app := buildApp(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Error().Err(err).Msg("failed to run the app")
		os.Exit(1)
	}
}
