package main

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"ev-fleet/optimizer/internal/auth"
	"ev-fleet/optimizer/internal/cloud"
	"ev-fleet/optimizer/internal/config"
	"ev-fleet/optimizer/internal/decision"
	"ev-fleet/optimizer/internal/mqtt"
	"ev-fleet/optimizer/internal/pipeline"
	"ev-fleet/optimizer/internal/remotecontrol"
	"ev-fleet/optimizer/internal/store"
	transport "ev-fleet/optimizer/internal/transport/http"
)

// commandSink records operator commands in Postgres and fans them out via
// Redis, pairing the two stores behind the transport's CommandSink.
type commandSink struct {
	pg *store.PostgresStore
	rd *store.RedisStore
}

func (s commandSink) InsertCommand(ctx context.Context, cmd remotecontrol.Command) error {
	return s.pg.InsertCommand(ctx, cmd)
}

func (s commandSink) PublishCommand(ctx context.Context, payload []byte) error {
	return s.rd.PublishCommand(ctx, payload)
}

func serveCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the ingest pipeline and HTTP API",
		Action: serveAction(logger),
	}
}

func serveAction(logger *zerolog.Logger) cli.ActionFunc {
	return func(cliCtx *cli.Context) error {
		appCtx, cancel := context.WithCancel(cliCtx.Context)
		defer cancel()

		cfg := config.Load()

		pg, err := store.NewPostgresStore(appCtx, cfg)
		if err != nil {
			logger.Error().Err(err).Msg("failed to create postgres store")
			return err
		}
		defer pg.Close()
		logger.Info().Msg("connected to postgres")

		rd, err := store.NewRedisStore(appCtx, cfg)
		if err != nil {
			logger.Error().Err(err).Msg("failed to create redis store")
			return err
		}
		defer rd.Close()
		logger.Info().Msg("connected to redis")

		dispatcher := pipeline.NewDispatcher(
			cfg.StoreChannelSize,
			cfg.StateChannelSize,
			cfg.DecisionChannelSize,
		)

		wg := new(sync.WaitGroup)
		engine := decision.NewEngine()

		for i := 0; i < cfg.StoreWriterWorkers; i++ {
			w := pipeline.NewStoreWriter(dispatcher.StoreChan, pg, logger, cfg.StoreBatchSize, cfg.StoreFlushIntervalMS)
			wg.Add(1)
			go func() {
				defer wg.Done()
				w.Run(appCtx)
			}()
		}
		for i := 0; i < cfg.StateWriterWorkers; i++ {
			w := pipeline.NewStateWriter(dispatcher.StateChan, rd, logger)
			wg.Add(1)
			go func() {
				defer wg.Done()
				w.Run(appCtx)
			}()
		}
		for i := 0; i < cfg.DecisionWorkers; i++ {
			w := pipeline.NewDecisionWorker(dispatcher.DecisionChan, engine, pg, rd, logger)
			wg.Add(1)
			go func() {
				defer wg.Done()
				w.Run(appCtx)
			}()
		}

		var mqttSource *mqtt.Source
		if cfg.MQTTAddr != "" {
			mqttSource, err = mqtt.NewSource(cfg, dispatcher, logger)
			if err != nil {
				logger.Error().Err(err).Msg("failed to create MQTT source")
				return err
			}
			logger.Info().Str("topic", cfg.MQTTTopic).Msg("subscribed to MQTT telemetry")
		}

		cloudClient := cloud.NewClient(cfg.CloudURL, time.Duration(cfg.CloudTimeoutMS)*time.Millisecond, logger)
		authenticator := auth.NewAuthenticator(cfg, rd)
		feed := transport.NewLiveFeed(rd.Client(), logger)

		srv := transport.NewServer(
			dispatcher,
			pg,
			commandSink{pg: pg, rd: rd},
			cloudClient,
			feed,
			transport.NewAuthMiddleware(authenticator),
			logger,
		)

		httpServer := &http.Server{
			Addr:    ":" + cfg.HTTPPort,
			Handler: srv.Handler(),
		}

		go func() {
			<-appCtx.Done()
			if mqttSource != nil {
				mqttSource.Stop()
			}
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			httpServer.Shutdown(shutdownCtx)
		}()

		logger.Info().Str("port", cfg.HTTPPort).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("failed to start the server")
			cancel()
			wg.Wait()
			return err
		}

		cancel()
		wg.Wait()
		return nil
	}
}
