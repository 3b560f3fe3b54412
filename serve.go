package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	apihttp "plantwatch/internal/api/http"
	liveapp "plantwatch/internal/liveupdate/application"
	livehttp "plantwatch/internal/liveupdate/interfaces/http"
	"plantwatch/internal/observability/metrics"
	sessionapp "plantwatch/internal/session/application"
	telemetryapp "plantwatch/internal/telemetry/application"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	metrics.Init()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	accounts, err := cfg.Accounts(bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	secret := []byte(cfg.Auth.JWTSecret)
	sessions, err := sessionapp.NewService(st.kv, accounts, secret,
		sessionapp.WithTTL(cfg.Auth.SessionTTL),
		sessionapp.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	broker := livehttp.NewBroker(logger)
	telemetry, err := telemetryapp.Seeded(time.Now().UTC(),
		telemetryapp.WithNotifier(telemetryapp.NewMultiNotifier(broker)),
		telemetryapp.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	policy, err := liveapp.ParsePolicy(cfg.Live.Policy)
	if err != nil {
		return err
	}
	loop, err := liveapp.NewLoop(telemetry.Sensors(),
		liveapp.WithPolicy(policy),
		liveapp.WithInterval(cfg.Live.Interval),
		liveapp.WithPublisher(broker),
		liveapp.WithLogger(logger),
		liveapp.WithBaseContext(ctx),
	)
	if err != nil {
		return err
	}
	defer loop.Stop()

	if plantID, ok := st.preferences.ActiveTab(); ok && telemetry.PlantExists(plantID) {
		if err := loop.Watch(plantID); err != nil {
			return err
		}
		logger.Info("live updates resumed", zap.String("plant_id", plantID))
	}

	server, err := apihttp.NewServer(apihttp.Deps{
		Preferences: st.preferences,
		Readings:    st.readings,
		Session:     sessions,
		Telemetry:   telemetry,
		Live:        loop,
		Broker:      broker,
		JWTSecret:   secret,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	httpServer := server.HTTPServer(cfg.HTTPAddr)
	// Event streams end with the process context instead of holding Shutdown open.
	httpServer.BaseContext = func(net.Listener) context.Context { return ctx }

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		loop.Stop()
		logger.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})
	return group.Wait()
}
