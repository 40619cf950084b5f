package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jlim0255-workship/AWS-EventBookingApp/httpapi"
	"github.com/jlim0255-workship/AWS-EventBookingApp/rsvp"
	"github.com/jlim0255-workship/AWS-EventBookingApp/telemetry"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const serviceName = "rsvpd"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the RSVP HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	shutdownTracing, err := telemetry.SetupTracing(ctx, serviceName, cfg.OTELEndpoint)
	if err != nil {
		return err
	}

	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Errorf("Failed to shut down tracing: %v", err)
		}
	}()

	st := newStores(cfg, logger)

	defer func() {
		if err := st.Close(context.Background()); err != nil {
			logger.Errorf("Failed to close stores: %v", err)
		}
	}()

	handler, err := buildHandler(ctx, st)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.WithField("addr", cfg.HTTPAddr).Info("RSVP API listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		logger.Info("Shutting down RSVP API")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}

		return nil
	})

	return g.Wait()
}

func buildHandler(ctx context.Context, st *stores) (http.Handler, error) {
	attendance, err := st.Attendance(ctx)
	if err != nil {
		return nil, err
	}

	events, err := st.Events(ctx)
	if err != nil {
		return nil, err
	}

	notifier, err := st.Notifier(ctx)
	if err != nil {
		return nil, err
	}

	responses, err := rsvp.NewResponseSet(cfg.Responses...)
	if err != nil {
		return nil, fmt.Errorf("invalid RSVP_RESPONSES: %w", err)
	}

	metrics := telemetry.NewMetrics()

	opts := []rsvp.Option{
		rsvp.WithResponses(responses),
		rsvp.WithRecorder(metrics),
	}
	if notifier != nil {
		opts = append(opts, rsvp.WithNotifier(notifier))
	}

	svc, err := rsvp.New(attendance, events, logger, opts...)
	if err != nil {
		return nil, err
	}

	return httpapi.NewHandler(svc, logger,
		httpapi.WithMetrics(metrics),
		httpapi.WithHealthCheck("dynamodb", attendance.Ping),
		httpapi.WithHealthCheck("postgres", events.Ping),
	), nil
}
