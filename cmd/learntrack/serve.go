package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	httpserver "github.com/alem-hub/learntrack/internal/interface/http"
	"github.com/alem-hub/learntrack/pkg/logger"
)

func newServeCmd() *cobra.Command {
	var (
		enableCORS bool
		rateLimit  int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API",
		Long: `Run the REST API until SIGINT or SIGTERM.

Events are delivered asynchronously; the progress cache is invalidated in
the background after every enrollment and lesson completion.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApplication(cmd.Context(), true, func(ctx context.Context, app *application) error {
				return serve(ctx, app, enableCORS, rateLimit)
			})
		},
	}

	cmd.Flags().BoolVar(&enableCORS, "cors", false, "send permissive CORS headers")
	cmd.Flags().IntVar(&rateLimit, "rate-limit", 600, "requests per minute per client address, 0 disables")
	return cmd
}

func serve(ctx context.Context, app *application, enableCORS bool, rateLimit int) error {
	cfg := app.cfg

	httpCfg := httpserver.DefaultConfig()
	httpCfg.Host = cfg.HTTP.Host
	httpCfg.Port = cfg.HTTP.Port
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	httpCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	httpCfg.EnableCORS = enableCORS
	httpCfg.EnableMetrics = cfg.Observability.MetricsEnabled
	httpCfg.RateLimitPerMinute = rateLimit
	httpCfg.Version = cfg.App.Version

	server := httpserver.NewServer(httpCfg, httpserver.Dependencies{
		EnrollCourse:      app.enroll,
		CompleteLesson:    app.complete,
		Notifications:     app.notifications,
		GetCourseProgress: app.courseProgress,
		GetLearnerSummary: app.learnerSummary,
		ListNotifications: app.listNotifications,
		HealthChecker:     app.healthChecker(),
		Logger:            app.log,
	})

	errCh := server.StartAsync()
	app.log.Info("learntrack is running",
		logger.String("address", httpCfg.Address()),
		logger.String("storage", string(cfg.Storage.Driver)),
		logger.Bool("cache", app.cache != nil),
	)

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		app.log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	app.log.Info("learntrack stopped")
	return nil
}
