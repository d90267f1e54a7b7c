package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/gridironmods/sideline/internal/commands"
	"github.com/gridironmods/sideline/internal/config"
	"github.com/gridironmods/sideline/internal/gamethread"
	"github.com/gridironmods/sideline/internal/jobs"
	"github.com/gridironmods/sideline/internal/platform"
	"github.com/gridironmods/sideline/internal/providers/nfl"
	"github.com/gridironmods/sideline/internal/providers/social"
	"github.com/gridironmods/sideline/internal/providers/weather"
	"github.com/gridironmods/sideline/internal/screening"
	"github.com/gridironmods/sideline/internal/surfaces/gateway"
	"github.com/gridironmods/sideline/internal/surfaces/webhook"
)

func main() {
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(level)
	}

	env := config.FromEnv()

	app := &cli.App{
		Name:  "sideline",
		Usage: "community moderation assistant",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the chat webhook server",
				Action: func(c *cli.Context) error {
					return runServe(c.Context, env, log)
				},
			},
			{
				Name:  "job",
				Usage: "run the periodic sidebar and vote-icon jobs",
				Action: func(c *cli.Context) error {
					return runJobs(c.Context, env, log)
				},
			},
			{
				Name:  "stream",
				Usage: "screen new submissions as they arrive",
				Action: func(c *cli.Context) error {
					return runStream(c.Context, env, log)
				},
			},
			{
				Name:  "gateway",
				Usage: "run the chat gateway session",
				Action: func(c *cli.Context) error {
					return runGateway(c.Context, env, log)
				},
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil && ctx.Err() == nil {
		log.WithError(err).Fatal("exiting")
	}
	log.Info("shutdown complete")
}

func newDispatcher(env config.Env, log *logrus.Logger) (*commands.Dispatcher, *platform.Client) {
	client := platform.New(env, log)
	thread := &gamethread.Generator{
		Platform:  client,
		Stats:     nfl.New(env.StatsBaseURL, env.UserAgent, env.HTTPTimeout),
		Weather:   weather.New(env.WeatherBaseURL, env.UserAgent, env.HTTPTimeout),
		Log:       log,
		Community: env.Community,
		TeamAbbr:  env.TeamAbbr,
	}
	dispatcher := &commands.Dispatcher{
		Platform:  client,
		Thread:    thread,
		Log:       log,
		Community: env.Community,
	}
	return dispatcher, client
}

func runServe(ctx context.Context, env config.Env, log *logrus.Logger) error {
	dispatcher, client := newDispatcher(env, log)
	server := &webhook.Server{
		Dispatcher: dispatcher,
		Platform:   client,
		Chat:       webhook.NewChatClient(env),
		Log:        log,
		Community:  env.Community,
	}

	httpServer := &http.Server{
		Addr:         env.HTTPAddr,
		Handler:      server.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", env.HTTPAddr).Info("webhook server listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func runJobs(ctx context.Context, env config.Env, log *logrus.Logger) error {
	runner := &jobs.Runner{
		Platform:  platform.New(env, log),
		Stats:     nfl.New(env.StatsBaseURL, env.UserAgent, env.HTTPTimeout),
		Log:       log,
		Community: env.Community,
		TeamAbbr:  env.TeamAbbr,
		AssetsDir: env.AssetsDir,
		Interval:  env.JobInterval,
	}
	return runner.Run(ctx)
}

func runStream(ctx context.Context, env config.Env, log *logrus.Logger) error {
	screener := &screening.Screener{
		Platform:   platform.New(env, log),
		Social:     social.New(env.SocialEmbedURL, env.UserAgent, env.HTTPTimeout),
		Log:        log,
		Community:  env.Community,
		FetchLimit: env.SubmissionLimit,
	}
	return screener.Run(ctx)
}

func runGateway(ctx context.Context, env config.Env, log *logrus.Logger) error {
	dispatcher, client := newDispatcher(env, log)
	session := &gateway.Client{
		Dispatcher: dispatcher,
		Platform:   client,
		Log:        log,
		Community:  env.Community,
		GatewayURL: env.GatewayURL,
		RestURL:    env.GatewayRestURL,
		Token:      env.GatewayToken,
	}
	return session.Run(ctx)
}
