package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/evcraddock/qa-forum/internal/answer"
	"github.com/evcraddock/qa-forum/internal/auth"
	"github.com/evcraddock/qa-forum/internal/config"
	"github.com/evcraddock/qa-forum/internal/db"
	"github.com/evcraddock/qa-forum/internal/lifecycle"
	"github.com/evcraddock/qa-forum/internal/logging"
	"github.com/evcraddock/qa-forum/internal/question"
	"github.com/evcraddock/qa-forum/internal/reputation"
	"github.com/evcraddock/qa-forum/internal/web"
)

const (
	shutdownTimeout        = 10 * time.Second
	sessionCleanupInterval = time.Hour
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI and reputation workers",
		Long: "Start the HTTP server and the reputation workers. Settings come from QA_* environment " +
			"variables (and an optional .env file); flags override them.",
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().Int("port", 8080, "port to listen on")
	cmd.Flags().Bool("dev", false, "development mode: debug text logs, non-secure cookies")
	cmd.Flags().Bool("require-authorship", false, "only let authors edit, update or delete their answers")
	cmd.Flags().String("queue", config.QueueMemory, "reputation queue backend (memory|redis)")
	cmd.Flags().String("redis-url", "", "Redis URL for the redis queue backend")
	cmd.Flags().Int("workers", 1, "number of reputation workers")

	return cmd
}

// serveConfig loads the environment config and applies flags the user set.
func serveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("dev") {
		cfg.DevMode, _ = flags.GetBool("dev")
	}
	if flags.Changed("require-authorship") {
		cfg.RequireAuthorship, _ = flags.GetBool("require-authorship")
	}
	if flags.Changed("queue") {
		cfg.QueueBackend, _ = flags.GetString("queue")
	}
	if flags.Changed("redis-url") {
		cfg.RedisURL, _ = flags.GetString("redis-url")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flagDB != "" {
		cfg.DBPath = flagDB
	}
	if cfg.DBPath == "" {
		path, err := resolveDBPath()
		if err != nil {
			return config.Config{}, err
		}
		cfg.DBPath = path
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// jobQueue is a reputation queue plus whatever must be released with it.
type jobQueue struct {
	reputation.Queue
	close func()
}

// openQueue builds the configured reputation queue backend.
func openQueue(ctx context.Context, cfg config.Config) (*jobQueue, error) {
	switch cfg.QueueBackend {
	case config.QueueRedis:
		client, err := reputation.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return &jobQueue{
			Queue: reputation.NewRedisQueue(client, cfg.RedisQueueKey),
			close: func() {
				if err := client.Close(); err != nil {
					slog.Warn("closing redis client", "error", err)
				}
			},
		}, nil
	default:
		q := reputation.NewChannelQueue(cfg.QueueSize)
		return &jobQueue{Queue: q, close: q.Close}, nil
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := serveConfig(cmd)
	if err != nil {
		return err
	}

	logging.Setup(cfg.DevMode)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer closeDB(database)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue, err := openQueue(ctx, cfg)
	if err != nil {
		return err
	}
	defer queue.close()

	questions := question.NewRepository(database)
	answers := answer.NewRepository(database)
	sessions := auth.NewSessionStore(database, !cfg.DevMode)
	calc := reputation.NewScoreCalculator(answers, questions)
	jobLog := reputation.NewJobLog(database)

	srv, err := web.NewServer(database, sessions, reputation.NewDispatcher(queue),
		lifecycle.Policy{RequireAuthorshipOnMutate: cfg.RequireAuthorship})
	if err != nil {
		return err
	}
	httpSrv := srv.HTTPServer(cfg.Port)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting web UI",
			"addr", fmt.Sprintf("http://localhost:%d", cfg.Port),
			"db", cfg.DBPath,
			"queue", cfg.QueueBackend,
			"workers", cfg.Workers,
			"require_authorship", cfg.RequireAuthorship,
		)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		slog.Info("shutting down")
		return httpSrv.Shutdown(shutdownCtx)
	})

	for i := 0; i < cfg.Workers; i++ {
		worker := reputation.NewWorker(queue, questions, calc, jobLog)
		g.Go(func() error {
			return worker.Run(gctx)
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(sessionCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := sessions.Cleanup(gctx); err != nil {
					slog.Warn("cleaning up sessions", "error", err)
				}
			}
		}
	})

	return g.Wait()
}
