package cmd

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hireflow/hireflow/internal/invites"
	"github.com/hireflow/hireflow/internal/logger"
	"github.com/hireflow/hireflow/internal/queue"
	"github.com/hireflow/hireflow/internal/store"
)

const defaultQueueName = "invite_queue"

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the bulk-invite background worker",
	Run: func(_ *cobra.Command, _ []string) {
		worker()
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func worker() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config == nil || config.Database == nil || config.Database.DSN == "" {
		logger.Fatal("database DSN is required",
			zap.String("hint", "set database.dsn in the configuration file or the DATABASE_DSN environment variable"),
		)
	}
	if config.Queue == nil || config.Queue.URL == "" {
		logger.Fatal("queue URL is required",
			zap.String("hint", "set queue.url in the configuration file or the RABBITMQ_URL environment variable"),
		)
	}

	logger.Info("starting the hireflow worker", zap.String("version", version))

	st, err := store.Open(ctx, config.Database.DSN, logger)
	if err != nil {
		logger.Fatal("opening the database", zap.Error(err))
	}

	mail, err := newMailer(config.Mail, logger)
	if err != nil {
		logger.Warn("mail disabled", zap.Error(err))
	}

	sender := invites.NewSender(st, mail, config.WebAppURL, logger)

	q, err := queue.Connect(config.Queue.URL, queueName(config), logger)
	if err != nil {
		logger.Fatal("connecting to the queue", zap.Error(err))
	}
	defer q.Close()

	err = q.ConsumeInvites(ctx, func(ctx context.Context, task queue.InviteTask) {
		results, err := sender.InviteAll(ctx, task.JobID)
		if err != nil {
			logger.Error("bulk invite task failed", zap.Uint("job_id", task.JobID), zap.Error(err))
			return
		}
		logger.Info("bulk invite task done",
			zap.Uint("job_id", task.JobID),
			zap.Int("applications", len(results)),
		)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("consuming invite tasks", zap.Error(err))
	}

	logger.Info("worker stopped")
}

func queueName(config *Config) string {
	if config.Queue != nil && config.Queue.Name != "" {
		return config.Queue.Name
	}
	return defaultQueueName
}
