package cmd

import (
	"context"
	"log"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hireflow/hireflow/internal/logger"
	"github.com/hireflow/hireflow/internal/queue"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var prompt = promptui.Select{
	Label: "Queue invitations for every shortlisted candidate of this job?",
	Items: []string{PromptYes, PromptNo},
}

var inviteCmd = &cobra.Command{
	Use:   "invite",
	Short: "Queue a bulk-invite task for a job",
	Run: func(cmd *cobra.Command, _ []string) {
		invite(cmd)
	},
}

func init() {
	rootCmd.AddCommand(inviteCmd)

	inviteCmd.Flags().Uint("job", 0, "job id to invite shortlisted candidates for")
	inviteCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation")
	inviteCmd.MarkFlagRequired("job")
}

func invite(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config == nil || config.Queue == nil || config.Queue.URL == "" {
		logger.Fatal("queue URL is required",
			zap.String("hint", "set queue.url in the configuration file or the RABBITMQ_URL environment variable"),
		)
	}

	jobID, err := cmd.Flags().GetUint("job")
	if err != nil || jobID == 0 {
		logger.Fatal("a positive --job id is required")
	}

	if cmd.Flag("auto-approve").Value.String() == "false" {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		if action != PromptYes {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	q, err := queue.Connect(config.Queue.URL, queueName(config), logger)
	if err != nil {
		logger.Fatal("connecting to the queue", zap.Error(err))
	}
	defer q.Close()

	if err := q.PublishInvite(ctx, queue.InviteTask{JobID: jobID}); err != nil {
		logger.Fatal("publishing the invite task", zap.Error(err))
	}

	logger.Info("bulk invite queued", zap.Uint("job_id", jobID))
}
