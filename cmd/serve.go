package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hireflow/hireflow/internal/ai"
	"github.com/hireflow/hireflow/internal/ai/gemini"
	"github.com/hireflow/hireflow/internal/interview"
	"github.com/hireflow/hireflow/internal/invites"
	"github.com/hireflow/hireflow/internal/logger"
	"github.com/hireflow/hireflow/internal/mailer"
	"github.com/hireflow/hireflow/internal/report"
	"github.com/hireflow/hireflow/internal/secrets"
	"github.com/hireflow/hireflow/internal/server"
	"github.com/hireflow/hireflow/internal/shortlist"
	"github.com/hireflow/hireflow/internal/store"
)

const (
	defaultListen       = ":8080"
	defaultReportsDir   = "reports"
	defaultAITimeout    = 30 * time.Second
	shutdownGracePeriod = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the hireflow HTTP server",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "listen address (default :8080)")
	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
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

	logger.Info("starting the hireflow server", zap.String("version", version))

	st, err := store.Open(ctx, config.Database.DSN, logger)
	if err != nil {
		logger.Fatal("opening the database", zap.Error(err))
	}

	reportsDir := defaultReportsDir
	if config.Reports != nil && config.Reports.Dir != "" {
		reportsDir = config.Reports.Dir
	}
	reports, err := report.NewStore(reportsDir)
	if err != nil {
		logger.Fatal("preparing the report store", zap.Error(err))
	}

	generator, err := newGenerator(ctx, config.AI, logger)
	if err != nil {
		logger.Warn("AI disabled", zap.Error(err))
	}

	mail, err := newMailer(config.Mail, logger)
	if err != nil {
		logger.Warn("mail disabled", zap.Error(err))
	}

	sessions := interview.NewSessionStore(0)

	srv := server.New(server.Deps{
		Store:     st,
		Sessions:  sessions,
		Shortlist: shortlist.New(st, generator, defaultAITimeout, logger),
		Invites:   invites.NewSender(st, mail, config.WebAppURL, logger),
		Questions: interview.NewQuestionGenerator(generator, defaultAITimeout, logger),
		Proctor:   interview.NewMonitor(sessions, st, logger),
		Scorer:    interview.NewAnswerScorer(generator, defaultAITimeout, logger),
		Compiler:  interview.NewCompiler(sessions, st, reports, generator, defaultAITimeout, logger),
		Reports:   reports,
		Logger:    logger,
	})

	listen := defaultListen
	if config.Server != nil && config.Server.Listen != "" {
		listen = config.Server.Listen
	}

	httpServer := &http.Server{
		Addr:    listen,
		Handler: srv.Router(),
	}

	go func() {
		logger.Info("listening", zap.String("addr", listen))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

// newGenerator builds the Gemini client when AI is enabled. A nil generator
// is a valid result: every AI consumer degrades or reports ErrNotConfigured.
func newGenerator(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Generator, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	if cfg.Gemini == nil {
		return nil, fmt.Errorf("gemini configuration is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	return gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxLogLength, logger)
}

// newMailer builds the SMTP mailer when mail settings are present. A nil
// mailer leaves notification flows reporting mailer.ErrNotConfigured.
func newMailer(cfg *MailConfig, logger *zap.Logger) (mailer.Mailer, error) {
	if cfg == nil || strings.TrimSpace(cfg.Host) == "" {
		return nil, mailer.ErrNotConfigured
	}

	smtpCfg := cfg.Config
	if cfg.PasswordFile != "" {
		password, err := secrets.Load(secrets.Source{
			Name: "smtp password",
			File: cfg.PasswordFile,
		})
		if err != nil {
			return nil, err
		}
		smtpCfg.Password = password
	}

	return mailer.NewSMTP(&smtpCfg, logger)
}
