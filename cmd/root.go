package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hireflow/hireflow/internal/mailer"
)

const (
	app = "hireflow"
)

type Config struct {
	Server    *ServerConfig   `mapstructure:"server"`
	Database  *DatabaseConfig `mapstructure:"database"`
	Queue     *QueueConfig    `mapstructure:"queue"`
	Mail      *MailConfig     `mapstructure:"mail"`
	Reports   *ReportsConfig  `mapstructure:"reports"`
	AI        *AIConfig       `mapstructure:"ai"`
	WebAppURL string          `mapstructure:"webapp-url"`
}

type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type QueueConfig struct {
	URL  string `mapstructure:"url"`
	Name string `mapstructure:"name"`
}

type MailConfig struct {
	mailer.Config `mapstructure:",squash"`

	PasswordFile string `mapstructure:"password-file"`
}

type ReportsConfig struct {
	Dir string `mapstructure:"dir"`
}

type AIConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Gemini  *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "hireflow runs the AI-assisted interview lifecycle: shortlisting, invites, proctored interviews and reports",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("database.dsn", "DATABASE_DSN"); err != nil {
		log.Fatalf("binding DATABASE_DSN environment variable: %v", err)
	}
	if err := viper.BindEnv("queue.url", "RABBITMQ_URL"); err != nil {
		log.Fatalf("binding RABBITMQ_URL environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is hireflow.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// The version command runs without any configuration.
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		// Environment variables alone can carry a minimal setup.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
