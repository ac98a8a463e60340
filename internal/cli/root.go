// Package cli implements the causelist command line client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cuongbtq/ecourts-causelist/internal/apiclient"
	"github.com/cuongbtq/ecourts-causelist/internal/causelist"
	"github.com/cuongbtq/ecourts-causelist/shared/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "causelist",
	Short: "Download eCourts cause lists",
	Long: `Client for the cause-list API service.

Pick a state, district, court complex and court, then request the cause list
PDF for a date. The service generates the document asynchronously; the client
polls for progress and reports the download link when it is ready.

Examples:
  causelist tui
  causelist fetch --state Delhi --district North --complex "Tis Hazari" --date 05-03-2025
  CAUSELIST_API_URL=http://10.0.0.5:5000 causelist fetch ... --download ./out`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./causelist.yaml or ~/.config/causelist/causelist.yaml)")
	rootCmd.PersistentFlags().String("api-url", "", "API service base URL")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to this file")

	_ = viper.BindPFlag("api_url", rootCmd.PersistentFlags().Lookup("api-url"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.file", rootCmd.PersistentFlags().Lookup("log-file"))

	setDefaults()
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setDefaults() {
	viper.SetDefault("api_url", "http://localhost:5000")
	viper.SetDefault("timeout", "30s")
	viper.SetDefault("poll_interval", "1s")
	viper.SetDefault("complete_delay", "1s")
	viper.SetDefault("error_hide_delay", "3s")
	viper.SetDefault("alert_ttl", "5s")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("log.file", "")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("causelist")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/causelist")
	}

	viper.SetEnvPrefix("CAUSELIST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			slog.Warn("Failed to read config file", slog.String("error", err.Error()))
		}
	}
}

// newLogger builds the client logger. output overrides the configured
// destination when log.file is unset.
func newLogger(output string) (*logger.Logger, error) {
	if file := viper.GetString("log.file"); file != "" {
		output = file
	}
	log, err := logger.New(&logger.Config{
		Level:      viper.GetString("log.level"),
		Format:     viper.GetString("log.format"),
		Output:     output,
		TimeFormat: "15:04:05",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}

func newClient(log *slog.Logger) *apiclient.Client {
	return apiclient.New(viper.GetString("api_url"), viper.GetDuration("timeout"), log)
}

func timing() causelist.Timing {
	return causelist.Timing{
		PollInterval:   viper.GetDuration("poll_interval"),
		CompleteDelay:  viper.GetDuration("complete_delay"),
		ErrorHideDelay: viper.GetDuration("error_hide_delay"),
	}
}
