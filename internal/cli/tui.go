package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cuongbtq/ecourts-causelist/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive cause-list form",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// The terminal belongs to the form; logs go to a file or nowhere.
	log, err := newLogger("discard")
	if err != nil {
		return err
	}
	defer log.Close()

	return tui.Run(cmd.Context(), newClient(log.Logger), tui.Options{
		Logger:   log.Logger,
		Timing:   timing(),
		AlertTTL: viper.GetDuration("alert_ttl"),
		BaseURL:  viper.GetString("api_url"),
	})
}
