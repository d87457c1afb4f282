package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/missionhq/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "missionhq",
	Short: "Gamified onboarding missions for engineering teams",
	Long: "MissionHQ turns onboarding into campaigns of missions. Architects publish " +
		"campaigns, cadets work through them, and completed missions pay out experience and credits.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Database path or DSN (overrides MISSIONHQ_DB)")
	rootCmd.PersistentFlags().String("db-driver", "", "Database driver: sqlite or postgres (overrides MISSIONHQ_DB_DRIVER)")
	rootCmd.PersistentFlags().String("log-mode", "", "Log mode: dev or prod (overrides MISSIONHQ_LOG_MODE)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(campaignCmd)
	rootCmd.AddCommand(cadetCmd)
	rootCmd.AddCommand(missionCmd)
	rootCmd.AddCommand(shopCmd)
	rootCmd.AddCommand(draftCmd)
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the environment and applies persistent flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.DB = v
	}
	if v, _ := cmd.Flags().GetString("db-driver"); v != "" {
		cfg.DBDriver = strings.ToLower(strings.TrimSpace(v))
	}
	if v, _ := cmd.Flags().GetString("log-mode"); v != "" {
		cfg.LogMode = v
	}
	return cfg, nil
}
