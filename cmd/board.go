package cmd

import (
	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/missionhq/internal/board"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Open the interactive mission board",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		campaignID, _ := cmd.Flags().GetString("campaign")

		a, err := openApp(cmd, appOptions{quiet: true})
		if err != nil {
			return err
		}
		defer a.Close()

		c, err := a.catalog.Campaign(cmd.Context(), campaignID)
		if err != nil {
			return err
		}
		m := board.New(cmd.Context(), user, c, a.tracker, a.confirm, a.log)
		_, err = tea.NewProgram(m).Run()
		return err
	},
}

func init() {
	boardCmd.Flags().StringP("user", "u", "", "Cadet id")
	boardCmd.Flags().StringP("campaign", "c", "", "Campaign id")
	_ = boardCmd.MarkFlagRequired("user")
	_ = boardCmd.MarkFlagRequired("campaign")
}
