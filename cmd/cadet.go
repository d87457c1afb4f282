package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var cadetCmd = &cobra.Command{
	Use:   "cadet",
	Short: "Enroll cadets and inspect their progress",
}

var cadetInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Enroll a cadet in a campaign",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		campaignID, _ := cmd.Flags().GetString("campaign")

		a, err := openApp(cmd, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		g, err := a.catalog.Graph(cmd.Context(), campaignID)
		if err != nil {
			return err
		}
		res, err := a.tracker.Initialize(cmd.Context(), user, g)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Enrolled %s in %s: %d created, %d existing.\n",
			res.UserID, res.CampaignID, res.Created, res.Existing)
		if res.Unlocked > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "  %d missions unlocked by the current revision\n", res.Unlocked)
		}
		return nil
	},
}

var cadetProgressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show a cadet's missions in a campaign",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		campaignID, _ := cmd.Flags().GetString("campaign")

		a, err := openApp(cmd, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		c, err := a.catalog.Campaign(cmd.Context(), campaignID)
		if err != nil {
			return err
		}
		states, err := a.tracker.Progress(cmd.Context(), user, c.Graph)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(states) == 0 {
			fmt.Fprintf(out, "%s is not enrolled in %s.\n", user, c.ID)
			return nil
		}
		fmt.Fprintf(out, "%-2s  %-20s  %-32s  %-22s  %s\n", "", "Mission", "Title", "Status", "Since")
		fmt.Fprintln(out, strings.Repeat("─", 100))
		for _, st := range states {
			m, _ := c.Graph.Mission(st.MissionID)
			fmt.Fprintf(out, "%-2s  %-20s  %-32s  %-22s  %s\n",
				st.Status.Icon(), st.MissionID, m.Title, c.Theme.Label(st.Status),
				st.EnteredAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var cadetStandingCmd = &cobra.Command{
	Use:   "standing",
	Short: "Show a cadet's balance and rank",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		a, err := openApp(cmd, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.wallet.Standing(cmd.Context(), user)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %s\n", s.UserID, s.Rank.Name)
		fmt.Fprintf(out, "  experience  %d\n", s.Balance.Experience)
		fmt.Fprintf(out, "  credits     %d (spent %d)\n", s.Balance.Currency, s.Balance.Spent)
		if s.NextRank != nil {
			fmt.Fprintf(out, "  next rank   %s in %d XP (%d%%)\n", s.NextRank.Name, s.ToNext, int(s.Progress*100))
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{cadetInitCmd, cadetProgressCmd, cadetStandingCmd} {
		c.Flags().StringP("user", "u", "", "Cadet id")
		_ = c.MarkFlagRequired("user")
		cadetCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{cadetInitCmd, cadetProgressCmd} {
		c.Flags().StringP("campaign", "c", "", "Campaign id")
		_ = c.MarkFlagRequired("campaign")
	}
}
