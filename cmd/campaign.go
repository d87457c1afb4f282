package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/missionhq/internal/catalog"
)

var campaignCmd = &cobra.Command{
	Use:   "campaign",
	Short: "Publish and inspect campaigns",
}

var campaignImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Publish a campaign definition (YAML or JSON)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := catalog.LoadDefinition(args[0])
		if err != nil {
			return err
		}
		a, err := openApp(cmd, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.catalog.Import(cmd.Context(), def)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		switch {
		case res.Unchanged:
			fmt.Fprintf(out, "%s %s is already published.\n", res.CampaignID, res.Revision)
		case res.Created:
			fmt.Fprintf(out, "Published %s %s with %d missions.\n", res.CampaignID, res.Revision, res.Missions)
		default:
			fmt.Fprintf(out, "Updated %s %s -> %s (%d missions).\n", res.CampaignID, res.Previous, res.Revision, res.Missions)
		}
		return nil
	},
}

var campaignListCmd = &cobra.Command{
	Use:   "list",
	Short: "List published campaigns",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		list, err := a.catalog.Campaigns(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No campaigns published.")
			return nil
		}
		fmt.Fprintf(out, "%-24s  %-10s  %-19s  %s\n", "ID", "Revision", "Updated", "Title")
		fmt.Fprintln(out, strings.Repeat("─", 80))
		for _, c := range list {
			fmt.Fprintf(out, "%-24s  %-10s  %-19s  %s\n",
				c.ID, c.Revision, c.UpdatedAt.Local().Format("2006-01-02 15:04:05"), c.Title)
		}
		return nil
	},
}

var campaignShowCmd = &cobra.Command{
	Use:   "show <campaign>",
	Short: "Show a campaign's missions in dependency order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		c, err := a.catalog.Campaign(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s) revision %s\n\n", c.Title, c.ID, c.Revision)
		for _, m := range c.Graph.Missions() {
			indent := strings.Repeat("  ", c.Graph.Depth(m.ID))
			fmt.Fprintf(out, "%s%-20s %s  [%s, %d XP, %d credits]\n",
				indent, m.ID, m.Title, m.Confirmation, m.Experience, m.Currency)
			if reqs := c.Graph.PrerequisitesOf(m.ID); len(reqs) > 0 {
				fmt.Fprintf(out, "%s  requires: %s\n", indent, strings.Join(reqs, ", "))
			}
		}
		return nil
	},
}

func init() {
	campaignCmd.AddCommand(campaignImportCmd)
	campaignCmd.AddCommand(campaignListCmd)
	campaignCmd.AddCommand(campaignShowCmd)
}
