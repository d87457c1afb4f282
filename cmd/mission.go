package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/missionhq/internal/progress"
)

var missionCmd = &cobra.Command{
	Use:   "mission",
	Short: "Move missions through their lifecycle",
}

var missionTransitionCmd = &cobra.Command{
	Use:   "transition <mission> <status>",
	Short: "Request a status change for a cadet's mission",
	Long: "Request a status change. Statuses: " + statusNames() + ".\n" +
		"Architects approve a manual mission by moving it from PENDING_REVIEW to COMPLETED, " +
		"or reject it by moving it back to IN_PROGRESS.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		target, err := progress.ParseStatus(args[1])
		if err != nil {
			return err
		}

		a, err := openApp(cmd, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		tr, err := a.tracker.RequestTransition(cmd.Context(), user, args[0], target)
		if err != nil {
			return err
		}
		printTransition(cmd.OutOrStdout(), tr)
		return nil
	},
}

var missionReconcileCmd = &cobra.Command{
	Use:   "reconcile <mission>",
	Short: "Re-run the completion hook for a completed mission",
	Long: "Credits the reward if it was never credited and unlocks dependents whose " +
		"prerequisites are all completed. Running it again changes nothing.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		a, err := openApp(cmd, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		c, err := a.tracker.OnMissionCompleted(cmd.Context(), user, args[0])
		if err != nil {
			return err
		}
		printCompletion(cmd.OutOrStdout(), &c)
		return nil
	},
}

var missionQRCmd = &cobra.Command{
	Use:   "qr",
	Short: "Issue and redeem QR confirmation codes",
}

var missionQRIssueCmd = &cobra.Command{
	Use:   "issue <mission>",
	Short: "Issue a signed confirmation code for a QR mission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		code, err := a.confirm.Issue(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Mission:  %s\n", code.MissionID)
		fmt.Fprintf(out, "Expires:  %s\n", code.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Code:\n%s\n", code.Token)
		return nil
	},
}

var missionQRRedeemCmd = &cobra.Command{
	Use:   "redeem <mission> <code>",
	Short: "Redeem a confirmation code for a cadet",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		a, err := openApp(cmd, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		tr, err := a.confirm.Redeem(cmd.Context(), user, args[0], strings.TrimSpace(args[1]))
		if err != nil {
			return err
		}
		printTransition(cmd.OutOrStdout(), tr)
		return nil
	},
}

func printTransition(out io.Writer, tr progress.Transition) {
	if !tr.Changed {
		fmt.Fprintf(out, "%s is already %s.\n", tr.MissionID, tr.From)
		return
	}
	fmt.Fprintf(out, "%s: %s -> %s\n", tr.MissionID, tr.From, tr.To)
	if tr.Completion != nil {
		printCompletion(out, tr.Completion)
	}
}

func printCompletion(out io.Writer, c *progress.Completion) {
	if c.Credited {
		fmt.Fprintf(out, "  +%d XP, +%d credits\n", c.Experience, c.Currency)
	} else {
		fmt.Fprintln(out, "  reward already credited")
	}
	for _, id := range c.Unlocked {
		fmt.Fprintf(out, "  unlocked %s\n", id)
	}
}

func statusNames() string {
	names := make([]string, 0, 5)
	for _, s := range progress.AllStatuses() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

func init() {
	for _, c := range []*cobra.Command{missionTransitionCmd, missionReconcileCmd, missionQRRedeemCmd} {
		c.Flags().StringP("user", "u", "", "Cadet id")
		_ = c.MarkFlagRequired("user")
	}
	missionQRCmd.AddCommand(missionQRIssueCmd)
	missionQRCmd.AddCommand(missionQRRedeemCmd)

	missionCmd.AddCommand(missionTransitionCmd)
	missionCmd.AddCommand(missionReconcileCmd)
	missionCmd.AddCommand(missionQRCmd)
}
