package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/missionhq/internal/briefs"
	"github.com/abhisek/missionhq/internal/llm"
)

// draftOutput is a mission entry ready to paste into a campaign definition.
type draftOutput struct {
	ID           string   `yaml:"id"`
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description"`
	Experience   int      `yaml:"experience"`
	Currency     int      `yaml:"currency"`
	Confirmation string   `yaml:"confirmation,omitempty"`
	Steps        []string `yaml:"steps,omitempty"`
}

var draftCmd = &cobra.Command{
	Use:   "draft <topic>",
	Short: "Draft a mission brief with the configured LLM",
	Long: "Drafts a mission brief for the topic and prints it as a campaign mission entry. " +
		"Without an LLM provider an offline template is used.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		campaignTitle, _ := cmd.Flags().GetString("campaign-title")
		audience, _ := cmd.Flags().GetString("audience")
		confirmation, _ := cmd.Flags().GetString("confirmation")
		requires, _ := cmd.Flags().GetStringSlice("requires")

		a, err := openApp(cmd, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		provider, err := llm.NewProvider(ctx, a.cfg.LLM, a.store.EventRepo(), a.log)
		if err != nil {
			return fmt.Errorf("create llm provider: %w", err)
		}
		svc := briefs.NewService(provider, briefs.DefaultConfig(), a.log)
		if !svc.Enabled() {
			fmt.Fprintln(os.Stderr, "No LLM provider configured; using the offline template.")
		}

		b, err := svc.Draft(ctx, briefs.Request{
			Topic:         strings.Join(args, " "),
			CampaignTitle: campaignTitle,
			Audience:      audience,
			Confirmation:  confirmation,
			Prerequisites: requires,
		})
		if err != nil {
			return err
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode([]draftOutput{{
			ID:           slug(b.Title),
			Title:        b.Title,
			Description:  b.Description,
			Experience:   b.Experience,
			Currency:     b.Currency,
			Confirmation: confirmation,
			Steps:        b.Steps,
		}})
	},
}

// slug derives a mission id from a title.
func slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func init() {
	draftCmd.Flags().String("campaign-title", "", "Title of the campaign the mission belongs to")
	draftCmd.Flags().String("audience", "", "Who the mission is for, e.g. \"backend engineers\"")
	draftCmd.Flags().String("confirmation", "", "Confirmation type: auto, manual or qr")
	draftCmd.Flags().StringSlice("requires", nil, "Titles of prerequisite missions")
}
