package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/missionhq/internal/wallet"
)

var shopCmd = &cobra.Command{
	Use:   "shop",
	Short: "Manage the rewards shop",
}

var shopAddCmd = &cobra.Command{
	Use:   "add <id> <title>",
	Short: "Add or update a shop item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		price, _ := cmd.Flags().GetInt("price")
		stock, _ := cmd.Flags().GetInt("stock")

		a, err := openApp(cmd, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		item, err := a.wallet.AddItem(cmd.Context(), wallet.Item{
			ID: args[0], Title: args[1], Price: price, Stock: stock,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s) for %d credits, stock %s.\n",
			item.ID, item.Title, item.Price, stockText(item))
		return nil
	},
}

var shopListCmd = &cobra.Command{
	Use:   "list",
	Short: "List shop items",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		items, err := a.wallet.Items(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(items) == 0 {
			fmt.Fprintln(out, "The shop is empty.")
			return nil
		}
		fmt.Fprintf(out, "%-20s  %-32s  %-7s  %s\n", "ID", "Title", "Price", "Stock")
		fmt.Fprintln(out, strings.Repeat("─", 72))
		for _, it := range items {
			fmt.Fprintf(out, "%-20s  %-32s  %-7d  %s\n", it.ID, it.Title, it.Price, stockText(it))
		}
		return nil
	},
}

var shopBuyCmd = &cobra.Command{
	Use:   "buy <item>",
	Short: "Buy an item for a cadet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		a, err := openApp(cmd, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.wallet.Buy(cmd.Context(), user, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s bought %s for %d credits (purchase %s).\n",
			p.UserID, p.ItemID, p.Price, p.ID)
		return nil
	},
}

func stockText(it wallet.Item) string {
	if it.Unlimited() {
		return "unlimited"
	}
	return fmt.Sprint(it.Stock)
}

func init() {
	shopAddCmd.Flags().Int("price", 0, "Price in credits")
	shopAddCmd.Flags().Int("stock", -1, "Units available (-1 for unlimited)")
	_ = shopAddCmd.MarkFlagRequired("price")

	shopBuyCmd.Flags().StringP("user", "u", "", "Cadet id")
	_ = shopBuyCmd.MarkFlagRequired("user")

	shopCmd.AddCommand(shopAddCmd)
	shopCmd.AddCommand(shopListCmd)
	shopCmd.AddCommand(shopBuyCmd)
}
