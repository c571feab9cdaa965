package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tradewave-network/tradewave/internal/app/reputation"
)

func init() {
	rootCmd.AddCommand(ratingCmd)
	ratingCmd.AddCommand(ratingShowCmd)
	ratingCmd.AddCommand(ratingRecomputeCmd)
}

var ratingCmd = &cobra.Command{
	Use:   "rating",
	Short: "Issuer reputation scores",
}

var ratingShowCmd = &cobra.Command{
	Use:   "show ENTITY_NAME",
	Short: "Show an issuer's score derived from its credit history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openService()
		if err != nil {
			return err
		}
		defer db.Close()

		e, err := db.GetEntityByName(args[0])
		if err != nil {
			return fmt.Errorf("entity %q: %w", args[0], err)
		}
		score, err := reputation.NewScorer(db).Compute(e.ID)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "%s: %.2f (%s)\n", e.Name, score.Overall(), score.TrustTier())
		fmt.Fprintf(os.Stdout, "  redemption: %.2f\n", score.Components.Redemption)
		fmt.Fprintf(os.Stdout, "  activity:   %.2f\n", score.Components.Activity)
		fmt.Fprintf(os.Stdout, "  longevity:  %.2f\n", score.Components.Longevity)
		fmt.Fprintf(os.Stdout, "  volume:     %.2f\n", score.Components.Volume)
		if score.Penalties > 0 {
			fmt.Fprintf(os.Stdout, "  penalties:  %.2f (expired unhonored supply)\n", score.Penalties)
		}
		fmt.Fprintf(os.Stdout, "  credits:    %d\n", score.CreditCount)
		return nil
	},
}

var ratingRecomputeCmd = &cobra.Command{
	Use:   "recompute ENTITY_NAME",
	Short: "Recompute an issuer's score and persist it as the entity rating",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openService()
		if err != nil {
			return err
		}
		defer db.Close()

		e, err := db.GetEntityByName(args[0])
		if err != nil {
			return fmt.Errorf("entity %q: %w", args[0], err)
		}
		score, err := reputation.NewScorer(db).Recompute(e.ID)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "%s rated %.2f (%s)\n", e.Name, score.Overall(), score.TrustTier())
		return nil
	},
}
