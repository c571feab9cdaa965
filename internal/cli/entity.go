package cli

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/tradewave-network/tradewave/internal/domain"
	"github.com/tradewave-network/tradewave/internal/infra/sqlite"
)

func init() {
	rootCmd.AddCommand(entityCmd)
	entityCmd.AddCommand(entityCreateCmd)
	entityCmd.AddCommand(entityListCmd)

	entityCreateCmd.Flags().StringP("kind", "k", "personal", "Entity kind: personal, vendor, or marketplace")
	entityCreateCmd.Flags().String("email", "", "Contact email")
	entityCreateCmd.Flags().Bool("can-issue", false, "Allow this entity to issue credits")
	entityCreateCmd.Flags().String("industry", "", "Industry ID (vendors)")
	entityCreateCmd.Flags().Bool("csa", false, "Vendor runs a CSA")
	entityCreateCmd.Flags().String("max-issue", "", "Issuance cap in USD (vendors)")
	entityCreateCmd.Flags().String("city", "", "City ID (marketplaces)")
}

var entityCmd = &cobra.Command{
	Use:   "entity",
	Short: "Manage marketplace participants",
}

// ─── entity create ──────────────────────────────────────────────────────────

var entityCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Register a new entity and its wallet account",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntityCreate,
}

func runEntityCreate(cmd *cobra.Command, args []string) error {
	kind, _ := cmd.Flags().GetString("kind")
	email, _ := cmd.Flags().GetString("email")
	canIssue, _ := cmd.Flags().GetBool("can-issue")
	industry, _ := cmd.Flags().GetString("industry")
	csa, _ := cmd.Flags().GetBool("csa")
	maxIssue, _ := cmd.Flags().GetString("max-issue")
	city, _ := cmd.Flags().GetString("city")

	e := &domain.Entity{
		Kind:       domain.EntityKind(kind),
		Name:       args[0],
		Email:      email,
		CanIssue:   canIssue,
		IndustryID: industry,
		IsCSA:      csa,
		CityID:     city,
	}
	if maxIssue != "" {
		capAmount, err := decimal.NewFromString(maxIssue)
		if err != nil {
			return fmt.Errorf("invalid --max-issue %q: %w", maxIssue, err)
		}
		e.MaxIssue = capAmount
	}

	db, _, err := openService()
	if err != nil {
		return err
	}
	defer db.Close()

	created, err := db.CreateEntity(e)
	if err != nil {
		return err
	}
	account, err := db.AccountForEntity(created.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Created %s %q\n", created.Kind, created.Name)
	fmt.Fprintf(os.Stdout, "  entity:  %s\n", created.ID)
	fmt.Fprintf(os.Stdout, "  account: %s\n", account.ID)
	return nil
}

// ─── entity list ────────────────────────────────────────────────────────────

var entityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered entities",
	RunE:  runEntityList,
}

func runEntityList(cmd *cobra.Command, args []string) error {
	db, _, err := openService()
	if err != nil {
		return err
	}
	defer db.Close()

	entities, err := db.ListEntities()
	if err != nil {
		return err
	}
	if len(entities) == 0 {
		fmt.Fprintln(os.Stdout, "No entities registered.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "Entities (%d):\n", len(entities))
	for _, e := range entities {
		issue := ""
		if e.CanIssue {
			issue = " [issuer]"
		}
		fmt.Fprintf(os.Stdout, "  %-12s %-30s rating %.2f%s\n", e.Kind, e.Name, e.Rating, issue)
	}
	return nil
}

// resolveAccount maps an entity name to its wallet account.
func resolveAccount(db *sqlite.DB, name string) (*domain.Entity, *domain.Account, error) {
	e, err := db.GetEntityByName(name)
	if err != nil {
		return nil, nil, fmt.Errorf("entity %q: %w", name, err)
	}
	a, err := db.AccountForEntity(e.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("account for %q: %w", name, err)
	}
	return e, a, nil
}
