package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(issueCmd)
	rootCmd.AddCommand(transferCmd)
	rootCmd.AddCommand(redeemCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(verifyCmd)

	issueCmd.Flags().IntP("series", "s", 1, "Credit series number")
	issueCmd.Flags().StringP("amount", "a", "", "Amount to issue in USD (required)")
	issueCmd.Flags().Int("expires-days", 0, "Days until expiration (default from config)")
	issueCmd.MarkFlagRequired("amount")

	transferCmd.Flags().StringP("amount", "a", "", "Amount to transfer in USD (required)")
	transferCmd.Flags().String("venue", "", "Venue ID where the transaction takes place (required)")
	transferCmd.Flags().Bool("redeem", false, "Redeem back to the issuer (extinguishes the credit)")
	transferCmd.MarkFlagRequired("amount")
	transferCmd.MarkFlagRequired("venue")

	redeemCmd.Flags().StringP("amount", "a", "", "Amount to redeem in USD (required)")
	redeemCmd.Flags().String("venue", "", "Venue ID where the redemption takes place (required)")
	redeemCmd.MarkFlagRequired("amount")
	redeemCmd.MarkFlagRequired("venue")

	historyCmd.Flags().String("since", "", "Only rows at or after this RFC3339 time")
	historyCmd.Flags().String("until", "", "Only rows at or before this RFC3339 time")
}

func parseAmount(cmd *cobra.Command) (decimal.Decimal, error) {
	raw, _ := cmd.Flags().GetString("amount")
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid --amount %q: %w", raw, err)
	}
	return amount, nil
}

// ─── issue ──────────────────────────────────────────────────────────────────

var issueCmd = &cobra.Command{
	Use:   "issue ISSUER_NAME CREDIT_NAME",
	Short: "Issue a new credit series",
	Long: `Issue a new credit series. The issuer's own account is credited with
the full issued amount.`,
	Args: cobra.ExactArgs(2),
	RunE: runIssue,
}

func runIssue(cmd *cobra.Command, args []string) error {
	amount, err := parseAmount(cmd)
	if err != nil {
		return err
	}
	series, _ := cmd.Flags().GetInt("series")
	expireDays, _ := cmd.Flags().GetInt("expires-days")

	db, svc, err := openService()
	if err != nil {
		return err
	}
	defer db.Close()

	issuer, err := db.GetEntityByName(args[0])
	if err != nil {
		return fmt.Errorf("issuer %q: %w", args[0], err)
	}

	var expire time.Time
	if expireDays > 0 {
		expire = time.Now().UTC().AddDate(0, 0, expireDays)
	}

	credit, err := svc.IssueCredit(context.Background(), issuer.ID, issuer.ID,
		args[1], series, amount, expire)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Issued %s\n", credit)
	fmt.Fprintf(os.Stdout, "  id:      %s\n", credit.ID)
	fmt.Fprintf(os.Stdout, "  amount:  %s\n", credit.AmountIssued)
	fmt.Fprintf(os.Stdout, "  expires: %s\n", credit.DateExpire.Format(time.RFC3339))
	return nil
}

// ─── transfer ───────────────────────────────────────────────────────────────

var transferCmd = &cobra.Command{
	Use:   "transfer FROM_NAME TO_NAME CREDIT_ID",
	Short: "Transfer credit between two entities",
	Args:  cobra.ExactArgs(3),
	RunE:  runTransfer,
}

func runTransfer(cmd *cobra.Command, args []string) error {
	amount, err := parseAmount(cmd)
	if err != nil {
		return err
	}
	venueID, _ := cmd.Flags().GetString("venue")
	redeem, _ := cmd.Flags().GetBool("redeem")

	db, svc, err := openService()
	if err != nil {
		return err
	}
	defer db.Close()

	fromEntity, fromAccount, err := resolveAccount(db, args[0])
	if err != nil {
		return err
	}
	_, toAccount, err := resolveAccount(db, args[1])
	if err != nil {
		return err
	}

	logRow, err := svc.Transfer(context.Background(), fromEntity.ID,
		fromAccount.ID, toAccount.ID, args[2], amount, venueID, redeem)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%s\n", logRow)
	fmt.Fprintf(os.Stdout, "  transaction: %s\n", logRow.ID)
	return nil
}

// ─── redeem ─────────────────────────────────────────────────────────────────

var redeemCmd = &cobra.Command{
	Use:   "redeem HOLDER_NAME CREDIT_ID",
	Short: "Redeem credit back to its issuer",
	Long: `Return credit to its issuer, permanently reducing transferable
supply and advancing the credit's redemption rating.`,
	Args: cobra.ExactArgs(2),
	RunE: runRedeem,
}

func runRedeem(cmd *cobra.Command, args []string) error {
	amount, err := parseAmount(cmd)
	if err != nil {
		return err
	}
	venueID, _ := cmd.Flags().GetString("venue")

	db, svc, err := openService()
	if err != nil {
		return err
	}
	defer db.Close()

	holder, account, err := resolveAccount(db, args[0])
	if err != nil {
		return err
	}

	logRow, err := svc.Redeem(context.Background(), holder.ID, account.ID,
		args[1], amount, venueID)
	if err != nil {
		return err
	}

	credit, err := db.GetCredit(args[1])
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%s\n", logRow)
	fmt.Fprintf(os.Stdout, "  redeemed %s of %s (rating now %.2f)\n",
		logRow.Amount, credit.AmountIssued, credit.Rating())
	return nil
}

// ─── balance ────────────────────────────────────────────────────────────────

var balanceCmd = &cobra.Command{
	Use:   "balance ENTITY_NAME [CREDIT_ID]",
	Short: "Show an entity's credit holdings",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runBalance,
}

func runBalance(cmd *cobra.Command, args []string) error {
	db, svc, err := openService()
	if err != nil {
		return err
	}
	defer db.Close()

	_, account, err := resolveAccount(db, args[0])
	if err != nil {
		return err
	}

	if len(args) == 2 {
		amount, err := svc.Balance(account.ID, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s\n", amount)
		return nil
	}

	holdings, err := svc.Balances(account.ID)
	if err != nil {
		return err
	}
	if len(holdings) == 0 {
		fmt.Fprintln(os.Stdout, "No holdings.")
		return nil
	}
	for _, h := range holdings {
		fmt.Fprintf(os.Stdout, "  %s\n", h)
	}
	fmt.Fprintf(os.Stdout, "Total: %s\n", account.AmountTotal)
	return nil
}

// ─── history ────────────────────────────────────────────────────────────────

var historyCmd = &cobra.Command{
	Use:   "history ENTITY_NAME",
	Short: "Show an entity's transaction history, newest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	var since, until time.Time
	if raw, _ := cmd.Flags().GetString("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("invalid --since %q: %w", raw, err)
		}
		since = t
	}
	if raw, _ := cmd.Flags().GetString("until"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("invalid --until %q: %w", raw, err)
		}
		until = t
	}

	db, svc, err := openService()
	if err != nil {
		return err
	}
	defer db.Close()

	_, account, err := resolveAccount(db, args[0])
	if err != nil {
		return err
	}

	rows, err := svc.History(account.ID, since, until)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stdout, "No transactions.")
		return nil
	}
	for _, row := range rows {
		flag := ""
		if row.Redeemed {
			flag = " [redeemed]"
		}
		fmt.Fprintf(os.Stdout, "  %s  %s%s\n",
			row.Timestamp.Format(time.RFC3339), row, flag)
	}
	return nil
}

// ─── verify ─────────────────────────────────────────────────────────────────

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check ledger invariants",
	Long: `Recompute account totals and credit supply and report any drift.
Findings indicate a store bug and should be treated as alerting conditions.`,
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	db, _, err := openService()
	if err != nil {
		return err
	}
	defer db.Close()

	findings, err := db.VerifyIntegrity()
	if err != nil {
		return err
	}
	if len(findings) == 0 {
		fmt.Fprintln(os.Stdout, "Ledger is consistent.")
		return nil
	}
	for _, f := range findings {
		fmt.Fprintf(os.Stdout, "  VIOLATION: %s\n", f)
	}
	return fmt.Errorf("%d invariant violation(s) found", len(findings))
}
