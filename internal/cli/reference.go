package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tradewave-network/tradewave/internal/domain"
)

func init() {
	rootCmd.AddCommand(cityCmd)
	rootCmd.AddCommand(venueCmd)
	rootCmd.AddCommand(industryCmd)

	cityCmd.AddCommand(cityAddCmd)
	cityCmd.AddCommand(cityListCmd)

	venueCmd.AddCommand(venueAddCmd)
	venueCmd.AddCommand(venueListCmd)
	venueAddCmd.Flags().String("city", "", "City ID (required)")
	venueAddCmd.Flags().String("address", "", "Street address")
	venueAddCmd.Flags().String("zip", "", "Zipcode")
	venueAddCmd.MarkFlagRequired("city")

	industryCmd.AddCommand(industryAddCmd)
}

// ─── city ───────────────────────────────────────────────────────────────────

var cityCmd = &cobra.Command{
	Use:   "city",
	Short: "Manage cities",
}

var cityAddCmd = &cobra.Command{
	Use:   "add NAME STATE COUNTRY",
	Short: "Register a city",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openService()
		if err != nil {
			return err
		}
		defer db.Close()

		city, err := db.AddCity(args[0], args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s (%s)\n", city, city.ID)
		return nil
	},
}

var cityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cities",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openService()
		if err != nil {
			return err
		}
		defer db.Close()

		cities, err := db.ListCities()
		if err != nil {
			return err
		}
		for _, c := range cities {
			fmt.Fprintf(os.Stdout, "  %-20s %-15s %-15s %s\n", c.Name, c.State, c.Country, c.ID)
		}
		return nil
	},
}

// ─── venue ──────────────────────────────────────────────────────────────────

var venueCmd = &cobra.Command{
	Use:   "venue",
	Short: "Manage venues",
}

var venueAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Register a venue in a city",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cityID, _ := cmd.Flags().GetString("city")
		address, _ := cmd.Flags().GetString("address")
		zip, _ := cmd.Flags().GetString("zip")

		db, _, err := openService()
		if err != nil {
			return err
		}
		defer db.Close()

		venue, err := db.AddVenue(&domain.Venue{
			Name:    args[0],
			Address: address,
			Zipcode: zip,
			CityID:  cityID,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Venue %q registered (%s)\n", venue.Name, venue.ID)
		return nil
	},
}

var venueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List venues",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openService()
		if err != nil {
			return err
		}
		defer db.Close()

		venues, err := db.ListVenues()
		if err != nil {
			return err
		}
		for _, v := range venues {
			fmt.Fprintf(os.Stdout, "  %s (%s)\n", v, v.ID)
		}
		return nil
	},
}

// ─── industry ───────────────────────────────────────────────────────────────

var industryCmd = &cobra.Command{
	Use:   "industry",
	Short: "Manage industries",
}

var industryAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Register an industry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openService()
		if err != nil {
			return err
		}
		defer db.Close()

		ind, err := db.AddIndustry(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Industry %q registered (%s)\n", ind.Name, ind.ID)
		return nil
	},
}
