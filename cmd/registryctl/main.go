// registryctl validates A2A agent cards from the command line, either
// from a local JSON file or by fetching an endpoint's well-known card.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/a2aregistry/backend/internal/models"
	"github.com/a2aregistry/backend/internal/probe"
	"github.com/a2aregistry/backend/internal/validation"
)

var rootCmd = &cobra.Command{
	Use:   "registryctl",
	Short: "Validation tooling for the A2A agent registry",
}

var validateCmd = &cobra.Command{
	Use:   "validate <agent-card.json>",
	Short: "Validate an agent card file without registering it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var card models.AgentCard
		if err := json.Unmarshal(data, &card); err != nil {
			return fmt.Errorf("parse %q: %w", args[0], err)
		}
		res := validation.ValidateCard(card)
		printResult(res)
		if !res.Valid {
			os.Exit(1)
		}
		return nil
	},
}

var checkTimeout time.Duration

var checkCmd = &cobra.Command{
	Use:   "check <agent-url>",
	Short: "Fetch an endpoint's well-known agent card and validate it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
		defer cancel()

		fmt.Printf("Checking endpoint: %s\n", args[0])
		raw, err := probe.FetchCard(ctx, nil, args[0])
		if err != nil {
			return err
		}
		var card models.AgentCard
		if err := json.Unmarshal(raw, &card); err != nil {
			return fmt.Errorf("well-known card is not a valid agent card: %w", err)
		}
		res := validation.ValidateCard(card)
		printResult(res)
		if !res.Valid {
			os.Exit(1)
		}
		return nil
	},
}

func printResult(res validation.Result) {
	fmt.Printf("Valid: %v\n", res.Valid)
	if len(res.Errors) > 0 {
		fmt.Println("\nErrors:")
		for _, e := range res.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	if len(res.Warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range res.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
}

func main() {
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 10*time.Second, "How long to wait for the endpoint")
	rootCmd.AddCommand(validateCmd, checkCmd)
	cobra.CheckErr(rootCmd.Execute())
}
