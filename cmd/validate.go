package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arcanaland/proxier/internal/validator"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate [source]",
	Short: "Check a deck for problems before printing",
	Long: `Validate loads and normalizes a deck, then reports errors that prevent printing
and warnings about cards that will come out blank or duplicated.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := args[0]

		d, err := loadDeckArg(cmd, src)
		if err != nil {
			return err
		}

		results := validator.NewValidator(d).Validate()

		fmt.Println("Validation Results:")
		fmt.Println("-------------------")

		if results.Valid() {
			fmt.Printf("✅ Deck '%s' is ready to print (%d cards).\n", d.Name, d.TotalQuantity())
		} else {
			fmt.Printf("❌ Deck '%s' has %d validation errors:\n", d.Name, len(results.Errors))
			for i, err := range results.Errors {
				fmt.Printf("%d. %s\n", i+1, err)
			}
		}

		if len(results.Warnings) > 0 {
			fmt.Println("\nWarnings:")
			for i, warn := range results.Warnings {
				fmt.Printf("%d. %s\n", i+1, warn)
			}
		}

		if !results.Valid() {
			return fmt.Errorf("validation failed")
		}
		return nil
	},
}
