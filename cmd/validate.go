package cmd

import (
	"fmt"

	"github.com/arcanaland/cardpress/internal/validator"
	"github.com/spf13/cobra"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the config file and, optionally, a records file",
	Long: `Validate checks the config file for unknown keys, bad colours, missing
logo and font files and unsupported export options. It also checks that every
paper profile's card grid fits its page. With --records it checks the records
file for missing fields and duplicate student codes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		recordsPath, _ := cmd.Flags().GetString("records")

		// Create validator and run validation
		v := validator.NewValidator(configPath(), recordsPath)
		results, err := v.Validate()
		if err != nil {
			return fmt.Errorf("validation error: %v", err)
		}

		// Display validation results
		fmt.Println("Validation Results:")
		fmt.Println("-------------------")

		if results.Valid() {
			fmt.Printf("✅ Config '%s' is valid.\n", v.ConfigPath)
		} else {
			fmt.Printf("❌ Found %d validation errors:\n", len(results.Errors))
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

func init() {
	RootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("records", "r", "", "also validate this JSON records file")
}
