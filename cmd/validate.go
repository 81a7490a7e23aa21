package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scriptdex/scriptdex/pkg/catalog"
)

// validateRecord runs the same checks as the save-json endpoint.
func validateRecord(raw []byte) []catalog.Violation {
	_, v := catalog.Check(raw)
	return v
}

var validateCmd = &cobra.Command{
	Use:   "validate FILE...",
	Short: "Validate catalog record JSON files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		for _, path := range args {
			raw, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			violations := validateRecord(raw)
			for _, v := range violations {
				fmt.Printf("%s: %s\n", path, v)
			}
			if len(violations) > 0 {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d records invalid", failed, len(args))
		}
		fmt.Printf("%d records valid\n", len(args))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
