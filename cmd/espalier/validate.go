package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/espalier/pkg/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a contract manifest for consistency",
	Long:  `Analyzes every node contract and reports unknown slices, unknown services, orphans and unreachable nodes.`,
	Run: func(cmd *cobra.Command, args []string) {
		manifest, _ := cmd.Flags().GetString("manifest")
		if len(args) > 0 {
			manifest = args[0]
		}
		strict, _ := cmd.Flags().GetBool("strict")

		if err := runValidate(manifest, strict); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Contracts are valid! ✅")
	},
}

func init() {
	validateCmd.Flags().Bool("strict", false, "Treat warnings as errors")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(path string, strict bool) error {
	reg, m, err := loadRegistry(path)
	if err != nil {
		return err
	}

	var opts []validator.Option
	if len(m.Services) > 0 {
		opts = append(opts, validator.WithKnownServices(m.Services...))
	}

	res := validator.New(reg, opts...).Validate()
	if out := res.String(); out != "OK" {
		fmt.Print(out)
	}

	if res.HasErrors() {
		return fmt.Errorf("%d error(s)", len(res.Errors))
	}
	if strict && res.HasWarnings() {
		return fmt.Errorf("%d warning(s) in strict mode", len(res.Warnings))
	}
	return nil
}
