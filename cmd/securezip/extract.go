package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newExtractCommand creates the "extract" subcommand.
func newExtractCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "extract ZIP DEST",
		Short: "Extract a zip file or SECUREZIP container",
		Example: `  securezip extract docs.zip ./restore
  securezip extract docs.zip ./restore -p mypassword123`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			zipper, err := newZipper(opts, false)
			if err != nil {
				return err
			}

			if err := zipper.ExtractZip(args[0], args[1]); err != nil {
				return err
			}

			fmt.Printf("Extracted %q to %q\n", args[0], args[1])
			return nil
		},
	}
}
