package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// newTestCommand creates the "test" subcommand. Its exit status reflects
// the boolean outcome, matching the "test" style of the library API.
func newTestCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "test ZIP",
		Short: "Check whether a zip file or container can be extracted",
		Example: `  securezip test docs.zip
  securezip test docs.zip -p mypassword123`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			zipper, err := newZipper(opts, false)
			if err != nil {
				return err
			}

			if !zipper.TestZipExtraction(args[0]) {
				return errors.New("extraction test failed")
			}

			fmt.Printf("%q extracts cleanly\n", args[0])
			return nil
		},
	}
}
