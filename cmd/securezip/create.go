package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// newCreateCommand creates the "create" subcommand.
func newCreateCommand(opts *options) *cobra.Command {
	var (
		source        string
		files         []string
		output        string
		baseDir       string
		includeHidden bool
	)

	cmd := &cobra.Command{
		Use:   "create [flags]",
		Short: "Create a zip file from a file, directory or file list",
		Example: `  securezip create -s ./docs -o docs.zip
  securezip create -s ./docs -o docs.zip --include-hidden
  securezip create -f a.txt -f b.txt -o files.zip --base-dir .
  securezip create -s ./docs -o docs.zip -p mypassword123 -a hmac_sha256`,
		Args: cobra.NoArgs,
		PreRunE: func(_ *cobra.Command, _ []string) error {
			if (source == "") == (len(files) == 0) {
				return errors.New("exactly one of --source or --files is required")
			}
			if output == "" {
				return errors.New("--output is required")
			}
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			zipper, err := newZipper(opts, true)
			if err != nil {
				return err
			}

			if source != "" {
				err = zipper.CreateZip(source, output, includeHidden)
			} else {
				err = zipper.CreateZipFromFiles(files, output, baseDir)
			}
			if err != nil {
				return err
			}

			fmt.Printf("Created %q\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "file or directory to compress")
	cmd.Flags().StringSliceVarP(&files, "files", "f", nil, "individual files to compress (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output zip file path")
	cmd.Flags().StringVar(&baseDir, "base-dir", "", "base directory for relative entry names (with --files)")
	cmd.Flags().BoolVar(&includeHidden, "include-hidden", false, "include hidden files (names starting with a dot)")

	return cmd
}
