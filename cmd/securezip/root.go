package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/securezip/securezip"
)

// options holds the flags shared by all subcommands.
type options struct {
	password       string
	passwordPrompt bool
	algorithm      string
	compression    int
	verbose        bool
}

// newRootCommand creates the root command with the shared flag set.
func newRootCommand(version string) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "securezip",
		Short: "Create and extract zip files, plain or password-protected",
		Long: `securezip creates standard zip files and password-protected SECUREZIP
containers, and extracts both. Containers are self-describing: extraction
only needs the password, the algorithm is detected from the file.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))
		},
	}

	root.PersistentFlags().StringVarP(&opts.password, "password", "p", "",
		"encryption password; empty means no encryption")
	root.PersistentFlags().BoolVar(&opts.passwordPrompt, "password-prompt", false,
		"read the password interactively without echo")
	root.PersistentFlags().StringVarP(&opts.algorithm, "algorithm", "a", securezip.AlgorithmXOR.String(),
		fmt.Sprintf("encryption algorithm (%s)", strings.Join(algorithmTokens(), ", ")))
	root.PersistentFlags().IntVarP(&opts.compression, "compression-level", "c", securezip.DefaultCompressionLevel,
		"deflate compression level (0-9)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false,
		"enable debug logging")

	root.AddCommand(newCreateCommand(opts), newExtractCommand(opts), newTestCommand(opts))

	return root
}

// newZipper builds a SecureZipper from the shared options, resolving the
// password from the flag or an interactive prompt.
func newZipper(opts *options, confirm bool) (*securezip.SecureZipper, error) {
	algorithm, err := securezip.ParseAlgorithm(opts.algorithm)
	if err != nil {
		return nil, fmt.Errorf("%w (valid: %s)", err, strings.Join(algorithmTokens(), ", "))
	}

	zipper, err := securezip.New(&securezip.Config{
		CompressionLevel: opts.compression,
		Logger:           slog.Default(),
	})
	if err != nil {
		return nil, err
	}

	password := opts.password
	if password == "" && opts.passwordPrompt {
		password, err = promptPassword(confirm)
		if err != nil {
			return nil, err
		}
	}

	zipper.SetPassword(password, algorithm)
	return zipper, nil
}

// algorithmTokens lists the wire tokens of all supported algorithms.
func algorithmTokens() []string {
	algorithms := securezip.Algorithms()
	tokens := make([]string, 0, len(algorithms))
	for _, a := range algorithms {
		tokens = append(tokens, a.String())
	}
	return tokens
}
