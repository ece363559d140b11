package main

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"
)

// promptPassword reads a password from the terminal without echo. When
// confirm is set the password is read twice and must match.
func promptPassword(confirm bool) (string, error) {
	password, err := readPassword("Password: ")
	if err != nil {
		return "", err
	}

	if confirm && password != "" {
		again, err := readPassword("Confirm password: ")
		if err != nil {
			return "", err
		}
		if password != again {
			return "", errors.New("passwords do not match")
		}
	}

	return password, nil
}

// readPassword prompts on stderr and reads from the controlling
// terminal, falling back to /dev/tty when stdin is piped.
func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		tty, err := os.Open("/dev/tty")
		if err != nil {
			return "", errors.New("cannot prompt for password: stdin is not a terminal")
		}
		defer tty.Close()
		fd = int(tty.Fd())
	}

	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}

	return string(password), nil
}
