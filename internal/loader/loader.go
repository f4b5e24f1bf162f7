// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/term"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/pexctl/pexctl/internal/backend"
	"github.com/pexctl/pexctl/internal/export"
)

// GetPassphrase prompts interactively for a passphrase without echoing input.
func GetPassphrase() (string, error) {
	var password []byte
	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, os.Interrupt)

	oldState, err := term.MakeRaw(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	defer term.Restore(int(syscall.Stdin), oldState) //nolint:errcheck

	fmt.Print("Enter passphrase: ")
	defer fmt.Print("\r")

loop:
	for {
		select {
		case <-signalChannel:
			fmt.Println("\nInterrupt received, exiting...")
			return "", fmt.Errorf("interrupted")
		default:
			var buf [1]byte
			n, readErr := syscall.Read(syscall.Stdin, buf[:])
			if readErr != nil || n == 0 {
				break loop
			}
			if buf[0] == '\n' || buf[0] == '\r' {
				break loop
			}
			if buf[0] == 127 || buf[0] == 8 { // Handle backspace
				if len(password) > 0 {
					password = password[:len(password)-1]
					fmt.Print("\b \b")
				}
			} else {
				password = append(password, buf[0])
				fmt.Print("*")
			}
		}
	}
	fmt.Println()
	return string(password), nil
}

// LoadSnapshotData loads and optionally decrypts the newest export from the
// detected source at the provided rootDir.
func LoadSnapshotData(ctx context.Context, cmd *cli.Command, rootDir string) (map[string]interface{}, error) {
	// Check to make sure the target directory looks like it might hold a
	// legit export source.
	sourceFile := filepath.Join(rootDir, ".pexctl", "source.json")
	exportFile := filepath.Join(rootDir, "prompts.export.json")
	labelFile := filepath.Join(rootDir, ".pexctl", "label")
	if !anyExists(sourceFile, exportFile, labelFile) {
		return nil, fmt.Errorf("no export source found in %s", rootDir)
	}

	// Figure out what type of Backend we're in.
	be, err := backend.NewBackend(ctx, *cmd)
	if err != nil {
		log.Errorf("err: %v", err)
		return nil, err
	}

	// Get the export payload.
	doc, err := be.Snapshot()
	if err != nil {
		log.Errorf("err: %v", err)
		return nil, err
	}

	doc, err = export.MaybeGunzip(doc)
	if err != nil {
		return nil, err
	}

	// If the export is encrypted, there's a little more work to do.
	if export.IsEncrypted(doc) {
		// First, look to the flag for passphrase value.
		passphrase := cmd.String("passphrase")

		// Next look in env PEXCTL_PASSPHRASE and use it if found.
		if passphrase == "" {
			passphrase = os.Getenv("PEXCTL_PASSPHRASE")
		}

		// Finally, prompt for passphrase
		if passphrase == "" {
			passphrase, _ = GetPassphrase()
		}

		doc, err = export.Decrypt(doc, passphrase)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt: %w", err)
		}
	}

	// Parse the export payload as JSON
	var snapData map[string]interface{}
	if err := json.Unmarshal(doc, &snapData); err != nil {
		return nil, fmt.Errorf("failed to parse export JSON: %w", err)
	}

	return snapData, nil
}

func anyExists(paths ...string) bool {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}

	return false
}
