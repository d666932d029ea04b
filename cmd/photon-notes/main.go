// Copyright (C) 2026 Photon Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// photon-notes is a small CLI front end for the photon relay: it
// provisions a notebook for a wallet and saves notes into it, the same
// two calls the web client makes.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/photonlabs/photon/pkg/relayclient"
)

var (
	relayURL string
	wallet   string

	rootCmd = &cobra.Command{
		Use:   "photon-notes",
		Short: "Save physics notes into your wallet's Photon notebook",
		Long: `photon-notes talks to the photon relay service. The first call
for a wallet provisions a Notion notebook; every note after that is
appended to the same notebook.`,
	}

	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Provision (or look up) the notebook for the wallet",
		RunE:  runInitCommand,
	}

	saveCmd = &cobra.Command{
		Use:   "save [note text]",
		Short: "Append a note to the wallet's notebook",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSaveCommand,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&relayURL, "relay-url",
		envOr("PHOTON_RELAY_URL", "http://localhost:5001"),
		"Base URL of the photon relay service")
	rootCmd.PersistentFlags().StringVar(&wallet, "wallet",
		os.Getenv("PHOTON_WALLET"),
		"Wallet address identifying the notebook tenant")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(saveCmd)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func requireWallet() error {
	if wallet == "" {
		return fmt.Errorf("no wallet address: pass --wallet or set PHOTON_WALLET")
	}
	return nil
}

func runInitCommand(cmd *cobra.Command, args []string) error {
	if err := requireWallet(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := relayclient.New(relayURL, nil)
	pageID, err := client.EnsureNotebook(ctx, wallet)
	if err != nil {
		return err
	}

	fmt.Printf("Notebook ready: %s\n", pageID)
	return nil
}

func runSaveCommand(cmd *cobra.Command, args []string) error {
	if err := requireWallet(); err != nil {
		return err
	}

	content := strings.Join(args, " ")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := relayclient.New(relayURL, nil)
	if err := client.SaveNote(ctx, wallet, content); err != nil {
		return err
	}

	fmt.Println("Note saved")
	return nil
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
