package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jask/solvetree/internal/secrets"
)

func runTokenSet(cmd *cobra.Command, args []string) error {
	store, err := secrets.DefaultStore()
	if err != nil {
		return err
	}
	if err := store.StoreHostToken(args[0], args[1]); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "token saved for %s\n", args[0])
	return nil
}

func runTokenDelete(cmd *cobra.Command, args []string) error {
	store, err := secrets.DefaultStore()
	if err != nil {
		return err
	}
	if err := store.DeleteHostToken(args[0]); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "token removed for %s\n", args[0])
	return nil
}
