package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <key|name>",
	Short: "Delete a dictionary",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	client, err := daemonClient()
	if err != nil {
		return err
	}
	key, err := resolveKey(client, args[0])
	if err != nil {
		return err
	}

	removed, err := client.Delete(key)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Fprintf(cmd.OutOrStdout(), "⚡ %s was already gone\n", shortKey(key))
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "⚡ deleted %s\n", shortKey(key))
	return nil
}
