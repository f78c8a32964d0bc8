package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/corey/acmatch/internal/adapters/socket"
	"github.com/corey/acmatch/internal/app"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List dictionaries",
	Long:  "Lists every persisted dictionary; ● marks the ones built in daemon memory. Works with or without daemon.",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	client := socket.NewClient(socket.SocketPath(root))

	if client.Ping() {
		result, err := client.List()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), formatList(result))
		return nil
	}

	// Daemon not running, read bbolt directly
	dbPath := app.NewPaths(root).DB
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprint(cmd.OutOrStdout(), formatList(&socket.ListResult{}))
		return nil
	}
	store, err := openStore(root, dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	infos, err := app.NewRegistry(store, 0, nil).List()
	if err != nil {
		return err
	}
	result := &socket.ListResult{Count: len(infos)}
	for _, info := range infos {
		result.Dictionaries = append(result.Dictionaries, socket.DictionaryInfo(info))
	}
	fmt.Fprint(cmd.OutOrStdout(), formatList(result))
	return nil
}
