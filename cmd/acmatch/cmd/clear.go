package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corey/acmatch/internal/adapters/bbolt"
	"github.com/corey/acmatch/internal/adapters/socket"
	"github.com/corey/acmatch/internal/app"
)

var clearForce bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every dictionary for the project",
	Long:  "Deletes all persisted dictionaries. Works with or without daemon.",
	RunE:  runClear,
}

func init() {
	clearCmd.Flags().BoolVar(&clearForce, "force", false, "Skip confirmation prompt")
}

func runClear(cmd *cobra.Command, args []string) error {
	root := projectRoot()

	if !clearForce {
		fmt.Printf("⚠ This will delete all dictionaries for %s. Continue? [y/N] ", filepath.Base(root))
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("cancelled")
			return nil
		}
	}

	client := socket.NewClient(socket.SocketPath(root))

	// If daemon is running, clear via socket
	if client.Ping() {
		n, err := client.Clear()
		if err != nil {
			return err
		}
		fmt.Printf("⚡ %d %s deleted (daemon)\n", n, plural(n, "dictionary", "dictionaries"))
		return nil
	}

	// Daemon not running, clear bbolt directly
	dbPath := app.NewPaths(root).DB
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("⚡ no dictionaries to delete")
		return nil
	}

	store, err := openStore(root, dbPath)
	if err != nil {
		return err
	}
	n, err := store.Clear()
	store.Close()
	if err != nil {
		return err
	}

	fmt.Printf("⚡ %d %s deleted\n", n, plural(n, "dictionary", "dictionaries"))
	return nil
}

// openStore opens the project database, explaining lock contention.
func openStore(root, dbPath string) (*bbolt.Store, error) {
	store, err := bbolt.NewStore(dbPath)
	if err != nil {
		return nil, storeOpenError(root, err)
	}
	return store, nil
}
