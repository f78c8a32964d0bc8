package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corey/acmatch/internal/adapters/socket"
	"github.com/corey/acmatch/internal/adapters/wordlist"
)

var (
	createName     string
	createComparer string
	createStrategy string
	createFormat   string
)

var createCmd = &cobra.Command{
	Use:   "create <word-list>",
	Short: "Build a dictionary in the daemon",
	Long: "Sends a word-list file to the daemon, which builds and persists the dictionary.\n" +
		"Creating the same list with the same comparer again returns the existing dictionary.",
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

func init() {
	f := createCmd.Flags()
	f.StringVarP(&createName, "name", "n", "", "Dictionary name (default: file name)")
	f.StringVarP(&createComparer, "comparer", "c", "", "Character comparer spec (default: ordinal)")
	f.StringVarP(&createStrategy, "strategy", "s", "", `Scanning strategy: "trie" (default) or "dfa" (ordinal only)`)
	f.StringVar(&createFormat, "format", "", `Word-list format: "xml" or "text" (default: from extension)`)
}

func runCreate(cmd *cobra.Command, args []string) error {
	client, err := daemonClient()
	if err != nil {
		return err
	}

	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read word list: %w", err)
	}

	name := createName
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	format := createFormat
	if format == "" {
		format = wordlist.ParserFor(path).Format()
	}

	info, err := client.Create(socket.CreateParams{
		Name:     name,
		Document: string(data),
		Format:   format,
		Comparer: createComparer,
		Strategy: createStrategy,
		Source:   path,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", paint(colorBold, "⚡ dictionary ready"))
	fmt.Fprint(cmd.OutOrStdout(), formatDictionary(*info))
	fmt.Fprintf(cmd.OutOrStdout(), "  key: %s\n", info.Key)
	return nil
}
