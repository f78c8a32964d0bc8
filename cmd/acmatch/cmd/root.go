package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/corey/acmatch/internal/adapters/socket"
	"github.com/corey/acmatch/internal/app"
)

var (
	colorFlag   string
	noColorFlag bool
)

var rootCmd = &cobra.Command{
	Use:           "acmatch",
	Short:         "acmatch: multi-word search with Aho-Corasick dictionaries",
	Long:          "Build dictionaries of words once, then find every occurrence of any of them in a single pass over the text.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		useColor = colorEnabled(colorFlag, noColorFlag)
	},
}

// projectRoot returns the project root ($ACMATCH_ROOT, else cwd).
func projectRoot() string {
	dir, err := app.ResolveRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitError)
	}
	return dir
}

// daemonClient returns a client for the project's daemon, or an error
// telling the user how to start it.
func daemonClient() (*socket.Client, error) {
	client := socket.NewClient(socket.SocketPath(projectRoot()))
	if !client.Ping() {
		return nil, fmt.Errorf("daemon not running. Start with: acmatch daemon start")
	}
	return client, nil
}

// Execute runs the root command. Errors other than a bare exit status are
// printed to stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && ExitCode(err) == exitError {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&colorFlag, "color", "auto", "Colorize output: auto, always or never")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(configCmd)
}
