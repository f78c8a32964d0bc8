package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corey/acmatch/internal/adapters/socket"
)

var (
	searchBounded bool
	searchCount   bool
	searchQuiet   bool
	searchLimit   int
	searchLines   bool
)

var searchCmd = &cobra.Command{
	Use:   "search <key|name> [text...]",
	Short: "Search text with a daemon dictionary",
	Long: "Searches the text with a dictionary built by the daemon. The dictionary can be named by\n" +
		"key, unique key prefix or name. Text comes from the arguments, or from stdin when none are given.\n" +
		"With --lines every stdin line is searched separately, in parallel.\n" +
		"Exit status is 0 when something matched, 1 when nothing did, 2 on error.",
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	f := searchCmd.Flags()
	f.BoolVarP(&searchBounded, "bounded", "b", false, "Only report whole-word matches")
	f.BoolVar(&searchCount, "count", false, "Print only the number of matches")
	f.BoolVarP(&searchQuiet, "quiet", "q", false, "Print nothing; report through the exit status")
	f.IntVarP(&searchLimit, "limit", "m", 0, "Stop after this many matches (0 = all)")
	f.BoolVarP(&searchLines, "lines", "l", false, "Search each input line separately")
}

func runSearch(cmd *cobra.Command, args []string) error {
	client, err := daemonClient()
	if err != nil {
		return err
	}
	key, err := resolveKey(client, args[0])
	if err != nil {
		return err
	}

	if searchLines {
		return runSearchLines(cmd, client, key, args[1:])
	}

	text, err := readText(args[1:], cmd.InOrStdin())
	if err != nil {
		return err
	}
	result, err := client.Search(socket.SearchParams{
		Key:     key,
		Text:    text,
		Bounded: searchBounded,
		Limit:   searchLimit,
	})
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), formatMatches(result.Matches, result.Elapsed, searchCount, searchQuiet))
	return matchResult(result.Count)
}

func runSearchLines(cmd *cobra.Command, client *socket.Client, key string, args []string) error {
	texts, err := readLines(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	result, err := client.SearchBatch(socket.BatchParams{Key: key, Texts: texts, Bounded: searchBounded})
	if err != nil {
		return err
	}

	total := 0
	for _, ms := range result.Results {
		total += len(ms)
	}
	fmt.Fprint(cmd.OutOrStdout(), formatBatch(texts, result.Results, searchCount, searchQuiet))
	return matchResult(total)
}

// readLines returns the arguments as lines, or the lines of stdin when there
// are none.
func readLines(args []string, stdin io.Reader) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	text, err := readText(nil, stdin)
	if err != nil {
		return nil, err
	}
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
