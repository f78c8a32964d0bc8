package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/corey/acmatch/internal/adapters/wordlist"
	"github.com/corey/acmatch/internal/app"
)

var (
	findWords     []string
	findWordsFile string
	findComparer  string
	findBounded   bool
	findCount     bool
	findQuiet     bool
	findLimit     int
)

var findCmd = &cobra.Command{
	Use:   "find [text...]",
	Short: "Find words in text without a daemon",
	Long: "Builds a throwaway automaton from --words and/or --words-file and searches the text once.\n" +
		"Text comes from the arguments, or from stdin when none are given.\n" +
		"Exit status is 0 when something matched, 1 when nothing did, 2 on error.",
	RunE: runFind,
}

func init() {
	f := findCmd.Flags()
	f.StringSliceVarP(&findWords, "words", "w", nil, "Comma-separated words to find (repeatable)")
	f.StringVarP(&findWordsFile, "words-file", "f", "", "Word-list file (.xml or one word per line)")
	f.StringVarP(&findComparer, "comparer", "c", "", `Character comparer: "o", "o:i", "n", "n:i", "c", "c:i" or a locale like "tr-TR:i"`)
	f.BoolVarP(&findBounded, "bounded", "b", false, "Only report whole-word matches")
	f.BoolVar(&findCount, "count", false, "Print only the number of matches")
	f.BoolVarP(&findQuiet, "quiet", "q", false, "Print nothing; report through the exit status")
	f.IntVarP(&findLimit, "limit", "m", 0, "Stop after this many matches (0 = all)")
}

func runFind(cmd *cobra.Command, args []string) error {
	words := append([]string(nil), findWords...)
	if findWordsFile != "" {
		fileWords, _, err := wordlist.ParseFile(findWordsFile)
		if err != nil {
			return err
		}
		words = append(words, fileWords...)
	}
	if len(words) == 0 {
		return fmt.Errorf("no words: use --words or --words-file")
	}

	text, err := readText(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	start := time.Now()
	matches, err := app.FindOnce(words, findComparer, text, findBounded, findLimit)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), formatMatches(matches, elapsedSince(start), findCount, findQuiet))
	return matchResult(len(matches))
}

// readText joins the arguments with spaces, or reads all of stdin when there
// are none.
func readText(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if stdin == os.Stdin && isTerminal(os.Stdin) {
		return "", fmt.Errorf("no text: pass it as arguments or pipe it on stdin")
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}
