// acmatch finds every occurrence of a set of words in text with an
// Aho-Corasick automaton. Dictionaries are built once and served by a
// per-project daemon; one-shot searches need no daemon.
package main

import (
	"os"

	"github.com/corey/acmatch/cmd/acmatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
