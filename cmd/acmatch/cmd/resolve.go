package cmd

import (
	"fmt"
	"strings"

	"github.com/corey/acmatch/internal/adapters/socket"
	"github.com/corey/acmatch/internal/ports"
)

// resolveKey turns a full key, a dictionary name or a unique key prefix into
// a full key.
func resolveKey(client *socket.Client, ref string) (string, error) {
	list, err := client.List()
	if err != nil {
		return "", err
	}

	var byName, byPrefix []string
	for _, d := range list.Dictionaries {
		switch {
		case d.Key == ref:
			return d.Key, nil
		case d.Name == ref:
			byName = append(byName, d.Key)
		case strings.HasPrefix(d.Key, ref):
			byPrefix = append(byPrefix, d.Key)
		}
	}

	for _, keys := range [][]string{byName, byPrefix} {
		switch len(keys) {
		case 0:
			continue
		case 1:
			return keys[0], nil
		default:
			return "", fmt.Errorf("%q is ambiguous: %d dictionaries match", ref, len(keys))
		}
	}
	return "", fmt.Errorf("%w: %s", ports.ErrNotFound, ref)
}
