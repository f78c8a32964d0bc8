package charcmp

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// ErrInvalidSpec is returned by Parse for specs it cannot resolve.
var ErrInvalidSpec = errors.New("invalid comparer spec")

// Parse resolves a comparer spec of the form "<mode>[:i]".
//
//	""  or "o"   ordinal
//	"n"          invariant locale
//	"c"          current process locale
//	"<bcp47>"    explicit locale, e.g. "tr-TR"
//
// A trailing ":i" selects the case-insensitive form of the mode.
func Parse(spec string) (Comparer, error) {
	mode, flag, _ := strings.Cut(strings.TrimSpace(spec), ":")
	ignoreCase := false
	switch flag {
	case "":
	case "i":
		ignoreCase = true
	default:
		return nil, fmt.Errorf("%w %q: unknown flag %q", ErrInvalidSpec, spec, flag)
	}

	switch mode {
	case "", "o":
		if ignoreCase {
			return OrdinalIgnoreCase, nil
		}
		return Ordinal, nil
	case "n":
		if ignoreCase {
			return InvariantCultureIgnoreCase, nil
		}
		return InvariantCulture, nil
	case "c":
		return New(CurrentLocale(), ignoreCase), nil
	}

	tag, err := language.Parse(mode)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidSpec, spec, err)
	}
	return New(tag, ignoreCase), nil
}

// Canonical normalizes a spec so that equivalent specs compare equal
// ("" and "o", "c" and the resolved current locale).
func Canonical(spec string) (string, error) {
	c, err := Parse(spec)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

// IsOrdinal reports whether c compares raw code points.
func IsOrdinal(c Comparer) bool {
	o, ok := c.(ordinal)
	return ok && !o.ignoreCase
}
