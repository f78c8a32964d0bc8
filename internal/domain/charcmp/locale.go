package charcmp

import (
	"hash/fnv"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var invariantTag = language.Und

// collation delegates equality to a locale-aware comparison of one-rune
// strings. Collators keep scratch state, so each comparer keeps a pool of them
// and never shares one between goroutines.
type collation struct {
	tag        language.Tag
	ignoreCase bool
	pool       sync.Pool
}

func newCollation(tag language.Tag, ignoreCase bool) *collation {
	c := &collation{tag: tag, ignoreCase: ignoreCase}
	c.pool.New = func() any {
		if ignoreCase {
			return collate.New(tag, collate.IgnoreCase)
		}
		return collate.New(tag)
	}
	return c
}

// New returns a comparer following the collation rules of tag.
func New(tag language.Tag, ignoreCase bool) Comparer {
	return newCollation(tag, ignoreCase)
}

func (c *collation) Equal(a, b rune) bool {
	if a == b {
		return true
	}
	col := c.pool.Get().(*collate.Collator)
	defer c.pool.Put(col)
	return col.CompareString(string(a), string(b)) == 0
}

func (c *collation) Hash(r rune) uint64 {
	col := c.pool.Get().(*collate.Collator)
	defer c.pool.Put(col)

	var buf collate.Buffer
	key := col.KeyFromString(&buf, string(r))
	h := fnv.New64a()
	h.Write(key)
	return h.Sum64()
}

func (c *collation) String() string {
	mode := "n"
	if c.tag != invariantTag {
		mode = c.tag.String()
	}
	if c.ignoreCase {
		return mode + ":i"
	}
	return mode
}

// Tag returns the language whose rules the comparer follows.
func (c *collation) Tag() language.Tag { return c.tag }

var currentTag atomic.Pointer[language.Tag]

// CurrentCulture returns a case-sensitive comparer for the process locale.
func CurrentCulture() Comparer {
	return newCollation(CurrentLocale(), false)
}

// CurrentCultureIgnoreCase returns a case-insensitive comparer for the process locale.
func CurrentCultureIgnoreCase() Comparer {
	return newCollation(CurrentLocale(), true)
}

// CurrentLocale reports the locale used by CurrentCulture. Unless overridden by
// SetCurrentLocale it comes from LC_ALL, LC_MESSAGES or LANG, in that order;
// unset, "C", "POSIX" or unparseable values fall back to the invariant locale.
func CurrentLocale() language.Tag {
	if t := currentTag.Load(); t != nil {
		return *t
	}
	return localeFromEnv()
}

// SetCurrentLocale overrides the process locale for comparers created after
// the call. Comparers already built keep the locale they were built with.
func SetCurrentLocale(tag language.Tag) {
	currentTag.Store(&tag)
}

// ResetCurrentLocale drops a SetCurrentLocale override.
func ResetCurrentLocale() {
	currentTag.Store(nil)
}

func localeFromEnv() language.Tag {
	for _, name := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		return parsePOSIXLocale(v)
	}
	return invariantTag
}

// parsePOSIXLocale turns "tr_TR.UTF-8@euro" into tr-TR.
func parsePOSIXLocale(v string) language.Tag {
	if i := strings.IndexAny(v, ".@"); i >= 0 {
		v = v[:i]
	}
	if v == "" || v == "C" || v == "POSIX" {
		return invariantTag
	}
	tag, err := language.Parse(strings.ReplaceAll(v, "_", "-"))
	if err != nil {
		return invariantTag
	}
	return tag
}
