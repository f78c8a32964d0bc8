// Package wordlist parses dictionary word lists into plain string slices.
//
// Two formats are understood. XML documents carry one word per child element
// of the root, in the element's first attribute:
//
//	<words><w v="alpha"/><w v="beta"/></words>
//
// Text documents carry one word per line; surrounding whitespace is trimmed and
// blank lines and lines starting with '#' are skipped.
package wordlist

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/corey/acmatch/internal/ports"
)

var (
	// ErrNoWords is returned by ParseFile when a document yields no words.
	ErrNoWords = errors.New("word list is empty")

	// ErrMalformed is returned for XML documents that do not parse.
	ErrMalformed = errors.New("malformed word list")
)

// Format names.
const (
	FormatXML  = "xml"
	FormatText = "text"
)

// XMLParser reads the first attribute of every child of the root element.
type XMLParser struct{}

// TextParser reads one word per line.
type TextParser struct{}

var (
	_ ports.WordListParser = XMLParser{}
	_ ports.WordListParser = TextParser{}
)

func (XMLParser) Format() string  { return FormatXML }
func (TextParser) Format() string { return FormatText }

// Parse walks the token stream and collects the first attribute value of each
// element at depth 2. Children without attributes and deeper elements are
// ignored.
func (XMLParser) Parse(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var words []string
	depth := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 2 && len(el.Attr) > 0 {
				words = append(words, el.Attr[0].Value)
			}
		case xml.EndElement:
			depth--
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("%w: unexpected end of document", ErrMalformed)
	}
	return words, nil
}

func (TextParser) Parse(r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read text word list: %w", err)
	}
	return words, nil
}

// ParserFor picks a parser from a format name or a file path. ".xml" files
// and the "xml" format use XMLParser; everything else is text.
func ParserFor(formatOrPath string) ports.WordListParser {
	if formatOrPath == FormatXML || strings.EqualFold(filepath.Ext(formatOrPath), ".xml") {
		return XMLParser{}
	}
	return TextParser{}
}

// ParseString parses an in-memory document in the given format. With no
// format, a document starting with '<' is read as XML.
func ParseString(format, doc string) ([]string, error) {
	if format == "" && strings.HasPrefix(strings.TrimSpace(doc), "<") {
		format = FormatXML
	}
	return ParserFor(format).Parse(strings.NewReader(doc))
}

// ParseFile reads and parses a word-list file. It also returns the raw
// document, which callers hash into a dictionary key.
func ParseFile(path string) (words []string, doc string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read word list: %w", err)
	}
	words, err = ParserFor(path).Parse(strings.NewReader(string(data)))
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	if len(words) == 0 {
		return nil, "", fmt.Errorf("%s: %w", path, ErrNoWords)
	}
	return words, string(data), nil
}
