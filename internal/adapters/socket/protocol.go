// Package socket implements a JSON-over-Unix-socket protocol for the acmatch
// daemon. The protocol uses newline-delimited JSON: each message is one JSON
// object + \n.
package socket

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/corey/acmatch/internal/adapters/ahocorasick"
	"github.com/corey/acmatch/internal/adapters/wordlist"
	"github.com/corey/acmatch/internal/domain/automaton"
	"github.com/corey/acmatch/internal/domain/charcmp"
	"github.com/corey/acmatch/internal/ports"
)

// SocketPath returns the Unix socket path for a given project root.
// Format: /tmp/acmatch-{first12hex}.sock
func SocketPath(projectRoot string) string {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		abs = projectRoot
	}
	h := sha256.Sum256([]byte(abs))
	return fmt.Sprintf("/tmp/acmatch-%x.sock", h[:6])
}

// Method names for the protocol.
const (
	MethodCreate      = "create"
	MethodDelete      = "delete"
	MethodClear       = "clear"
	MethodList        = "list"
	MethodSearch      = "search"
	MethodSearchBatch = "search_batch"
	MethodContains    = "contains"
	MethodFind        = "find"
	MethodHealth      = "health"
	MethodShutdown    = "shutdown"
)

// Error codes carried in Response.Code.
const (
	CodeNotFound = "not_found"
	CodeInvalid  = "invalid"
	CodeInternal = "internal"
)

// Request is the wire format for client-to-server messages.
type Request struct {
	ID     string      `json:"id"`
	Method string      `json:"method"`
	Params interface{} `json:"params,omitempty"`
}

// Response is the wire format for server-to-client messages.
type Response struct {
	ID     string      `json:"id"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
	Code   string      `json:"code,omitempty"`
}

// CreateParams is the params for a create request. Document is the raw word
// list in Format ("xml" or "text").
type CreateParams struct {
	Name     string `json:"name"`
	Document string `json:"document"`
	Format   string `json:"format,omitempty"`
	Comparer string `json:"comparer,omitempty"`
	Strategy string `json:"strategy,omitempty"`
	Source   string `json:"source,omitempty"`
}

// DictionaryInfo describes a known dictionary (wire format).
type DictionaryInfo struct {
	ports.Dictionary
	Resident bool `json:"resident"`
}

// KeyParams is the params for requests addressing one dictionary.
type KeyParams struct {
	Key string `json:"key"`
}

// DeleteResult is the result of a delete request.
type DeleteResult struct {
	Removed bool `json:"removed"`
}

// ClearResult is the result of a clear request.
type ClearResult struct {
	Removed int `json:"removed"`
}

// ListResult is the result of a list request.
type ListResult struct {
	Dictionaries []DictionaryInfo `json:"dictionaries"`
	Count        int              `json:"count"`
}

// SearchParams is the params for search and contains requests. Limit <= 0
// returns every match.
type SearchParams struct {
	Key     string `json:"key"`
	Text    string `json:"text"`
	Bounded bool   `json:"bounded,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// SearchResult is the result of search and find requests.
type SearchResult struct {
	Matches []ports.Match `json:"matches"`
	Count   int           `json:"count"`
	Elapsed string        `json:"elapsed"`
}

// BatchParams is the params for a search_batch request.
type BatchParams struct {
	Key     string   `json:"key"`
	Texts   []string `json:"texts"`
	Bounded bool     `json:"bounded,omitempty"`
}

// BatchResult holds one match list per input text, in input order.
type BatchResult struct {
	Results [][]ports.Match `json:"results"`
	Elapsed string          `json:"elapsed"`
}

// ContainsResult is the result of a contains request.
type ContainsResult struct {
	Found bool `json:"found"`
}

// FindParams is the params for a one-shot find request: the words are
// compiled, searched once and discarded.
type FindParams struct {
	Words    []string `json:"words"`
	Comparer string   `json:"comparer,omitempty"`
	Text     string   `json:"text"`
	Bounded  bool     `json:"bounded,omitempty"`
	Limit    int      `json:"limit,omitempty"`
}

// HealthResult is the result of a health request.
type HealthResult struct {
	Status       string `json:"status"`
	Dictionaries int    `json:"dictionaries"`
	Resident     int    `json:"resident"`
	Uptime       string `json:"uptime"`
}

// RemoteError is an error reported by the daemon. It unwraps to
// ports.ErrNotFound or ports.ErrInvalid according to its code.
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return "server error: " + e.Message
}

func (e *RemoteError) Unwrap() error {
	switch e.Code {
	case CodeNotFound:
		return ports.ErrNotFound
	case CodeInvalid:
		return ports.ErrInvalid
	}
	return nil
}

// ErrorCode classifies an error for the wire: unknown dictionaries are
// not_found, bad input is invalid, everything else internal.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ports.ErrInvalid),
		errors.Is(err, charcmp.ErrInvalidSpec),
		errors.Is(err, wordlist.ErrNoWords),
		errors.Is(err, wordlist.ErrMalformed),
		errors.Is(err, ahocorasick.ErrUnsupportedComparer),
		errors.Is(err, automaton.ErrEmptyWord):
		return CodeInvalid
	}
	return CodeInternal
}
