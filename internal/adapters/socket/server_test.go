package socket

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corey/acmatch/internal/domain/automaton"
	"github.com/corey/acmatch/internal/domain/boundary"
	"github.com/corey/acmatch/internal/domain/charcmp"
	"github.com/corey/acmatch/internal/ports"
)

// =============================================================================
// Unix socket daemon: JSON-over-socket protocol for dictionary requests
// =============================================================================

// memBackend is an in-memory Backend keyed by dictionary name.
type memBackend struct {
	mu    sync.Mutex
	dicts map[string]*automaton.Automaton
	infos map[string]DictionaryInfo
}

func newMemBackend() *memBackend {
	return &memBackend{
		dicts: make(map[string]*automaton.Automaton),
		infos: make(map[string]DictionaryInfo),
	}
}

func (b *memBackend) Create(_ context.Context, p CreateParams) (DictionaryInfo, error) {
	cmp, err := charcmp.Parse(p.Comparer)
	if err != nil {
		return DictionaryInfo{}, err
	}
	a, err := automaton.New(cmp, strings.Fields(p.Document)...)
	if err != nil {
		return DictionaryInfo{}, err
	}
	info := DictionaryInfo{
		Dictionary: ports.Dictionary{Key: p.Name, Name: p.Name, Comparer: cmp.String(), WordCount: a.WordCount()},
		Resident:   true,
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dicts[p.Name] = a
	b.infos[p.Name] = info
	return info, nil
}

func (b *memBackend) Delete(key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.dicts[key]
	delete(b.dicts, key)
	delete(b.infos, key)
	return ok, nil
}

func (b *memBackend) Clear() (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.dicts)
	b.dicts = make(map[string]*automaton.Automaton)
	b.infos = make(map[string]DictionaryInfo)
	return n, nil
}

func (b *memBackend) List() ([]DictionaryInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []DictionaryInfo
	for _, info := range b.infos {
		out = append(out, info)
	}
	return out, nil
}

func (b *memBackend) get(key string) (*automaton.Automaton, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.dicts[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrNotFound, key)
	}
	return a, nil
}

func (b *memBackend) Search(p SearchParams) ([]ports.Match, error) {
	a, err := b.get(p.Key)
	if err != nil {
		return nil, err
	}
	seq, err := a.Search(p.Text)
	if err != nil {
		return nil, err
	}
	if p.Bounded {
		seq = boundary.Filter(p.Text, seq)
	}
	var out []ports.Match
	for m := range seq {
		out = append(out, m)
		if p.Limit > 0 && len(out) == p.Limit {
			break
		}
	}
	return out, nil
}

func (b *memBackend) SearchBatch(_ context.Context, p BatchParams) ([][]ports.Match, error) {
	out := make([][]ports.Match, len(p.Texts))
	for i, text := range p.Texts {
		ms, err := b.Search(SearchParams{Key: p.Key, Text: text, Bounded: p.Bounded})
		if err != nil {
			return nil, err
		}
		out[i] = ms
	}
	return out, nil
}

func (b *memBackend) Contains(p SearchParams) (bool, error) {
	ms, err := b.Search(SearchParams{Key: p.Key, Text: p.Text, Bounded: p.Bounded, Limit: 1})
	return len(ms) > 0, err
}

func (b *memBackend) Find(p FindParams) ([]ports.Match, error) {
	cmp, err := charcmp.Parse(p.Comparer)
	if err != nil {
		return nil, err
	}
	return automaton.Find(p.Text, cmp, p.Words...)
}

// testSocketPath returns a unique socket path for a test.
func testSocketPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.sock")
}

func startServer(t *testing.T) (*Server, *Client) {
	t.Helper()
	sockPath := testSocketPath(t)
	srv := NewServer(newMemBackend(), sockPath)
	require.NoError(t, srv.Start())
	t.Cleanup(func() { srv.Stop() })
	return srv, NewClient(sockPath)
}

func matchWords(ms []ports.Match) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Word
	}
	return out
}

func TestSocketPath(t *testing.T) {
	p := SocketPath("/some/project")
	assert.True(t, strings.HasPrefix(p, "/tmp/acmatch-"))
	assert.True(t, strings.HasSuffix(p, ".sock"))
	assert.Len(t, p, len("/tmp/acmatch-")+12+len(".sock"))
	assert.Equal(t, p, SocketPath("/some/project"))
	assert.NotEqual(t, p, SocketPath("/other/project"))
}

func TestServer_CreateSearchRoundtrip(t *testing.T) {
	_, client := startServer(t)

	info, err := client.Create(CreateParams{Name: "greek", Document: "he she his hers", Comparer: "o:i"})
	require.NoError(t, err)
	assert.Equal(t, "greek", info.Key)
	assert.Equal(t, "o:i", info.Comparer)
	assert.Equal(t, 4, info.WordCount)

	result, err := client.Search(SearchParams{Key: "greek", Text: "USHERS"})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Count)
	assert.Equal(t, []string{"she", "he", "hers"}, matchWords(result.Matches))
	assert.Equal(t, 1, result.Matches[0].Index)
	assert.Equal(t, 1, result.Matches[0].Start)
	assert.Equal(t, 4, result.Matches[0].End)
	assert.NotEmpty(t, result.Elapsed)

	limited, err := client.Search(SearchParams{Key: "greek", Text: "USHERS", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"she"}, matchWords(limited.Matches))

	none, err := client.Search(SearchParams{Key: "greek", Text: "nothing"})
	require.NoError(t, err)
	assert.Equal(t, 0, none.Count)
	assert.NotNil(t, none.Matches)
}

func TestServer_ContainsAndBounded(t *testing.T) {
	_, client := startServer(t)
	_, err := client.Create(CreateParams{Name: "d", Document: "is it this"})
	require.NoError(t, err)

	found, err := client.Contains(SearchParams{Key: "d", Text: "thistle"})
	require.NoError(t, err)
	assert.True(t, found)

	found, err = client.Contains(SearchParams{Key: "d", Text: "thistle", Bounded: true})
	require.NoError(t, err)
	assert.False(t, found)

	result, err := client.Search(SearchParams{Key: "d", Text: "this is it", Bounded: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"this", "is", "it"}, matchWords(result.Matches))
}

func TestServer_SearchBatch(t *testing.T) {
	_, client := startServer(t)
	_, err := client.Create(CreateParams{Name: "d", Document: "he she"})
	require.NoError(t, err)

	result, err := client.SearchBatch(BatchParams{Key: "d", Texts: []string{"she", "x", "he"}})
	require.NoError(t, err)
	require.Len(t, result.Results, 3)
	assert.Equal(t, []string{"she", "he"}, matchWords(result.Results[0]))
	assert.Empty(t, result.Results[1])
	assert.Equal(t, []string{"he"}, matchWords(result.Results[2]))
}

func TestServer_Find(t *testing.T) {
	_, client := startServer(t)

	result, err := client.Find(FindParams{Words: []string{"a", "ab", "bab", "bc", "bca", "c", "caa"}, Text: "abccab"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "ab", "bc", "c", "c", "a", "ab"}, matchWords(result.Matches))
}

func TestServer_ListDeleteClear(t *testing.T) {
	_, client := startServer(t)
	for _, name := range []string{"a", "b", "c"} {
		_, err := client.Create(CreateParams{Name: name, Document: name})
		require.NoError(t, err)
	}

	list, err := client.List()
	require.NoError(t, err)
	assert.Equal(t, 3, list.Count)

	removed, err := client.Delete("a")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = client.Delete("a")
	require.NoError(t, err)
	assert.False(t, removed)

	n, err := client.Clear()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err = client.List()
	require.NoError(t, err)
	assert.Equal(t, 0, list.Count)
	assert.NotNil(t, list.Dictionaries)
}

func TestServer_Errors(t *testing.T) {
	_, client := startServer(t)

	_, err := client.Search(SearchParams{Key: "missing", Text: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrNotFound)
	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, CodeNotFound, remote.Code)

	_, err = client.Create(CreateParams{Name: "x", Document: "a", Comparer: "o:q"})
	assert.ErrorIs(t, err, ports.ErrInvalid)

	_, err = client.Search(SearchParams{Text: "no key"})
	assert.ErrorIs(t, err, ports.ErrInvalid)

	err = client.call("bogus", nil, nil)
	assert.ErrorIs(t, err, ports.ErrInvalid)
}

func TestServer_Health(t *testing.T) {
	_, client := startServer(t)
	_, err := client.Create(CreateParams{Name: "a", Document: "a"})
	require.NoError(t, err)

	health, err := client.Health()
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 1, health.Dictionaries)
	assert.Equal(t, 1, health.Resident)
	assert.NotEmpty(t, health.Uptime)
}

func TestServer_Shutdown(t *testing.T) {
	sockPath := testSocketPath(t)
	srv := NewServer(newMemBackend(), sockPath)
	require.NoError(t, srv.Start())

	client := NewClient(sockPath)
	assert.True(t, client.Ping())

	// Send shutdown request closes shutdownCh (signals the daemon).
	require.NoError(t, client.Shutdown())

	select {
	case <-srv.ShutdownCh():
	default:
		t.Fatal("ShutdownCh should be closed after Shutdown request")
	}

	// The daemon is responsible for calling Stop() after receiving the signal.
	srv.Stop()
	srv.Stop()

	_, err := os.Stat(sockPath)
	assert.True(t, os.IsNotExist(err), "socket file should be removed after shutdown")
	assert.False(t, client.Ping())
}

func TestServer_ConcurrentClients(t *testing.T) {
	_, client := startServer(t)
	_, err := client.Create(CreateParams{Name: "d", Document: "he she his hers"})
	require.NoError(t, err)
	sockPath := client.sockPath

	var wg sync.WaitGroup
	errs := make(chan error, 100)

	// 10 clients x 10 requests each
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := NewClient(sockPath)
			for j := 0; j < 10; j++ {
				result, err := c.Search(SearchParams{Key: "d", Text: "ushers"})
				if err != nil {
					errs <- err
					return
				}
				if result.Count != 3 {
					errs <- assert.AnError
					return
				}
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent client error: %v", err)
	}
}

func TestServer_StaleSocket(t *testing.T) {
	sockPath := testSocketPath(t)

	// Create a stale socket file (not a real listener)
	require.NoError(t, os.WriteFile(sockPath, []byte("stale"), 0600))

	srv := NewServer(newMemBackend(), sockPath)
	require.NoError(t, srv.Start(), "should replace stale socket")
	defer srv.Stop()

	health, err := NewClient(sockPath).Health()
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
}

func TestServer_AlreadyRunning(t *testing.T) {
	srv, client := startServer(t)
	second := NewServer(newMemBackend(), srv.Addr())
	assert.Error(t, second.Start())
	assert.True(t, client.Ping())
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, CodeNotFound, ErrorCode(fmt.Errorf("x: %w", ports.ErrNotFound)))
	assert.Equal(t, CodeInvalid, ErrorCode(fmt.Errorf("x: %w", charcmp.ErrInvalidSpec)))
	assert.Equal(t, CodeInvalid, ErrorCode(automaton.ErrEmptyWord))
	assert.Equal(t, CodeInternal, ErrorCode(errors.New("disk on fire")))
}

func TestServer_OversizedRequestGetsError(t *testing.T) {
	srv, _ := startServer(t)

	conn, err := net.Dial("unix", srv.Addr())
	require.NoError(t, err)
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(10 * time.Second))

	go func() {
		line := `{"id":"big","method":"search","params":{"key":"k","text":"` +
			strings.Repeat("a", MaxMessageSize) + `"}}` + "\n"
		conn.Write([]byte(line))
	}()

	scanner := bufio.NewScanner(conn)
	require.True(t, scanner.Scan(), "expected an error response before the connection closes")
	var resp Response
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp))
	assert.Equal(t, CodeInvalid, resp.Code)
	assert.Contains(t, resp.Error, "exceeds")
}

// failingListener fails every Accept until closed.
type failingListener struct {
	accepts atomic.Int64
	closed  chan struct{}
}

func (l *failingListener) Accept() (net.Conn, error) {
	l.accepts.Add(1)
	select {
	case <-l.closed:
		return nil, net.ErrClosed
	default:
		return nil, errors.New("too many open files")
	}
}

func (l *failingListener) Close() error   { close(l.closed); return nil }
func (l *failingListener) Addr() net.Addr { return &net.UnixAddr{Name: "failing", Net: "unix"} }

func TestServer_AcceptErrorsBackOff(t *testing.T) {
	ln := &failingListener{closed: make(chan struct{})}
	srv := NewServer(newMemBackend(), testSocketPath(t))
	srv.listener = ln
	srv.wg.Add(1)
	go srv.acceptLoop()

	time.Sleep(200 * time.Millisecond)
	require.NoError(t, srv.Stop())

	// 5ms doubling reaches 160ms within 200ms: a handful of attempts, not a spin.
	assert.Less(t, ln.accepts.Load(), int64(20))
	assert.Positive(t, ln.accepts.Load())
}
