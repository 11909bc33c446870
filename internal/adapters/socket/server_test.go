package socket

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"strings"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/corey/percept/internal/domain/lexicon"
	"github.com/corey/percept/internal/domain/percept"
	"github.com/corey/percept/internal/ports"
)

// =============================================================================
// Unix socket daemon: analyze, health, stop words, suggest, reload, shutdown
// =============================================================================

type fakeBackend struct {
	engine    atomic.Pointer[percept.Engine]
	reloads   atomic.Int64
	reloadErr error
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	opts := percept.DefaultOptions()
	opts.SingletonStopWords = false
	opts.StopWords = lexicon.NewSet("the", "and", "were")
	e, err := percept.Build(percept.BuildInput{
		Frequency: []ports.FrequencyRecord{
			{Word: "fire", Percepts: []string{"heat"}},
			{Word: "flame", Percepts: []string{"heat", "light"}},
			{Word: "lamp", Percepts: []string{"light"}},
		},
		Membership: []ports.MembershipRecord{
			{Percept: "heat", Data: []string{"fire", "flame", "ember"}},
			{Percept: "light", Data: []string{"flame", "lamp"}},
		},
	}, opts)
	require.NoError(t, err)

	b := &fakeBackend{}
	b.engine.Store(e)
	return b
}

func (b *fakeBackend) Engine() *percept.Engine { return b.engine.Load() }

func (b *fakeBackend) Health() HealthResult {
	return HealthResult{
		Status:      "ok",
		Uptime:      "1s",
		StoreDriver: "fake",
		Reloads:     b.reloads.Load(),
		Engine:      b.Engine().Diagnostics(),
	}
}

func (b *fakeBackend) Reload(ctx context.Context) (ReloadResult, error) {
	if b.reloadErr != nil {
		return ReloadResult{}, b.reloadErr
	}
	b.reloads.Add(1)
	return ReloadResult{Fingerprint: b.Engine().Dictionary().Fingerprint(), Elapsed: "0s"}, nil
}

const defaultTestTimeout = 5 * time.Second

// testSocketPath returns a unique socket path for a test.
func testSocketPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.sock")
}

func startServer(t *testing.T, b Backend) (*Server, *Client) {
	t.Helper()
	sockPath := testSocketPath(t)
	srv := NewServer(b, sockPath, nil)
	require.NoError(t, srv.Start())
	t.Cleanup(func() { srv.Stop() })
	return srv, NewClient(sockPath)
}

func TestServer_AnalyzeRoundtrip(t *testing.T) {
	_, client := startServer(t, newFakeBackend(t))

	a, err := client.Analyze(percept.PerceptSetAll, "The fire and flame were bright")
	require.NoError(t, err)
	assert.Equal(t, percept.StatusOK, a.Status)
	assert.Equal(t, 2, a.PerceptsFound)
	require.Len(t, a.Percepts, 2)
	assert.Equal(t, percept.PerceptID("heat"), a.Percepts[0].ID)
	assert.Equal(t, "Heat", a.Percepts[0].DisplayName)
	assert.ElementsMatch(t, []string{"fire", "flame"}, a.Percepts[0].WordsFound)
}

func TestServer_AnalyzeDefaultsToAllPercepts(t *testing.T) {
	_, client := startServer(t, newFakeBackend(t))

	a, err := client.Analyze("", "a lamp")
	require.NoError(t, err)
	assert.Equal(t, percept.StatusOK, a.Status)
	assert.Equal(t, 1, a.PerceptsFound)
}

func TestServer_AnalyzeUnknownSet(t *testing.T) {
	_, client := startServer(t, newFakeBackend(t))

	a, err := client.Analyze("colours", "a lamp")
	require.NoError(t, err)
	assert.Equal(t, percept.StatusNotImplemented, a.Status)
	assert.Equal(t, percept.MessageNotImplemented, a.Message)
	assert.Empty(t, a.Percepts)
}

func TestServer_AnalyzeEmptyDocumentKeepsKind(t *testing.T) {
	_, client := startServer(t, newFakeBackend(t))

	_, err := client.Analyze(percept.PerceptSetAll, "   ")
	require.Error(t, err)
	assert.True(t, percept.IsKind(err, percept.KindInvalidInput), "kind survives the wire: %v", err)
}

func TestServer_Health(t *testing.T) {
	_, client := startServer(t, newFakeBackend(t))

	health, err := client.Health()
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "fake", health.StoreDriver)
	assert.Equal(t, 3, health.Engine.Words)
	assert.Equal(t, 2, health.Engine.Percepts)
	assert.NotEmpty(t, health.Engine.Fingerprint)
}

func TestServer_StopWords(t *testing.T) {
	_, client := startServer(t, newFakeBackend(t))

	sw, err := client.StopWords()
	require.NoError(t, err)
	assert.Equal(t, len(sw.Words), sw.Length)
}

func TestServer_Suggest(t *testing.T) {
	_, client := startServer(t, newFakeBackend(t))

	res, err := client.Suggest("heet", 1)
	require.NoError(t, err)
	require.Len(t, res.Suggestions, 1)
	assert.Equal(t, percept.PerceptID("heat"), res.Suggestions[0].ID)
}

func TestServer_Reload(t *testing.T) {
	b := newFakeBackend(t)
	_, client := startServer(t, b)

	res, err := client.Reload()
	require.NoError(t, err)
	assert.Equal(t, b.Engine().Dictionary().Fingerprint(), res.Fingerprint)
	assert.Equal(t, int64(1), b.reloads.Load())
}

func TestServer_ReloadFailureIsUnavailable(t *testing.T) {
	b := newFakeBackend(t)
	b.reloadErr = errors.New("store offline")
	_, client := startServer(t, b)

	_, err := client.Reload()
	require.Error(t, err)
	assert.True(t, percept.IsKind(err, percept.KindDependencyUnavailable))
	assert.Contains(t, err.Error(), "store offline")
}

func TestServer_UnknownMethod(t *testing.T) {
	_, client := startServer(t, newFakeBackend(t))

	_, err := callFor[struct{}](client, "explode", nil, defaultTestTimeout)
	require.Error(t, err)
	assert.True(t, percept.IsKind(err, percept.KindNotImplemented))
}

func TestServer_OversizedRequestIsInvalidInput(t *testing.T) {
	_, client := startServer(t, newFakeBackend(t))

	conn, err := net.Dial("unix", client.sockPath)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(defaultTestTimeout))

	written := make(chan struct{})
	go func() {
		defer close(written)
		conn.Write(bytes.Repeat([]byte("a"), MaxMessageBytes+1))
	}()

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	require.NoError(t, err, "the server answers before hanging up")
	var resp Response
	require.NoError(t, json.Unmarshal(line, &resp))
	assert.Equal(t, MessageTooLarge, resp.Error)
	assert.Equal(t, string(percept.KindInvalidInput), resp.Kind)

	conn.Close()
	<-written
}

func TestClient_RefusesOversizedDocument(t *testing.T) {
	_, client := startServer(t, newFakeBackend(t))

	_, err := client.Analyze(percept.PerceptSetAll, strings.Repeat("fire ", MaxMessageBytes/5+1))
	require.Error(t, err)
	assert.True(t, percept.IsKind(err, percept.KindInvalidInput))
	assert.Contains(t, err.Error(), MessageTooLarge)

	a, err := client.Analyze(percept.PerceptSetAll, "a lamp")
	require.NoError(t, err, "the daemon keeps serving")
	assert.Equal(t, percept.StatusOK, a.Status)
}

func TestServer_Shutdown(t *testing.T) {
	sockPath := testSocketPath(t)
	srv := NewServer(newFakeBackend(t), sockPath, nil)
	require.NoError(t, srv.Start())

	client := NewClient(sockPath)
	assert.True(t, client.Ping())

	require.NoError(t, client.Shutdown())

	select {
	case <-srv.ShutdownCh():
	default:
		t.Fatal("ShutdownCh should be closed after Shutdown request")
	}

	// The daemon is responsible for calling Stop() after receiving the signal.
	require.NoError(t, srv.Stop())

	_, err := os.Stat(sockPath)
	assert.True(t, os.IsNotExist(err), "socket file should be removed after shutdown")
	assert.False(t, client.Ping())
}

func TestServer_ConcurrentClients(t *testing.T) {
	_, client := startServer(t, newFakeBackend(t))

	var wg sync.WaitGroup
	errs := make(chan error, 100)

	// 10 clients x 10 requests each
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				a, err := client.Analyze(percept.PerceptSetAll, "fire flame lamp")
				if err != nil {
					errs <- err
					return
				}
				if a.PerceptsFound != 2 {
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

	srv := NewServer(newFakeBackend(t), sockPath, nil)
	require.NoError(t, srv.Start(), "should replace stale socket")
	defer srv.Stop()

	health, err := NewClient(sockPath).Health()
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
}

func TestServer_SecondInstanceRefused(t *testing.T) {
	srv, _ := startServer(t, newFakeBackend(t))

	other := NewServer(newFakeBackend(t), srv.Addr(), nil)
	assert.Error(t, other.Start())
}

func TestServer_StopReleasesGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	sockPath := testSocketPath(t)
	srv := NewServer(newFakeBackend(t), sockPath, nil)
	require.NoError(t, srv.Start())

	client := NewClient(sockPath)
	_, err := client.Health()
	require.NoError(t, err)

	require.NoError(t, srv.Stop())
	require.NoError(t, srv.Stop(), "second Stop is a no-op")
}

func TestSocketPath_StablePerConfig(t *testing.T) {
	a := SocketPath("/etc/percept/a.toml")
	assert.Equal(t, a, SocketPath("/etc/percept/a.toml"))
	assert.NotEqual(t, a, SocketPath("/etc/percept/b.toml"))
	assert.Equal(t, os.TempDir(), filepath.Dir(a))
}
