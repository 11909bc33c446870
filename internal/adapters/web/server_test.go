package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corey/percept/internal/adapters/socket"
	"github.com/corey/percept/internal/domain/lexicon"
	"github.com/corey/percept/internal/domain/percept"
	"github.com/corey/percept/internal/ports"
)

type mockBackend struct {
	engine atomic.Pointer[percept.Engine]
}

func (m *mockBackend) Engine() *percept.Engine { return m.engine.Load() }

func (m *mockBackend) Health() socket.HealthResult {
	return socket.HealthResult{Status: "ok", StoreDriver: "bolt", Engine: m.Engine().Diagnostics()}
}

func newTestEngine(t *testing.T) *percept.Engine {
	t.Helper()
	opts := percept.DefaultOptions()
	opts.StopWords = lexicon.NewSet("the", "and", "were")
	e, err := percept.Build(percept.BuildInput{
		Frequency: []ports.FrequencyRecord{
			{Word: "fire", Percepts: []string{"heat_raw"}},
			{Word: "flame", Percepts: []string{"heat_raw", "light"}},
			{Word: "lamp", Percepts: []string{"light"}},
			{Word: "ghost", Percepts: []string{"unlisted"}},
		},
		Membership: []ports.MembershipRecord{
			{Percept: "heat_raw", Data: []string{"fire", "flame", "ember"}},
			{Percept: "light", Data: []string{"flame", "lamp"}},
			{Percept: "unlisted", Data: []string{"ghost"}},
		},
		Names: map[string]ports.NameEntry{
			"heat_raw": {CanonicalID: "heat"},
			"light":    {CanonicalID: "light"},
		},
	}, opts)
	require.NoError(t, err)
	return e
}

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	b := &mockBackend{}
	b.engine.Store(newTestEngine(t))

	srv := NewServer(b, nil)
	srv.now = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 45, 123e6, time.UTC) }

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func postDoc(t *testing.T, url, body string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

// =============================================================================
// Analyze
// =============================================================================

func TestAnalyzeEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	code, out := postDoc(t, ts.URL+"/all_percepts/", `{"doc":"The fire and flame were bright"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK", out["status"])
	assert.Equal(t, "The fire and flame were bright", out["doc"])
	assert.Equal(t, float64(2), out["percepts_found"])
	assert.Equal(t, []interface{}{"2024-03-01 12:30:45.123"}, out["date"])
	assert.NotEmpty(t, out["request_id"])

	// "fire" evidences one percept, so it is a corpus stop word; only
	// "flame" counts, and the smaller percept ranks first.
	set := out["percept_set"].([]interface{})
	require.Len(t, set, 2)
	first := set[0].(map[string]interface{})
	assert.Equal(t, "light", first["name"])
	assert.Equal(t, "Light", first["pretty_name"])
	assert.Equal(t, []interface{}{"flame"}, first["words_found"])
	scores := first["scores"].(map[string]interface{})
	assert.InDelta(t, 50.0, scores["normalized_percept_score"], 0.01)
	assert.Contains(t, first, "percept_metadata")
}

func TestAnalyzeEndpoint_MissingDocument(t *testing.T) {
	ts := setupTestServer(t)

	for _, body := range []string{`{"doc":""}`, `{}`, ``} {
		code, out := postDoc(t, ts.URL+"/all_percepts/", body)
		assert.Equal(t, http.StatusBadRequest, code, "body %q", body)
		assert.Equal(t, "INVALID_INPUT", out["status"])
		assert.Equal(t, percept.MessageMissingDocument, out["message"])
	}
}

func TestAnalyzeEndpoint_BadJSON(t *testing.T) {
	ts := setupTestServer(t)

	code, out := postDoc(t, ts.URL+"/all_percepts/", `{"doc":`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_INPUT", out["status"])
}

func TestAnalyzeEndpoint_UnknownSet(t *testing.T) {
	ts := setupTestServer(t)

	code, out := postDoc(t, ts.URL+"/colours/", `{"doc":"a lamp"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "NOT_IMPLEMENTED", out["status"])
	assert.Equal(t, percept.MessageNotImplemented, out["message"])
}

func TestStatusForError(t *testing.T) {
	status, code, _ := statusForError(percept.NewError(percept.KindDependencyUnavailable, "build", assert.AnError))
	assert.Equal(t, percept.StatusUnavailable, status)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	status, code, msg := statusForError(percept.NewError(percept.KindInvalidInput, "analyze", percept.ErrEmptyDocument))
	assert.Equal(t, percept.StatusInvalidInput, status)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, percept.MessageMissingDocument, msg)
}

// =============================================================================
// Corpus views
// =============================================================================

func TestFrequencyDistributionEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	code, out := getJSON(t, ts.URL+"/freqdist/")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK", out["status"])
	dist := out["frequency_distribution"].(map[string]interface{})
	assert.Equal(t, []interface{}{"heat", "light"}, dist["flame"])
	assert.NotContains(t, dist, "ghost", "percepts missing from the name table are dropped")
}

func TestBucketedFrequencyEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	_, out := getJSON(t, ts.URL+"/freqdist/bucketed/")
	dist := out["frequency_distribution"].(map[string]interface{})
	assert.ElementsMatch(t, []interface{}{"fire", "lamp"}, dist["1"])
	assert.Equal(t, []interface{}{"flame"}, dist["2"])
}

func TestStopWordsEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	_, out := getJSON(t, ts.URL+"/freqdist/stopwords/")
	assert.Equal(t, "OK", out["status"])
	words := out["percept_stop_words"].([]interface{})
	assert.Equal(t, float64(len(words)), out["length_percept_stop_words"])
	assert.ElementsMatch(t, []interface{}{"fire", "lamp"}, words, "singleton words are stop words by default")
}

func TestMemberEndpoints(t *testing.T) {
	ts := setupTestServer(t)

	_, out := getJSON(t, ts.URL+"/memberdist/")
	dist := out["member_distribution"].(map[string]interface{})
	assert.Len(t, dist, 2)
	assert.Contains(t, dist, "heat")

	_, out = getJSON(t, ts.URL+"/memberdist/bucketed/")
	buckets := out["member_distribution"].(map[string]interface{})
	assert.Equal(t, []interface{}{"heat"}, buckets["3"])
	assert.Equal(t, []interface{}{"light"}, buckets["2"])

	_, out = getJSON(t, ts.URL+"/memberlist/")
	assert.Equal(t, float64(3), out["member_list_length"])
}

func TestNameTableEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	_, out := getJSON(t, ts.URL+"/commonsetnamelist/")
	assert.Equal(t, float64(2), out["len_percepts"])
	names := out["percepts"].(map[string]interface{})
	assert.Equal(t, "heat", names["heat_raw"])
}

func TestSuggestEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	code, out := getJSON(t, ts.URL+"/percepts/suggest?q=lite&limit=1")
	assert.Equal(t, http.StatusOK, code)
	sugg := out["suggestions"].([]interface{})
	require.Len(t, sugg, 1)
	assert.Equal(t, "light", sugg[0].(map[string]interface{})["name"])

	code, out = getJSON(t, ts.URL+"/percepts/suggest")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_INPUT", out["status"])

	code, _ = getJSON(t, ts.URL+"/percepts/suggest?q=x&limit=many")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHealthEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
	var result socket.HealthResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, 2, result.Engine.Percepts)
	assert.Equal(t, 1, result.Engine.Uncanonical)
}

func TestIndexEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	code, out := getJSON(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK", out["status"])
}

func TestServer_StartStop(t *testing.T) {
	b := &mockBackend{}
	b.engine.Store(newTestEngine(t))
	srv := NewServer(b, nil)
	require.NoError(t, srv.Start("127.0.0.1:0"))
	defer srv.Stop()

	resp, err := http.Get(srv.URL() + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	srv.Stop()
	srv.Stop()
}

func TestDefaultPort(t *testing.T) {
	port := DefaultPort("/etc/percept/percept.toml")
	assert.GreaterOrEqual(t, port, 19000)
	assert.Less(t, port, 20000)

	// Same path should give same port
	assert.Equal(t, port, DefaultPort("/etc/percept/percept.toml"))
}
