// Package socket implements a JSON-over-Unix-socket protocol for the percept daemon.
// The protocol uses newline-delimited JSON: each message is one JSON object + \n.
package socket

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"github.com/corey/percept/internal/domain/percept"
)

// SocketPath returns the Unix socket path for a given config file, so two
// daemons started from different configs never collide.
// Format: {tmp}/percept-{first12hex}.sock
func SocketPath(configPath string) string {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		abs = configPath
	}
	h := sha256.Sum256([]byte(abs))
	return filepath.Join(os.TempDir(), fmt.Sprintf("percept-%x.sock", h[:6]))
}

// MaxMessageBytes bounds one request line. Larger analyze documents are
// answered with an invalid-input error.
const MaxMessageBytes = 16 << 20

// MessageTooLarge is the error text for a request over MaxMessageBytes.
const MessageTooLarge = "document too large"

// Method names for the protocol.
const (
	MethodAnalyze   = "analyze"
	MethodHealth    = "health"
	MethodStopWords = "stopwords"
	MethodSuggest   = "suggest"
	MethodReload    = "reload"
	MethodShutdown  = "shutdown"
)

// Request is the wire format for client-to-server messages.
type Request struct {
	ID     string      `json:"id"`
	Method string      `json:"method"`
	Params interface{} `json:"params,omitempty"`
}

// Response is the wire format for server-to-client messages.
// Kind carries the engine error kind so clients can tell bad input from an
// unavailable dependency.
type Response struct {
	ID     string      `json:"id"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
	Kind   string      `json:"kind,omitempty"`
}

// AnalyzeParams is the params for an analyze request. An empty PerceptSet
// means percept.PerceptSetAll.
type AnalyzeParams struct {
	PerceptSet string `json:"percept_set,omitempty"`
	Doc        string `json:"doc"`
}

// SuggestParams is the params for a suggest request.
type SuggestParams struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// SuggestResult is the result of a suggest request.
type SuggestResult struct {
	Suggestions []percept.Suggestion `json:"suggestions"`
}

// HealthResult is the result of a health request.
type HealthResult struct {
	Status      string              `json:"status"`
	Uptime      string              `json:"uptime"`
	StoreDriver string              `json:"store_driver"`
	LoadedAt    string              `json:"loaded_at"`
	Reloads     int64               `json:"reloads"`
	Engine      percept.Diagnostics `json:"engine"`
	HTTPAddr    string              `json:"http_addr,omitempty"`
}

// StopWordsResult is the result of a stopwords request.
type StopWordsResult struct {
	Words  []string `json:"percept_stop_words"`
	Length int      `json:"length_percept_stop_words"`
}

// ReloadResult is the result of a reload request.
type ReloadResult struct {
	Fingerprint string `json:"fingerprint"`
	Changed     bool   `json:"changed"`
	Elapsed     string `json:"elapsed"`
}
