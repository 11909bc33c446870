package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/corey/percept/internal/adapters/socket"
	"github.com/corey/percept/internal/domain/percept"
)

var (
	boldColor    = color.New(color.Bold)
	nameColor    = color.New(color.FgCyan, color.Bold)
	scoreColor   = color.New(color.FgGreen)
	wordColor    = color.New(color.FgMagenta)
	warnColor    = color.New(color.FgYellow)
	errColor     = color.New(color.FgRed, color.Bold)
	dimColor     = color.New(color.FgHiBlack)
	okColor      = color.New(color.FgGreen, color.Bold)
	notOKColor   = color.New(color.FgYellow, color.Bold)
	headerPrefix = "◆"
)

func errPrefix() string { return errColor.Sprint("error:") }

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatAnalysis formats an Analysis for terminal display.
//
//	◆ 2 percepts │ 7 tokens
//	  Heat          density 9.52   normalized 66.67   fire flame
//	  Light         density 7.14   normalized 50.00   flame
func formatAnalysis(a *percept.Analysis, limit int) string {
	var sb strings.Builder
	if a.Status != percept.StatusOK {
		sb.WriteString(warnColor.Sprintf("%s %s: %s\n", headerPrefix, a.Status, a.Message))
		return sb.String()
	}

	sb.WriteString(boldColor.Sprintf("%s %d percepts", headerPrefix, a.PerceptsFound))
	sb.WriteString(fmt.Sprintf(" │ %d tokens", a.DocumentLength))
	if a.Dropped > 0 {
		sb.WriteString(warnColor.Sprintf(" │ %d dropped", a.Dropped))
	}
	sb.WriteString("\n")

	width := 0
	for _, p := range a.Percepts {
		if len(p.DisplayName) > width {
			width = len(p.DisplayName)
		}
	}

	for i, p := range a.Percepts {
		if limit > 0 && i >= limit {
			sb.WriteString(dimColor.Sprintf("  … %d more\n", len(a.Percepts)-limit))
			break
		}
		sb.WriteString("  ")
		sb.WriteString(nameColor.Sprintf("%-*s", width, p.DisplayName))
		sb.WriteString(scoreColor.Sprintf("  density %7.2f", p.Scores.Density))
		sb.WriteString(fmt.Sprintf("  normalized %6.2f", p.Scores.Normalized))
		sb.WriteString(dimColor.Sprintf("  %d/%d", p.WordCount, p.PerceptLength))
		sb.WriteString("  ")
		sb.WriteString(wordColor.Sprint(strings.Join(p.WordsFound, " ")))
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatHealth formats a HealthResult for terminal display.
func formatHealth(h *socket.HealthResult) string {
	var sb strings.Builder
	sb.WriteString(boldColor.Sprintf("%s percept daemon\n", headerPrefix))
	sb.WriteString(fmt.Sprintf("  Status:       %s\n", okColor.Sprint(h.Status)))
	sb.WriteString(fmt.Sprintf("  Uptime:       %s\n", h.Uptime))
	sb.WriteString(fmt.Sprintf("  Store:        %s\n", h.StoreDriver))
	sb.WriteString(fmt.Sprintf("  Loaded:       %s (%d reloads)\n", h.LoadedAt, h.Reloads))
	if h.HTTPAddr != "" {
		sb.WriteString(fmt.Sprintf("  HTTP:         http://%s\n", h.HTTPAddr))
	}
	sb.WriteString(fmt.Sprintf("  Fingerprint:  %s\n", h.Engine.Fingerprint))
	sb.WriteString(fmt.Sprintf("  Words:        %d\n", h.Engine.Words))
	sb.WriteString(fmt.Sprintf("  Percepts:     %d\n", h.Engine.Percepts))
	sb.WriteString(fmt.Sprintf("  Stop words:   %d\n", h.Engine.StopWords))
	sb.WriteString(fmt.Sprintf("  Requests:     %d\n", h.Engine.Requests))
	if h.Engine.Orphans > 0 || h.Engine.Uncanonical > 0 || h.Engine.DroppedPercept > 0 {
		sb.WriteString(warnColor.Sprintf("  Integrity:    %d orphan percepts, %d uncanonical refs, %d dropped\n",
			h.Engine.Orphans, h.Engine.Uncanonical, h.Engine.DroppedPercept))
	}
	return sb.String()
}

// formatSuggestions formats percept name suggestions.
func formatSuggestions(query string, sugg []percept.Suggestion) string {
	var sb strings.Builder
	sb.WriteString(boldColor.Sprintf("%s %d matches for %q\n", headerPrefix, len(sugg), query))
	for _, s := range sugg {
		sb.WriteString("  ")
		sb.WriteString(nameColor.Sprint(s.ID))
		sb.WriteString(dimColor.Sprintf("  %s  %.3f\n", s.DisplayName, s.Similarity))
	}
	return sb.String()
}
