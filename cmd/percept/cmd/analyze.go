package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corey/percept/internal/adapters/ahocorasick"
	"github.com/corey/percept/internal/adapters/socket"
	"github.com/corey/percept/internal/domain/lexicon"
	"github.com/corey/percept/internal/domain/percept"
)

var (
	analyzeSet   string
	analyzeJSON  bool
	analyzeLimit int
	analyzeLocal bool
	analyzeViews bool
	analyzeMark  bool
	analyzeMode  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [text...|-]",
	Short: "Score a document against the percept corpus",
	Long: "Scores the given text (or stdin with '-' or no arguments) and lists the percepts it evidences, densest first.\n" +
		"Uses the running daemon when there is one, otherwise builds the engine locally.",
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeSet, "set", "", "percept set (default [analysis].percept_set)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the raw analysis as JSON")
	analyzeCmd.Flags().IntVarP(&analyzeLimit, "limit", "n", 20, "max percepts to print (0 = all)")
	analyzeCmd.Flags().BoolVar(&analyzeLocal, "local", false, "never use the daemon")
	analyzeCmd.Flags().BoolVar(&analyzeViews, "views", false, "also print the normalized surface/stem/lemma views (local engine)")
	analyzeCmd.Flags().StringVar(&analyzeMode, "mode", "", "with --views, print only this view: surface (or base), stem, lemma")
	analyzeCmd.Flags().BoolVar(&analyzeMark, "highlight", false, "print the document with the listed percepts' evidence words highlighted")
}

// readDocument joins args, or reads stdin for no args or a lone "-".
func readDocument(args []string, stdin io.Reader) (string, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	return strings.Join(args, " "), nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, paths, err := loadConfig()
	if err != nil {
		return err
	}
	doc, err := readDocument(args, os.Stdin)
	if err != nil {
		return err
	}
	set := analyzeSet
	if set == "" {
		set = cfg.Analysis.PerceptSet
	}

	if analyzeMode != "" {
		if _, err := lexicon.ParseMode(analyzeMode); err != nil {
			return describeAnalyzeError(percept.NewError(percept.KindInvalidInput, "analyze", err))
		}
		analyzeViews = true
	}

	var analysis *percept.Analysis
	client := socket.NewClient(paths.Socket)
	if !analyzeLocal && !analyzeViews && client.Ping() {
		analysis, err = client.Analyze(set, doc)
		if err != nil {
			return describeAnalyzeError(err)
		}
	} else {
		err = withEngine(cmd.Context(), func(e *percept.Engine) error {
			if analyzeViews && !analyzeJSON {
				if err := printViews(os.Stdout, e, doc, analyzeMode); err != nil {
					return err
				}
			}
			var aerr error
			analysis, aerr = e.AnalyzeSet(set, doc)
			return aerr
		})
		if err != nil {
			return describeAnalyzeError(err)
		}
	}

	if analyzeJSON {
		return writeJSON(os.Stdout, analysis)
	}
	fmt.Print(formatAnalysis(analysis, analyzeLimit))
	if analyzeMark {
		fmt.Println()
		fmt.Println(highlightEvidence(doc, analysis, analyzeLimit))
	}
	return nil
}

// highlightEvidence marks the words found for the first limit percepts.
func highlightEvidence(doc string, a *percept.Analysis, limit int) string {
	var words []string
	for i, p := range a.Percepts {
		if limit > 0 && i >= limit {
			break
		}
		words = append(words, p.WordsFound...)
	}
	return ahocorasick.NewHighlighter(words).Mark(doc, func(w string) string {
		return wordColor.Sprint(w)
	})
}

// printViews prints the normalized views of doc, or only the one named by
// mode when it is set.
func printViews(w io.Writer, e *percept.Engine, doc, mode string) error {
	modes := []string{mode}
	if mode == "" {
		modes = modes[:0]
		for _, m := range lexicon.Modes {
			modes = append(modes, string(m))
		}
	}
	for _, m := range modes {
		words, err := e.View(doc, m)
		if err != nil {
			return err
		}
		label, _ := lexicon.ParseMode(m)
		fmt.Fprintf(w, "%s %s\n", dimColor.Sprintf("%-8s", label), strings.Join(words, " "))
	}
	return nil
}

// describeAnalyzeError turns engine error kinds into caller-facing messages.
func describeAnalyzeError(err error) error {
	switch percept.StatusFor(err) {
	case percept.StatusInvalidInput:
		if errors.Is(err, lexicon.ErrUnknownMode) {
			return fmt.Errorf("invalid --mode: %w", err)
		}
		// Kinds cross the socket but wrapped sentinels do not; match the text.
		if errors.Is(err, percept.ErrEmptyDocument) || strings.Contains(err.Error(), percept.ErrEmptyDocument.Error()) {
			return errors.New(percept.MessageMissingDocument)
		}
		return err
	case percept.StatusUnavailable:
		return fmt.Errorf("percept dictionary unavailable: %w", err)
	default:
		return err
	}
}
