package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/corey/percept/internal/domain/percept"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Print the derived corpus views as JSON",
	Long:  "Inspect the canonicalized corpus the engine scores against. Builds the engine locally; no daemon required.",
}

// corpusView is one 'percept corpus' subcommand.
type corpusView struct {
	use   string
	short string
	view  func(*percept.Corpus) map[string]interface{}
}

var corpusViews = []corpusView{
	{"freqdist", "word -> canonical percepts", func(c *percept.Corpus) map[string]interface{} {
		return map[string]interface{}{"frequency_distribution": c.FrequencyDistribution()}
	}},
	{"buckets", "evidenced-percept count -> words", func(c *percept.Corpus) map[string]interface{} {
		return map[string]interface{}{"frequency_distribution": c.BucketedFrequencyDistribution()}
	}},
	{"stopwords", "corpus-derived stop words", func(c *percept.Corpus) map[string]interface{} {
		words := c.StopWords()
		return map[string]interface{}{"percept_stop_words": words, "length_percept_stop_words": len(words)}
	}},
	{"memberdist", "canonical percept -> member terms", func(c *percept.Corpus) map[string]interface{} {
		return map[string]interface{}{"member_distribution": c.MemberDistribution()}
	}},
	{"memberbuckets", "member count -> canonical percepts", func(c *percept.Corpus) map[string]interface{} {
		return map[string]interface{}{"member_distribution": c.BucketedMemberDistribution()}
	}},
	{"memberlist", "distinct raw percept ids in the store", func(c *percept.Corpus) map[string]interface{} {
		list := c.MemberList()
		return map[string]interface{}{"member_list": list, "member_list_length": len(list)}
	}},
	{"names", "raw id -> canonical id from the alternate-name table", func(c *percept.Corpus) map[string]interface{} {
		names := c.NameTable()
		return map[string]interface{}{"percepts": names, "len_percepts": len(names)}
	}},
}

func init() {
	for _, v := range corpusViews {
		v := v
		corpusCmd.AddCommand(&cobra.Command{
			Use:   v.use,
			Short: v.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withEngine(cmd.Context(), func(e *percept.Engine) error {
					out := v.view(e.Corpus())
					out["status"] = percept.StatusOK
					return writeJSON(os.Stdout, out)
				})
			},
		})
	}
}
