package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corey/percept/internal/adapters/socket"
	"github.com/corey/percept/internal/domain/percept"
)

var suggestLimit int

var suggestCmd = &cobra.Command{
	Use:   "suggest <name>",
	Short: "Find percepts whose names resemble a query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSuggest,
}

func init() {
	suggestCmd.Flags().IntVarP(&suggestLimit, "limit", "n", percept.DefaultSuggestLimit, "max suggestions")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	_, paths, err := loadConfig()
	if err != nil {
		return err
	}
	query := strings.Join(args, " ")

	client := socket.NewClient(paths.Socket)
	if client.Ping() {
		res, err := client.Suggest(query, suggestLimit)
		if err != nil {
			return err
		}
		fmt.Print(formatSuggestions(query, res.Suggestions))
		return nil
	}
	return withEngine(cmd.Context(), func(e *percept.Engine) error {
		fmt.Print(formatSuggestions(query, e.Suggest(query, suggestLimit)))
		return nil
	})
}
