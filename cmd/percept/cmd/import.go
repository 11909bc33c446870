package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/corey/percept/internal/adapters/bbolt"
	"github.com/corey/percept/internal/adapters/seed"
	"github.com/corey/percept/internal/adapters/socket"
	"github.com/corey/percept/internal/config"
)

var (
	importFrequency  string
	importMembership string
)

var importCmd = &cobra.Command{
	Use:   "import --frequency freq.jsonl --membership members.jsonl",
	Short: "Replace the embedded corpus with records from JSON-lines files",
	Long: "Reads frequency records ({\"word\", \"percepts\"}) and membership records ({\"percept\", \"data\"})\n" +
		"and replaces the bolt store's corpus in one transaction. A running daemon is asked to reload.",
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importFrequency, "frequency", "", "frequency records, JSON lines (required)")
	importCmd.Flags().StringVar(&importMembership, "membership", "", "membership records, JSON lines (required)")
	importCmd.MarkFlagRequired("frequency")
	importCmd.MarkFlagRequired("membership")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, paths, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store.Driver != config.DriverBolt {
		return errors.New("import writes the embedded store; set [store].driver = \"bolt\"")
	}
	logger, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	freq, err := seed.ReadFrequencyFile(importFrequency)
	if err != nil {
		return err
	}
	members, err := seed.ReadMembershipFile(importMembership)
	if err != nil {
		return err
	}

	store, err := bbolt.NewStore(paths.Bolt)
	if err != nil {
		if isDBLockError(err) {
			return fmt.Errorf("%w\n%s", err, diagnoseDBLock(paths.Socket))
		}
		return err
	}
	stats, err := store.Import(cmd.Context(), freq, members)
	if cerr := store.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	logger.Info("corpus imported",
		zap.String("path", stats.Path),
		zap.Int("frequency", stats.FrequencyCount),
		zap.Int("membership", stats.MembershipCount))

	fmt.Printf("%s %d words, %d percepts → %s\n",
		okColor.Sprint("◆ imported"), stats.FrequencyCount, stats.MembershipCount, stats.Path)

	// The watcher reloads on its own; ask explicitly otherwise.
	client := socket.NewClient(paths.Socket)
	if !cfg.Names.Watch && client.Ping() {
		res, err := client.Reload()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s daemon reload failed: %v\n", warnColor.Sprint("warning:"), err)
			return nil
		}
		fmt.Printf("  daemon reloaded in %s (fingerprint %s)\n", res.Elapsed, res.Fingerprint)
	}
	return nil
}
