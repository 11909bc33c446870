package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/corey/percept/internal/adapters/socket"
	"github.com/corey/percept/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration",
	Long:  "Shows the resolved config: file, store, name table, socket, HTTP address and daemon status. No daemon required.",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, paths, err := loadConfig()
	if err != nil {
		return err
	}

	client := socket.NewClient(paths.Socket)
	daemonStatus := notOKColor.Sprint("✗ not running")
	if client.Ping() {
		daemonStatus = okColor.Sprint("✓ running")
	}

	source := "defaults (file not found)"
	if _, err := os.Stat(paths.Config); err == nil {
		source = paths.Config
	}

	fmt.Println(boldColor.Sprint("◆ percept config"))
	fmt.Printf("  Config:     %s\n", source)
	fmt.Printf("  Store:      %s\n", cfg.Store.Driver)
	switch cfg.Store.Driver {
	case config.DriverBolt:
		fmt.Printf("  Corpus:     %s\n", paths.Bolt)
	case config.DriverMongo:
		fmt.Printf("  Database:   %s (%s, %s)\n", cfg.Store.MongoDatabase, cfg.Store.FrequencyCollection, cfg.Store.MembershipCollection)
	}
	names := paths.Names
	if names == "" {
		names = dimColor.Sprint("none (raw ids are canonical)")
	}
	fmt.Printf("  Names:      %s\n", names)
	fmt.Printf("  Watch:      %t\n", cfg.Names.Watch)
	fmt.Printf("  Language:   %s\n", cfg.Analysis.Language)
	fmt.Printf("  Stop words: threshold %d, singletons %t, %d extra\n",
		cfg.Analysis.HighFrequencyThreshold, cfg.Analysis.SingletonStopWords, len(cfg.Analysis.ExtraStopWords))
	fmt.Printf("  Socket:     %s\n", paths.Socket)
	if cfg.Server.DisableHTTP {
		fmt.Printf("  HTTP:       %s\n", dimColor.Sprint("disabled"))
	} else {
		fmt.Printf("  HTTP:       %s\n", paths.HTTPAddr)
	}
	fmt.Printf("  Daemon:     %s\n", daemonStatus)
	return nil
}
