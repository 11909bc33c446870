package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corey/percept/internal/adapters/socket"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check daemon status",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Rebuild the daemon's engine from the store and name table",
	Args:  cobra.NoArgs,
	RunE:  runReload,
}

func runHealth(cmd *cobra.Command, args []string) error {
	_, paths, err := loadConfig()
	if err != nil {
		return err
	}
	client := socket.NewClient(paths.Socket)

	if !client.Ping() {
		fmt.Println(notOKColor.Sprint("◆ percept daemon is not running"))
		return nil
	}

	health, err := client.Health()
	if err != nil {
		return err
	}
	fmt.Print(formatHealth(health))
	return nil
}

func runReload(cmd *cobra.Command, args []string) error {
	_, paths, err := loadConfig()
	if err != nil {
		return err
	}
	client := socket.NewClient(paths.Socket)
	if !client.Ping() {
		return fmt.Errorf("daemon is not running (start it with 'percept serve')")
	}

	res, err := client.Reload()
	if err != nil {
		return fmt.Errorf("reload failed, daemon keeps its previous engine: %w", err)
	}
	state := "unchanged"
	if res.Changed {
		state = "changed"
	}
	fmt.Printf("%s in %s, corpus %s (fingerprint %s)\n", okColor.Sprint("◆ reloaded"), res.Elapsed, state, res.Fingerprint)
	return nil
}
