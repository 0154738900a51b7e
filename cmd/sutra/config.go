package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/sutra/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Get or set tuning values",
	Long: `Get or set global tuning values stored in $XDG_CONFIG_HOME/sutra/config.yml.

Keys:
  index_threshold     Minimum similarity for an index edge (default 0.05)
  display_threshold   Minimum similarity for a drawn edge (default 0.1)
  frame_rate          Layout animation frames per second (default 60)
  seed                Layout random seed, 0 for time based (default 0)
  max_ticks           Upper bound on layout steps, 0 for none (default 600)
  watch_debounce_ms   Quiet period before 'sutra watch' refreshes (default 250)`,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Show one or all values",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigGet,
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	gcfg := mustLoadGlobalConfig()

	keys := config.GlobalKeys()
	if len(args) == 1 {
		keys = []string{normalizeKey(args[0])}
	}

	values := make(map[string]string, len(keys))
	for _, k := range keys {
		v, err := gcfg.Get(k)
		if err != nil {
			exitWithError(ExitConfigError, "%v\n\nValid keys: %s", err, strings.Join(config.GlobalKeys(), ", "))
		}
		values[k] = v
	}

	if humanOutput {
		if len(args) == 1 {
			fmt.Println(values[keys[0]])
			return nil
		}
		for _, k := range keys {
			fmt.Printf("%-18s %s\n", k+":", values[k])
		}
	} else {
		outputJSON(values)
	}
	return nil
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := normalizeKey(args[0])
	gcfg := mustLoadGlobalConfig()

	if err := gcfg.Set(key, args[1]); err != nil {
		if errors.Is(err, config.ErrUnknownKey) {
			exitWithError(ExitConfigError, "%v\n\nValid keys: %s", err, strings.Join(config.GlobalKeys(), ", "))
		}
		exitWithError(ExitConfigError, "%v", err)
	}
	if err := config.SaveGlobalConfig(gcfg); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	value, _ := gcfg.Get(key)
	if humanOutput {
		fmt.Printf("Set %s to %s\n", key, value)
	} else {
		outputJSON(UpdateResponse{Status: "updated", Key: key, Value: value})
	}
	return nil
}

// normalizeKey accepts dashed keys (index-threshold) as well as the
// underscored form used in the YAML file.
func normalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "-", "_")
}
