package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kmehta07/lastmile/config"
	"github.com/kmehta07/lastmile/core/scoring"
)

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Print the current scoring weights and adjustment history",
	RunE:  weights,
}

func init() {
	rootCmd.AddCommand(weightsCmd)
}

func weights(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := scoring.LoadStore(cfg.Store.WeightsPath)
	if err != nil {
		return fmt.Errorf("weight config: %w", err)
	}
	snap := store.Snapshot()
	out := map[string]any{
		"values":     snap.Values,
		"updated_at": snap.UpdatedAt,
		"history":    store.History(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
