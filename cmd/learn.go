package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kmehta07/lastmile/app"
	"github.com/kmehta07/lastmile/config"
	"github.com/kmehta07/lastmile/infra/logger"
)

var learnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Run one learning cycle over the recorded outcomes",
	RunE:  learn,
}

func init() {
	rootCmd.AddCommand(learnCmd)
}

func learn(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Notifier.Enabled = false

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("learn-command").Errorf("service close: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	report, err := svc.Loop.RunCycle(ctx, time.Now())
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
