package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kmehta07/lastmile/app"
	"github.com/kmehta07/lastmile/config"
	"github.com/kmehta07/lastmile/core/intake"
	"github.com/kmehta07/lastmile/core/pipeline"
	"github.com/kmehta07/lastmile/infra/logger"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <submission.json>",
	Short: "Evaluate a single shipment submission and print the decision",
	Args:  cobra.ExactArgs(1),
	RunE:  evaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
}

func evaluate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// One-shot runs never notify downstream channels.
	cfg.Notifier.Enabled = false

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("evaluate-command").Errorf("service close: %v", err)
		}
	}()

	b, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read submission: %w", err)
	}
	var sub intake.Submission
	if err := json.Unmarshal(b, &sub); err != nil {
		return fmt.Errorf("parse submission: %w", err)
	}
	shipment, err := intake.Validate(sub, time.Now())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	res, err := svc.Manager.Evaluate(ctx, shipment)
	if err != nil {
		var sferr *pipeline.ScorerFailure
		if !errors.As(err, &sferr) {
			return err
		}
		// Fail-safe decision was taken; fall through and print it.
	}

	out := map[string]any{
		"shipment_id": res.Decision.ShipmentID,
		"decision":    res.Decision.Kind.String(),
		"score":       res.Decision.RiskScore,
		"bucket":      res.Decision.Bucket.String(),
		"reasons":     res.Decision.Reasons,
		"explanation": res.Explanation,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
