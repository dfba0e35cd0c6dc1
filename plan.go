package main

import (
	"fmt"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/zinrai/frr-clab/internal/ledger"
)

// planOutput is the YAML form of a stored address plan.
type planOutput struct {
	RunID        string              `yaml:"run_id"`
	Lab          string              `yaml:"lab"`
	ParentPrefix string              `yaml:"parent_prefix"`
	CreatedAt    string              `yaml:"created_at"`
	Allocations  []ledger.Allocation `yaml:"allocations"`
}

func newPlanCommand() *cobra.Command {
	plan := &cobra.Command{
		Use:   "plan",
		Short: "Inspect recorded address plans",
	}

	var dsn string
	show := &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Print a recorded address plan as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				return fmt.Errorf("--plan-db is required")
			}

			store, err := ledger.Open(dsn)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			run, err := store.Run(ctx, args[0])
			if err != nil {
				return err
			}
			allocs, err := store.Allocations(ctx, run.ID)
			if err != nil {
				return err
			}

			data, err := yaml.MarshalWithOptions(planOutput{
				RunID:        run.ID,
				Lab:          run.LabName,
				ParentPrefix: run.ParentPrefix,
				CreatedAt:    run.CreatedAt.Format(time.RFC3339),
				Allocations:  allocs,
			}, yaml.IndentSequence(true))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	show.Flags().StringVar(&dsn, "plan-db", "", "SQLite path or postgres:// DSN of the plan database")

	plan.AddCommand(show)
	return plan
}
