package main

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zinrai/frr-clab/internal/deploy"
	"github.com/zinrai/frr-clab/internal/lab"
	"github.com/zinrai/frr-clab/internal/ledger"
	"github.com/zinrai/frr-clab/internal/scenario"
	"github.com/zinrai/frr-clab/internal/topology"
)

func newGenerateCommand() *cobra.Command {
	cfg := DefaultConfig()

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Address a topology, write FRR configs and the containerlab topology",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runGenerate(cmd.Context(), cfg, deploy.NewDeployer(), cmd.ErrOrStderr())
		},
	}
	cfg.BindFlags(cmd.Flags())
	return cmd
}

func runGenerate(ctx context.Context, cfg Config, deployer *deploy.Deployer, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logrus.WithField("command", "generate")

	desc, err := topology.Load(cfg.TopologyFile)
	if err != nil {
		return fmt.Errorf("error loading topology %s: %w", cfg.TopologyFile, err)
	}

	var scn *scenario.Scenario
	var protocols map[string]string
	if cfg.ScenarioFile != "" {
		scn, err = scenario.Load(cfg.ScenarioFile)
		if err != nil {
			return fmt.Errorf("error loading scenario %s: %w", cfg.ScenarioFile, err)
		}
		protocols = scn.BGPConfig
	}

	session, err := lab.NewSession(cfg.Lab, log)
	if err != nil {
		return err
	}

	spec, err := session.Build(desc, protocols)
	if err != nil {
		return fmt.Errorf("error building lab: %w", err)
	}

	path, err := session.Write(cfg.OutputDir, spec)
	if err != nil {
		return fmt.Errorf("error writing lab files: %w", err)
	}
	fmt.Fprintf(out, "Wrote %d router configs and %s\n", len(session.Routers()), path)

	if cfg.PlanDB != "" {
		runID, err := recordPlan(ctx, cfg, session)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Recorded address plan %s\n", runID)
	}

	if cfg.Deploy {
		log.WithField("dir", cfg.OutputDir).Info("Deploying lab")
		stdout, err := deployer.Deploy(ctx, cfg.OutputDir)
		if len(stdout) > 0 {
			log.Debug(string(stdout))
		}
		if err != nil {
			return err
		}
		log.Info("Lab deployed")
	}

	if scn != nil {
		scn.PrintSummary(out)
	}
	return nil
}

// recordPlan stores the session's allocations and returns the run ID.
func recordPlan(ctx context.Context, cfg Config, session *lab.Session) (string, error) {
	store, err := ledger.Open(cfg.PlanDB)
	if err != nil {
		return "", err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return "", err
	}

	run, err := store.Save(ctx, cfg.Lab.Name, session.Block(), session.Assignment())
	if err != nil {
		return "", fmt.Errorf("error recording address plan: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"run_id": run.ID,
		"links":  len(session.Assignment().Bindings()),
	}).Info("Address plan recorded")
	return run.ID, nil
}
