package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gilchrisn/sir-influence/pkg/epidemic"
	"github.com/gilchrisn/sir-influence/pkg/graph"
)

var thresholdBetas []float64

var thresholdCmd = &cobra.Command{
	Use:   "threshold <network-file>",
	Short: "Print a network's epidemic thresholds and beta schedule",
	Long: `Print the spectral, heterogeneous mean-field and mean-field epidemic
thresholds of a network, followed by the beta schedule the configured
estimator produces.`,
	Args: cobra.ExactArgs(1),
	RunE: runThreshold,
}

func init() {
	rootCmd.AddCommand(thresholdCmd)
	thresholdCmd.Flags().Float64SliceVar(&thresholdBetas, "betas", nil, "Infection rate multipliers (default from config)")
}

func runThreshold(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("betas") {
		cfg.Set("simulation.betas", thresholdBetas)
	}

	g, err := graph.ReadEdgeList(args[0])
	if err != nil {
		return err
	}
	logger.Debug().Int("nodes", g.NumNodes).Int("edges", g.NumEdges).Msg("Loaded network")

	out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(out, "nodes\t%d\n", g.NumNodes)
	fmt.Fprintf(out, "edges\t%d\n", g.NumEdges)

	for _, method := range []epidemic.Method{epidemic.MethodSpectral, epidemic.MethodHMF, epidemic.MethodMeanField} {
		th, err := epidemic.Estimate(g, method)
		if err != nil {
			return fmt.Errorf("%s threshold: %w", method, err)
		}
		fmt.Fprintf(out, "%s\t%s\n", method, th)
		if method == epidemic.MethodSpectral && th.IsDefined() {
			fmt.Fprintf(out, "leading eigenvalue\t%g\n", th.LeadingEigenvalue())
		}
	}

	method, err := epidemic.ParseMethod(cfg.ThresholdMethod())
	if err != nil {
		return err
	}
	th, err := epidemic.Estimate(g, method)
	if err != nil {
		return err
	}
	multipliers, err := cfg.BetaMultipliers()
	if err != nil {
		return err
	}
	schedule, err := epidemic.ScheduleFor(th, multipliers)
	switch {
	case errors.Is(err, epidemic.ErrUndefinedThreshold):
		fmt.Fprintf(out, "schedule\tnone (threshold undefined)\n")
	case err != nil:
		return err
	default:
		fmt.Fprintf(out, "schedule (%s)\t%v\n", method, []float64(schedule))
	}
	return out.Flush()
}
