// Command htnplan runs the HTN-to-SAT planner over a domain/problem pair.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/htn-sat/planner/internal/config"
	"github.com/htn-sat/planner/internal/driver"
	"github.com/htn-sat/planner/internal/hddl"
	"github.com/htn-sat/planner/internal/htn"
	"github.com/htn-sat/planner/internal/log"
	"github.com/htn-sat/planner/internal/plan"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "htnplan",
		Short: "Encodes and solves HTN planning problems as SAT instances",
	}
	root.AddCommand(newSolveCmd())
	root.AddCommand(newDumpCNFCmd())
	return root
}

func bindOptionFlags(cmd *cobra.Command, opts *config.Options) {
	cmd.Flags().IntVarP(&opts.LowerD, "min-iteration", "d", 0, "earliest iteration at which solving is attempted")
	cmd.Flags().IntVarP(&opts.D, "max-layers", "D", 0, "maximum iteration count (0 = unbounded)")
	cmd.Flags().BoolVar(&opts.CS, "cs", false, "check solvability: on UNSAT re-solve without assumptions")
	cmd.Flags().BoolVarP(&opts.Q, "q", "q", false, "restrict eager grounding to precondition arguments")
	cmd.Flags().BoolVar(&opts.QQ, "qq", false, "disable eager grounding entirely")
	cmd.Flags().IntVar(&opts.QConstInstantiationLimit, "q-const-limit", 0, "bounded-enumeration cap before falling back to lifted ops")
	cmd.Flags().Float64Var(&opts.QConstRatingFactor, "q-const-rating-factor", 1.0, "rating multiplier used by -q to pick arguments for eager grounding")
	cmd.Flags().BoolVar(&opts.NPS, "nps", false, "encode fact support for non-primitive operations too")
	cmd.Flags().BoolVar(&opts.SortArgsByRating, "sort-args-by-rating", false, "sort instantiation search order by precondition rating")
	cmd.Flags().BoolVar(&opts.PrintFormula, "print-formula", false, "print the DIMACS-like clause dump instead of solving")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "enable progress logging")
}

func newSolveCmd() *cobra.Command {
	opts := config.Default()
	cmd := &cobra.Command{
		Use:   "solve <domain.yaml> <problem.yaml>",
		Short: "Find a plan for the given domain and problem",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(args[0], args[1], opts)
		},
	}
	bindOptionFlags(cmd, &opts)
	return cmd
}

func newDumpCNFCmd() *cobra.Command {
	opts := config.Default()
	cmd := &cobra.Command{
		Use:   "dump-cnf <domain.yaml> <problem.yaml>",
		Short: "Encode a fixed number of layers and print the clause dump",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.PrintFormula = true
			return runSolve(args[0], args[1], opts)
		},
	}
	bindOptionFlags(cmd, &opts)
	return cmd
}

func runSolve(domainPath, problemPath string, opts config.Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	logger := log.New(os.Stdout, opts.Verbose)

	in := htn.NewInterner()
	problem, topTasks, err := hddl.Load(in, domainPath, problemPath)
	if err != nil {
		return err
	}

	driverOpts := driver.Options{
		D:                        opts.D,
		MinIteration:             opts.LowerD,
		CheckSolvability:         opts.CS,
		InstantiateNothing:       opts.QQ,
		PreconditionsOnly:        opts.Q,
		QConstInstantiationLimit: opts.QConstInstantiationLimit,
		QConstRatingFactor:       opts.QConstRatingFactor,
		SortArgsByRating:         opts.SortArgsByRating,
	}

	if opts.PrintFormula {
		enc, err := driver.EncodeLayers(problem, topTasks, driverOpts)
		if err != nil {
			return err
		}
		return enc.DumpDIMACS(os.Stdout)
	}

	result, ok := driver.FindPlan(problem, topTasks, driverOpts, logger)
	if !ok {
		fmt.Println("no plan found")
		os.Exit(1)
	}

	formatter := plan.New(in, nil)
	return formatter.WritePlan(os.Stdout, result.Classical, result.Decomposition)
}
