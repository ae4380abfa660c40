package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/carbonsim/internal/compute"
	"github.com/san-kum/carbonsim/internal/config"
	"github.com/san-kum/carbonsim/internal/flow"
	"github.com/san-kum/carbonsim/internal/scenario"
	"github.com/san-kum/carbonsim/internal/sim"
	"github.com/san-kum/carbonsim/internal/storage"
	"github.com/san-kum/carbonsim/internal/tui"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	backend    string
	steps      int
	maxIter    int
	trace      bool
	// export flags
	exportFull bool
	exportOut  string
	// plot flags
	plotFile   string
	plotColumn string
	// bench flags
	benchStands int
	benchPools  int
	benchOps    int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "carbonsim",
		Short: "batched ecosystem carbon pool simulation",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".carbonsim", "run data directory")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "spin up and project a scenario",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "scenario config file (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().StringVar(&backend, "backend", "", "compute backend (serial, parallel, auto)")
	runCmd.Flags().IntVar(&steps, "steps", 0, "timesteps to project (overrides config)")
	runCmd.Flags().IntVar(&maxIter, "max-iterations", 0, "spinup iteration cap (overrides config)")

	spinupCmd := &cobra.Command{
		Use:   "spinup [model]",
		Short: "spin a scenario up to its pre-simulation state and report convergence",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSpinup,
	}
	spinupCmd.Flags().StringVar(&configFile, "config", "", "scenario config file (yaml)")
	spinupCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	spinupCmd.Flags().StringVar(&backend, "backend", "", "compute backend (serial, parallel, auto)")
	spinupCmd.Flags().IntVar(&maxIter, "max-iterations", 0, "spinup iteration cap (overrides config)")
	spinupCmd.Flags().BoolVar(&trace, "trace", false, "print per-stand state each iteration")

	watchCmd := &cobra.Command{
		Use:   "watch [model]",
		Short: "run a scenario with a live spinup view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  watchScenario,
	}
	watchCmd.Flags().StringVar(&configFile, "config", "", "scenario config file (yaml)")
	watchCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a pool or flux series from a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotFile, "file", "pools.csv", "series source (pools.csv or flux.csv)")
	plotCmd.Flags().StringVar(&plotColumn, "column", "AGSlow", "column to plot")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print a run as json, metadata only unless --full",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().BoolVar(&exportFull, "full", false, "include the pool and flux timeseries")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "write the full export to a file instead of stdout")

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for model: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark the compute backends on synthetic operations",
		RunE:  benchBackends,
	}
	benchCmd.Flags().IntVar(&benchStands, "stands", 10000, "batch size")
	benchCmd.Flags().IntVar(&benchPools, "pools", 16, "pools per stand")
	benchCmd.Flags().IntVar(&benchOps, "ops", 8, "operations per application")

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a default scenario config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.Save(args[0], config.DefaultConfig())
		},
	}

	rootCmd.AddCommand(runCmd, spinupCmd, watchCmd, listCmd, plotCmd, exportCmd, presetsCmd, benchCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	model := "cbm"
	if len(args) > 0 {
		model = args[0]
	}

	cfg := config.DefaultConfig()
	cfg.Model = model

	if preset != "" {
		cfg = config.GetPreset(model, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(model))
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	// CLI flags override everything
	if cmd.Flags().Changed("backend") {
		cfg.Backend = backend
	}
	if cmd.Flags().Changed("steps") {
		cfg.Step.Steps = steps
	}
	if cmd.Flags().Changed("max-iterations") {
		cfg.Spinup.MaxIterations = maxIter
	}
	return cfg, cfg.Validate()
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	sc, err := scenario.Load(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("running %s scenario (%d stands, %d steps)...\n",
		cfg.Model, sc.Stands(), cfg.Step.Steps)
	start := time.Now()

	result, err := sc.Run(context.Background())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(result.Meta, result.Data)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("spinup iterations: %d\n", result.Meta.SpinupIterations)
	if result.Meta.NotConverged > 0 {
		fmt.Printf("stands not converged: %d\n", result.Meta.NotConverged)
	}
	fmt.Println("\nsummary:")
	for name, val := range result.Meta.Summary {
		fmt.Printf("  %s: %.6f\n", name, val)
	}
	return nil
}

// spinupTrace prints one line per stand per spinup iteration.
type spinupTrace struct {
	w         io.Writer
	slowPools []int
}

func (t *spinupTrace) OnIteration(iteration int, pools *flow.Pools, state *sim.State) {
	for s := 0; s < state.N; s++ {
		slow := 0.0
		for _, p := range t.slowPools {
			slow += pools.Row(s)[p]
		}
		fmt.Fprintf(t.w, "iter=%d stand=%d age=%d rotation=%d state=%s slow=%.6f\n",
			iteration, s, state.Age[s], state.Rotation[s], state.Spinup[s], slow)
	}
}

func runSpinup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	cfg.Step.Steps = 0
	if cmd.Flags().Changed("trace") {
		cfg.Spinup.Trace = trace
	}

	sc, err := scenario.Load(cfg)
	if err != nil {
		return err
	}
	if cfg.Spinup.Trace {
		sc.AddObserver(&spinupTrace{w: os.Stdout, slowPools: slowPoolIndices(sc.Model().Layout())})
	}

	start := time.Now()
	result, err := sc.Run(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("spinup completed in %v\n", time.Since(start))
	fmt.Printf("stands: %d\n", sc.Stands())
	fmt.Printf("iterations: %d\n", result.Meta.SpinupIterations)
	if result.Meta.NotConverged > 0 {
		fmt.Printf("stands not converged: %d (indices %v)\n",
			result.Meta.NotConverged, result.Spinup.NotConverged)
	}
	return nil
}

func slowPoolIndices(layout *flow.Layout) []int {
	var slow []int
	for i, name := range layout.PoolNames() {
		switch name {
		case "AGSlow", "BGSlow", "FeatherMossSlow", "SphagnumMossSlow":
			slow = append(slow, i)
		}
	}
	return slow
}

func watchScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	sc, err := scenario.Load(cfg)
	if err != nil {
		return err
	}

	monitor := tui.NewMonitor(slowPoolIndices(sc.Model().Layout()))
	sc.AddObserver(monitor)

	errc := make(chan error, 1)
	go func() {
		_, err := sc.Run(context.Background())
		monitor.Close()
		errc <- err
	}()

	p := tui.NewWatchApp(monitor.Frames())
	if _, err := p.Run(); err != nil {
		return err
	}
	return <-errc
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tSTANDS\tSTEPS\tSPINUP\tBACKEND")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Stands,
			run.Steps,
			run.SpinupIterations,
			run.Backend,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	series, err := st.LoadSeries(args[0], plotFile, plotColumn)
	if err != nil {
		return err
	}
	if len(series.Values) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("timesteps: %d\n\n", len(series.Values))

	graph := asciigraph.Plot(series.Values,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("%s, batch total per timestep", plotColumn)),
	)
	fmt.Println(graph)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	if !exportFull && exportOut == "" {
		return storage.ExportMetaStdout(meta)
	}
	result, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}
	if exportOut != "" {
		return storage.ExportJSON(exportOut, *meta, result)
	}
	return storage.ExportJSONStdout(*meta, result)
}

func benchBackends(cmd *cobra.Command, args []string) error {
	rng := rand.New(rand.NewSource(42))

	ops := make([]*flow.Operation, benchOps)
	for i := range ops {
		matrices := make([][]flow.Coord, benchStands)
		for s := range matrices {
			src := 1 + rng.Intn(benchPools-2)
			snk := 1 + rng.Intn(benchPools-2)
			if snk == src {
				snk = benchPools - 1
			}
			matrices[s] = []flow.Coord{
				{Src: flow.PoolInput, Snk: src, Value: rng.Float64()},
				{Src: src, Snk: snk, Value: rng.Float64() * 0.5},
			}
		}
		op, err := flow.NewPerStandOperation(fmt.Sprintf("bench_%d", i), flow.ProcessNone, benchPools, matrices)
		if err != nil {
			return err
		}
		ops[i] = op
	}

	fmt.Printf("benchmarking %d stands x %d pools x %d ops\n\n", benchStands, benchPools, benchOps)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BACKEND\tTIME\tSTAND-OPS/SEC")

	for _, name := range []string{"serial", "parallel"} {
		be, err := compute.New(name)
		if err != nil {
			return err
		}
		if !be.Available() {
			fmt.Fprintf(w, "%s\tunavailable\t\n", name)
			continue
		}
		pools := flow.NewPools(benchStands, benchPools)
		start := time.Now()
		if err := be.Apply(ops, pools, nil); err != nil {
			return err
		}
		elapsed := time.Since(start)
		rate := float64(benchStands*benchOps) / elapsed.Seconds()
		fmt.Fprintf(w, "%s\t%v\t%.0f\n", name, elapsed, rate)
		be.Cleanup()
	}
	return w.Flush()
}
