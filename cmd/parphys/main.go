package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/san-kum/parallelphysics/internal/config"
	"github.com/san-kum/parallelphysics/internal/dynamo"
	"github.com/san-kum/parallelphysics/internal/export"
	"github.com/san-kum/parallelphysics/internal/formula"
	"github.com/san-kum/parallelphysics/internal/metrics"
	"github.com/san-kum/parallelphysics/internal/sim"
	"github.com/san-kum/parallelphysics/internal/storage"
	"github.com/san-kum/parallelphysics/internal/sweep"
	"github.com/san-kum/parallelphysics/internal/viz"
)

var (
	dbPath  string
	verbose bool

	configFile string
	preset     string
	runName    string
	dt         float64
	frames     int
	objects    int
	workers    int
	mass       float64
	energy     float64
	jitter     float64
	seed       int64
	sample     int
	stopOnErr  bool
	noSave     bool

	frameRate int

	plotField string
	plotCount int

	exportFormat string
	exportOut    string

	sweepLimit int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "parphys",
		Short:         "parallel quantum-style physics engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", ".parphys/runs.db", "run database path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and store it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().StringVar(&runName, "name", "", "run name (defaults to preset or config name)")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotField, "field", "", "field to plot (mass, energy, z, s0); empty plots all")
	plotCmd.Flags().IntVar(&plotCount, "count", 3, "number of objects to plot")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run data",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "json or csv")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")

	deleteCmd := &cobra.Command{
		Use:   "delete [run_id]",
		Short: "delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  deleteRun,
	}

	formulasCmd := &cobra.Command{
		Use:   "formulas",
		Short: "evaluate every formula on sample inputs",
		Args:  cobra.NoArgs,
		RunE:  showFormulas,
	}

	sweepCmd := &cobra.Command{
		Use:       "sweep [plan]",
		Short:     "plot a formula over an input range",
		Args:      cobra.ExactArgs(1),
		ValidArgs: sweep.Names(),
		RunE:      runSweep,
	}
	sweepCmd.Flags().IntVar(&sweepLimit, "parallel", 0, "max concurrent series (0 = all)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run simulation with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addRunFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tOBJECTS\tFRAMES\tDT\tMASS\tENERGY")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%d\t%.4f\t%.2f\t%.2f\n",
					name, p.Population.Objects, p.Frames, p.Dt, p.Population.Mass, p.Population.Energy)
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, deleteCmd, formulasCmd, sweepCmd, liveCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, viz.StatusError.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "frame timestep")
	cmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "frames to run")
	cmd.Flags().IntVar(&objects, "objects", config.DefaultObjects, "number of objects")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker pool size (0 = cpu count)")
	cmd.Flags().Float64Var(&mass, "mass", config.DefaultMass, "base mass")
	cmd.Flags().Float64Var(&energy, "energy", config.DefaultEnergy, "base energy")
	cmd.Flags().Float64Var(&jitter, "jitter", config.DefaultJitter, "relative mass/energy jitter")
	cmd.Flags().Int64Var(&seed, "seed", 0, "spawn noise seed")
	cmd.Flags().IntVar(&sample, "sample", 1, "record every nth frame")
	cmd.Flags().BoolVar(&stopOnErr, "stop-on-error", false, "stop at the first failed frame")
}

// resolveConfig layers preset, config file and explicitly set flags, in
// that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("frames") {
		cfg.Frames = frames
	}
	if flags.Changed("objects") {
		cfg.Population.Objects = objects
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("mass") {
		cfg.Population.Mass = mass
	}
	if flags.Changed("energy") {
		cfg.Population.Energy = energy
	}
	if flags.Changed("jitter") {
		cfg.Population.Jitter = jitter
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("sample") {
		cfg.Sample = sample
	}
	if flags.Changed("stop-on-error") {
		cfg.StopOnErr = stopOnErr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if runName != "" {
		cfg.Name = runName
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	runCfg := cfg.RunConfig()
	runner := sim.NewRunner(runCfg, metrics.Default(runCfg.Engine))
	runner.SetLogger(slog.Default().With("run", cfg.Name))

	result, err := runner.Run(ctx)
	if result == nil {
		return err
	}
	if err != nil {
		slog.Warn("run interrupted", "frames", result.FramesRun, "error", err)
	}

	updates := int64(result.FramesRun) * int64(runCfg.Objects)
	rows := viz.Rows(
		[2]string{"name", cfg.Name},
		[2]string{"objects", humanize.Comma(int64(runCfg.Objects))},
		[2]string{"workers", fmt.Sprintf("%d", result.WorkerPool)},
		[2]string{"frames", fmt.Sprintf("%d / %d", result.FramesRun, runCfg.Frames)},
		[2]string{"updates", humanize.Comma(updates)},
		[2]string{"elapsed", result.Elapsed.Round(time.Microsecond).String()},
		[2]string{"failed frames", fmt.Sprintf("%d", len(result.Errors))},
	)
	fmt.Println(viz.BoxWithTitle("run summary", rows))
	fmt.Println(viz.BoxWithTitle("metrics", viz.Metrics(result.Metrics)))

	for _, e := range result.Errors {
		fmt.Println(viz.StatusError.Render(e.Error()))
	}

	if noSave {
		return nil
	}

	st, err := storage.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := st.Save(context.Background(), cfg.Name, runCfg, result)
	if err != nil {
		return err
	}
	fmt.Printf("saved run %s\n", id)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := storage.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List(cmd.Context())
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCREATED\tOBJECTS\tFRAMES\tDT\tFAILED\tELAPSED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.4fs\t%d\t%s\n",
			shortID(run.ID),
			run.Name,
			humanize.Time(run.Timestamp),
			humanize.Comma(int64(run.Objects)),
			run.Frames,
			run.Dt,
			run.Failures,
			run.Elapsed.Round(time.Microsecond),
		)
	}

	return w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func loadRun(ctx context.Context, id string) (*storage.RunMetadata, []sim.FrameRecord, error) {
	st, err := storage.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}
	defer st.Close()

	meta, err := st.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	recs, err := st.LoadFrames(ctx, meta.ID)
	if err != nil {
		return nil, nil, err
	}
	return meta, recs, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, recs, err := loadRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("name: %s\n", meta.Name)
	fmt.Printf("samples: %d\n\n", len(recs))

	n := min(plotCount, meta.Objects)
	idx := make([]int, max(n, 1))
	for i := range idx {
		idx[i] = i
	}

	var fields []viz.Field
	for _, f := range viz.Fields {
		if plotField == "" || f.Name == plotField {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		return fmt.Errorf("unknown field: %s", plotField)
	}

	for _, f := range fields {
		fmt.Println(viz.PlotFrames(recs, f, idx))
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	meta, recs, err := loadRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch strings.ToLower(exportFormat) {
	case "json":
		return export.JSON(w, meta, recs)
	case "csv":
		return export.CSV(w, recs)
	default:
		return fmt.Errorf("unknown format: %s (json, csv)", exportFormat)
	}
}

func deleteRun(cmd *cobra.Command, args []string) error {
	st, err := storage.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := st.Delete(cmd.Context(), meta.ID); err != nil {
		return err
	}
	fmt.Printf("deleted run %s\n", meta.ID)
	return nil
}

type formulaDemo struct {
	name string
	args [][]float64
}

var formulaDemos = []formulaDemo{
	{"balance", [][]float64{{10, 1}, {20, 2}, {50, 5}}},
	{"correlation", [][]float64{{100, 5}, {200, 10}, {500, 20}}},
	{"evolve", [][]float64{{100, 0}, {100, 1}, {100, 2}, {100, 5}, {100, 10}}},
	{"action", [][]float64{{10, 5, 2}, {20, 10, 3}, {50, 25, 5}}},
	{"survival", [][]float64{{10, 0.5}, {20, 0.7}, {50, 0.9}}},
	{"mass", [][]float64{{100, 10}, {200, 20}, {500, 50}}},
	{"emc2", [][]float64{{100, 10}, {500, 20}}},
	{"field", [][]float64{{0.5, 10}, {1, 10}, {2, 10}}},
}

func showFormulas(cmd *cobra.Command, args []string) error {
	eng := formula.DefaultEngine
	cat := eng.Catalog()

	for _, demo := range formulaDemos {
		entry := cat[demo.name]
		var lines []string
		for _, a := range demo.args {
			v, err := entry.Call(a...)
			if err != nil {
				return err
			}
			lines = append(lines, viz.Rows([2]string{
				fmt.Sprintf("%v", a),
				viz.MetricValue.Render(fmt.Sprintf("%.6g", v)),
			}))
		}
		title := fmt.Sprintf("%s(%s)", demo.name, strings.Join(entry.Params, ", "))
		fmt.Println(viz.BoxWithTitle(title, strings.Join(lines, "\n")))
	}

	state := dynamo.State{1, 1, 1}
	var lines []string
	for _, force := range []float64{0.1, 0.5, 1} {
		out, err := eng.Transform(state, force)
		if err != nil {
			return err
		}
		lines = append(lines, viz.Rows([2]string{
			fmt.Sprintf("force=%.1f", force),
			viz.MetricValue.Render(formatState(out)),
		}))
	}
	fmt.Println(viz.BoxWithTitle("transform(state=[1 1 1], force)", strings.Join(lines, "\n")))

	shares, err := eng.Disperse([]float64{10, 20, 30, 40})
	if err != nil {
		return err
	}
	fmt.Println(viz.BoxWithTitle("disperse([10 20 30 40])", viz.MetricValue.Render(formatState(shares))))

	force, err := eng.InputForce([]float64{3, 4})
	if err != nil {
		return err
	}
	fmt.Println(viz.BoxWithTitle("input force([3 4])", viz.MetricValue.Render(fmt.Sprintf("%.6g", force))))
	return nil
}

func formatState(s []float64) string {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = fmt.Sprintf("%.4f", v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func runSweep(cmd *cobra.Command, args []string) error {
	var (
		res *sweep.Result
		err error
	)
	switch args[0] {
	case "disperse":
		res, err = sweep.Dispersion(cmd.Context(), formula.DefaultEngine, sweep.DispersionMaps, sweepLimit)
		if err == nil {
			var lines []string
			for _, s := range res.Series {
				lines = append(lines, viz.Rows([2]string{s.Label, viz.MetricValue.Render(formatState(s.Y))}))
			}
			fmt.Println(viz.BoxWithTitle("disperse(energy map)", strings.Join(lines, "\n")))
		}
	case "evolution":
		res, err = sweep.Evolution(formula.DefaultEngine, config.DefaultMass, config.DefaultEnergy, config.DefaultDt, 30)
	default:
		plan, ok := sweep.Plans[args[0]]
		if !ok {
			return fmt.Errorf("unknown plan: %s (available: %v)", args[0], sweep.Names())
		}
		res, err = sweep.Run(cmd.Context(), formula.DefaultEngine, plan, sweepLimit)
	}
	if err != nil {
		return err
	}
	fmt.Println(viz.PlotSweep(res))
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("frames") && preset == "" && configFile == "" {
		cfg.Frames = 0
	}
	return viz.RunLive(cfg.RunConfig(), frameRate)
}
