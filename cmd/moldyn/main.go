package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/moldyn/internal/analysis"
	"github.com/san-kum/moldyn/internal/config"
	"github.com/san-kum/moldyn/internal/model"
	"github.com/san-kum/moldyn/internal/storage"
	"github.com/san-kum/moldyn/internal/topology"
	"github.com/san-kum/moldyn/internal/universe"
)

var (
	dataDir     string
	temperature float64
	pressure    float64
	dt          float64
	duration    float64
	copies      int
	frameSkip   int
	mode        string
	seed        int64
	minimize    bool
	workers     int
	configFile  string
	preset      string
	outPath     string
)

var log = logrus.New()

func main() {
	rootCmd := &cobra.Command{
		Use:   "moldyn",
		Short: "molecular dynamics simulation engine",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".moldyn", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [topology.mol]",
		Short: "run a simulation",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	runCmd.Flags().Float64Var(&temperature, "temp", config.DefaultTemperature, "target temperature (K)")
	runCmd.Flags().Float64Var(&pressure, "pressure", config.DefaultPressure, "target pressure (Pa)")
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep (s)")
	runCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "simulated time to reach (s)")
	runCmd.Flags().IntVar(&copies, "copies", config.DefaultCopies, "replicas of the reference system")
	runCmd.Flags().IntVar(&frameSkip, "frameskip", config.DefaultFrameSkip, "steps skipped between frames")
	runCmd.Flags().StringVar(&mode, "mode", config.DefaultMode, "force mode (analytic|numerical)")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time-based)")
	runCmd.Flags().BoolVar(&minimize, "minimize", false, "minimize potential energy before integrating")
	runCmd.Flags().IntVar(&workers, "workers", 0, "parallel force workers (0 = all cores)")
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	minimizeCmd := &cobra.Command{
		Use:   "minimize [topology.mol]",
		Short: "minimize a system's potential energy",
		Args:  cobra.ExactArgs(1),
		RunE:  runMinimize,
	}
	minimizeCmd.Flags().Float64Var(&temperature, "temp", config.DefaultTemperature, "target temperature (K)")
	minimizeCmd.Flags().Float64Var(&pressure, "pressure", config.DefaultPressure, "target pressure (Pa)")
	minimizeCmd.Flags().IntVar(&copies, "copies", config.DefaultCopies, "replicas of the reference system")
	minimizeCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time-based)")
	minimizeCmd.Flags().StringVar(&outPath, "out", "", "write minimized coordinates to this .xyz file")

	infoCmd := &cobra.Command{
		Use:   "info [topology.mol]",
		Short: "describe a topology file",
		Args:  cobra.ExactArgs(1),
		RunE:  showInfo,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a run's energy series",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a run's energy series",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	rootCmd.AddCommand(runCmd, minimizeCmd, infoCmd, listCmd, plotCmd, analyzeCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

// resolveConfig merges defaults, preset, config file, and explicit flags,
// with later sources winning only where actually set.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %q (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("temp") {
		cfg.Temperature = temperature
	}
	if cmd.Flags().Changed("pressure") {
		cfg.Pressure = pressure
	}
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("copies") {
		cfg.Copies = copies
	}
	if cmd.Flags().Changed("frameskip") {
		cfg.FrameSkip = frameSkip
	}
	if cmd.Flags().Changed("mode") {
		cfg.Mode = mode
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("minimize") {
		cfg.Minimize = minimize
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}

	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadTopology(path string) (*topology.Topology, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return topology.Parse(f)
}

func buildUniverse(top *topology.Topology, cfg *config.Config) (*universe.Universe, error) {
	forceMode, err := universe.ParseForceMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	return universe.New(top, universe.Config{
		Temperature: cfg.Temperature,
		Pressure:    cfg.Pressure,
		Timestep:    cfg.Dt,
		MaxTime:     cfg.Duration,
		Copies:      cfg.Copies,
		FrameSkip:   cfg.FrameSkip,
		Mode:        forceMode,
		Seed:        cfg.Seed,
		Workers:     cfg.Workers,
	})
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	top, err := loadTopology(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, _, err := st.Prepare(top.Name)
	if err != nil {
		return err
	}

	uni, err := buildUniverse(top, cfg)
	if err != nil {
		return err
	}
	defer uni.Close()

	if err := uni.OpenTrajectory(st.TrajectoryPath(runID)); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"system": top.Name,
		"atoms":  len(uni.Atoms),
		"copies": cfg.Copies,
		"cell":   fmt.Sprintf("%.3e m", uni.Size),
		"mode":   cfg.Mode,
		"seed":   cfg.Seed,
	}).Info("universe initialized")

	if cfg.Minimize {
		stats, err := uni.Minimize()
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"accepted":  stats.Accepted,
			"exhausted": stats.Exhausted,
			"attempts":  stats.Attempts,
		}).Info("minimization complete")
	}

	start := time.Now()
	result, err := uni.Simulate(context.Background())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if err := st.Save(runID, storage.RunMetadata{
		System:      top.Name,
		Seed:        cfg.Seed,
		Temperature: cfg.Temperature,
		Pressure:    cfg.Pressure,
		Dt:          cfg.Dt,
		Duration:    cfg.Duration,
		Copies:      cfg.Copies,
		Atoms:       len(uni.Atoms),
		Mode:        cfg.Mode,
	}, result); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"run":     runID,
		"steps":   result.Steps,
		"frames":  result.Frames,
		"drift":   fmt.Sprintf("%.3e", result.EnergyDrift),
		"elapsed": elapsed.Round(time.Millisecond),
	}).Info("simulation complete")

	return nil
}

func runMinimize(cmd *cobra.Command, args []string) error {
	if !cmd.Flags().Changed("seed") || seed == 0 {
		seed = time.Now().UnixNano()
	}

	top, err := loadTopology(args[0])
	if err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	cfg.Temperature = temperature
	cfg.Pressure = pressure
	cfg.Copies = copies
	cfg.Seed = seed

	uni, err := buildUniverse(top, cfg)
	if err != nil {
		return err
	}
	defer uni.Close()

	before, err := uni.PotentialEnergy()
	if err != nil {
		return err
	}

	stats, err := uni.Minimize()
	if err != nil {
		return err
	}

	after, err := uni.PotentialEnergy()
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"before":    fmt.Sprintf("%.6e J", before),
		"after":     fmt.Sprintf("%.6e J", after),
		"accepted":  stats.Accepted,
		"exhausted": stats.Exhausted,
		"attempts":  stats.Attempts,
	}).Info("minimization complete")

	if outPath != "" {
		if err := uni.OpenTrajectory(outPath); err != nil {
			return err
		}
		if err := uni.WriteFrame(); err != nil {
			return err
		}
		return uni.Close()
	}

	return nil
}

func showInfo(cmd *cobra.Command, args []string) error {
	top, err := loadTopology(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("name:    %s\n", top.Name)
	fmt.Printf("author:  %s\n", top.Author)
	fmt.Printf("comment: %s\n", top.Comment)
	fmt.Printf("atoms:   %d\n", len(top.Atoms))
	fmt.Printf("bonds:   %d\n\n", len(top.Bonds))

	composition := make(map[model.Element]int)
	for _, a := range top.Atoms {
		composition[a.Element]++
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ELEMENT\tCOUNT\tMASS (kg)")
	for element, count := range composition {
		m, _ := model.Mass(element)
		fmt.Fprintf(w, "%s\t%d\t%.4e\n", model.Symbol(element), count, m)
	}
	return w.Flush()
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
	fmt.Fprintln(w, "ID\tSYSTEM\tTIME\tATOMS\tSTEPS\tMODE\tDRIFT")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%.3e\n",
			run.ID,
			run.System,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Atoms,
			run.Steps,
			run.Mode,
			run.EnergyDrift,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	series, err := st.LoadEnergies(runID)
	if err != nil {
		return err
	}
	if len(series.Times) == 0 {
		return fmt.Errorf("no energy samples in run %s", runID)
	}

	fmt.Printf("run: %s\nsystem: %s\nsamples: %d\n\n", meta.ID, meta.System, len(series.Times))

	plots := []struct {
		caption string
		data    []float64
	}{
		{"kinetic energy (J)", series.Kinetic},
		{"potential energy (J)", series.Potential},
		{"total energy (J)", series.Total},
	}
	for _, p := range plots {
		graph := asciigraph.Plot(p.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(p.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	series, err := st.LoadEnergies(runID)
	if err != nil {
		return err
	}
	if len(series.Times) < 2 {
		return fmt.Errorf("run %s has too few samples to analyze", runID)
	}

	sampleDt := series.Times[1] - series.Times[0]

	freqs, power, err := analysis.PowerSpectrum(series.Total, sampleDt)
	if err != nil {
		return err
	}
	peak, err := analysis.DominantFrequency(series.Total, sampleDt)
	if err != nil {
		return err
	}

	fmt.Printf("samples: %d\nsampling interval: %.3e s\ndominant frequency: %.4e Hz\n\n",
		len(series.Total), sampleDt, peak)

	graph := asciigraph.Plot(analysis.Normalize(power),
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("normalized power spectrum (bin width %.3e Hz)", freqs[1])),
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

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}
