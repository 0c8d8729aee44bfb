package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/vladimir-tri/multibody/internal/chain"
	"github.com/vladimir-tri/multibody/internal/config"
	"github.com/vladimir-tri/multibody/internal/integrators"
	"github.com/vladimir-tri/multibody/internal/sim"
	"github.com/vladimir-tri/multibody/internal/storage"
	"github.com/vladimir-tri/multibody/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	dt         float64
	duration   float64
	integrator string
	plotWidth  int
	plotHeight int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "multibody",
		Short: "articulated rigid-body simulation lab",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".multibody", "data directory")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "run a simulation and store the trajectory",
		RunE:  runSimulate,
	}
	addScenarioFlags(simulateCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation with live terminal animation",
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)

	massMatrixCmd := &cobra.Command{
		Use:   "massmatrix",
		Short: "print the mass matrix at the initial configuration",
		RunE:  runMassMatrix,
	}
	addScenarioFlags(massMatrixCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  runList,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlot,
	}
	plotCmd.Flags().IntVar(&plotWidth, "width", 70, "chart width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 8, "chart height")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available scenario presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a default scenario file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.Save(args[0], config.DefaultConfig())
		},
	}

	rootCmd.AddCommand(simulateCmd, liveCmd, massMatrixCmd, listCmd, plotCmd, exportCmd, presetsCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "scenario preset name")
	cmd.Flags().Float64Var(&dt, "dt", 0, "timestep override")
	cmd.Flags().Float64Var(&duration, "time", 0, "duration override")
	cmd.Flags().StringVar(&integrator, "integrator", "", "integrator override (euler, rk4)")
}

// loadScenario resolves preset, config file, and flag overrides, in that
// order of increasing precedence.
func loadScenario() (*config.Config, error) {
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
			return nil, fmt.Errorf("load scenario: %w", err)
		}
		cfg = loaded
	}
	if dt > 0 {
		cfg.Dt = dt
	}
	if duration > 0 {
		cfg.Duration = duration
	}
	if integrator != "" {
		cfg.Integrator = integrator
	}
	return cfg, nil
}

func buildSystem(cfg *config.Config) (*sim.TreeSystem, sim.State, error) {
	model, err := chain.Build(cfg.Model)
	if err != nil {
		return nil, nil, err
	}
	sys, err := sim.NewTreeSystem(model)
	if err != nil {
		return nil, nil, err
	}
	q, v := cfg.InitialState()
	x0 := make(sim.State, 0, len(q)+len(v))
	x0 = append(x0, q...)
	x0 = append(x0, v...)
	return sys, x0, nil
}

func pickIntegrator(name string) (sim.Integrator, error) {
	switch name {
	case "euler":
		return integrators.NewEuler(), nil
	case "", "rk4":
		return integrators.NewRK4(), nil
	default:
		return nil, fmt.Errorf("unknown integrator %q", name)
	}
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario()
	if err != nil {
		return err
	}
	sys, x0, err := buildSystem(cfg)
	if err != nil {
		return err
	}
	integ, err := pickIntegrator(cfg.Integrator)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("simulating %s (%d dofs) for %.2fs at dt=%g...\n",
		cfg.Model.Name, sys.NumVelocities(), cfg.Duration, cfg.Dt)
	start := time.Now()
	result, err := sim.New(sys, integ).Run(context.Background(), x0, sim.Config{Dt: cfg.Dt, Duration: cfg.Duration})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(cfg.Model.Name, cfg.Integrator, cfg.Dt, cfg.Duration,
		sys.NumPositions(), sys.NumVelocities(), result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("energy drift: %.3e\n", result.EnergyDrift)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario()
	if err != nil {
		return err
	}
	sys, x0, err := buildSystem(cfg)
	if err != nil {
		return err
	}
	integ, err := pickIntegrator(cfg.Integrator)
	if err != nil {
		return err
	}

	// The drawing callback gets its own context so it never races the
	// stepping system's evaluations.
	ctx, err := sys.Model().CreateDefaultContext()
	if err != nil {
		return err
	}
	nq := sys.NumPositions()
	points := func(x sim.State) ([][2]float64, error) {
		ctx.SetPositions(x[:nq])
		tips, err := chain.TipPositions(sys.Model(), ctx, cfg.Model)
		if err != nil {
			return nil, err
		}
		pts := make([][2]float64, len(tips))
		for i, p := range tips {
			pts[i] = [2]float64{p[0], p[2]}
		}
		return pts, nil
	}

	reach := 0.0
	for _, l := range cfg.Model.Links {
		reach += l.Length
	}
	view := viz.NewLive(cfg.Model.Name, sys, integ, points, x0, cfg.Dt, reach*1.1)
	_, err = tea.NewProgram(view).Run()
	return err
}

func runMassMatrix(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario()
	if err != nil {
		return err
	}
	model, err := chain.Build(cfg.Model)
	if err != nil {
		return err
	}
	ctx, err := model.CreateDefaultContext()
	if err != nil {
		return err
	}
	q, _ := cfg.InitialState()
	ctx.SetPositions(q)

	nv := model.NumVelocities()
	m := mat.NewDense(nv, nv, nil)
	if err := model.CalcMassMatrix(ctx, m); err != nil {
		return err
	}
	fmt.Printf("mass matrix of %s at the initial configuration:\n", cfg.Model.Name)
	fmt.Printf("%.6g\n", mat.Formatted(m, mat.Prefix(""), mat.Squeeze()))
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tINTEGRATOR\tDT\tDURATION\tSTEPS\tENERGY DRIFT")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%g\t%d\t%.3e\n",
			r.ID, r.Model, r.Integrator, r.Dt, r.Duration, r.StepsTaken, r.EnergyDrift)
	}
	return w.Flush()
}

func runPlot(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	fmt.Println(viz.PlotRun(meta.Model, times, states, meta.NumPositions, plotWidth, plotHeight))
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	result := &sim.Result{
		Times:       times,
		States:      make([]sim.State, len(states)),
		StepsTaken:  meta.StepsTaken,
		EnergyDrift: meta.EnergyDrift,
	}
	for i, s := range states {
		result.States[i] = s
	}
	return storage.ExportJSON("-", meta.Model, meta.Integrator, meta.Dt, meta.Duration, result)
}
