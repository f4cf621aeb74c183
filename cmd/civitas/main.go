// Command civitas runs the city population and economy simulation.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/emberline/civitas/internal/citygen"
	"github.com/emberline/civitas/internal/config"
	"github.com/emberline/civitas/internal/engine"
	"github.com/emberline/civitas/internal/persistence"
)

var (
	flagSeed     int64
	flagAgents   int
	flagDB       string
	flagBalance  string
	flagPhases   uint64
	flagSpeed    float64
	flagSaveMins int
	flagOut      string
	flagLimit    int
)

func main() {
	godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	rootCmd := &cobra.Command{
		Use:   "civitas",
		Short: "Civitas simulates a city: citizens with needs and jobs, companies with payrolls, and the freight that keeps shelves stocked.",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation, resuming from the database when a save exists",
		RunE:  runSim,
	}
	runCmd.Flags().Int64Var(&flagSeed, "seed", 1, "world seed for fresh generation")
	runCmd.Flags().IntVar(&flagAgents, "agents", 300, "population for fresh generation")
	runCmd.Flags().StringVar(&flagDB, "db", "data/civitas.db", "SQLite save path")
	runCmd.Flags().StringVar(&flagBalance, "balance", "", "YAML balance file overriding defaults")
	runCmd.Flags().Uint64Var(&flagPhases, "phases", 0, "stop after this many phases (0 = run until interrupted)")
	runCmd.Flags().Float64Var(&flagSpeed, "speed", 10, "phase clock speed multiplier")
	runCmd.Flags().IntVar(&flagSaveMins, "save-interval", 2, "minutes between periodic saves")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Export the saved world as a compressed JSON snapshot",
		RunE:  exportSnapshot,
	}
	snapshotCmd.Flags().StringVar(&flagDB, "db", "data/civitas.db", "SQLite save path")
	snapshotCmd.Flags().StringVar(&flagBalance, "balance", "", "YAML balance file overriding defaults")
	snapshotCmd.Flags().StringVar(&flagOut, "out", "civitas-snapshot.json.gz", "snapshot output path")

	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "Show the most recent activity log entries from the save",
		RunE:  showEvents,
	}
	eventsCmd.Flags().StringVar(&flagDB, "db", "data/civitas.db", "SQLite save path")
	eventsCmd.Flags().IntVar(&flagLimit, "limit", 40, "number of entries to show")

	rootCmd.AddCommand(runCmd, snapshotCmd, eventsCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadBalance() (*config.Balance, error) {
	if flagBalance != "" {
		return config.Load(flagBalance)
	}
	return config.Default(), nil
}

// openWorld opens the save and returns a simulation: resumed from the save
// when one exists, freshly generated otherwise.
func openWorld(bal *config.Balance) (*persistence.DB, *engine.Simulation, error) {
	os.MkdirAll(filepath.Dir(flagDB), 0o755)
	db, err := persistence.Open(flagDB)
	if err != nil {
		return nil, nil, err
	}

	if saved, err := db.LoadWorld(); err == nil {
		sim := engine.Resume(bal, saved.Agents, saved.Orgs, saved.Locations,
			saved.Vehicles, saved.Goods, saved.Logistics, saved.Phase, saved.NextID, flagSeed)
		slog.Info("world restored",
			"phase", saved.Phase,
			"sim_time", engine.SimTime(saved.Phase),
			"agents", len(saved.Agents),
			"orgs", len(saved.Orgs),
		)
		return db, sim, nil
	}

	slog.Info("no saved world, generating", "seed", flagSeed, "agents", flagAgents)
	gen := citygen.DefaultGenConfig()
	gen.Seed = flagSeed
	gen.Agents = flagAgents
	sim := citygen.Generate(gen, bal)
	slog.Info("city generated",
		"agents", len(sim.Agents),
		"orgs", len(sim.Orgs),
		"locations", len(sim.Locations),
		"vehicles", len(sim.Vehicles),
	)
	return db, sim, nil
}

func runSim(cmd *cobra.Command, args []string) error {
	bal, err := loadBalance()
	if err != nil {
		return err
	}

	db, sim, err := openWorld(bal)
	if err != nil {
		return err
	}
	defer db.Close()

	runID, err := db.EnsureRunID()
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}
	slog.Info("run starting", "run_id", runID, "sim_time", engine.SimTime(sim.Phase))

	clock := engine.NewClock()
	clock.Speed = flagSpeed

	done := make(chan struct{})
	go func() {
		clock.Run(sim, flagPhases)
		close(done)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	saveEvery := time.Duration(flagSaveMins) * time.Minute
	if saveEvery <= 0 {
		saveEvery = 2 * time.Minute
	}
	saveTicker := time.NewTicker(saveEvery)
	defer saveTicker.Stop()

	for {
		select {
		case <-saveTicker.C:
			if err := db.SaveWorldState(sim); err != nil {
				slog.Error("periodic save failed", "error", err)
			}
		case <-sigCh:
			slog.Info("interrupted, saving and shutting down")
			clock.Stop()
			<-done
			return db.SaveWorldState(sim)
		case <-done:
			slog.Info("run finished", "sim_time", engine.SimTime(sim.Phase))
			return db.SaveWorldState(sim)
		}
	}
}

func exportSnapshot(cmd *cobra.Command, args []string) error {
	bal, err := loadBalance()
	if err != nil {
		return err
	}

	db, err := persistence.Open(flagDB)
	if err != nil {
		return err
	}
	defer db.Close()

	saved, err := db.LoadWorld()
	if err != nil {
		return fmt.Errorf("no saved world to snapshot: %w", err)
	}
	sim := engine.Resume(bal, saved.Agents, saved.Orgs, saved.Locations,
		saved.Vehicles, saved.Goods, saved.Logistics, saved.Phase, saved.NextID, 1)

	runID, _ := db.GetMeta("run_id")
	snap := persistence.CaptureSnapshot(sim, runID)
	if err := persistence.WriteSnapshot(flagOut, snap); err != nil {
		return err
	}
	slog.Info("snapshot written", "path", flagOut, "phase", snap.Phase)
	return nil
}

func showEvents(cmd *cobra.Command, args []string) error {
	db, err := persistence.Open(flagDB)
	if err != nil {
		return err
	}
	defer db.Close()

	events, err := db.RecentEvents(flagLimit)
	if err != nil {
		return err
	}
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		fmt.Printf("[%s] %-10s %s\n", engine.SimTime(e.Phase), e.Category, e.Message)
	}
	return nil
}
