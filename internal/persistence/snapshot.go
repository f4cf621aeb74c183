package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/emberline/civitas/internal/agents"
	"github.com/emberline/civitas/internal/city"
	"github.com/emberline/civitas/internal/engine"
)

// Snapshot is a portable, compressed export of the world: everything needed
// to inspect a run offline, independent of the SQLite save.
type Snapshot struct {
	SavedAt time.Time `json:"saved_at"`
	RunID   string    `json:"run_id,omitempty"`
	Phase   uint64    `json:"phase"`
	NextID  uint64    `json:"next_id"`

	Agents    []*agents.Agent        `json:"agents"`
	Orgs      []*city.Org            `json:"orgs"`
	Locations []*city.Location       `json:"locations"`
	Vehicles  []*city.Vehicle        `json:"vehicles"`
	Goods     []*city.GoodsOrder     `json:"goods_orders"`
	Logistics []*city.LogisticsOrder `json:"logistics_orders"`

	Stats   engine.SimStats   `json:"stats"`
	Metrics map[string]uint64 `json:"metrics"`
}

// CaptureSnapshot copies the simulation into a snapshot.
func CaptureSnapshot(sim *engine.Simulation, runID string) *Snapshot {
	return &Snapshot{
		SavedAt:   time.Now().UTC(),
		RunID:     runID,
		Phase:     sim.Phase,
		NextID:    sim.Rand.PeekNextID(),
		Agents:    sim.Agents,
		Orgs:      sim.Orgs,
		Locations: sim.Locations,
		Vehicles:  sim.Vehicles,
		Goods:     sim.GoodsOrders,
		Logistics: sim.Logistics,
		Stats:     sim.Stats,
		Metrics:   sim.Metrics.Snapshot(),
	}
}

// WriteSnapshot writes a gzip-compressed JSON snapshot to path.
func WriteSnapshot(path string, snap *Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewWriterLevel(f, gzip.BestCompression)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(gz)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		gz.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot loads a snapshot written by WriteSnapshot.
func ReadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	defer gz.Close()

	snap := &Snapshot{}
	if err := json.NewDecoder(gz).Decode(snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
