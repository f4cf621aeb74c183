package engine

import (
	"strings"
	"testing"

	"github.com/emberline/civitas/internal/econ"
	"github.com/emberline/civitas/internal/telemetry"
	"github.com/emberline/civitas/internal/world"
)

// Output scales with employees physically on site, not nominal headcount.
func TestProductionScalesWithPresence(t *testing.T) {
	s := testSim(t)
	plant := addLocation(t, s, "food_plant", world.Point{})
	away := addLocation(t, s, "plaza", world.Point{X: 30})
	org := addOrg(s, "Plant Co", 1000, plant)

	present1 := addAgent(s, "u1", plant, 50)
	present2 := addAgent(s, "u2", plant, 50)
	absent := addAgent(s, "u3", away, 50)
	employ(s, present1, org, plant, 80, 0)
	employ(s, present2, org, plant, 80, 0)
	employ(s, absent, org, plant, 80, 0)

	s.Phase = 4 // on the plant's cycle
	s.runProduction()

	// Two present at 3 units each per cycle.
	if got := plant.Inventory.Count(econ.GoodProvisions); got != 6 {
		t.Fatalf("produced = %d, want 6", got)
	}
	if got := s.Metrics.Get(telemetry.MetricGoodsProduced); got != 6 {
		t.Fatalf("goods_produced = %d, want 6", got)
	}
}

func TestProductionHaltsWhenNobodyPresent(t *testing.T) {
	s := testSim(t)
	plant := addLocation(t, s, "food_plant", world.Point{})
	away := addLocation(t, s, "plaza", world.Point{X: 30})
	org := addOrg(s, "Plant Co", 1000, plant)
	worker := addAgent(s, "vik", away, 50)
	employ(s, worker, org, plant, 80, 0)

	s.Phase = 4
	s.runProduction()

	if got := plant.Inventory.Count(econ.GoodProvisions); got != 0 {
		t.Fatalf("produced = %d with nobody on the floor", got)
	}
	if got := s.Metrics.Get(telemetry.MetricProductionHalts); got != 1 {
		t.Fatalf("production_halts = %d, want 1", got)
	}
}

func TestProductionSkipsOffCyclePhases(t *testing.T) {
	s := testSim(t)
	plant := addLocation(t, s, "food_plant", world.Point{})
	org := addOrg(s, "Plant Co", 1000, plant)
	worker := addAgent(s, "wes", plant, 50)
	employ(s, worker, org, plant, 80, 0)

	s.Phase = 5 // off-cycle
	s.runProduction()

	if got := plant.Inventory.Count(econ.GoodProvisions); got != 0 {
		t.Fatalf("produced = %d off-cycle", got)
	}
}

func TestValidateInvariantsCatchesBrokenReferences(t *testing.T) {
	s := testSim(t)
	home := addLocation(t, s, "tenement", world.Point{})
	work := addLocation(t, s, "food_plant", world.Point{X: 10})
	org := addOrg(s, "Plant Co", 1000, work)
	a := addAgent(s, "yara", home, 50)
	employ(s, a, org, work, 80, 0)

	if problems := s.ValidateInvariants(); len(problems) != 0 {
		t.Fatalf("clean world flagged: %v", problems)
	}

	// Point the employment at a location that does not exist.
	missing := uint64(99999)
	a.Employment.WorkplaceID = &missing

	problems := s.ValidateInvariants()
	if len(problems) == 0 {
		t.Fatal("dangling workplace not flagged")
	}
}

func TestSimTime(t *testing.T) {
	if got := SimTime(0); !strings.Contains(got, "week 1, day 1") {
		t.Fatalf("phase 0 = %q", got)
	}
	if got := SimTime(PhasesPerWeek); !strings.Contains(got, "week 2, day 1") {
		t.Fatalf("phase 56 = %q", got)
	}
	if got := SimTime(PhasesPerDay * 3); !strings.Contains(got, "day 4") {
		t.Fatalf("phase 24 = %q", got)
	}
}
