package engine

import (
	"testing"

	"github.com/emberline/civitas/internal/agents"
	"github.com/emberline/civitas/internal/econ"
	"github.com/emberline/civitas/internal/world"
)

// An agent past the emergency hunger threshold with no food on hand gets
// redirected to the nearest stocked shop in the same phase, whatever they
// were doing.
func TestEmergencyHungerRedirectsTravel(t *testing.T) {
	s := testSim(t)
	home := addLocation(t, s, "tenement", world.Point{})
	work := addLocation(t, s, "food_plant", world.Point{X: 40})
	shop := addLocation(t, s, "corner_shop", world.Point{X: 10})
	addOrg(s, "Retail", 1000, shop)
	shop.Inventory.Add(s.Catalog, econ.GoodProvisions, 20)
	org := addOrg(s, "Plant", 1000, work)

	a := addAgent(s, "ada", home, 100)
	employ(s, a, org, work, 60, 0)
	a.Needs.Hunger = 85

	// Mid-commute toward work.
	a.Task = agents.Task{Kind: agents.TaskCommute, Priority: agents.PriorityHigh, TargetID: &work.ID}
	s.startTravel(a, work.ID)
	if a.Travel == nil {
		t.Fatal("fixture: commute should take more than zero phases")
	}

	s.scheduleAgent(a)

	if a.Task.Kind != agents.TaskBuyFood {
		t.Fatalf("task = %s, want buy_food", agents.TaskName(a.Task.Kind))
	}
	if a.Task.Priority != agents.PriorityCritical {
		t.Fatal("emergency food run must be critical")
	}
	if a.Travel == nil || a.Travel.ToID != shop.ID {
		t.Fatal("travel must be redirected to the shop this phase")
	}
}

// Urgent rest is high priority, same as a commute, so it must NOT preempt
// an employed agent still on the way to work.
func TestUrgentRestDoesNotBreakCommute(t *testing.T) {
	s := testSim(t)
	home := addLocation(t, s, "tenement", world.Point{})
	work := addLocation(t, s, "food_plant", world.Point{X: 40})
	org := addOrg(s, "Plant", 1000, work)

	a := addAgent(s, "bram", home, 100)
	employ(s, a, org, work, 60, 0)
	a.ResidenceID = &home.ID
	a.Needs.Fatigue = 92

	a.Task = agents.Task{Kind: agents.TaskCommute, Priority: agents.PriorityHigh, TargetID: &work.ID}
	s.startTravel(a, work.ID)

	s.scheduleAgent(a)

	if a.Task.Kind != agents.TaskCommute {
		t.Fatalf("task = %s, commute must survive urgent rest", agents.TaskName(a.Task.Kind))
	}
	if a.Travel == nil || a.Travel.ToID != work.ID {
		t.Fatal("travel must still point at the workplace")
	}
}

// The same fatigue level does preempt an agent already at work, since work
// runs at normal priority.
func TestUrgentRestInterruptsWork(t *testing.T) {
	s := testSim(t)
	home := addLocation(t, s, "tenement", world.Point{})
	work := addLocation(t, s, "food_plant", world.Point{X: 40})
	org := addOrg(s, "Plant", 1000, work)

	a := addAgent(s, "cora", work, 100)
	employ(s, a, org, work, 60, 0)
	a.ResidenceID = &home.ID
	a.Needs.Fatigue = 92
	a.Task = agents.Task{Kind: agents.TaskWork, Priority: agents.PriorityNormal}

	s.scheduleAgent(a)

	if a.Task.Kind != agents.TaskGoHome {
		t.Fatalf("task = %s, want go_home", agents.TaskName(a.Task.Kind))
	}
	if a.Travel == nil || a.Travel.ToID != home.ID {
		t.Fatal("agent should be heading home")
	}
}

// Total collapse forces rest on the spot: the trip freezes in place and
// resumes only after recovery clears the rest task.
func TestForcedRestFreezesTravel(t *testing.T) {
	s := testSim(t)
	home := addLocation(t, s, "tenement", world.Point{})
	work := addLocation(t, s, "food_plant", world.Point{X: 40})
	org := addOrg(s, "Plant", 1000, work)

	a := addAgent(s, "dario", home, 100)
	employ(s, a, org, work, 60, 0)
	a.Task = agents.Task{Kind: agents.TaskCommute, Priority: agents.PriorityHigh, TargetID: &work.ID}
	s.startTravel(a, work.ID)
	left := a.Travel.PhasesLeft

	a.Needs.Fatigue = 100
	s.scheduleAgent(a)

	if a.Task.Kind != agents.TaskRest {
		t.Fatalf("task = %s, want rest", agents.TaskName(a.Task.Kind))
	}
	if a.Travel == nil {
		t.Fatal("travel state must be retained through forced rest")
	}

	s.advanceTravel(a)
	if a.Travel.PhasesLeft != left {
		t.Fatal("trip must not advance while resting")
	}

	// Recover until the rest task clears, then the trip moves again.
	for i := 0; i < 20 && a.Task.Kind == agents.TaskRest; i++ {
		s.applyOngoing(a)
	}
	if a.Task.Kind == agents.TaskRest {
		t.Fatal("rest never cleared")
	}
	s.advanceTravel(a)
	if a.Travel != nil && a.Travel.PhasesLeft != left-1 {
		t.Fatal("trip should resume after rest")
	}
}

// Redirection costs from where the agent actually is, not the original
// origin: an agent halfway along a trip reaches a nearby new target
// immediately.
func TestRedirectCostsFromCurrentPosition(t *testing.T) {
	s := testSim(t)
	start := addLocation(t, s, "plaza", world.Point{})
	far := addLocation(t, s, "food_plant", world.Point{X: 40})
	near := addLocation(t, s, "corner_shop", world.Point{X: 24})
	addOrg(s, "Retail", 1000, near)
	near.Inventory.Add(s.Catalog, econ.GoodProvisions, 10)

	a := addAgent(s, "elin", start, 100)
	a.Task = agents.Task{Kind: agents.TaskLeisure, Priority: agents.PriorityNormal, TargetID: &far.ID}
	s.startTravel(a, far.ID)
	if a.Travel.PhasesTotal != 2 {
		t.Fatalf("fixture: 40 units walking = 2 phases, got %d", a.Travel.PhasesTotal)
	}

	s.advanceTravel(a) // halfway: interpolated position x=20
	if a.Travel == nil || a.Travel.PhasesLeft != 1 {
		t.Fatal("fixture: one phase left")
	}

	a.Task = agents.Task{Kind: agents.TaskBuyFood, Priority: agents.PriorityCritical, TargetID: &near.ID}
	s.redirectTravel(a, near.ID)

	// x=20 to x=24 is within walking Near range: instant arrival.
	if a.Travel != nil {
		t.Fatalf("agent should arrive immediately, still %d phases out", a.Travel.PhasesLeft)
	}
	if a.LocationID == nil || *a.LocationID != near.ID {
		t.Fatal("agent should be at the near target")
	}
}

func TestZeroPhaseTripArrivesSamePhase(t *testing.T) {
	s := testSim(t)
	a1 := addLocation(t, s, "plaza", world.Point{})
	a2 := addLocation(t, s, "corner_shop", world.Point{X: 3})

	a := addAgent(s, "farid", a1, 100)
	a.Task = agents.Task{Kind: agents.TaskSeekHousing, Priority: agents.PriorityNormal, TargetID: &a2.ID}
	s.startTravel(a, a2.ID)

	if a.Travel != nil {
		t.Fatal("same-block trip should complete within the phase")
	}
	if a.LocationID == nil || *a.LocationID != a2.ID {
		t.Fatal("agent should be at the destination")
	}
}

func TestBuyProvisionsFeedsAndPays(t *testing.T) {
	s := testSim(t)
	shop := addLocation(t, s, "corner_shop", world.Point{})
	org := addOrg(s, "Retail", 1000, shop)
	shop.Inventory.Add(s.Catalog, econ.GoodProvisions, 20)

	a := addAgent(s, "greta", shop, 100)
	a.Needs.Hunger = 60

	s.buyProvisions(a, shop)

	price := s.Catalog.Retail(econ.GoodProvisions)
	if a.Wallet != 100-3*price {
		t.Fatalf("wallet = %d, want %d", a.Wallet, 100-3*price)
	}
	if org.Wallet != 1000+3*price {
		t.Fatalf("org wallet = %d", org.Wallet)
	}
	// Bought three, ate one on the spot.
	if got := a.Inventory.Count(econ.GoodProvisions); got != 2 {
		t.Fatalf("provisions held = %d, want 2", got)
	}
	if a.Needs.Hunger >= 60 {
		t.Fatal("agent should have eaten")
	}
}

func TestStarvationKillsAfterGrace(t *testing.T) {
	s := testSim(t)
	home := addLocation(t, s, "tenement", world.Point{})
	work := addLocation(t, s, "food_plant", world.Point{X: 10})
	org := addOrg(s, "Plant", 1000, work)

	a := addAgent(s, "hugo", home, 0)
	employ(s, a, org, work, 60, 0)
	a.ResidenceID = &home.ID
	home.AddResident(a.ID)
	a.Needs.Hunger = 100

	s.Phase = 50
	s.checkStarvation(a)
	if a.StarvingSince != 50 {
		t.Fatalf("starvation clock = %d, want 50", a.StarvingSince)
	}
	if !a.Alive() {
		t.Fatal("grace window must pass before death")
	}

	s.Phase = 50 + s.Cfg.Thresholds.StarvationGrace
	s.checkStarvation(a)

	if a.Alive() {
		t.Fatal("agent should have starved")
	}
	if a.Employed() {
		t.Fatal("death severs employment")
	}
	if a.ResidenceID != nil || len(home.Residents) != 0 {
		t.Fatal("death clears residence")
	}
	if len(work.Employees) != 0 {
		t.Fatal("death clears the workplace roster")
	}
}

// Starting a trip toward a location that no longer exists drops the stale
// reference without moving the agent off their valid current spot.
func TestStaleTargetKeepsAgentPlaced(t *testing.T) {
	s := testSim(t)
	plaza := addLocation(t, s, "plaza", world.Point{})
	a := addAgent(s, "ivo", plaza, 100)

	missing := uint64(99999)
	a.Task = agents.Task{Kind: agents.TaskLeisure, Priority: agents.PriorityNormal, TargetID: &missing}
	s.startTravel(a, missing)

	if a.Task.Kind != agents.TaskNone {
		t.Fatal("stale task must be cleared")
	}
	if a.Travel != nil {
		t.Fatal("no trip should start toward a missing location")
	}
	if a.LocationID == nil || *a.LocationID != plaza.ID {
		t.Fatal("agent must stay where they already were")
	}
}

func TestShiftCycle(t *testing.T) {
	s := testSim(t)
	work := addLocation(t, s, "food_plant", world.Point{})
	org := addOrg(s, "Plant", 1000, work)

	a := addAgent(s, "ines", work, 100)
	employ(s, a, org, work, 60, 0)
	a.NextShiftPhase = 0
	s.Phase = 1

	s.scheduleAgent(a)
	if a.Task.Kind != agents.TaskWork {
		t.Fatalf("task = %s, want work at the workplace", agents.TaskName(a.Task.Kind))
	}

	for i := uint64(0); i < s.Cfg.Thresholds.ShiftPhases; i++ {
		s.applyOngoing(a)
	}
	if a.Task.Kind != agents.TaskNone {
		t.Fatal("shift should end after the configured phases")
	}
	if a.NextShiftPhase != s.Phase+s.Cfg.Thresholds.BreakPhases {
		t.Fatalf("next shift at %d, want %d", a.NextShiftPhase, s.Phase+s.Cfg.Thresholds.BreakPhases)
	}
}
