package engine

import (
	"testing"

	"github.com/emberline/civitas/internal/agents"
	"github.com/emberline/civitas/internal/city"
	"github.com/emberline/civitas/internal/config"
	"github.com/emberline/civitas/internal/econ"
	"github.com/emberline/civitas/internal/entropy"
	"github.com/emberline/civitas/internal/world"
)

// testSim builds an empty simulation on the default balance. Tests add the
// exact entities each scenario needs.
func testSim(t *testing.T) *Simulation {
	t.Helper()
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default balance invalid: %v", err)
	}
	return New(cfg, entropy.NewSource(11), nil, nil, nil, nil)
}

// addLocation builds a location from a balance template at a position and
// registers it.
func addLocation(t *testing.T, s *Simulation, template string, pos world.Point) *city.Location {
	t.Helper()
	tmpl := s.Cfg.Template(template)
	if tmpl == nil {
		t.Fatalf("unknown template %q", template)
	}
	loc := &city.Location{
		ID:            s.Rand.NextID(),
		Name:          template,
		Template:      tmpl.Name,
		Tags:          append([]string(nil), tmpl.Tags...),
		Pos:           pos,
		Inventory:     econ.NewInventory(tmpl.Capacity),
		EmployeeSlots: tmpl.EmployeeSlots,
		SalaryTier:    tmpl.SalaryTier,
		ResidentSlots: tmpl.ResidentSlots,
		Rent:          tmpl.Rent,
		OperatingCost: tmpl.OperatingCost,
		Stocks:        append([]econ.GoodID(nil), tmpl.Stocks...),
	}
	if tmpl.Production != nil {
		p := *tmpl.Production
		loc.Production = &p
	}
	s.AddLocation(loc)
	return loc
}

// addOrg registers an org owning the given locations.
func addOrg(s *Simulation, name string, wallet int64, locs ...*city.Location) *city.Org {
	org := &city.Org{
		ID:     s.Rand.NextID(),
		Name:   name,
		Wallet: wallet,
		Tags:   []string{city.TagCorporation},
	}
	for _, loc := range locs {
		loc.OwnerID = &org.ID
		org.Locations = append(org.Locations, loc.ID)
	}
	s.AddOrg(org)
	return org
}

// addAgent registers a living agent standing at a location.
func addAgent(s *Simulation, name string, at *city.Location, wallet int64) *agents.Agent {
	a := &agents.Agent{
		ID:        agents.AgentID(s.Rand.NextID()),
		Name:      name,
		Status:    agents.StatusAvailable,
		Inventory: econ.NewInventory(12),
		Wallet:    wallet,
	}
	if at != nil {
		a.LocationID = &at.ID
	}
	s.Agents = append(s.Agents, a)
	s.AgentIndex[a.ID] = a
	return a
}

// employ wires an agent into a workplace with both sides of the reference.
func employ(s *Simulation, a *agents.Agent, org *city.Org, loc *city.Location, salary int64, hiredPhase uint64) {
	a.Status = agents.StatusEmployed
	a.Employment = agents.Employment{
		EmployerID:  &org.ID,
		WorkplaceID: &loc.ID,
		Salary:      salary,
		HiredPhase:  hiredPhase,
	}
	loc.AddEmployee(a.ID)
}

// addVehicleAt registers a parked vehicle owned by an org.
func addVehicleAt(s *Simulation, org *city.Org, at *city.Location) *city.Vehicle {
	v := &city.Vehicle{
		ID:         s.Rand.NextID(),
		Name:       "test truck",
		OwnerID:    &org.ID,
		Cargo:      econ.NewInventory(city.CargoCapacity),
		LocationID: &at.ID,
	}
	s.AddVehicle(v)
	return v
}
