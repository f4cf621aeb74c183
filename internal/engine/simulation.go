// Package engine ties the simulation systems together and advances them one
// phase at a time: behavior scheduling for every agent, staggered weekly
// settlement for every org, and the order pipeline.
package engine

import (
	"fmt"

	"github.com/emberline/civitas/internal/agents"
	"github.com/emberline/civitas/internal/city"
	"github.com/emberline/civitas/internal/config"
	"github.com/emberline/civitas/internal/econ"
	"github.com/emberline/civitas/internal/entropy"
	"github.com/emberline/civitas/internal/telemetry"
	"github.com/emberline/civitas/internal/world"
)

// Simulation holds the complete world state and wires systems together.
// There is exactly one writer: Step callers must not interleave.
type Simulation struct {
	Cfg     *config.Balance
	Catalog econ.Catalog
	Rand    *entropy.Source

	Agents     []*agents.Agent
	AgentIndex map[agents.AgentID]*agents.Agent

	Orgs     []*city.Org
	OrgIndex map[uint64]*city.Org

	Locations     []*city.Location
	LocationIndex map[uint64]*city.Location

	Vehicles     []*city.Vehicle
	VehicleIndex map[uint64]*city.Vehicle

	GoodsOrders    []*city.GoodsOrder
	GoodsIndex     map[uint64]*city.GoodsOrder
	Logistics      []*city.LogisticsOrder
	LogisticsIndex map[uint64]*city.LogisticsOrder

	// driverOrders maps a driver to their active logistics order.
	driverOrders map[agents.AgentID]*city.LogisticsOrder

	Phase uint64

	Log     *telemetry.Log
	Metrics *telemetry.Metrics
	Stats   SimStats
}

// New creates a Simulation over pre-built world state. Slice order is the
// iteration order and must be stable for seed-for-seed reproducibility.
func New(cfg *config.Balance, src *entropy.Source, ag []*agents.Agent, orgs []*city.Org, locs []*city.Location, vehicles []*city.Vehicle) *Simulation {
	s := &Simulation{
		Cfg:            cfg,
		Catalog:        cfg.Catalog(),
		Rand:           src,
		Agents:         ag,
		AgentIndex:     make(map[agents.AgentID]*agents.Agent, len(ag)),
		Orgs:           orgs,
		OrgIndex:       make(map[uint64]*city.Org, len(orgs)),
		Locations:      locs,
		LocationIndex:  make(map[uint64]*city.Location, len(locs)),
		Vehicles:       vehicles,
		VehicleIndex:   make(map[uint64]*city.Vehicle, len(vehicles)),
		GoodsIndex:     make(map[uint64]*city.GoodsOrder),
		LogisticsIndex: make(map[uint64]*city.LogisticsOrder),
		driverOrders:   make(map[agents.AgentID]*city.LogisticsOrder),
		Log:            telemetry.NewLog(0),
		Metrics:        telemetry.NewMetrics(),
	}
	for _, a := range ag {
		s.AgentIndex[a.ID] = a
	}
	for _, o := range orgs {
		s.OrgIndex[o.ID] = o
	}
	for _, l := range locs {
		s.LocationIndex[l.ID] = l
	}
	for _, v := range vehicles {
		s.VehicleIndex[v.ID] = v
	}
	s.updateStats()
	return s
}

// Resume rebuilds a simulation from saved state: order books are re-indexed,
// in-flight deliveries are re-bound to their drivers, and the ID counter is
// bumped past everything already allocated.
func Resume(cfg *config.Balance, ag []*agents.Agent, orgs []*city.Org, locs []*city.Location,
	vehicles []*city.Vehicle, goods []*city.GoodsOrder, logistics []*city.LogisticsOrder,
	phase, nextID uint64, seed int64) *Simulation {

	src := entropy.NewSource(seed)
	src.SetNextID(nextID)

	s := New(cfg, src, ag, orgs, locs, vehicles)
	s.Phase = phase
	for _, o := range goods {
		s.AddGoodsOrder(o)
	}
	for _, o := range logistics {
		s.AddLogisticsOrder(o)
		if o.DriverID != nil && (o.Status == city.LogisticsAssigned || o.Status == city.LogisticsInTransit) {
			s.driverOrders[*o.DriverID] = o
		}
	}
	s.updateStats()
	return s
}

// AddGoodsOrder registers a goods order.
func (s *Simulation) AddGoodsOrder(o *city.GoodsOrder) {
	s.GoodsOrders = append(s.GoodsOrders, o)
	s.GoodsIndex[o.ID] = o
}

// AddLogisticsOrder registers a logistics order.
func (s *Simulation) AddLogisticsOrder(o *city.LogisticsOrder) {
	s.Logistics = append(s.Logistics, o)
	s.LogisticsIndex[o.ID] = o
}

// AddLocation registers a newly built location.
func (s *Simulation) AddLocation(l *city.Location) {
	s.Locations = append(s.Locations, l)
	s.LocationIndex[l.ID] = l
}

// AddVehicle registers a newly bought vehicle.
func (s *Simulation) AddVehicle(v *city.Vehicle) {
	s.Vehicles = append(s.Vehicles, v)
	s.VehicleIndex[v.ID] = v
}

// AddOrg registers a newly founded org.
func (s *Simulation) AddOrg(o *city.Org) {
	s.Orgs = append(s.Orgs, o)
	s.OrgIndex[o.ID] = o
}

// record appends an info event to the activity log.
func (s *Simulation) record(category, actor string, actorID uint64, format string, args ...any) {
	s.Log.Append(telemetry.Event{
		Phase:    s.Phase,
		Category: category,
		Message:  fmt.Sprintf(format, args...),
		ActorID:  actorID,
		Actor:    actor,
		Severity: telemetry.SeverityInfo,
	})
}

// warn appends a warning event to the activity log.
func (s *Simulation) warn(category, actor string, actorID uint64, format string, args ...any) {
	s.Log.Append(telemetry.Event{
		Phase:    s.Phase,
		Category: category,
		Message:  fmt.Sprintf(format, args...),
		ActorID:  actorID,
		Actor:    actor,
		Severity: telemetry.SeverityWarn,
	})
}

// AgentPos returns an agent's effective position: their location's position
// when settled, the interpolated point along the trip while traveling.
func (s *Simulation) AgentPos(a *agents.Agent) world.Point {
	if a.Travel != nil {
		dest, ok := s.LocationIndex[a.Travel.ToID]
		if !ok {
			return a.Travel.Origin
		}
		if a.Travel.PhasesTotal <= 0 {
			return dest.Pos
		}
		progress := float64(a.Travel.PhasesTotal-a.Travel.PhasesLeft) / float64(a.Travel.PhasesTotal)
		return world.Lerp(a.Travel.Origin, dest.Pos, progress)
	}
	if a.LocationID != nil {
		if loc, ok := s.LocationIndex[*a.LocationID]; ok {
			return loc.Pos
		}
	}
	return world.Point{}
}

// nearestLocation returns the closest location satisfying the predicate, or
// nil. Ties break on slice order, which is stable.
func (s *Simulation) nearestLocation(from world.Point, match func(*city.Location) bool) *city.Location {
	var best *city.Location
	bestDist := 0.0
	for _, loc := range s.Locations {
		if !match(loc) {
			continue
		}
		d := world.Distance(from, loc.Pos)
		if best == nil || d < bestDist {
			best = loc
			bestDist = d
		}
	}
	return best
}

// fallbackLocation places an agent whose location references went stale:
// their residence if it still exists, else the nearest public space, else
// any location at all.
func (s *Simulation) fallbackLocation(a *agents.Agent) *city.Location {
	if a.ResidenceID != nil {
		if home, ok := s.LocationIndex[*a.ResidenceID]; ok {
			return home
		}
		a.ResidenceID = nil
	}
	pos := s.AgentPos(a)
	if pub := s.nearestLocation(pos, func(l *city.Location) bool { return l.HasTag(city.RolePublic) }); pub != nil {
		return pub
	}
	if len(s.Locations) > 0 {
		return s.Locations[0]
	}
	return nil
}

// orgName returns a display name for an org ID.
func (s *Simulation) orgName(id uint64) string {
	if o, ok := s.OrgIndex[id]; ok {
		return o.Name
	}
	return fmt.Sprintf("org-%d", id)
}
