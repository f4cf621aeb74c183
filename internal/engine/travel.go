// Travel state transitions: starting trips, mid-flight redirection, and
// per-phase advancement. While Travel is set the agent is at no location;
// arrival clears it and runs the pending task's arrival effect.
package engine

import (
	"github.com/emberline/civitas/internal/agents"
	"github.com/emberline/civitas/internal/city"
	"github.com/emberline/civitas/internal/telemetry"
	"github.com/emberline/civitas/internal/world"
)

// travelMode picks the transport mode for an agent. Drivers on an assigned
// delivery move with their vehicle.
func (s *Simulation) travelMode(a *agents.Agent) world.TransportMode {
	if o, ok := s.driverOrders[a.ID]; ok {
		if o.Status == city.LogisticsAssigned || o.Status == city.LogisticsInTransit {
			return world.ModeVehicle
		}
	}
	return world.ModeWalk
}

// startTravel points an agent at a destination. A no-op when the agent is
// already there (the arrival effect still runs, so co-located actions
// complete instantly). Zero-cost trips arrive within the same phase.
func (s *Simulation) startTravel(a *agents.Agent, destID uint64) {
	if a.LocationID != nil && *a.LocationID == destID {
		s.onArrival(a)
		return
	}
	if a.Travel != nil {
		s.redirectTravel(a, destID)
		return
	}

	dest, ok := s.LocationIndex[destID]
	if !ok {
		s.dropStaleTarget(a, destID)
		return
	}

	origin := s.AgentPos(a)
	mode := s.travelMode(a)
	phases := world.TravelPhases(world.Distance(origin, dest.Pos), s.Cfg.Profile(mode))

	a.LocationID = nil
	a.Travel = &agents.TravelState{
		ToID:        destID,
		Origin:      origin,
		Mode:        mode,
		PhasesTotal: phases,
		PhasesLeft:  phases,
	}
	if phases == 0 {
		s.arrive(a)
	}
}

// redirectTravel changes an in-progress trip's destination without arrival.
// The remaining cost is recomputed from the agent's current interpolated
// position, not the original origin, so a commute that interrupts a
// shopping trip costs what it should.
func (s *Simulation) redirectTravel(a *agents.Agent, destID uint64) {
	if a.Travel == nil {
		s.startTravel(a, destID)
		return
	}
	if a.Travel.ToID == destID {
		return
	}
	dest, ok := s.LocationIndex[destID]
	if !ok {
		s.dropStaleTarget(a, destID)
		return
	}

	here := s.AgentPos(a)
	mode := s.travelMode(a)
	phases := world.TravelPhases(world.Distance(here, dest.Pos), s.Cfg.Profile(mode))

	a.Travel.ToID = destID
	a.Travel.Origin = here
	a.Travel.Mode = mode
	a.Travel.PhasesTotal = phases
	a.Travel.PhasesLeft = phases
	s.Metrics.Inc(telemetry.MetricRedirects)

	if phases == 0 {
		s.arrive(a)
	}
}

// advanceTravel moves a traveling agent one phase closer. Forced rest
// freezes the trip in place; everything else decrements.
func (s *Simulation) advanceTravel(a *agents.Agent) {
	if a.Travel == nil {
		return
	}
	if a.Task.Kind == agents.TaskRest {
		return
	}
	if _, ok := s.LocationIndex[a.Travel.ToID]; !ok {
		// Destination vanished mid-trip.
		s.dropStaleTarget(a, a.Travel.ToID)
		return
	}
	if a.Travel.PhasesLeft > 0 {
		a.Travel.PhasesLeft--
	}
	if a.Travel.PhasesLeft <= 0 {
		s.arrive(a)
	}
}

// arrive settles the agent at the destination and runs the task's arrival
// effect.
func (s *Simulation) arrive(a *agents.Agent) {
	destID := a.Travel.ToID
	a.Travel = nil
	if _, ok := s.LocationIndex[destID]; !ok {
		s.dropStaleTarget(a, destID)
		return
	}
	a.LocationID = &destID
	s.onArrival(a)
}

// dropStaleTarget recovers an agent whose destination no longer exists: the
// stale reference is cleared and the agent falls back to a safe location.
func (s *Simulation) dropStaleTarget(a *agents.Agent, destID uint64) {
	s.Metrics.Inc(telemetry.MetricStaleReferences)
	s.warn("behavior", a.Name, uint64(a.ID),
		"%s's destination %d no longer exists, rerouting", a.Name, destID)

	a.Travel = nil
	a.ClearTask()

	// A vanished workplace also severs employment.
	if a.Employment.WorkplaceID != nil && *a.Employment.WorkplaceID == destID {
		s.severEmployment(a, "workplace removed")
	}

	// An agent who never left a valid location stays there.
	if a.LocationID != nil {
		if _, ok := s.LocationIndex[*a.LocationID]; ok {
			return
		}
	}
	if fb := s.fallbackLocation(a); fb != nil {
		a.LocationID = &fb.ID
		return
	}
	// Only reachable in a world with no locations at all, where the
	// located-or-traveling invariant cannot hold for anyone.
	a.LocationID = nil
}
