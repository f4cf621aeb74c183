// Behavior scheduling — each phase, every living agent gets at most one
// action, selected in strict priority order. A candidate replaces the
// current task only when its priority is strictly higher, so an agent
// mid-commute keeps commuting unless something genuinely worse comes up,
// and an agent mid-errand is redirected the moment a shift comes due.
package engine

import (
	"github.com/emberline/civitas/internal/agents"
	"github.com/emberline/civitas/internal/city"
	"github.com/emberline/civitas/internal/econ"
	"github.com/emberline/civitas/internal/telemetry"
)

// runAgents advances needs, schedules one action, and moves travel for every
// living agent, in stable slice order.
func (s *Simulation) runAgents() {
	for _, a := range s.Agents {
		if !a.Alive() {
			continue
		}

		active := a.Travel != nil ||
			a.Task.Kind == agents.TaskWork || a.Task.Kind == agents.TaskDelivery
		a.Needs.Accrue(s.Cfg.NeedRates, active)

		s.checkStarvation(a)
		if !a.Alive() {
			continue
		}

		s.scheduleAgent(a)
		s.advanceTravel(a)
		s.applyOngoing(a)
	}
}

// scheduleAgent evaluates the candidate bands top-down and begins the first
// action allowed to preempt the current task. Idle-band actions only start
// when the agent has no task at all.
func (s *Simulation) scheduleAgent(a *agents.Agent) {
	cur := int(a.Task.Priority)
	if a.Task.Kind == agents.TaskNone {
		cur = -1
	}

	for _, band := range [](func(*agents.Agent) *agents.Task){
		s.criticalAction,
		s.highAction,
		s.normalAction,
		s.idleAction,
	} {
		t := band(a)
		if t == nil {
			continue
		}
		if int(t.Priority) > cur {
			s.begin(a, *t)
		}
		// Whether or not it could preempt, no lower band gets a look:
		// the first matching candidate is the agent's best option.
		return
	}
}

// criticalAction covers survival: collapse from fatigue and emergency food.
func (s *Simulation) criticalAction(a *agents.Agent) *agents.Task {
	th := s.Cfg.Thresholds

	// Forced rest: rest in place immediately, traveling or not.
	if a.Needs.Fatigue >= th.FatigueForced && a.Task.Kind != agents.TaskRest {
		return &agents.Task{Kind: agents.TaskRest, Priority: agents.PriorityCritical}
	}

	if a.Needs.Hunger >= th.EmergencyHunger {
		if a.Inventory.Count(econ.GoodProvisions) > 0 {
			return &agents.Task{Kind: agents.TaskEat, Priority: agents.PriorityCritical}
		}
		if shop := s.nearestStockedShop(a); shop != nil {
			if a.Task.Kind == agents.TaskBuyFood && a.Task.TargetID != nil && *a.Task.TargetID == shop.ID {
				return nil // already on it
			}
			return &agents.Task{Kind: agents.TaskBuyFood, Priority: agents.PriorityCritical, TargetID: &shop.ID}
		}
	}
	return nil
}

// highAction covers urgent rest, active deliveries, and due work shifts.
func (s *Simulation) highAction(a *agents.Agent) *agents.Task {
	th := s.Cfg.Thresholds

	// Urgent rest is high priority, so it cannot preempt an equally-high
	// commute: an employed agent who has not yet reached work keeps going.
	if a.Needs.Fatigue >= th.FatigueUrgent &&
		a.Task.Kind != agents.TaskGoHome && a.Task.Kind != agents.TaskRest {
		if home := s.restTarget(a); home != nil {
			return &agents.Task{Kind: agents.TaskGoHome, Priority: agents.PriorityHigh, TargetID: &home.ID}
		}
		return &agents.Task{Kind: agents.TaskRest, Priority: agents.PriorityHigh}
	}

	// Drivers stay bound to their delivery until it resolves.
	if o, ok := s.driverOrders[a.ID]; ok && o.Active() && a.Task.Kind != agents.TaskDelivery {
		target := o.FromID
		if o.Status == city.LogisticsInTransit {
			target = o.ToID
		}
		return &agents.Task{Kind: agents.TaskDelivery, Priority: agents.PriorityHigh, TargetID: &target}
	}

	// Work shift due: commute, redirecting any lower-priority trip.
	if a.Employed() && s.Phase >= a.NextShiftPhase && a.Task.Kind != agents.TaskCommute && a.Task.Kind != agents.TaskWork {
		wpID := *a.Employment.WorkplaceID
		if _, ok := s.LocationIndex[wpID]; !ok {
			s.severEmployment(a, "workplace removed")
			return nil
		}
		if a.LocationID == nil || *a.LocationID != wpID {
			return &agents.Task{Kind: agents.TaskCommute, Priority: agents.PriorityHigh, TargetID: &wpID}
		}
		return &agents.Task{Kind: agents.TaskWork, Priority: agents.PriorityNormal}
	}
	return nil
}

// normalAction covers the economic actions in fixed order: eat, buy food,
// seek job, seek housing, leisure, entrepreneurship.
func (s *Simulation) normalAction(a *agents.Agent) *agents.Task {
	th := s.Cfg.Thresholds

	if a.Needs.Hunger >= th.HungryAt {
		if a.Inventory.Count(econ.GoodProvisions) > 0 {
			return &agents.Task{Kind: agents.TaskEat, Priority: agents.PriorityNormal}
		}
		if a.Wallet >= s.Catalog.Retail(econ.GoodProvisions) {
			if shop := s.nearestStockedShop(a); shop != nil {
				return &agents.Task{Kind: agents.TaskBuyFood, Priority: agents.PriorityNormal, TargetID: &shop.ID}
			}
		}
	}

	if !a.Employed() && a.Task.Kind != agents.TaskSeekJob {
		if opening := s.nearestOpening(a); opening != nil {
			return &agents.Task{Kind: agents.TaskSeekJob, Priority: agents.PriorityNormal, TargetID: &opening.ID}
		}
	}

	if a.ResidenceID == nil && a.Task.Kind != agents.TaskSeekHousing {
		if home := s.nearestLocation(s.AgentPos(a), func(l *city.Location) bool {
			return l.HasTag(city.RoleResidential) && l.OpenResidences() > 0
		}); home != nil {
			return &agents.Task{Kind: agents.TaskSeekHousing, Priority: agents.PriorityNormal, TargetID: &home.ID}
		}
	}

	if a.Needs.Leisure >= th.LeisureAt && a.Task.Kind != agents.TaskLeisure {
		if venue := s.nearestLocation(s.AgentPos(a), func(l *city.Location) bool {
			return l.HasTag(city.RoleLeisure) && l.OwnerID != nil
		}); venue != nil {
			return &agents.Task{Kind: agents.TaskLeisure, Priority: agents.PriorityNormal, TargetID: &venue.ID}
		}
	}

	if a.Wallet >= s.Cfg.Rules.MinFoundingCapital && s.Rand.Chance(s.Cfg.Rules.EntrepreneurChance) {
		return &agents.Task{Kind: agents.TaskFoundBusiness, Priority: agents.PriorityNormal}
	}
	return nil
}

// idleAction covers what an otherwise unoccupied agent does.
func (s *Simulation) idleAction(a *agents.Agent) *agents.Task {
	if a.Needs.Fatigue >= s.Cfg.Thresholds.FatigueSeeking {
		if a.LocationID != nil && a.ResidenceID != nil && *a.LocationID == *a.ResidenceID {
			return &agents.Task{Kind: agents.TaskRest, Priority: agents.PriorityIdle}
		}
		if home := s.restTarget(a); home != nil {
			return &agents.Task{Kind: agents.TaskGoHome, Priority: agents.PriorityIdle, TargetID: &home.ID}
		}
		return &agents.Task{Kind: agents.TaskRest, Priority: agents.PriorityIdle}
	}
	return nil
}

// begin executes or installs a selected action. Instant actions resolve on
// the spot; travel-bound actions start or redirect a trip.
func (s *Simulation) begin(a *agents.Agent, t agents.Task) {
	switch t.Kind {
	case agents.TaskEat:
		s.eatMeal(a)
	case agents.TaskFoundBusiness:
		s.foundBusiness(a)
	case agents.TaskRest, agents.TaskWork:
		a.Task = t
	default:
		if t.TargetID == nil {
			return
		}
		a.Task = t
		if a.Travel != nil {
			s.redirectTravel(a, *t.TargetID)
		} else {
			s.startTravel(a, *t.TargetID)
		}
	}
}

// onArrival resolves the current task's effect once the agent is at its
// target location.
func (s *Simulation) onArrival(a *agents.Agent) {
	loc, ok := s.LocationIndex[*a.LocationID]
	if !ok {
		return
	}

	switch a.Task.Kind {
	case agents.TaskBuyFood:
		s.buyProvisions(a, loc)
		a.ClearTask()
	case agents.TaskCommute:
		if a.Employed() && a.Employment.WorkplaceID != nil && *a.Employment.WorkplaceID == loc.ID {
			a.Task = agents.Task{Kind: agents.TaskWork, Priority: agents.PriorityNormal}
		} else {
			a.ClearTask()
		}
	case agents.TaskSeekJob:
		s.tryHire(a, loc)
		a.ClearTask()
	case agents.TaskSeekHousing:
		s.tryMoveIn(a, loc)
		a.ClearTask()
	case agents.TaskGoHome:
		a.Task = agents.Task{Kind: agents.TaskRest, Priority: a.Task.Priority}
	case agents.TaskLeisure:
		s.payForLeisure(a, loc)
		// Task stays; relief accrues in applyOngoing.
	case agents.TaskDelivery:
		s.driverArrived(a, loc)
	default:
		a.ClearTask()
	}
}

// applyOngoing runs the per-phase effect of stationary tasks.
func (s *Simulation) applyOngoing(a *agents.Agent) {
	th := s.Cfg.Thresholds

	switch a.Task.Kind {
	case agents.TaskRest:
		a.Needs.Rest(th.RestRecovery)
		if a.Needs.Fatigue <= 15 {
			a.ClearTask()
		}
	case agents.TaskWork:
		if a.LocationID == nil || a.Employment.WorkplaceID == nil || *a.LocationID != *a.Employment.WorkplaceID {
			return
		}
		a.ShiftWorked++
		if a.ShiftWorked >= th.ShiftPhases {
			a.ShiftWorked = 0
			a.NextShiftPhase = s.Phase + th.BreakPhases
			a.ClearTask()
		}
	case agents.TaskLeisure:
		if a.Travel != nil {
			return
		}
		a.Needs.Relax(th.LeisureRelief)
		if a.Needs.Leisure <= 10 {
			a.ClearTask()
		}
	}
}

// checkStarvation tracks agents pinned at maximum hunger and kills them
// after the grace window.
func (s *Simulation) checkStarvation(a *agents.Agent) {
	if !a.Needs.Starving() {
		a.StarvingSince = 0
		return
	}
	if a.StarvingSince == 0 {
		a.StarvingSince = s.Phase
		s.warn("needs", a.Name, uint64(a.ID), "%s is starving", a.Name)
		return
	}
	if s.Phase-a.StarvingSince >= s.Cfg.Thresholds.StarvationGrace {
		s.killAgent(a, "starvation")
	}
}

// killAgent marks an agent dead and severs their structural references.
// Vehicles they were operating are released by the coordinator pass.
func (s *Simulation) killAgent(a *agents.Agent, cause string) {
	s.severEmployment(a, "death")
	if a.ResidenceID != nil {
		if home, ok := s.LocationIndex[*a.ResidenceID]; ok {
			home.RemoveResident(a.ID)
		}
		a.ResidenceID = nil
	}
	a.Travel = nil
	a.ClearTask()
	a.Status = agents.StatusDead

	s.Metrics.Inc(telemetry.MetricDeaths)
	s.record("death", a.Name, uint64(a.ID), "%s has died (%s)", a.Name, cause)
}

// severEmployment clears an agent's job and the workplace's matching entry.
func (s *Simulation) severEmployment(a *agents.Agent, reason string) {
	if !a.Employed() {
		return
	}
	if a.Employment.WorkplaceID != nil {
		if wp, ok := s.LocationIndex[*a.Employment.WorkplaceID]; ok {
			wp.RemoveEmployee(a.ID)
		}
	}
	a.ClearEmployment()
	s.Metrics.Inc(telemetry.MetricReleases)
	s.record("employment", a.Name, uint64(a.ID), "%s lost their job (%s)", a.Name, reason)
}

// eatMeal consumes one unit of provisions.
func (s *Simulation) eatMeal(a *agents.Agent) {
	if a.Inventory.Remove(econ.GoodProvisions, 1) == 0 {
		return
	}
	a.Needs.Eat(s.Cfg.Thresholds.MealNutrition)
}

// buyProvisions purchases up to three units at the retail price, then eats
// if still hungry. The seller org books the revenue.
func (s *Simulation) buyProvisions(a *agents.Agent, loc *city.Location) {
	price := s.Catalog.Retail(econ.GoodProvisions)
	if price <= 0 {
		return
	}
	bought := 0
	for bought < 3 {
		if a.Wallet < price || loc.Inventory.Count(econ.GoodProvisions) == 0 {
			break
		}
		if !a.Inventory.Fits(s.Catalog, econ.GoodProvisions, 1) {
			break
		}
		loc.Inventory.Remove(econ.GoodProvisions, 1)
		a.Inventory.Add(s.Catalog, econ.GoodProvisions, 1)
		a.Wallet -= price
		if loc.OwnerID != nil {
			if org, ok := s.OrgIndex[*loc.OwnerID]; ok {
				org.Wallet += price
				org.WeekRevenue += price
			}
		}
		bought++
	}
	if bought > 0 {
		s.Metrics.Add(telemetry.MetricSales, uint64(bought))
		if a.Needs.Hunger >= s.Cfg.Thresholds.HungryAt {
			s.eatMeal(a)
		}
	}
}

// tryHire signs the agent on at a location if the slot is still open and the
// org can carry the salary for the hiring buffer.
func (s *Simulation) tryHire(a *agents.Agent, loc *city.Location) {
	if a.Employed() || loc.OwnerID == nil || loc.OpenSlots() == 0 {
		return
	}
	org, ok := s.OrgIndex[*loc.OwnerID]
	if !ok || org.Dissolved {
		return
	}
	salary := s.Cfg.Salary(loc.SalaryTier)
	if salary <= 0 {
		return
	}
	if org.Wallet < salary*s.Cfg.Rules.HiringBufferWeeks {
		return
	}

	loc.AddEmployee(a.ID)
	a.Status = agents.StatusEmployed
	a.Employment = agents.Employment{
		EmployerID:  &org.ID,
		WorkplaceID: &loc.ID,
		Salary:      salary,
		HiredPhase:  s.Phase,
	}
	a.NextShiftPhase = s.Phase
	a.Task = agents.Task{Kind: agents.TaskWork, Priority: agents.PriorityNormal}

	s.Metrics.Inc(telemetry.MetricHires)
	s.record("employment", a.Name, uint64(a.ID), "%s hired at %s for %d/wk", a.Name, loc.Name, salary)
}

// tryMoveIn takes a residence slot if one is still open.
func (s *Simulation) tryMoveIn(a *agents.Agent, loc *city.Location) {
	if a.ResidenceID != nil || loc.OpenResidences() == 0 {
		return
	}
	loc.AddResident(a.ID)
	a.ResidenceID = &loc.ID
	s.record("housing", a.Name, uint64(a.ID), "%s moved into %s", a.Name, loc.Name)
}

// payForLeisure charges the venue's media price once per visit when stocked.
func (s *Simulation) payForLeisure(a *agents.Agent, loc *city.Location) {
	price := s.Catalog.Retail(econ.GoodMedia)
	if price <= 0 || a.Wallet < price {
		return
	}
	if loc.Inventory.Remove(econ.GoodMedia, 1) == 0 {
		return
	}
	a.Wallet -= price
	if loc.OwnerID != nil {
		if org, ok := s.OrgIndex[*loc.OwnerID]; ok {
			org.Wallet += price
			org.WeekRevenue += price
		}
	}
	s.Metrics.Inc(telemetry.MetricSales)
}

// nearestStockedShop returns the closest owned retail location with
// provisions on the shelf.
func (s *Simulation) nearestStockedShop(a *agents.Agent) *city.Location {
	pos := s.AgentPos(a)
	return s.nearestLocation(pos, func(l *city.Location) bool {
		return l.HasTag(city.RoleRetail) && l.OwnerID != nil && l.Inventory.Count(econ.GoodProvisions) > 0
	})
}

// nearestOpening returns the closest location with a free employee slot
// whose org can afford the tier salary.
func (s *Simulation) nearestOpening(a *agents.Agent) *city.Location {
	pos := s.AgentPos(a)
	return s.nearestLocation(pos, func(l *city.Location) bool {
		if l.OwnerID == nil || l.OpenSlots() == 0 {
			return false
		}
		org, ok := s.OrgIndex[*l.OwnerID]
		if !ok || org.Dissolved {
			return false
		}
		salary := s.Cfg.Salary(l.SalaryTier)
		return salary > 0 && org.Wallet >= salary*s.Cfg.Rules.HiringBufferWeeks
	})
}

// restTarget returns where a tired agent should head: their residence, or
// the nearest public space as a shelter.
func (s *Simulation) restTarget(a *agents.Agent) *city.Location {
	if a.ResidenceID != nil {
		if home, ok := s.LocationIndex[*a.ResidenceID]; ok {
			return home
		}
		a.ResidenceID = nil
	}
	return s.nearestLocation(s.AgentPos(a), func(l *city.Location) bool {
		return l.HasTag(city.RolePublic)
	})
}
