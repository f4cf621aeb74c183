// Weekly org settlement — staggered by each org's phase offset so the
// financial load spreads across the week instead of spiking on one phase.
package engine

import (
	"github.com/emberline/civitas/internal/agents"
	"github.com/emberline/civitas/internal/city"
	"github.com/emberline/civitas/internal/telemetry"
)

// runSettlement processes exactly the orgs whose weekly offset matches the
// current phase. Calling it on any other phase is a no-op for an org.
func (s *Simulation) runSettlement() {
	offset := s.Phase % PhasesPerWeek
	for _, org := range s.Orgs {
		if org.Dissolved || org.WeeklyPhaseOffset != offset {
			continue
		}
		s.SettleOrg(org)
	}
}

// SettleOrg runs one org's weekly settlement: lifecycle checks first, then
// dividend, payroll, operating costs, rent collection, and counter reset.
func (s *Simulation) SettleOrg(org *city.Org) {
	if !s.checkOrgLifecycle(org) {
		return // dissolved
	}

	s.payDividend(org)
	s.runPayroll(org)
	s.payOperatingCosts(org)
	s.collectRent(org)

	org.WeekRevenue = 0
	org.WeekCosts = 0
}

// checkOrgLifecycle handles succession and dissolution. Returns false when
// the org was dissolved. Priority order: a dead leader with no living
// employees dissolves the org; a dead leader with employees promotes the
// earliest hire; a negative wallet is bankruptcy.
func (s *Simulation) checkOrgLifecycle(org *city.Org) bool {
	leader, ok := s.AgentIndex[org.LeaderID]
	leaderDead := !ok || !leader.Alive()

	if leaderDead {
		heir := s.seniorEmployee(org)
		if heir == nil {
			s.dissolveOrg(org, "leaderless")
			return false
		}
		org.LeaderID = heir.ID
		s.Metrics.Inc(telemetry.MetricSuccessions)
		s.record("economy", org.Name, org.ID,
			"%s takes over leadership of %s", heir.Name, org.Name)
	}

	if org.Wallet < 0 {
		s.dissolveOrg(org, "bankrupt")
		return false
	}
	return true
}

// seniorEmployee returns the living employee with the earliest hire phase
// across all of the org's locations, or nil.
func (s *Simulation) seniorEmployee(org *city.Org) *agents.Agent {
	var senior *agents.Agent
	for _, locID := range org.Locations {
		loc, ok := s.LocationIndex[locID]
		if !ok {
			continue
		}
		for _, empID := range loc.Employees {
			emp, ok := s.AgentIndex[empID]
			if !ok || !emp.Alive() {
				continue
			}
			if senior == nil || emp.Employment.HiredPhase < senior.Employment.HiredPhase {
				senior = emp
			}
		}
	}
	return senior
}

// payDividend pays the leader before anything else. Owner survival is
// prioritized over payroll; if even the dividend is unaffordable it is
// skipped with a warning, never borrowed.
func (s *Simulation) payDividend(org *city.Org) {
	dividend := s.Cfg.Rules.OwnerDividend
	leader, ok := s.AgentIndex[org.LeaderID]
	if !ok || !leader.Alive() || dividend <= 0 {
		return
	}
	if org.Wallet < dividend {
		s.warn("economy", org.Name, org.ID,
			"%s cannot afford the owner dividend (%d, wallet %d)", org.Name, dividend, org.Wallet)
		return
	}
	org.Wallet -= dividend
	org.WeekCosts += dividend
	leader.Wallet += dividend
	s.Metrics.Inc(telemetry.MetricDividends)
}

// runPayroll pays each location's employees in list order from the org
// wallet. An employee the org cannot currently afford is released on the
// spot and the shortfall is logged.
func (s *Simulation) runPayroll(org *city.Org) {
	for _, locID := range org.Locations {
		loc, ok := s.LocationIndex[locID]
		if !ok {
			continue
		}
		// Copy: releases mutate the employee list.
		staff := make([]agents.AgentID, len(loc.Employees))
		copy(staff, loc.Employees)

		for _, empID := range staff {
			emp, ok := s.AgentIndex[empID]
			if !ok || !emp.Alive() {
				loc.RemoveEmployee(empID)
				continue
			}
			salary := emp.Employment.Salary
			if org.Wallet < salary {
				s.Metrics.Inc(telemetry.MetricPayrollSkipped)
				s.warn("economy", org.Name, org.ID,
					"insufficient funds: %s cannot pay %s (%d needed, wallet %d)",
					org.Name, emp.Name, salary, org.Wallet)
				s.severEmployment(emp, "unpaid")
				continue
			}
			org.Wallet -= salary
			org.WeekCosts += salary
			emp.Wallet += salary
		}
	}
}

// payOperatingCosts deducts each location's weekly operating cost when
// affordable. Unpaid operating cost is logged and skipped — it never
// dissolves an org on its own.
func (s *Simulation) payOperatingCosts(org *city.Org) {
	for _, locID := range org.Locations {
		loc, ok := s.LocationIndex[locID]
		if !ok || loc.OperatingCost <= 0 {
			continue
		}
		if org.Wallet < loc.OperatingCost {
			s.warn("economy", org.Name, org.ID,
				"%s cannot cover operating cost for %s (%d needed, wallet %d)",
				org.Name, loc.Name, loc.OperatingCost, org.Wallet)
			continue
		}
		org.Wallet -= loc.OperatingCost
		org.WeekCosts += loc.OperatingCost
	}
}

// collectRent charges residents of the org's residential locations. A
// resident who cannot pay is evicted: residence cleared, removed from the
// resident list.
func (s *Simulation) collectRent(org *city.Org) {
	for _, locID := range org.Locations {
		loc, ok := s.LocationIndex[locID]
		if !ok || !loc.HasTag(city.RoleResidential) || loc.Rent <= 0 {
			continue
		}
		residents := make([]agents.AgentID, len(loc.Residents))
		copy(residents, loc.Residents)

		for _, resID := range residents {
			res, ok := s.AgentIndex[resID]
			if !ok || !res.Alive() {
				loc.RemoveResident(resID)
				continue
			}
			if res.Wallet < loc.Rent {
				loc.RemoveResident(resID)
				res.ResidenceID = nil
				s.Metrics.Inc(telemetry.MetricEvictions)
				s.warn("housing", res.Name, uint64(res.ID),
					"%s evicted from %s (rent %d, wallet %d)", res.Name, loc.Name, loc.Rent, res.Wallet)
				continue
			}
			res.Wallet -= loc.Rent
			org.Wallet += loc.Rent
			org.WeekRevenue += loc.Rent
		}
	}
}

// dissolveOrg terminates an org. Owned locations are orphaned, not deleted:
// ownership cleared, put up for sale, staff released — residents stay put
// and simply stop paying rent. Open orders involving the org are failed by
// the coordinator's referent validation.
func (s *Simulation) dissolveOrg(org *city.Org, reason string) {
	org.Dissolved = true

	for _, locID := range org.Locations {
		loc, ok := s.LocationIndex[locID]
		if !ok {
			continue
		}
		staff := make([]agents.AgentID, len(loc.Employees))
		copy(staff, loc.Employees)
		for _, empID := range staff {
			if emp, ok := s.AgentIndex[empID]; ok {
				s.severEmployment(emp, "employer dissolved")
			}
		}
		loc.Orphan()
	}

	for _, v := range s.Vehicles {
		if v.OwnerID != nil && *v.OwnerID == org.ID {
			v.OwnerID = nil
			v.OperatorID = nil
		}
	}

	s.Metrics.Inc(telemetry.MetricBusinessDissolved)
	s.record("economy", org.Name, org.ID, "%s dissolved (%s)", org.Name, reason)
}
