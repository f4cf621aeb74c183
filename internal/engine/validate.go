package engine

import (
	"fmt"
)

// ValidateInvariants sweeps the world for structural corruption and returns
// one message per violation. Empty means clean. Runs daily; violations are
// logged, never silently repaired.
func (s *Simulation) ValidateInvariants() []string {
	var problems []string

	for _, a := range s.Agents {
		if !a.Alive() {
			continue
		}

		// An agent is settled or traveling, never both, never neither.
		switch {
		case a.LocationID != nil && a.Travel != nil:
			problems = append(problems, fmt.Sprintf("agent %d (%s) both located and traveling", a.ID, a.Name))
		case a.LocationID == nil && a.Travel == nil:
			problems = append(problems, fmt.Sprintf("agent %d (%s) has no position", a.ID, a.Name))
		}

		if a.Employed() {
			emp := a.Employment
			if emp.EmployerID == nil || emp.WorkplaceID == nil || emp.Salary <= 0 {
				problems = append(problems, fmt.Sprintf("agent %d (%s) employed with incomplete employment record", a.ID, a.Name))
				continue
			}
			wp, ok := s.LocationIndex[*emp.WorkplaceID]
			if !ok {
				problems = append(problems, fmt.Sprintf("agent %d (%s) works at missing location %d", a.ID, a.Name, *emp.WorkplaceID))
				continue
			}
			found := false
			for _, e := range wp.Employees {
				if e == a.ID {
					found = true
					break
				}
			}
			if !found {
				problems = append(problems, fmt.Sprintf("agent %d (%s) not on roster of workplace %s", a.ID, a.Name, wp.Name))
			}
		}
	}

	for _, loc := range s.Locations {
		for _, id := range loc.Employees {
			emp, ok := s.AgentIndex[id]
			switch {
			case !ok:
				problems = append(problems, fmt.Sprintf("location %s lists unknown employee %d", loc.Name, id))
			case !emp.Alive():
				problems = append(problems, fmt.Sprintf("location %s lists dead employee %d", loc.Name, id))
			case emp.Employment.WorkplaceID == nil || *emp.Employment.WorkplaceID != loc.ID:
				problems = append(problems, fmt.Sprintf("location %s lists employee %d who works elsewhere", loc.Name, id))
			}
		}

		if loc.Inventory.Capacity > 0 {
			used := loc.Inventory.Used(s.Catalog)
			if used > loc.Inventory.Capacity {
				problems = append(problems, fmt.Sprintf("location %s over capacity: %d/%d", loc.Name, used, loc.Inventory.Capacity))
			}
		}

		if loc.OwnerID != nil {
			org, ok := s.OrgIndex[*loc.OwnerID]
			if !ok || org.Dissolved {
				problems = append(problems, fmt.Sprintf("location %s owned by missing or dissolved org %d", loc.Name, *loc.OwnerID))
			}
		}
	}

	for _, v := range s.Vehicles {
		if v.Cargo.Capacity > 0 {
			used := v.Cargo.Used(s.Catalog)
			if used > v.Cargo.Capacity {
				problems = append(problems, fmt.Sprintf("vehicle %s over capacity: %d/%d", v.Name, used, v.Cargo.Capacity))
			}
		}
		// A moving vehicle must have a living operator; parked with an
		// operator is fine (assigned, not yet loaded).
		if v.LocationID == nil && v.OperatorID == nil {
			problems = append(problems, fmt.Sprintf("vehicle %s adrift: moving with no operator", v.Name))
		}
	}

	for _, o := range s.Logistics {
		if !o.Active() {
			continue
		}
		if o.DriverID != nil {
			if bound, ok := s.driverOrders[*o.DriverID]; !ok || bound != o {
				problems = append(problems, fmt.Sprintf("delivery %d driver binding out of sync", o.ID))
			}
		}
	}

	return problems
}
