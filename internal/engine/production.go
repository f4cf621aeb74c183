// Production cycles — a configured location yields goods on its cycle
// interval, scaled by the employees physically present. Nominal headcount
// does not produce; presence does.
package engine

import (
	"github.com/emberline/civitas/internal/telemetry"
)

// runProduction advances every owned production location whose cycle lands
// on this phase.
func (s *Simulation) runProduction() {
	for _, loc := range s.Locations {
		p := loc.Production
		if p == nil || loc.OwnerID == nil {
			continue
		}
		if s.Phase%p.CyclePhases != 0 {
			continue
		}

		present := 0
		for _, empID := range loc.Employees {
			emp, ok := s.AgentIndex[empID]
			if !ok || !emp.Alive() {
				continue
			}
			if emp.LocationID != nil && *emp.LocationID == loc.ID {
				present++
			}
		}

		if present == 0 {
			// Explicit halt: staffed on paper, nobody on the floor.
			s.Metrics.Inc(telemetry.MetricProductionHalts)
			s.warn("production", loc.Name, loc.ID,
				"production halted at %s: no employees present", loc.Name)
			continue
		}

		output := present * p.RatePerEmployee
		accepted := loc.Inventory.Add(s.Catalog, p.Good, output)
		if accepted < output {
			s.warn("production", loc.Name, loc.ID,
				"%s at capacity: %d of %d %s discarded", loc.Name, output-accepted, output, p.Good)
		}
		if accepted > 0 {
			s.Metrics.Add(telemetry.MetricGoodsProduced, uint64(accepted))
		}
	}
}
