// Logistics dispatch — pending delivery orders are matched to a free
// vehicle and a fit driver employed by the vehicle's owner; the driver then
// runs the pickup and dropoff legs through normal travel. A coordinator
// pass cleans up orders that stopped moving and referents that vanished.
package engine

import (
	"github.com/emberline/civitas/internal/agents"
	"github.com/emberline/civitas/internal/city"
	"github.com/emberline/civitas/internal/telemetry"
)

// dispatchLogistics assigns pending delivery orders.
func (s *Simulation) dispatchLogistics() {
	for _, o := range s.Logistics {
		if o.Status != city.LogisticsPending {
			continue
		}
		vehicle, driver := s.matchDriverVehicle(o)
		if vehicle == nil || driver == nil {
			continue // stays pending until the coordinator times it out
		}
		if err := o.Transition(city.LogisticsAssigned, s.Phase); err != nil {
			s.warn("logistics", driver.Name, uint64(driver.ID), "delivery %d: %v", o.ID, err)
			continue
		}
		o.DriverID = &driver.ID
		o.VehicleID = &vehicle.ID
		vehicle.OperatorID = &driver.ID
		s.driverOrders[driver.ID] = o

		target := o.FromID
		s.begin(driver, agents.Task{Kind: agents.TaskDelivery, Priority: agents.PriorityHigh, TargetID: &target})
		s.record("logistics", driver.Name, uint64(driver.ID),
			"%s assigned delivery %d with %s", driver.Name, o.ID, vehicle.Name)
	}
}

// matchDriverVehicle finds a parked vehicle with room for the cargo and a
// living employee of the vehicle's owner who is rested enough to drive and
// not already on a delivery.
func (s *Simulation) matchDriverVehicle(o *city.LogisticsOrder) (*city.Vehicle, *agents.Agent) {
	units := o.CargoUnits(s.Catalog)
	for _, v := range s.Vehicles {
		if !v.Free() || v.OwnerID == nil {
			continue
		}
		if v.Cargo.Free(s.Catalog) < units {
			continue
		}
		owner, ok := s.OrgIndex[*v.OwnerID]
		if !ok || owner.Dissolved {
			continue
		}
		if driver := s.availableDriver(owner); driver != nil {
			return v, driver
		}
	}
	return nil, nil
}

// availableDriver returns the org's first living employee under the fatigue
// limit with no active delivery and nothing critical in progress.
func (s *Simulation) availableDriver(org *city.Org) *agents.Agent {
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
			if emp.Needs.Fatigue >= s.Cfg.Rules.DriverFatigueLimit {
				continue
			}
			// A delivery is high priority; it must not displace a
			// critical task like an emergency food run.
			if emp.Task.Kind != agents.TaskNone && emp.Task.Priority > agents.PriorityHigh {
				continue
			}
			if _, busy := s.driverOrders[emp.ID]; busy {
				continue
			}
			return emp
		}
	}
	return nil
}

// driverArrived advances a delivery when its driver reaches a leg endpoint:
// load at the pickup, unload and settle at the destination.
func (s *Simulation) driverArrived(a *agents.Agent, loc *city.Location) {
	o, ok := s.driverOrders[a.ID]
	if !ok || !o.Active() {
		a.ClearTask()
		return
	}

	switch {
	case o.Status == city.LogisticsAssigned && loc.ID == o.FromID:
		s.loadCargo(a, o, loc)
	case o.Status == city.LogisticsInTransit && loc.ID == o.ToID:
		s.deliverCargo(a, o, loc)
	default:
		// Arrived somewhere stale; point the driver back at the right leg.
		target := o.FromID
		if o.Status == city.LogisticsInTransit {
			target = o.ToID
		}
		a.Task = agents.Task{Kind: agents.TaskDelivery, Priority: agents.PriorityHigh, TargetID: &target}
		s.startTravel(a, target)
	}
}

// loadCargo moves the order's goods from the pickup location onto the
// vehicle and starts the delivery leg. If the stock evaporated since the
// order went ready, the delivery fails.
func (s *Simulation) loadCargo(a *agents.Agent, o *city.LogisticsOrder, loc *city.Location) {
	vehicle, ok := s.VehicleIndex[deref(o.VehicleID)]
	if !ok {
		s.failLogistics(o, "vehicle missing")
		return
	}
	for good, qty := range o.Cargo {
		if loc.Inventory.Count(good) < qty {
			s.failLogistics(o, "pickup stock gone")
			return
		}
	}
	for good, qty := range o.Cargo {
		loc.Inventory.Remove(good, qty)
		vehicle.Cargo.Add(s.Catalog, good, qty)
	}
	if err := o.Transition(city.LogisticsInTransit, s.Phase); err != nil {
		s.warn("logistics", a.Name, uint64(a.ID), "delivery %d: %v", o.ID, err)
		return
	}
	vehicle.LocationID = nil

	target := o.ToID
	a.Task = agents.Task{Kind: agents.TaskDelivery, Priority: agents.PriorityHigh, TargetID: &target}
	s.startTravel(a, target)
}

// deliverCargo unloads at the destination, settles the parent goods order,
// pays the carrier, and releases driver and vehicle.
func (s *Simulation) deliverCargo(a *agents.Agent, o *city.LogisticsOrder, loc *city.Location) {
	vehicle, ok := s.VehicleIndex[deref(o.VehicleID)]
	if !ok {
		s.failLogistics(o, "vehicle missing")
		return
	}
	for good, qty := range o.Cargo {
		moved := vehicle.Cargo.Remove(good, qty)
		accepted := loc.Inventory.Add(s.Catalog, good, moved)
		if accepted < moved {
			s.warn("logistics", loc.Name, loc.ID,
				"%s at capacity: %d %s discarded on delivery", loc.Name, moved-accepted, good)
		}
	}
	if err := o.Transition(city.LogisticsDelivered, s.Phase); err != nil {
		s.warn("logistics", a.Name, uint64(a.ID), "delivery %d: %v", o.ID, err)
		return
	}

	s.payCarrier(o, vehicle)
	if o.ParentID != nil {
		if parent, ok := s.GoodsIndex[*o.ParentID]; ok && parent.Status == city.GoodsReady {
			s.settleGoodsOrder(parent)
		}
	}

	vehicle.Release(&loc.ID)
	delete(s.driverOrders, a.ID)
	a.ClearTask()
	s.record("logistics", a.Name, uint64(a.ID), "%s completed delivery %d", a.Name, o.ID)
}

// payCarrier transfers the delivery fee from the goods buyer to the vehicle
// owner. Skipped with a warning when the buyer cannot cover it.
func (s *Simulation) payCarrier(o *city.LogisticsOrder, vehicle *city.Vehicle) {
	if o.Payment <= 0 || vehicle.OwnerID == nil {
		return
	}
	carrier, ok := s.OrgIndex[*vehicle.OwnerID]
	if !ok || carrier.Dissolved {
		return
	}
	var payer *city.Org
	if o.ParentID != nil {
		if parent, ok := s.GoodsIndex[*o.ParentID]; ok {
			payer = s.OrgIndex[parent.BuyerID]
		}
	}
	if payer == nil || payer.Dissolved || payer.Wallet < o.Payment {
		s.warn("logistics", carrier.Name, carrier.ID,
			"delivery %d fee %d unpaid", o.ID, o.Payment)
		return
	}
	payer.Wallet -= o.Payment
	payer.WeekCosts += o.Payment
	carrier.Wallet += o.Payment
	carrier.WeekRevenue += o.Payment
}

// failLogistics marks a delivery failed, cascades to its parent goods
// order, and releases the driver and vehicle.
func (s *Simulation) failLogistics(o *city.LogisticsOrder, reason string) {
	if !o.Active() {
		return
	}
	if err := o.Transition(city.LogisticsFailed, s.Phase); err != nil {
		return
	}
	s.Metrics.Inc(telemetry.MetricOrdersFailed)
	s.warn("logistics", "", o.ID, "delivery %d failed: %s", o.ID, reason)

	if o.ParentID != nil {
		if parent, ok := s.GoodsIndex[*o.ParentID]; ok && parent.Open() {
			if err := parent.Transition(city.GoodsFailed, s.Phase); err == nil {
				s.Metrics.Inc(telemetry.MetricOrdersFailed)
				s.warn("orders", s.orgName(parent.BuyerID), parent.BuyerID,
					"order %d failed: delivery broke down (%s)", parent.ID, reason)
			}
		}
	}
	s.releaseDelivery(o)
}

// releaseDelivery detaches the driver and parks the vehicle, unloading any
// cargo it still carries into the parking location.
func (s *Simulation) releaseDelivery(o *city.LogisticsOrder) {
	if o.DriverID != nil {
		if driver, ok := s.AgentIndex[*o.DriverID]; ok {
			delete(s.driverOrders, driver.ID)
			if driver.Task.Kind == agents.TaskDelivery {
				driver.ClearTask()
			}
		}
	}
	if o.VehicleID == nil {
		return
	}
	vehicle, ok := s.VehicleIndex[*o.VehicleID]
	if !ok {
		return
	}
	parkID := vehicle.LocationID
	if parkID == nil {
		if _, ok := s.LocationIndex[o.FromID]; ok {
			from := o.FromID
			parkID = &from
		} else if len(s.Locations) > 0 {
			parkID = &s.Locations[0].ID
		}
	}
	if parkID != nil {
		if park, ok := s.LocationIndex[*parkID]; ok {
			for good, qty := range vehicle.Cargo.Items {
				moved := vehicle.Cargo.Remove(good, qty)
				park.Inventory.Add(s.Catalog, good, moved)
			}
		}
	}
	vehicle.Release(parkID)
}

// runCoordinator is the periodic cleanup pass over the order pipeline:
// stuck orders are failed (and failure cascades to parents), orders whose
// referents vanished are failed, dead operators release their vehicles, and
// stale goods orders are cancelled or failed by age.
func (s *Simulation) runCoordinator() {
	t := s.Cfg.Timeouts

	for _, o := range s.Logistics {
		if !o.Active() {
			continue
		}
		if bad := s.staleReferent(o); bad != "" {
			s.Metrics.Inc(telemetry.MetricStaleReferences)
			s.failLogistics(o, bad)
			continue
		}
		if o.Status != city.LogisticsPending && s.Phase-o.UpdatedPhase > t.LogisticsStuck {
			s.Metrics.Inc(telemetry.MetricOrdersStuck)
			s.failLogistics(o, "stuck")
		}
	}

	for _, v := range s.Vehicles {
		if v.OperatorID == nil {
			continue
		}
		op, ok := s.AgentIndex[*v.OperatorID]
		if !ok || !op.Alive() {
			s.warn("logistics", v.Name, v.ID, "%s released: operator gone", v.Name)
			v.OperatorID = nil
		}
	}

	for _, o := range s.GoodsOrders {
		switch o.Status {
		case city.GoodsPending:
			if s.Phase-o.UpdatedPhase > t.GoodsPending {
				if err := o.Transition(city.GoodsCancelled, s.Phase); err == nil {
					s.Metrics.Inc(telemetry.MetricOrdersCancelled)
					s.warn("orders", s.orgName(o.BuyerID), o.BuyerID,
						"order %d cancelled: seller never sourced %d %s", o.ID, o.Quantity, o.Good)
				}
			}
		case city.GoodsReady:
			// A stuck ready order is a logistics failure: the buyer may
			// already be committed.
			if s.Phase-o.UpdatedPhase > t.GoodsReady {
				if o.ChildID != nil {
					if child, ok := s.LogisticsIndex[*o.ChildID]; ok && child.Active() {
						s.failLogistics(child, "parent timed out")
						continue
					}
				}
				if err := o.Transition(city.GoodsFailed, s.Phase); err == nil {
					s.Metrics.Inc(telemetry.MetricOrdersFailed)
					s.warn("orders", s.orgName(o.BuyerID), o.BuyerID,
						"order %d failed: ready but never moved", o.ID)
				}
			}
		}
	}
}

// staleReferent names the first missing referent of an in-flight delivery,
// or returns "".
func (s *Simulation) staleReferent(o *city.LogisticsOrder) string {
	if _, ok := s.LocationIndex[o.FromID]; !ok {
		return "pickup location gone"
	}
	if _, ok := s.LocationIndex[o.ToID]; !ok {
		return "destination gone"
	}
	if o.Status == city.LogisticsPending {
		return ""
	}
	if o.DriverID == nil {
		return "no driver on assigned order"
	}
	driver, ok := s.AgentIndex[*o.DriverID]
	if !ok || !driver.Alive() {
		return "driver gone"
	}
	if o.VehicleID == nil {
		return "no vehicle on assigned order"
	}
	if _, ok := s.VehicleIndex[*o.VehicleID]; !ok {
		return "vehicle gone"
	}
	return ""
}

func deref(p *uint64) uint64 {
	if p == nil {
		return 0
	}
	return *p
}
