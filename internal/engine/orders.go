// Goods-order pipeline: retail procurement places B2B orders, and pending
// orders are matched against a single seller location holding the full
// requested quantity — warehouses first, then factories. A fulfilled match
// spawns the child logistics order that actually moves the goods.
package engine

import (
	"github.com/emberline/civitas/internal/city"
	"github.com/emberline/civitas/internal/econ"
	"github.com/emberline/civitas/internal/telemetry"
)

// defaultOrderQty is how many units a restock order asks for.
const defaultOrderQty = 20

// runProcurement walks retail/leisure stock lines and places wholesale
// orders for anything under the restock level, one open order per line.
func (s *Simulation) runProcurement() {
	for _, loc := range s.Locations {
		if loc.OwnerID == nil || len(loc.Stocks) == 0 {
			continue
		}
		buyer, ok := s.OrgIndex[*loc.OwnerID]
		if !ok || buyer.Dissolved {
			continue
		}
		for _, good := range loc.Stocks {
			if loc.Inventory.Count(good) >= s.Cfg.Thresholds.RestockLevel {
				continue
			}
			if s.hasOpenOrder(buyer.ID, loc.ID, good) {
				continue
			}
			seller := s.findSupplier(buyer.ID, good)
			if seller == nil {
				continue
			}
			s.placeGoodsOrder(buyer, seller, loc, good, defaultOrderQty)
		}
	}
}

// hasOpenOrder reports whether the buyer already has an in-flight order for
// this good to this destination.
func (s *Simulation) hasOpenOrder(buyerID, destID uint64, good econ.GoodID) bool {
	for _, o := range s.GoodsOrders {
		if o.Open() && o.BuyerID == buyerID && o.DeliverToID == destID && o.Good == good {
			return true
		}
	}
	return false
}

// findSupplier picks the org best placed to sell a good: the one whose
// wholesale/production locations hold the most of it. Ties break on slice
// order, which is stable.
func (s *Simulation) findSupplier(buyerID uint64, good econ.GoodID) *city.Org {
	var best *city.Org
	bestStock := 0
	for _, org := range s.Orgs {
		if org.Dissolved || org.ID == buyerID {
			continue
		}
		stock := 0
		for _, locID := range org.Locations {
			loc, ok := s.LocationIndex[locID]
			if !ok {
				continue
			}
			if loc.HasTag(city.RoleWholesale) || loc.HasTag(city.RoleStorage) ||
				(loc.Production != nil && loc.Production.Good == good) {
				stock += loc.Inventory.Count(good)
			}
		}
		if stock > bestStock {
			best = org
			bestStock = stock
		}
	}
	return best
}

// placeGoodsOrder creates a pending order at the wholesale price.
func (s *Simulation) placeGoodsOrder(buyer, seller *city.Org, dest *city.Location, good econ.GoodID, qty int) {
	order := &city.GoodsOrder{
		ID:           s.Rand.NextID(),
		BuyerID:      buyer.ID,
		SellerID:     seller.ID,
		Good:         good,
		Quantity:     qty,
		Total:        int64(qty) * s.Catalog.Wholesale(good),
		Status:       city.GoodsPending,
		DeliverToID:  dest.ID,
		CreatedPhase: s.Phase,
		UpdatedPhase: s.Phase,
	}
	s.AddGoodsOrder(order)
	s.Metrics.Inc(telemetry.MetricOrdersPlaced)
	s.record("orders", buyer.Name, buyer.ID,
		"%s ordered %d %s from %s for %d", buyer.Name, qty, good, seller.Name, order.Total)
}

// advanceGoodsOrders tries to source every pending order. An order only
// becomes ready when a single seller location holds the full quantity — no
// partial or consolidated fulfillment — and readiness spawns the child
// logistics order.
func (s *Simulation) advanceGoodsOrders() {
	for _, o := range s.GoodsOrders {
		if o.Status != city.GoodsPending {
			continue
		}
		seller, ok := s.OrgIndex[o.SellerID]
		if !ok || seller.Dissolved {
			continue // coordinator fails orders with vanished parties
		}
		pickup := s.findPickup(seller, o.Good, o.Quantity)
		if pickup == nil {
			continue // stays pending
		}
		if err := o.Transition(city.GoodsReady, s.Phase); err != nil {
			s.warn("orders", seller.Name, seller.ID, "order %d: %v", o.ID, err)
			continue
		}
		o.PickupID = &pickup.ID
		s.spawnLogistics(o, pickup)
	}
}

// findPickup searches the seller's locations for one holding the full
// quantity: warehouses first, then factories.
func (s *Simulation) findPickup(seller *city.Org, good econ.GoodID, qty int) *city.Location {
	for _, wantStorage := range []bool{true, false} {
		for _, locID := range seller.Locations {
			loc, ok := s.LocationIndex[locID]
			if !ok {
				continue
			}
			isStorage := loc.HasTag(city.RoleStorage) || loc.HasTag(city.RoleWholesale)
			if isStorage != wantStorage {
				continue
			}
			if !wantStorage && loc.Production == nil {
				continue
			}
			if loc.Inventory.Count(good) >= qty {
				return loc
			}
		}
	}
	return nil
}

// spawnLogistics creates the delivery order fulfilling a ready goods order.
func (s *Simulation) spawnLogistics(parent *city.GoodsOrder, pickup *city.Location) {
	units := parent.Quantity * s.Catalog.UnitSize(parent.Good)
	lo := &city.LogisticsOrder{
		ID:           s.Rand.NextID(),
		ParentID:     &parent.ID,
		FromID:       pickup.ID,
		ToID:         parent.DeliverToID,
		Cargo:        map[econ.GoodID]int{parent.Good: parent.Quantity},
		Payment:      s.Cfg.Rules.DeliveryBaseFee + int64(units)*s.Cfg.Rules.DeliveryPerUnitFee,
		Status:       city.LogisticsPending,
		CreatedPhase: s.Phase,
		UpdatedPhase: s.Phase,
	}
	parent.ChildID = &lo.ID
	s.AddLogisticsOrder(lo)
	s.record("orders", s.orgName(parent.SellerID), parent.SellerID,
		"delivery %d spawned for order %d (%d %s from %s)",
		lo.ID, parent.ID, parent.Quantity, parent.Good, pickup.Name)
}

// settleGoodsOrder completes a goods order after its delivery landed: the
// buyer pays the pre-agreed total, or the order fails if the buyer can no
// longer afford it.
func (s *Simulation) settleGoodsOrder(o *city.GoodsOrder) {
	buyer, buyerOK := s.OrgIndex[o.BuyerID]
	seller, sellerOK := s.OrgIndex[o.SellerID]

	if !buyerOK || buyer.Dissolved || buyer.Wallet < o.Total {
		if err := o.Transition(city.GoodsFailed, s.Phase); err == nil {
			s.Metrics.Inc(telemetry.MetricOrdersFailed)
			s.warn("orders", s.orgName(o.BuyerID), o.BuyerID,
				"order %d failed at settlement: buyer cannot pay %d", o.ID, o.Total)
		}
		return
	}

	buyer.Wallet -= o.Total
	buyer.WeekCosts += o.Total
	if sellerOK && !seller.Dissolved {
		seller.Wallet += o.Total
		seller.WeekRevenue += o.Total
	}
	if err := o.Transition(city.GoodsSettled, s.Phase); err != nil {
		s.warn("orders", s.orgName(o.BuyerID), o.BuyerID, "order %d: %v", o.ID, err)
		return
	}
	s.Metrics.Inc(telemetry.MetricOrdersDelivered)
	s.record("orders", s.orgName(o.BuyerID), o.BuyerID,
		"order %d settled: %d %s for %d", o.ID, o.Quantity, o.Good, o.Total)
}
