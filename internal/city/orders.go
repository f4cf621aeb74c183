package city

import (
	"fmt"

	"github.com/emberline/civitas/internal/agents"
	"github.com/emberline/civitas/internal/econ"
)

// GoodsStatus is the state of a B2B goods order.
type GoodsStatus uint8

const (
	GoodsPending   GoodsStatus = iota // placed, no pickup location yet
	GoodsReady                        // pickup assigned, logistics order spawned
	GoodsSettled                      // delivered and paid
	GoodsCancelled                    // withdrawn before fulfillment started
	GoodsFailed                       // fulfillment or payment broke down
)

// GoodsStatusName returns a human-readable goods order status.
func GoodsStatusName(s GoodsStatus) string {
	switch s {
	case GoodsPending:
		return "pending"
	case GoodsReady:
		return "ready"
	case GoodsSettled:
		return "settled"
	case GoodsCancelled:
		return "cancelled"
	case GoodsFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// goodsEdges lists the legal goods-order transitions.
var goodsEdges = map[GoodsStatus][]GoodsStatus{
	GoodsPending: {GoodsReady, GoodsCancelled, GoodsFailed},
	GoodsReady:   {GoodsSettled, GoodsCancelled, GoodsFailed},
}

// GoodsOrder is a purchase agreement between two orgs for a quantity of one
// good, fulfilled by a child logistics order.
type GoodsOrder struct {
	ID       uint64      `json:"id"`
	BuyerID  uint64      `json:"buyer_id"`  // org
	SellerID uint64      `json:"seller_id"` // org
	Good     econ.GoodID `json:"good"`
	Quantity int         `json:"quantity"`
	Total    int64       `json:"total"`     // pre-agreed credits, buyer → seller

	Status      GoodsStatus `json:"status"`
	DeliverToID uint64      `json:"deliver_to_id"`       // buyer location
	PickupID    *uint64     `json:"pickup_id,omitempty"` // seller location, set on ready
	ChildID     *uint64     `json:"child_id,omitempty"`  // logistics order

	CreatedPhase uint64 `json:"created_phase"`
	UpdatedPhase uint64 `json:"updated_phase"`
}

// Open reports whether the order is still in flight.
func (o *GoodsOrder) Open() bool {
	return o.Status == GoodsPending || o.Status == GoodsReady
}

// Transition moves the order to a new status, rejecting illegal edges.
func (o *GoodsOrder) Transition(to GoodsStatus, phase uint64) error {
	for _, next := range goodsEdges[o.Status] {
		if next == to {
			o.Status = to
			o.UpdatedPhase = phase
			return nil
		}
	}
	return fmt.Errorf("goods order %d: illegal transition %s -> %s",
		o.ID, GoodsStatusName(o.Status), GoodsStatusName(to))
}

// LogisticsStatus is the state of a delivery order.
type LogisticsStatus uint8

const (
	LogisticsPending   LogisticsStatus = iota // awaiting driver/vehicle
	LogisticsAssigned                         // driver and vehicle matched
	LogisticsInTransit                        // cargo loaded, en route
	LogisticsDelivered                        // cargo handed over
	LogisticsFailed
	LogisticsCancelled
)

// LogisticsStatusName returns a human-readable logistics order status.
func LogisticsStatusName(s LogisticsStatus) string {
	switch s {
	case LogisticsPending:
		return "pending"
	case LogisticsAssigned:
		return "assigned"
	case LogisticsInTransit:
		return "in_transit"
	case LogisticsDelivered:
		return "delivered"
	case LogisticsFailed:
		return "failed"
	case LogisticsCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// logisticsEdges lists the legal logistics-order transitions. Delivered is
// terminal and unreachable without passing assigned and in_transit.
var logisticsEdges = map[LogisticsStatus][]LogisticsStatus{
	LogisticsPending:   {LogisticsAssigned, LogisticsCancelled, LogisticsFailed},
	LogisticsAssigned:  {LogisticsInTransit, LogisticsCancelled, LogisticsFailed},
	LogisticsInTransit: {LogisticsDelivered, LogisticsFailed},
}

// LogisticsOrder is a delivery task: move cargo from one location to another
// with a matched driver and vehicle, for payment.
type LogisticsOrder struct {
	ID       uint64  `json:"id"`
	ParentID *uint64 `json:"parent_id,omitempty"` // goods order this fulfills

	FromID  uint64              `json:"from_id"`
	ToID    uint64              `json:"to_id"`
	Cargo   map[econ.GoodID]int `json:"cargo"`
	Payment int64               `json:"payment"` // credits to the vehicle owner
	Urgent  bool                `json:"urgent"`

	Status    LogisticsStatus `json:"status"`
	DriverID  *agents.AgentID `json:"driver_id,omitempty"`
	VehicleID *uint64         `json:"vehicle_id,omitempty"`

	CreatedPhase uint64 `json:"created_phase"`
	UpdatedPhase uint64 `json:"updated_phase"`
}

// Active reports whether the order is still in flight.
func (o *LogisticsOrder) Active() bool {
	switch o.Status {
	case LogisticsPending, LogisticsAssigned, LogisticsInTransit:
		return true
	}
	return false
}

// CargoUnits returns the unit space the cargo occupies.
func (o *LogisticsOrder) CargoUnits(cat econ.Catalog) int {
	units := 0
	for id, qty := range o.Cargo {
		units += qty * cat.UnitSize(id)
	}
	return units
}

// Transition moves the order to a new status, rejecting illegal edges.
func (o *LogisticsOrder) Transition(to LogisticsStatus, phase uint64) error {
	for _, next := range logisticsEdges[o.Status] {
		if next == to {
			o.Status = to
			o.UpdatedPhase = phase
			return nil
		}
	}
	return fmt.Errorf("logistics order %d: illegal transition %s -> %s",
		o.ID, LogisticsStatusName(o.Status), LogisticsStatusName(to))
}
