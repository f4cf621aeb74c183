package city

import (
	"github.com/emberline/civitas/internal/agents"
	"github.com/emberline/civitas/internal/econ"
)

// CargoCapacity is the hold size of a standard delivery vehicle, in
// inventory units.
const CargoCapacity = 160

// Vehicle is a cargo carrier owned by an org and driven by at most one
// agent. While a driver is in transit the vehicle has no location.
type Vehicle struct {
	ID         uint64          `json:"id"`
	Name       string          `json:"name"`
	OwnerID    *uint64         `json:"owner_id,omitempty"` // org; nil when ownerless
	OperatorID *agents.AgentID `json:"operator_id,omitempty"`

	Cargo econ.Inventory `json:"cargo"`

	// LocationID is where the vehicle is parked; nil while moving with its
	// operator.
	LocationID *uint64 `json:"location_id,omitempty"`
}

// Free reports whether the vehicle can be assigned to a new delivery.
func (v *Vehicle) Free() bool {
	return v.OperatorID == nil && v.LocationID != nil
}

// Release detaches the operator and parks the vehicle at the given location.
func (v *Vehicle) Release(at *uint64) {
	v.OperatorID = nil
	if at != nil {
		v.LocationID = at
	}
}
