package econ

// Inventory is capacity-aware goods storage. Capacity is measured in unit
// space: the sum over goods of count × unit size never exceeds it.
type Inventory struct {
	Items    map[GoodID]int `json:"items"`
	Capacity int            `json:"capacity"`
}

// NewInventory creates an empty inventory with the given unit-space capacity.
func NewInventory(capacity int) Inventory {
	return Inventory{Items: make(map[GoodID]int), Capacity: capacity}
}

// Count returns the stored quantity of a good.
func (inv *Inventory) Count(id GoodID) int {
	return inv.Items[id]
}

// Used returns the unit space currently occupied.
func (inv *Inventory) Used(cat Catalog) int {
	used := 0
	for id, qty := range inv.Items {
		used += qty * cat.UnitSize(id)
	}
	return used
}

// Free returns the unit space remaining.
func (inv *Inventory) Free(cat Catalog) int {
	free := inv.Capacity - inv.Used(cat)
	if free < 0 {
		return 0
	}
	return free
}

// Add stores up to qty units of a good, capped by remaining capacity, and
// returns the quantity actually accepted.
func (inv *Inventory) Add(cat Catalog, id GoodID, qty int) int {
	if qty <= 0 {
		return 0
	}
	size := cat.UnitSize(id)
	fits := inv.Free(cat) / size
	if fits < qty {
		qty = fits
	}
	if qty <= 0 {
		return 0
	}
	if inv.Items == nil {
		inv.Items = make(map[GoodID]int)
	}
	inv.Items[id] += qty
	return qty
}

// Remove takes up to qty units of a good and returns the quantity actually
// removed. The entry is deleted when it reaches zero so iteration stays
// clean.
func (inv *Inventory) Remove(id GoodID, qty int) int {
	if qty <= 0 {
		return 0
	}
	have := inv.Items[id]
	if have < qty {
		qty = have
	}
	if qty <= 0 {
		return 0
	}
	if have == qty {
		delete(inv.Items, id)
	} else {
		inv.Items[id] = have - qty
	}
	return qty
}

// Fits reports whether qty units of a good would fit without exceeding
// capacity.
func (inv *Inventory) Fits(cat Catalog, id GoodID, qty int) bool {
	return inv.Free(cat) >= qty*cat.UnitSize(id)
}

// IsEmpty reports whether the inventory holds nothing.
func (inv *Inventory) IsEmpty() bool {
	for _, qty := range inv.Items {
		if qty != 0 {
			return false
		}
	}
	return true
}

// Clone returns a deep copy. Snapshots and tests use this so a saved state
// cannot alias live storage.
func (inv Inventory) Clone() Inventory {
	out := Inventory{Items: make(map[GoodID]int, len(inv.Items)), Capacity: inv.Capacity}
	for id, qty := range inv.Items {
		out.Items[id] = qty
	}
	return out
}
