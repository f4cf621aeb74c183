package city

import (
	"github.com/emberline/civitas/internal/agents"
	"github.com/emberline/civitas/internal/econ"
	"github.com/emberline/civitas/internal/world"
)

// Location tags with simulation meaning. A location may carry several.
const (
	RoleRetail      = "retail"
	RoleWholesale   = "wholesale"
	RoleResidential = "residential"
	RoleStorage     = "storage"
	RoleFactory     = "factory"
	RoleOffice      = "office"
	RoleLeisure     = "leisure"
	RoleDepot       = "depot"
	RolePublic      = "public"
)

// Production configures goods output at a location: every CyclePhases, each
// physically present employee yields RatePerEmployee units.
type Production struct {
	Good            econ.GoodID `json:"good" yaml:"good"`
	RatePerEmployee int         `json:"rate_per_employee" yaml:"rate_per_employee"`
	CyclePhases     uint64      `json:"cycle_phases" yaml:"cycle_phases"`
}

// Location is a building or site in the city. OwnerID nil means the location
// is orphaned: for sale, no employees, residents retained.
type Location struct {
	ID       uint64      `json:"id"`
	Name     string      `json:"name"`
	Template string      `json:"template"` // balance template this was built from
	OwnerID  *uint64     `json:"owner_id,omitempty"`
	ForSale  bool        `json:"for_sale"`
	Tags     []string    `json:"tags"`
	Pos      world.Point `json:"pos"`

	Inventory econ.Inventory `json:"inventory"`

	EmployeeSlots int              `json:"employee_slots"`
	Employees     []agents.AgentID `json:"employees"`
	SalaryTier    string           `json:"salary_tier,omitempty"`

	ResidentSlots int              `json:"resident_slots"`
	Residents     []agents.AgentID `json:"residents"`
	Rent          int64            `json:"rent"`

	OperatingCost int64       `json:"operating_cost"`
	Production    *Production `json:"production,omitempty"`

	// Stocks lists the goods a retail/wholesale location carries and
	// restocks.
	Stocks []econ.GoodID `json:"stocks,omitempty"`
}

// HasTag reports whether the location carries the given tag.
func (l *Location) HasTag(tag string) bool {
	for _, t := range l.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// OpenSlots returns the number of unfilled employee positions.
func (l *Location) OpenSlots() int {
	n := l.EmployeeSlots - len(l.Employees)
	if n < 0 {
		return 0
	}
	return n
}

// OpenResidences returns the number of unfilled resident slots.
func (l *Location) OpenResidences() int {
	n := l.ResidentSlots - len(l.Residents)
	if n < 0 {
		return 0
	}
	return n
}

// AddEmployee appends an agent to the employee list if not already present.
func (l *Location) AddEmployee(id agents.AgentID) {
	for _, e := range l.Employees {
		if e == id {
			return
		}
	}
	l.Employees = append(l.Employees, id)
}

// RemoveEmployee drops an agent from the employee list.
func (l *Location) RemoveEmployee(id agents.AgentID) {
	for i, e := range l.Employees {
		if e == id {
			l.Employees = append(l.Employees[:i], l.Employees[i+1:]...)
			return
		}
	}
}

// AddResident appends an agent to the resident list if not already present.
func (l *Location) AddResident(id agents.AgentID) {
	for _, r := range l.Residents {
		if r == id {
			return
		}
	}
	l.Residents = append(l.Residents, id)
}

// RemoveResident drops an agent from the resident list.
func (l *Location) RemoveResident(id agents.AgentID) {
	for i, r := range l.Residents {
		if r == id {
			l.Residents = append(l.Residents[:i], l.Residents[i+1:]...)
			return
		}
	}
}

// Stocks reports whether the location carries the given good line.
func (l *Location) StocksGood(id econ.GoodID) bool {
	for _, g := range l.Stocks {
		if g == id {
			return true
		}
	}
	return false
}

// Orphan clears ownership: the location goes on the market, employment is
// severed by the caller, residents stay.
func (l *Location) Orphan() {
	l.OwnerID = nil
	l.ForSale = true
	l.Employees = nil
}
