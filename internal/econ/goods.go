// Package econ provides the goods catalog and capacity-aware inventories
// shared by agents, locations, and vehicles.
package econ

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// GoodID identifies a good in the catalog.
type GoodID string

// Well-known goods referenced directly by simulation rules. The catalog may
// define more; these are the ones behavior and demand scoring key on.
const (
	GoodProvisions GoodID = "provisions" // staple food
	GoodMaterials  GoodID = "materials"  // construction/industrial input
	GoodWares      GoodID = "wares"      // general retail stock
	GoodMedia      GoodID = "media"      // leisure consumable
	GoodData       GoodID = "data"       // business-to-business product
)

// DemandType classifies how demand for a good is scored.
type DemandType uint8

const (
	DemandNone     DemandType = iota // not scored
	DemandConsumer                   // counted over agents with an unmet need
	DemandBusiness                   // counted over orgs matching a condition
)

// UnmarshalYAML accepts the symbolic demand names used in balance files.
func (d *DemandType) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch s {
	case "", "none":
		*d = DemandNone
	case "consumer":
		*d = DemandConsumer
	case "business":
		*d = DemandBusiness
	default:
		return fmt.Errorf("unknown demand type %q", s)
	}
	return nil
}

// MarshalYAML emits the symbolic demand name.
func (d DemandType) MarshalYAML() (any, error) {
	switch d {
	case DemandConsumer:
		return "consumer", nil
	case DemandBusiness:
		return "business", nil
	default:
		return "none", nil
	}
}

// Good describes one catalog entry.
type Good struct {
	ID             GoodID     `yaml:"id" json:"id"`
	Name           string     `yaml:"name" json:"name"`
	RetailPrice    int64      `yaml:"retail_price" json:"retail_price"`
	WholesalePrice int64      `yaml:"wholesale_price" json:"wholesale_price"`
	UnitSize       int        `yaml:"unit_size" json:"unit_size"`
	Demand         DemandType `yaml:"demand" json:"demand"`

	// NeedThreshold is the need level above which an agent counts toward
	// consumer demand. Which need applies is given by DemandNeed.
	NeedThreshold float64 `yaml:"need_threshold" json:"need_threshold"`
	DemandNeed    string  `yaml:"demand_need" json:"demand_need"` // "hunger" | "leisure"

	// BusinessCondition names the structural org condition counted toward
	// business demand, e.g. "producer_without_storage".
	BusinessCondition string `yaml:"business_condition" json:"business_condition"`
}

// Catalog maps good IDs to their definitions.
type Catalog map[GoodID]Good

// UnitSize returns the unit size for a good, defaulting to 1 for goods the
// catalog does not know.
func (c Catalog) UnitSize(id GoodID) int {
	if g, ok := c[id]; ok && g.UnitSize > 0 {
		return g.UnitSize
	}
	return 1
}

// Retail returns the retail price for a good, 0 if unknown.
func (c Catalog) Retail(id GoodID) int64 {
	return c[id].RetailPrice
}

// Wholesale returns the wholesale price for a good, 0 if unknown.
func (c Catalog) Wholesale(id GoodID) int64 {
	return c[id].WholesalePrice
}
