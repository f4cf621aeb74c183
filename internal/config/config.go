// Package config provides the balance configuration: goods catalog, salary
// tables, location templates, behavior thresholds, business rules, transport
// profiles, and pipeline timeouts. Loaded once before the simulation starts.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/emberline/civitas/internal/agents"
	"github.com/emberline/civitas/internal/city"
	"github.com/emberline/civitas/internal/econ"
	"github.com/emberline/civitas/internal/world"
)

// SalaryRange gives the weekly pay band for one skill tier.
type SalaryRange struct {
	Min int64 `yaml:"min"`
	Max int64 `yaml:"max"`
}

// LocationTemplate is the balance sheet for one kind of location.
type LocationTemplate struct {
	Name          string           `yaml:"name"`
	Tags          []string         `yaml:"tags"`
	OpeningCost   int64            `yaml:"opening_cost"`
	EmployeeSlots int              `yaml:"employee_slots"`
	ResidentSlots int              `yaml:"resident_slots"`
	Capacity      int              `yaml:"capacity"`
	Rent          int64            `yaml:"rent"`
	OperatingCost int64            `yaml:"operating_cost"`
	SalaryTier    string           `yaml:"salary_tier"`
	Production    *city.Production `yaml:"production,omitempty"`
	Stocks        []econ.GoodID    `yaml:"stocks,omitempty"`
}

// Thresholds holds the behavior trigger constants.
type Thresholds struct {
	EmergencyHunger float64 `yaml:"emergency_hunger"` // critical food redirect
	HungryAt        float64 `yaml:"hungry_at"`        // normal eat/buy trigger
	FatigueForced   float64 `yaml:"fatigue_forced"`   // rest in place
	FatigueUrgent   float64 `yaml:"fatigue_urgent"`   // head home, high priority
	FatigueSeeking  float64 `yaml:"fatigue_seeking"`  // head home when idle
	LeisureAt       float64 `yaml:"leisure_at"`       // seek leisure trigger

	RestockLevel int `yaml:"restock_level"` // retail reorders below this

	MealNutrition   float64 `yaml:"meal_nutrition"`
	RestRecovery    float64 `yaml:"rest_recovery"`
	LeisureRelief   float64 `yaml:"leisure_relief"`
	StarvationGrace uint64  `yaml:"starvation_grace"` // phases at max hunger before death

	ShiftPhases uint64 `yaml:"shift_phases"` // length of one work shift
	BreakPhases uint64 `yaml:"break_phases"` // rest between shifts
}

// Rules holds the business-rule constants.
type Rules struct {
	OwnerDividend       int64   `yaml:"owner_dividend"`
	HiringBufferWeeks   int64   `yaml:"hiring_buffer_weeks"`   // wallet must cover this many weeks of a new salary
	EntrepreneurChance  float64 `yaml:"entrepreneur_chance"`   // per evaluation
	FounderCapitalShare float64 `yaml:"founder_capital_share"` // fraction of wallet invested
	MinFoundingCapital  int64   `yaml:"min_founding_capital"`
	DriverFatigueLimit  float64 `yaml:"driver_fatigue_limit"`
	DeliveryBaseFee     int64   `yaml:"delivery_base_fee"`
	DeliveryPerUnitFee  int64   `yaml:"delivery_per_unit_fee"`

	CompetitionPenalty float64 `yaml:"competition_penalty"` // per existing supplier
	SaturationWeight   float64 `yaml:"saturation_weight"`
	AgentsPerSupplier  float64 `yaml:"agents_per_supplier"` // target market ratio
}

// Timeouts holds the order-pipeline cleanup constants, in phases.
type Timeouts struct {
	LogisticsStuck uint64 `yaml:"logistics_stuck"`
	GoodsPending   uint64 `yaml:"goods_pending"`
	GoodsReady     uint64 `yaml:"goods_ready"`
}

// Intervals holds how often the periodic passes run, in phases.
type Intervals struct {
	Procurement uint64 `yaml:"procurement"`
	Coordinator uint64 `yaml:"coordinator"`
}

// Balance is the complete tunable configuration.
type Balance struct {
	Goods       []econ.Good            `yaml:"goods"`
	SalaryTiers map[string]SalaryRange `yaml:"salary_tiers"`
	Templates   []LocationTemplate     `yaml:"templates"`

	NeedRates  agents.NeedRates `yaml:"need_rates"`
	Thresholds Thresholds       `yaml:"thresholds"`
	Rules      Rules            `yaml:"rules"`
	Timeouts   Timeouts         `yaml:"timeouts"`
	Intervals  Intervals        `yaml:"intervals"`

	Walk    world.ModeProfile `yaml:"walk"`
	Vehicle world.ModeProfile `yaml:"vehicle"`
}

// Catalog builds the goods lookup from the configured list.
func (b *Balance) Catalog() econ.Catalog {
	cat := make(econ.Catalog, len(b.Goods))
	for _, g := range b.Goods {
		cat[g.ID] = g
	}
	return cat
}

// Template returns the named location template, or nil.
func (b *Balance) Template(name string) *LocationTemplate {
	for i := range b.Templates {
		if b.Templates[i].Name == name {
			return &b.Templates[i]
		}
	}
	return nil
}

// Salary returns the midpoint pay for a tier, 0 for unknown tiers.
func (b *Balance) Salary(tier string) int64 {
	r, ok := b.SalaryTiers[tier]
	if !ok {
		return 0
	}
	return (r.Min + r.Max) / 2
}

// Profile returns the cost profile for a transport mode.
func (b *Balance) Profile(m world.TransportMode) world.ModeProfile {
	if m == world.ModeVehicle {
		return b.Vehicle
	}
	return b.Walk
}

// Default returns the shipped balance values. Load overlays a YAML file on
// top of these.
func Default() *Balance {
	return &Balance{
		Goods: []econ.Good{
			{ID: econ.GoodProvisions, Name: "Provisions", RetailPrice: 8, WholesalePrice: 5, UnitSize: 1,
				Demand: econ.DemandConsumer, DemandNeed: "hunger", NeedThreshold: 50},
			{ID: econ.GoodWares, Name: "Wares", RetailPrice: 14, WholesalePrice: 9, UnitSize: 2,
				Demand: econ.DemandNone},
			{ID: econ.GoodMedia, Name: "Media", RetailPrice: 10, WholesalePrice: 6, UnitSize: 1,
				Demand: econ.DemandConsumer, DemandNeed: "leisure", NeedThreshold: 60},
			{ID: econ.GoodMaterials, Name: "Materials", RetailPrice: 20, WholesalePrice: 12, UnitSize: 4,
				Demand: econ.DemandNone},
			{ID: econ.GoodData, Name: "Data", RetailPrice: 30, WholesalePrice: 18, UnitSize: 1,
				Demand: econ.DemandBusiness, BusinessCondition: "producer_without_storage"},
		},
		SalaryTiers: map[string]SalaryRange{
			"entry":   {Min: 40, Max: 60},
			"skilled": {Min: 70, Max: 110},
			"senior":  {Min: 120, Max: 180},
		},
		Templates: []LocationTemplate{
			{Name: "corner_shop", Tags: []string{city.RoleRetail}, OpeningCost: 600,
				EmployeeSlots: 2, Capacity: 120, Rent: 0, OperatingCost: 30,
				SalaryTier: "entry", Stocks: []econ.GoodID{econ.GoodProvisions, econ.GoodMedia}},
			{Name: "warehouse", Tags: []string{city.RoleStorage, city.RoleWholesale}, OpeningCost: 1200,
				EmployeeSlots: 3, Capacity: 600, OperatingCost: 45, SalaryTier: "entry",
				Stocks: []econ.GoodID{econ.GoodProvisions, econ.GoodWares, econ.GoodMaterials}},
			{Name: "food_plant", Tags: []string{city.RoleFactory}, OpeningCost: 2000,
				EmployeeSlots: 5, Capacity: 400, OperatingCost: 60, SalaryTier: "skilled",
				Production: &city.Production{Good: econ.GoodProvisions, RatePerEmployee: 3, CyclePhases: 4}},
			{Name: "mill", Tags: []string{city.RoleFactory}, OpeningCost: 2400,
				EmployeeSlots: 4, Capacity: 400, OperatingCost: 70, SalaryTier: "skilled",
				Production: &city.Production{Good: econ.GoodMaterials, RatePerEmployee: 1, CyclePhases: 4}},
			{Name: "studio", Tags: []string{city.RoleOffice}, OpeningCost: 1500,
				EmployeeSlots: 3, Capacity: 100, OperatingCost: 50, SalaryTier: "senior",
				Production: &city.Production{Good: econ.GoodData, RatePerEmployee: 2, CyclePhases: 28}},
			{Name: "tenement", Tags: []string{city.RoleResidential}, OpeningCost: 1800,
				ResidentSlots: 12, Capacity: 40, Rent: 25, OperatingCost: 20, SalaryTier: "entry"},
			{Name: "arcade", Tags: []string{city.RoleLeisure}, OpeningCost: 900,
				EmployeeSlots: 2, Capacity: 80, OperatingCost: 35, SalaryTier: "entry",
				Stocks: []econ.GoodID{econ.GoodMedia}},
			{Name: "freight_depot", Tags: []string{city.RoleDepot}, OpeningCost: 2500,
				EmployeeSlots: 4, Capacity: 300, OperatingCost: 80, SalaryTier: "skilled"},
			{Name: "plaza", Tags: []string{city.RolePublic}, OpeningCost: 0, Capacity: 0},
		},
		NeedRates: agents.NeedRates{
			Hunger:        1.1,
			FatigueIdle:   0.4,
			FatigueActive: 2.2,
			Leisure:       0.7,
		},
		Thresholds: Thresholds{
			EmergencyHunger: 80,
			HungryAt:        50,
			FatigueForced:   100,
			FatigueUrgent:   90,
			FatigueSeeking:  70,
			LeisureAt:       65,
			RestockLevel:    10,
			MealNutrition:   55,
			RestRecovery:    18,
			LeisureRelief:   25,
			StarvationGrace: 16,
			ShiftPhases:     3,
			BreakPhases:     4,
		},
		Rules: Rules{
			OwnerDividend:       75,
			HiringBufferWeeks:   2,
			EntrepreneurChance:  0.02,
			FounderCapitalShare: 0.8,
			MinFoundingCapital:  1000,
			DriverFatigueLimit:  85,
			DeliveryBaseFee:     20,
			DeliveryPerUnitFee:  1,
			CompetitionPenalty:  8,
			SaturationWeight:    20,
			AgentsPerSupplier:   40,
		},
		Timeouts: Timeouts{
			LogisticsStuck: 24,
			GoodsPending:   112,
			GoodsReady:     28,
		},
		Intervals: Intervals{
			Procurement: 8,
			Coordinator: 4,
		},
		Walk:    world.ModeProfile{Near: 6, Mid: 20, Far: 45, MaxPhases: 3},
		Vehicle: world.ModeProfile{Near: 15, Mid: 45, Far: 90, MaxPhases: 2},
	}
}

// Load reads a YAML balance file over the defaults.
func Load(path string) (*Balance, error) {
	b := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read balance: %w", err)
	}
	if err := yaml.Unmarshal(raw, b); err != nil {
		return nil, fmt.Errorf("parse balance %s: %w", path, err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("balance %s: %w", path, err)
	}
	return b, nil
}

// Validate rejects configurations the simulation cannot run on.
func (b *Balance) Validate() error {
	if len(b.Goods) == 0 {
		return fmt.Errorf("no goods configured")
	}
	seen := make(map[econ.GoodID]bool, len(b.Goods))
	for _, g := range b.Goods {
		if g.ID == "" {
			return fmt.Errorf("good with empty id")
		}
		if seen[g.ID] {
			return fmt.Errorf("duplicate good %q", g.ID)
		}
		seen[g.ID] = true
		if g.UnitSize <= 0 {
			return fmt.Errorf("good %q: unit size must be positive", g.ID)
		}
		if g.RetailPrice < g.WholesalePrice {
			return fmt.Errorf("good %q: retail below wholesale", g.ID)
		}
	}
	for _, t := range b.Templates {
		if t.Name == "" {
			return fmt.Errorf("template with empty name")
		}
		if t.SalaryTier != "" {
			if _, ok := b.SalaryTiers[t.SalaryTier]; !ok {
				return fmt.Errorf("template %q: unknown salary tier %q", t.Name, t.SalaryTier)
			}
		}
		if t.Production != nil {
			if !seen[t.Production.Good] {
				return fmt.Errorf("template %q: produces unknown good %q", t.Name, t.Production.Good)
			}
			if t.Production.CyclePhases == 0 {
				return fmt.Errorf("template %q: production cycle must be positive", t.Name)
			}
		}
		for _, g := range t.Stocks {
			if !seen[g] {
				return fmt.Errorf("template %q: stocks unknown good %q", t.Name, g)
			}
		}
	}
	if b.Thresholds.ShiftPhases == 0 {
		return fmt.Errorf("shift length must be positive")
	}
	if b.Intervals.Procurement == 0 || b.Intervals.Coordinator == 0 {
		return fmt.Errorf("intervals must be positive")
	}
	return nil
}
