// Demand analysis — scores unmet market demand to pick what kind of
// business a would-be founder opens. The market can genuinely return no
// good opportunity; there is no fallback business type.
package engine

import (
	"fmt"
	"strings"

	"github.com/emberline/civitas/internal/agents"
	"github.com/emberline/civitas/internal/city"
	"github.com/emberline/civitas/internal/config"
	"github.com/emberline/civitas/internal/econ"
	"github.com/emberline/civitas/internal/telemetry"
	"github.com/emberline/civitas/internal/world"
)

// Opportunity is one scored business opening.
type Opportunity struct {
	Good     econ.GoodID
	Template string
	Score    float64
}

// ScanOpportunities scores every configured demand line. finalScore = raw
// demand − competition penalty − saturation penalty; non-positive scores
// are excluded.
func (s *Simulation) ScanOpportunities() []Opportunity {
	var out []Opportunity
	alive := 0
	for _, a := range s.Agents {
		if a.Alive() {
			alive++
		}
	}

	for _, g := range s.Cfg.Goods {
		var raw float64
		switch g.Demand {
		case econ.DemandConsumer:
			raw = float64(s.consumerDemand(g))
		case econ.DemandBusiness:
			raw = float64(s.businessDemand(g))
		default:
			continue
		}

		tmpl := s.templateFor(g.ID)
		if tmpl == "" {
			continue
		}

		suppliers := s.supplierCount(g.ID)
		score := raw - float64(suppliers)*s.Cfg.Rules.CompetitionPenalty

		// Saturation: penalize markets already past the target
		// suppliers-per-capita ratio.
		if alive > 0 && s.Cfg.Rules.AgentsPerSupplier > 0 {
			target := float64(alive) / s.Cfg.Rules.AgentsPerSupplier
			if target > 0 {
				ratio := float64(suppliers) / target
				if ratio > 1 {
					score -= (ratio - 1) * s.Cfg.Rules.SaturationWeight
				}
			}
		}

		if score > 0 {
			out = append(out, Opportunity{Good: g.ID, Template: tmpl, Score: score})
		}
	}
	return out
}

// consumerDemand counts living agents whose relevant need is past the
// good's threshold, who can afford it, and (for food) hold none.
func (s *Simulation) consumerDemand(g econ.Good) int {
	count := 0
	for _, a := range s.Agents {
		if !a.Alive() || a.Wallet < g.RetailPrice {
			continue
		}
		var need float64
		switch g.DemandNeed {
		case "hunger":
			need = a.Needs.Hunger
		case "leisure":
			need = a.Needs.Leisure
		default:
			continue
		}
		if need < g.NeedThreshold {
			continue
		}
		if g.ID == econ.GoodProvisions && a.Inventory.Count(g.ID) > 0 {
			continue
		}
		count++
	}
	return count
}

// businessDemand counts orgs matching the good's structural condition.
func (s *Simulation) businessDemand(g econ.Good) int {
	switch g.BusinessCondition {
	case "producer_without_storage":
		count := 0
		for _, org := range s.Orgs {
			if org.Dissolved {
				continue
			}
			produces, stores := false, false
			for _, locID := range org.Locations {
				loc, ok := s.LocationIndex[locID]
				if !ok {
					continue
				}
				if loc.Production != nil {
					produces = true
				}
				if loc.HasTag(city.RoleStorage) {
					stores = true
				}
			}
			if produces && !stores {
				count++
			}
		}
		return count
	default:
		return 0
	}
}

// supplierCount counts owned locations already serving a good line: retail
// and leisure venues stocking it, plus producers of it.
func (s *Simulation) supplierCount(good econ.GoodID) int {
	count := 0
	for _, loc := range s.Locations {
		if loc.OwnerID == nil {
			continue
		}
		if loc.StocksGood(good) || (loc.Production != nil && loc.Production.Good == good) {
			count++
		}
	}
	return count
}

// templateFor maps a good to the location template a new supplier of it
// would open: a stocking template first, else a producing one.
func (s *Simulation) templateFor(good econ.GoodID) string {
	var producer string
	for _, t := range s.Cfg.Templates {
		for _, g := range t.Stocks {
			if g == good {
				return t.Name
			}
		}
		if t.Production != nil && t.Production.Good == good && producer == "" {
			producer = t.Name
		}
	}
	return producer
}

// PickOpportunity selects among positive-score opportunities with
// probability proportional to score. Nil when the market offers nothing.
func (s *Simulation) PickOpportunity() *Opportunity {
	opps := s.ScanOpportunities()
	if len(opps) == 0 {
		return nil
	}
	weights := make([]float64, len(opps))
	for i, o := range opps {
		weights[i] = o.Score
	}
	i := s.Rand.WeightedIndex(weights)
	if i < 0 {
		return nil
	}
	return &opps[i]
}

// foundBusiness has an agent spend capital on a new org and its first
// location, as chosen by the demand analyzer. A quiet market means no
// business is founded.
func (s *Simulation) foundBusiness(a *agents.Agent) {
	opp := s.PickOpportunity()
	if opp == nil {
		return
	}
	tmpl := s.Cfg.Template(opp.Template)
	if tmpl == nil {
		return
	}
	capital := int64(float64(a.Wallet) * s.Cfg.Rules.FounderCapitalShare)
	if capital < tmpl.OpeningCost {
		return
	}
	a.Wallet -= capital

	org := &city.Org{
		ID:                s.Rand.NextID(),
		Name:              s.newOrgName(),
		LeaderID:          a.ID,
		Wallet:            capital - tmpl.OpeningCost,
		Tags:              []string{city.TagCorporation},
		WeeklyPhaseOffset: uint64(s.Rand.Intn(PhasesPerWeek)),
		FoundedPhase:      s.Phase,
	}
	if tmpl.Name == "freight_depot" {
		org.Tags = append(org.Tags, city.TagLogistics)
	}

	loc := s.acquireLocation(org, tmpl, s.AgentPos(a))
	org.Locations = append(org.Locations, loc.ID)
	s.AddOrg(org)

	// A carrier is useless without a truck.
	if loc.HasTag(city.RoleDepot) {
		v := &city.Vehicle{
			ID:         s.Rand.NextID(),
			Name:       fmt.Sprintf("%s truck", org.Name),
			OwnerID:    &org.ID,
			Cargo:      econ.NewInventory(city.CargoCapacity),
			LocationID: &loc.ID,
		}
		s.AddVehicle(v)
	}

	s.Metrics.Inc(telemetry.MetricBusinessesFounded)
	s.record("economy", a.Name, uint64(a.ID),
		"%s founded %s, opening %s (%s market)", a.Name, org.Name, loc.Name, opp.Good)
}

// acquireLocation reuses an orphaned for-sale location built from the same
// template if one exists, else builds a new one near the founder.
func (s *Simulation) acquireLocation(org *city.Org, tmpl *config.LocationTemplate, near world.Point) *city.Location {
	reuse := s.nearestLocation(near, func(l *city.Location) bool {
		return l.ForSale && l.OwnerID == nil && l.Template == tmpl.Name
	})
	if reuse != nil {
		reuse.OwnerID = &org.ID
		reuse.ForSale = false
		return reuse
	}

	loc := &city.Location{
		ID:       s.Rand.NextID(),
		Name:     s.newLocationName(tmpl.Name),
		Template: tmpl.Name,
		OwnerID:  &org.ID,
		Tags:     append([]string(nil), tmpl.Tags...),
		Pos: world.Point{
			X: near.X + s.Rand.Intn(7) - 3,
			Y: near.Y + s.Rand.Intn(7) - 3,
		},
		Inventory:     econ.NewInventory(tmpl.Capacity),
		EmployeeSlots: tmpl.EmployeeSlots,
		SalaryTier:    tmpl.SalaryTier,
		ResidentSlots: tmpl.ResidentSlots,
		Rent:          tmpl.Rent,
		OperatingCost: tmpl.OperatingCost,
		Stocks:        append([]econ.GoodID(nil), tmpl.Stocks...),
	}
	if tmpl.Production != nil {
		p := *tmpl.Production
		loc.Production = &p
	}
	s.AddLocation(loc)
	return loc
}

var orgNameParts = struct{ first, second []string }{
	first:  []string{"Amber", "Cobalt", "Granite", "Harbor", "Ironleaf", "Meridian", "Northgate", "Quartz", "Silverline", "Vantage"},
	second: []string{"Trading Co", "Holdings", "Works", "Supply", "Collective", "Group", "Ventures", "Mercantile"},
}

// newOrgName produces a fresh display name for a founded org.
func (s *Simulation) newOrgName() string {
	first := orgNameParts.first[s.Rand.Intn(len(orgNameParts.first))]
	second := orgNameParts.second[s.Rand.Intn(len(orgNameParts.second))]
	name := first + " " + second
	for _, o := range s.Orgs {
		if o.Name == name {
			return fmt.Sprintf("%s %d", name, s.Rand.Intn(90)+10)
		}
	}
	return name
}

// newLocationName derives a site name from its template.
func (s *Simulation) newLocationName(template string) string {
	return fmt.Sprintf("%s %d", strings.ReplaceAll(template, "_", " "), s.Rand.Intn(900)+100)
}
