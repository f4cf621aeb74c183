// Package citygen builds a starting city: districts laid out over a simplex
// density field, orgs owning the buildings, a seeded population with jobs
// and homes, and stocked shelves so the economy has something to sell on
// day one.
package citygen

import (
	"fmt"
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/emberline/civitas/internal/agents"
	"github.com/emberline/civitas/internal/city"
	"github.com/emberline/civitas/internal/config"
	"github.com/emberline/civitas/internal/econ"
	"github.com/emberline/civitas/internal/engine"
	"github.com/emberline/civitas/internal/entropy"
	"github.com/emberline/civitas/internal/world"
)

// GenConfig controls initial city generation.
type GenConfig struct {
	Seed   int64
	Agents int
	Radius int // city half-width in grid units
}

// DefaultGenConfig returns a mid-size city.
func DefaultGenConfig() GenConfig {
	return GenConfig{Seed: 1, Agents: 300, Radius: 60}
}

// SmallTestConfig returns a tiny city for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{Seed: 42, Agents: 40, Radius: 25}
}

type generator struct {
	cfg GenConfig
	bal *config.Balance
	src *entropy.Source

	density opensimplex.Noise
	height  opensimplex.Noise

	orgs      []*city.Org
	locations []*city.Location
	vehicles  []*city.Vehicle
	agents    []*agents.Agent
}

// Generate creates a fully wired simulation from the config.
func Generate(cfg GenConfig, bal *config.Balance) *engine.Simulation {
	if cfg.Agents <= 0 {
		cfg.Agents = 100
	}
	if cfg.Radius <= 0 {
		cfg.Radius = 40
	}

	g := &generator{
		cfg:     cfg,
		bal:     bal,
		src:     entropy.NewSource(cfg.Seed),
		density: opensimplex.NewNormalized(cfg.Seed),
		height:  opensimplex.NewNormalized(cfg.Seed + 1),
	}

	g.placeBuildings()
	g.foundCompanies()
	g.spawnPopulation()
	g.stockShelves()

	return engine.New(bal, g.src, g.agents, g.orgs, g.locations, g.vehicles)
}

// placeBuildings lays out the city. Dense center blocks get housing, retail,
// and leisure; the sparse rim gets plants, warehouses, and the freight depot.
func (g *generator) placeBuildings() {
	n := g.cfg.Agents

	g.placeMany("plaza", 1, 0.0)
	g.placeMany("tenement", n/10+1, 0.55)
	g.placeMany("corner_shop", n/25+1, 0.5)
	g.placeMany("arcade", n/80+1, 0.5)
	g.placeMany("studio", n/250+1, 0.45)
	g.placeMany("food_plant", n/120+1, 0.2)
	g.placeMany("mill", n/200+1, 0.15)
	g.placeMany("warehouse", n/150+1, 0.2)
	g.placeMany("freight_depot", n/150+1, 0.15)
}

// placeMany builds count locations from a template, each at a spot whose
// sampled density is near the wanted band.
func (g *generator) placeMany(template string, count int, wantDensity float64) {
	tmpl := g.bal.Template(template)
	if tmpl == nil {
		return
	}
	for i := 0; i < count; i++ {
		pos := g.pickSite(wantDensity)
		loc := &city.Location{
			ID:            g.src.NextID(),
			Name:          fmt.Sprintf("%s %d", displayName(template), i+1),
			Template:      tmpl.Name,
			Tags:          append([]string(nil), tmpl.Tags...),
			Pos:           pos,
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
		g.locations = append(g.locations, loc)
	}
}

// pickSite samples candidate points and keeps the one whose density best
// matches the target band. Upper floors appear where the height field runs
// high, mimicking taller blocks downtown.
func (g *generator) pickSite(wantDensity float64) world.Point {
	r := g.cfg.Radius
	best := world.Point{}
	bestScore := math.Inf(1)

	for try := 0; try < 12; try++ {
		x := g.src.Intn(2*r+1) - r
		y := g.src.Intn(2*r+1) - r

		// Radial falloff concentrates density downtown.
		dist := math.Sqrt(float64(x*x+y*y)) / float64(r)
		d := g.density.Eval2(float64(x)*0.05, float64(y)*0.05) * (1.0 - dist*0.7)

		score := math.Abs(d - wantDensity)
		if score < bestScore {
			bestScore = score
			floor := 0
			if g.height.Eval2(float64(x)*0.08, float64(y)*0.08) > 0.75 {
				floor = 1 + g.src.Intn(3)
			}
			best = world.Point{X: x, Y: y, Floor: floor}
		}
	}
	return best
}

// foundCompanies groups the buildings into orgs: one producer org per plant
// (bundled with a warehouse while any remain unclaimed), a retail chain, a
// landlord, a leisure operator, and a carrier per depot with two trucks.
func (g *generator) foundCompanies() {
	byTemplate := make(map[string][]*city.Location)
	for _, loc := range g.locations {
		byTemplate[loc.Template] = append(byTemplate[loc.Template], loc)
	}

	warehouses := byTemplate["warehouse"]
	takeWarehouse := func() *city.Location {
		if len(warehouses) == 0 {
			return nil
		}
		w := warehouses[0]
		warehouses = warehouses[1:]
		return w
	}

	for _, plant := range append(append([]*city.Location(nil), byTemplate["food_plant"]...), byTemplate["mill"]...) {
		locs := []*city.Location{plant}
		if w := takeWarehouse(); w != nil {
			locs = append(locs, w)
		}
		g.newOrg(fmt.Sprintf("%s Industries", pickName(g.src, orgFirstNames)), locs, nil)
	}
	for _, studio := range byTemplate["studio"] {
		g.newOrg(fmt.Sprintf("%s Media", pickName(g.src, orgFirstNames)), []*city.Location{studio}, nil)
	}
	// Leftover warehouses become an independent wholesaler.
	if len(warehouses) > 0 {
		g.newOrg(fmt.Sprintf("%s Supply", pickName(g.src, orgFirstNames)), warehouses, nil)
	}
	if shops := byTemplate["corner_shop"]; len(shops) > 0 {
		g.newOrg(fmt.Sprintf("%s Mercantile", pickName(g.src, orgFirstNames)), shops, nil)
	}
	if homes := byTemplate["tenement"]; len(homes) > 0 {
		g.newOrg(fmt.Sprintf("%s Estates", pickName(g.src, orgFirstNames)), homes, nil)
	}
	if venues := byTemplate["arcade"]; len(venues) > 0 {
		g.newOrg(fmt.Sprintf("%s Amusements", pickName(g.src, orgFirstNames)), venues, nil)
	}
	for i, depot := range byTemplate["freight_depot"] {
		org := g.newOrg(fmt.Sprintf("%s Freight", pickName(g.src, orgFirstNames)),
			[]*city.Location{depot}, []string{city.TagLogistics})
		for t := 0; t < 2; t++ {
			g.vehicles = append(g.vehicles, &city.Vehicle{
				ID:         g.src.NextID(),
				Name:       fmt.Sprintf("truck %d-%d", i+1, t+1),
				OwnerID:    &org.ID,
				Cargo:      econ.NewInventory(city.CargoCapacity),
				LocationID: &depot.ID,
			})
		}
	}
}

func (g *generator) newOrg(name string, locs []*city.Location, extraTags []string) *city.Org {
	org := &city.Org{
		ID:                g.src.NextID(),
		Name:              name,
		Wallet:            3000 + int64(g.src.Intn(4000)),
		Tags:              append([]string{city.TagCorporation}, extraTags...),
		WeeklyPhaseOffset: uint64(g.src.Intn(engine.PhasesPerWeek)),
	}
	for _, loc := range locs {
		loc.OwnerID = &org.ID
		org.Locations = append(org.Locations, loc.ID)
	}
	g.orgs = append(g.orgs, org)
	return org
}

// spawnPopulation creates the citizens, houses them, fills job slots, and
// promotes one employee of each org to leader.
func (g *generator) spawnPopulation() {
	var homes []*city.Location
	for _, loc := range g.locations {
		if loc.ResidentSlots > 0 {
			homes = append(homes, loc)
		}
	}
	plaza := g.publicSquare()

	for i := 0; i < g.cfg.Agents; i++ {
		a := &agents.Agent{
			ID:     agents.AgentID(g.src.NextID()),
			Name:   fmt.Sprintf("%s %s", pickName(g.src, givenNames), pickName(g.src, familyNames)),
			Status: agents.StatusAvailable,
			Needs: agents.NeedsState{
				Hunger:  10 + g.src.Float()*30,
				Fatigue: 10 + g.src.Float()*30,
				Leisure: 10 + g.src.Float()*40,
			},
			Inventory: econ.NewInventory(12),
			Wallet:    150 + int64(g.src.Intn(350)),
		}

		// House round-robin until the slots run out; the rest start at the
		// plaza and look for housing themselves.
		housed := false
		for tries := 0; tries < len(homes); tries++ {
			home := homes[(i+tries)%len(homes)]
			if home.OpenResidences() > 0 {
				home.AddResident(a.ID)
				a.ResidenceID = &home.ID
				a.LocationID = &home.ID
				housed = true
				break
			}
		}
		if !housed && plaza != nil {
			a.LocationID = &plaza.ID
		}

		g.agents = append(g.agents, a)
	}

	g.fillJobs()
}

// fillJobs walks every workplace and staffs it from the unemployed pool,
// staggering first shifts across the day.
func (g *generator) fillJobs() {
	orgOf := make(map[uint64]*city.Org)
	for _, org := range g.orgs {
		for _, id := range org.Locations {
			orgOf[id] = org
		}
	}

	next := 0
	for _, loc := range g.locations {
		org := orgOf[loc.ID]
		if org == nil {
			continue
		}
		for loc.OpenSlots() > 0 && next < len(g.agents) {
			a := g.agents[next]
			next++
			if a.Employed() {
				continue
			}
			salary := g.bal.Salary(loc.SalaryTier)
			if salary <= 0 {
				break
			}
			a.Status = agents.StatusEmployed
			a.Employment = agents.Employment{
				EmployerID:  &org.ID,
				WorkplaceID: &loc.ID,
				Salary:      salary,
			}
			a.NextShiftPhase = uint64(g.src.Intn(engine.PhasesPerDay))
			loc.AddEmployee(a.ID)
			if org.LeaderID == 0 {
				org.LeaderID = a.ID
			}
		}
	}

	// An org nobody works for still needs a leader on record.
	for _, org := range g.orgs {
		if org.LeaderID == 0 && len(g.agents) > 0 {
			org.LeaderID = g.agents[g.src.Intn(len(g.agents))].ID
		}
	}
}

// stockShelves seeds retail and wholesale inventory so the first week does
// not start from empty shelves.
func (g *generator) stockShelves() {
	for _, loc := range g.locations {
		for _, good := range loc.Stocks {
			qty := 30
			if loc.HasTag(city.RoleStorage) || loc.HasTag(city.RoleWholesale) {
				qty = 100
			}
			loc.Inventory.Add(g.bal.Catalog(), good, qty)
		}
	}
	for _, a := range g.agents {
		a.Inventory.Add(g.bal.Catalog(), econ.GoodProvisions, 2)
	}
}

func (g *generator) publicSquare() *city.Location {
	for _, loc := range g.locations {
		if loc.HasTag(city.RolePublic) {
			return loc
		}
	}
	return nil
}

func pickName(src *entropy.Source, list []string) string {
	return list[src.Intn(len(list))]
}

func displayName(template string) string {
	switch template {
	case "corner_shop":
		return "Corner Shop"
	case "warehouse":
		return "Warehouse"
	case "food_plant":
		return "Food Plant"
	case "mill":
		return "Mill"
	case "studio":
		return "Studio"
	case "tenement":
		return "Tenement"
	case "arcade":
		return "Arcade"
	case "freight_depot":
		return "Freight Depot"
	case "plaza":
		return "Plaza"
	default:
		return template
	}
}

var orgFirstNames = []string{
	"Alder", "Basalt", "Cinder", "Dockside", "Everbright", "Foundry",
	"Gale", "Hollowell", "Ironwood", "Juniper", "Kestrel", "Lumen",
	"Marrow", "Northwind", "Oakline", "Pinnacle", "Quarry", "Rivergate",
	"Slate", "Tidewater",
}

var givenNames = []string{
	"Ada", "Bram", "Cora", "Dario", "Elin", "Farid", "Greta", "Hugo",
	"Ines", "Jonas", "Kira", "Lev", "Mara", "Nils", "Odette", "Pavel",
	"Quinn", "Rosa", "Sven", "Tilda", "Ulrik", "Vera", "Wim", "Xenia",
	"Yusuf", "Zora",
}

var familyNames = []string{
	"Aldren", "Bexley", "Corven", "Dunmore", "Ellery", "Fenwick",
	"Garrow", "Halvers", "Ingram", "Jessop", "Kirkwall", "Lindqvist",
	"Morrow", "Novak", "Ostrander", "Pellow", "Quintrell", "Rookwood",
	"Sundqvist", "Thorne", "Umber", "Vance", "Whitlock", "Yards",
}
