package engine

import (
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/emberline/civitas/internal/city"
	"github.com/emberline/civitas/internal/telemetry"
)

// SimStats is a point-in-time census of the world, refreshed daily.
type SimStats struct {
	Phase uint64 `json:"phase"`

	AgentsAlive    int `json:"agents_alive"`
	AgentsDead     int `json:"agents_dead"`
	Employed       int `json:"employed"`
	Housed         int `json:"housed"`
	Traveling      int `json:"traveling"`
	Starving       int `json:"starving"`
	OrgsActive     int `json:"orgs_active"`
	OrgsDissolved  int `json:"orgs_dissolved"`
	LocationsOwned int `json:"locations_owned"`
	LocationsSale  int `json:"locations_for_sale"`
	OrdersOpen     int `json:"orders_open"`
	DeliveriesLive int `json:"deliveries_live"`

	AgentWealth int64 `json:"agent_wealth"`
	OrgWealth   int64 `json:"org_wealth"`
}

// updateStats recomputes the census from current world state.
func (s *Simulation) updateStats() {
	st := SimStats{Phase: s.Phase}

	for _, a := range s.Agents {
		if !a.Alive() {
			st.AgentsDead++
			continue
		}
		st.AgentsAlive++
		st.AgentWealth += a.Wallet
		if a.Employed() {
			st.Employed++
		}
		if a.ResidenceID != nil {
			st.Housed++
		}
		if a.Travel != nil {
			st.Traveling++
		}
		if a.Needs.Starving() {
			st.Starving++
		}
	}
	for _, o := range s.Orgs {
		if o.Dissolved {
			st.OrgsDissolved++
			continue
		}
		st.OrgsActive++
		st.OrgWealth += o.Wallet
	}
	for _, l := range s.Locations {
		if l.OwnerID != nil {
			st.LocationsOwned++
		}
		if l.ForSale {
			st.LocationsSale++
		}
	}
	for _, o := range s.GoodsOrders {
		if o.Open() {
			st.OrdersOpen++
		}
	}
	for _, o := range s.Logistics {
		if o.Status == city.LogisticsAssigned || o.Status == city.LogisticsInTransit {
			st.DeliveriesLive++
		}
	}

	s.Stats = st
}

// logDailyReport emits the compact daily census line.
func (s *Simulation) logDailyReport() {
	st := s.Stats
	slog.Info("daily report",
		"time", SimTime(s.Phase),
		"alive", st.AgentsAlive,
		"employed", st.Employed,
		"housed", st.Housed,
		"starving", st.Starving,
		"orgs", st.OrgsActive,
		"open_orders", st.OrdersOpen,
		"deliveries", st.DeliveriesLive,
	)
}

// logWeeklyReport emits the economy summary with cumulative metrics.
func (s *Simulation) logWeeklyReport() {
	st := s.Stats
	slog.Info("weekly report",
		"time", SimTime(s.Phase),
		"agent_wealth", humanize.Comma(st.AgentWealth),
		"org_wealth", humanize.Comma(st.OrgWealth),
		"sales", s.Metrics.Get(telemetry.MetricSales),
		"hires", s.Metrics.Get(telemetry.MetricHires),
		"releases", s.Metrics.Get(telemetry.MetricReleases),
		"evictions", s.Metrics.Get(telemetry.MetricEvictions),
		"deaths", s.Metrics.Get(telemetry.MetricDeaths),
		"founded", s.Metrics.Get(telemetry.MetricBusinessesFounded),
		"dissolved", s.Metrics.Get(telemetry.MetricBusinessDissolved),
		"orders_placed", s.Metrics.Get(telemetry.MetricOrdersPlaced),
		"orders_delivered", s.Metrics.Get(telemetry.MetricOrdersDelivered),
		"orders_failed", s.Metrics.Get(telemetry.MetricOrdersFailed),
	)
}
