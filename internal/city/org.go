// Package city provides the organization, location, vehicle, and order
// entities that make up the economic side of the simulation.
package city

import (
	"github.com/emberline/civitas/internal/agents"
)

// Org is a legal/financial entity: it owns locations and vehicles, employs
// agents, and settles its finances once per week on its own offset phase.
type Org struct {
	ID       uint64         `json:"id"`
	Name     string         `json:"name"`
	LeaderID agents.AgentID `json:"leader_id"`
	Wallet   int64          `json:"wallet"`
	Tags     []string       `json:"tags,omitempty"`

	Locations []uint64 `json:"locations"`

	// WeeklyPhaseOffset staggers settlement: the org is processed on phases
	// where phase mod 56 equals this value.
	WeeklyPhaseOffset uint64 `json:"weekly_phase_offset"`

	// Weekly counters, reset at settlement.
	WeekRevenue int64 `json:"week_revenue"`
	WeekCosts   int64 `json:"week_costs"`

	FoundedPhase uint64 `json:"founded_phase"`
	Dissolved    bool   `json:"dissolved"`
}

// HasTag reports whether the org carries the given tag.
func (o *Org) HasTag(tag string) bool {
	for _, t := range o.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// RemoveLocation drops a location from the org's owned list.
func (o *Org) RemoveLocation(id uint64) {
	for i, lid := range o.Locations {
		if lid == id {
			o.Locations = append(o.Locations[:i], o.Locations[i+1:]...)
			return
		}
	}
}

// Org tags with simulation meaning.
const (
	TagLogistics   = "logistics"
	TagCorporation = "corporation"
)
