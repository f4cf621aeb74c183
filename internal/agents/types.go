// Package agents provides the agent data model, the needs system, and the
// action priority ordering used by the behavior scheduler.
package agents

import (
	"github.com/emberline/civitas/internal/econ"
	"github.com/emberline/civitas/internal/world"
)

// AgentID is a unique identifier for an agent.
type AgentID uint64

// Status tracks an agent's employment/life state.
type Status uint8

const (
	StatusAvailable Status = iota // alive, not employed
	StatusEmployed                // alive, holds a job
	StatusDead
)

// StatusName returns a human-readable status name.
func StatusName(s Status) string {
	switch s {
	case StatusAvailable:
		return "available"
	case StatusEmployed:
		return "employed"
	case StatusDead:
		return "dead"
	default:
		return "unknown"
	}
}

// Employment holds the job fields. For an employed agent all fields are set
// and Salary > 0; otherwise all are zero.
type Employment struct {
	EmployerID  *uint64 `json:"employer_id,omitempty"`  // org ID
	WorkplaceID *uint64 `json:"workplace_id,omitempty"` // location ID
	Salary      int64   `json:"salary,omitempty"`
	HiredPhase  uint64  `json:"hired_phase,omitempty"`
}

// TravelState holds the in-flight trip fields. While set, the agent is at no
// location. Origin is the position the current leg was costed from — it is
// replaced on redirect so the remaining cost reflects where the agent
// actually is.
type TravelState struct {
	ToID        uint64              `json:"to_id"` // destination location ID
	Origin      world.Point         `json:"origin"`
	Mode        world.TransportMode `json:"mode"`
	PhasesTotal int                 `json:"phases_total"`
	PhasesLeft  int                 `json:"phases_left"`
}

// Agent is the core entity representing one civilian.
type Agent struct {
	ID   AgentID `json:"id"`
	Name string  `json:"name"`

	Status     Status     `json:"status"`
	Needs      NeedsState `json:"needs"`
	Employment Employment `json:"employment"`

	// Location state: exactly one of LocationID and Travel is set for a
	// living agent.
	LocationID *uint64      `json:"location_id,omitempty"`
	Travel     *TravelState `json:"travel,omitempty"`

	ResidenceID *uint64 `json:"residence_id,omitempty"`

	Inventory econ.Inventory `json:"inventory"`
	Wallet    int64          `json:"wallet"` // credits

	// Task is what the agent is currently doing; TaskNone/PriorityIdle when
	// unoccupied. A candidate action replaces it only when its priority is
	// strictly higher.
	Task Task `json:"task"`

	// Shift bookkeeping.
	NextShiftPhase uint64 `json:"next_shift_phase"` // phase the next shift is due
	ShiftWorked    uint64 `json:"shift_worked"`     // phases worked in the current shift

	// StarvingSince is the phase hunger first pinned at maximum, 0 when fed.
	StarvingSince uint64 `json:"starving_since,omitempty"`

	BornPhase uint64 `json:"born_phase"`
}

// Alive reports whether the agent is living.
func (a *Agent) Alive() bool {
	return a.Status != StatusDead
}

// Employed reports whether the agent currently holds a job.
func (a *Agent) Employed() bool {
	return a.Status == StatusEmployed
}

// ClearEmployment removes all job fields and returns the agent to the
// available pool. Callers are responsible for the workplace's employee list.
func (a *Agent) ClearEmployment() {
	a.Employment = Employment{}
	if a.Status == StatusEmployed {
		a.Status = StatusAvailable
	}
	a.ShiftWorked = 0
}

// Priority orders candidate actions. An incoming action preempts the current
// task only when its priority is strictly greater.
type Priority uint8

const (
	PriorityIdle Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// PriorityName returns a human-readable priority name.
func PriorityName(p Priority) string {
	switch p {
	case PriorityIdle:
		return "idle"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// CanInterrupt reports whether an incoming action may preempt the current
// task.
func CanInterrupt(incoming, current Priority) bool {
	return incoming > current
}

// TaskKind enumerates what an agent can be doing.
type TaskKind uint8

const (
	TaskNone TaskKind = iota
	TaskEat
	TaskRest
	TaskBuyFood
	TaskCommute
	TaskWork
	TaskSeekJob
	TaskSeekHousing
	TaskLeisure
	TaskGoHome
	TaskFoundBusiness
	TaskDelivery
)

// TaskName returns a human-readable task name.
func TaskName(k TaskKind) string {
	switch k {
	case TaskNone:
		return "idle"
	case TaskEat:
		return "eat"
	case TaskRest:
		return "rest"
	case TaskBuyFood:
		return "buy_food"
	case TaskCommute:
		return "commute"
	case TaskWork:
		return "work"
	case TaskSeekJob:
		return "seek_job"
	case TaskSeekHousing:
		return "seek_housing"
	case TaskLeisure:
		return "leisure"
	case TaskGoHome:
		return "go_home"
	case TaskFoundBusiness:
		return "found_business"
	case TaskDelivery:
		return "delivery"
	default:
		return "unknown"
	}
}

// Task is the agent's current activity.
type Task struct {
	Kind     TaskKind `json:"kind"`
	Priority Priority `json:"priority"`
	TargetID *uint64  `json:"target_id,omitempty"` // location the task is bound to
}

// ClearTask resets the agent to idle.
func (a *Agent) ClearTask() {
	a.Task = Task{}
}
