// Phase clock and step orchestration.
package engine

import (
	"fmt"
	"log/slog"
	"time"
)

// Phase cadence. 56 phases make one simulated week.
const (
	PhasesPerDay  = 8
	PhasesPerWeek = 56
)

// SimTime returns a human-readable simulation time string for a phase.
func SimTime(phase uint64) string {
	week := phase/PhasesPerWeek + 1
	day := (phase%PhasesPerWeek)/PhasesPerDay + 1
	slot := phase%PhasesPerDay + 1
	return fmt.Sprintf("week %d, day %d, phase %d/%d", week, day, slot, PhasesPerDay)
}

// Step advances the simulation by exactly one phase: all agents, then the
// staggered org settlement, then production, then the order pipeline. Each
// pass runs to completion before the next begins.
func (s *Simulation) Step() {
	s.Phase++

	s.runAgents()
	s.runSettlement()
	s.runProduction()

	if s.Phase%s.Cfg.Intervals.Procurement == 0 {
		s.runProcurement()
	}
	s.advanceGoodsOrders()
	s.dispatchLogistics()
	if s.Phase%s.Cfg.Intervals.Coordinator == 0 {
		s.runCoordinator()
	}

	if s.Phase%PhasesPerDay == 0 {
		s.runDaily()
	}
	if s.Phase%PhasesPerWeek == 0 {
		s.runWeekly()
	}
}

// runDaily performs the once-a-day passes: invariant validation, stats, and
// the daily report line.
func (s *Simulation) runDaily() {
	problems := s.ValidateInvariants()
	for _, p := range problems {
		s.warn("validator", "", 0, "%s", p)
	}
	s.updateStats()
	s.logDailyReport()
}

// runWeekly logs the weekly economy report.
func (s *Simulation) runWeekly() {
	s.logWeeklyReport()
}

// Clock drives Step at a configurable pace. Tests call Step directly; the
// clock exists for the long-running binary.
type Clock struct {
	Speed    float64       // multiplier: 1.0 = real-time, 0 = paused
	Interval time.Duration // wall time per phase at speed 1.0

	running bool
}

// NewClock creates a clock with the default pacing.
func NewClock() *Clock {
	return &Clock{Speed: 1.0, Interval: time.Second}
}

// Run steps the simulation until Stop is called or maxPhases is reached
// (0 = unbounded). Blocks.
func (c *Clock) Run(s *Simulation, maxPhases uint64) {
	c.running = true
	slog.Info("simulation clock started", "phase", s.Phase, "speed", c.Speed)

	for c.running {
		if maxPhases > 0 && s.Phase >= maxPhases {
			break
		}
		if c.Speed <= 0 {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()
		s.Step()

		elapsed := time.Since(start)
		target := time.Duration(float64(c.Interval) / c.Speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("simulation clock stopped", "phase", s.Phase)
}

// Stop halts the run loop after the current phase.
func (c *Clock) Stop() {
	c.running = false
}
