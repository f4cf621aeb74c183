package agents

// NeedsState holds the three physiological scalars, each 0–100. Higher means
// worse: 100 hunger is starving, 100 fatigue is collapse, 100 leisure is
// complete burnout.
type NeedsState struct {
	Hunger  float64 `json:"hunger"`
	Fatigue float64 `json:"fatigue"`
	Leisure float64 `json:"leisure"`
}

// NeedRates controls how fast needs accumulate per phase.
type NeedRates struct {
	Hunger        float64 `yaml:"hunger"`
	FatigueIdle   float64 `yaml:"fatigue_idle"`
	FatigueActive float64 `yaml:"fatigue_active"` // while working or traveling
	Leisure       float64 `yaml:"leisure"`
}

// Accrue advances needs by one phase. active marks agents who spent the
// phase working or traveling and therefore tire faster.
func (n *NeedsState) Accrue(r NeedRates, active bool) {
	n.Hunger += r.Hunger
	if active {
		n.Fatigue += r.FatigueActive
	} else {
		n.Fatigue += r.FatigueIdle
	}
	n.Leisure += r.Leisure
	n.clamp()
}

// Eat satisfies hunger by the nutrition value of one meal.
func (n *NeedsState) Eat(nutrition float64) {
	n.Hunger -= nutrition
	n.clamp()
}

// Rest recovers fatigue by the given amount for one phase of rest.
func (n *NeedsState) Rest(recovery float64) {
	n.Fatigue -= recovery
	n.clamp()
}

// Relax reduces the leisure need by the given amount.
func (n *NeedsState) Relax(amount float64) {
	n.Leisure -= amount
	n.clamp()
}

// Starving reports whether hunger is pinned at the maximum.
func (n *NeedsState) Starving() bool {
	return n.Hunger >= 100
}

func (n *NeedsState) clamp() {
	n.Hunger = clamp01(n.Hunger)
	n.Fatigue = clamp01(n.Fatigue)
	n.Leisure = clamp01(n.Leisure)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
