package agents

import "testing"

var testRates = NeedRates{Hunger: 1.0, FatigueIdle: 0.5, FatigueActive: 2.0, Leisure: 0.7}

func TestAccrueActiveVsIdle(t *testing.T) {
	idle := NeedsState{}
	active := NeedsState{}

	idle.Accrue(testRates, false)
	active.Accrue(testRates, true)

	if idle.Fatigue != 0.5 {
		t.Fatalf("idle fatigue = %v, want 0.5", idle.Fatigue)
	}
	if active.Fatigue != 2.0 {
		t.Fatalf("active fatigue = %v, want 2.0", active.Fatigue)
	}
	if idle.Hunger != active.Hunger {
		t.Fatal("hunger should accrue at the same rate either way")
	}
}

func TestNeedsClampAtBounds(t *testing.T) {
	n := NeedsState{Hunger: 99.5, Fatigue: 99.9, Leisure: 99.9}
	n.Accrue(testRates, true)
	if n.Hunger != 100 || n.Fatigue != 100 || n.Leisure != 100 {
		t.Fatalf("needs should clamp at 100, got %+v", n)
	}
	if !n.Starving() {
		t.Fatal("hunger at 100 is starving")
	}

	n.Eat(500)
	n.Rest(500)
	n.Relax(500)
	if n.Hunger != 0 || n.Fatigue != 0 || n.Leisure != 0 {
		t.Fatalf("needs should clamp at 0, got %+v", n)
	}
	if n.Starving() {
		t.Fatal("fed agent is not starving")
	}
}

func TestEatReducesHunger(t *testing.T) {
	n := NeedsState{Hunger: 70}
	n.Eat(55)
	if n.Hunger != 15 {
		t.Fatalf("Hunger = %v, want 15", n.Hunger)
	}
}
