package city

import (
	"testing"

	"github.com/emberline/civitas/internal/econ"
)

func TestGoodsOrderTransitions(t *testing.T) {
	o := &GoodsOrder{ID: 1, Status: GoodsPending}

	if err := o.Transition(GoodsSettled, 5); err == nil {
		t.Fatal("pending -> settled must be rejected")
	}
	if err := o.Transition(GoodsReady, 5); err != nil {
		t.Fatalf("pending -> ready: %v", err)
	}
	if o.UpdatedPhase != 5 {
		t.Fatalf("UpdatedPhase = %d, want 5", o.UpdatedPhase)
	}
	if err := o.Transition(GoodsPending, 6); err == nil {
		t.Fatal("ready -> pending must be rejected")
	}
	if err := o.Transition(GoodsSettled, 7); err != nil {
		t.Fatalf("ready -> settled: %v", err)
	}
	if o.Open() {
		t.Fatal("settled order is not open")
	}
	if err := o.Transition(GoodsFailed, 8); err == nil {
		t.Fatal("settled is terminal")
	}
}

func TestGoodsOrderCancelPaths(t *testing.T) {
	pending := &GoodsOrder{Status: GoodsPending}
	if err := pending.Transition(GoodsCancelled, 1); err != nil {
		t.Fatalf("pending -> cancelled: %v", err)
	}

	ready := &GoodsOrder{Status: GoodsReady}
	if err := ready.Transition(GoodsFailed, 1); err != nil {
		t.Fatalf("ready -> failed: %v", err)
	}
}

func TestLogisticsOrderLifecycle(t *testing.T) {
	o := &LogisticsOrder{ID: 2, Status: LogisticsPending}

	// Delivered is only reachable through assigned and in_transit.
	if err := o.Transition(LogisticsDelivered, 1); err == nil {
		t.Fatal("pending -> delivered must be rejected")
	}
	if err := o.Transition(LogisticsInTransit, 1); err == nil {
		t.Fatal("pending -> in_transit must be rejected")
	}

	for _, step := range []LogisticsStatus{LogisticsAssigned, LogisticsInTransit, LogisticsDelivered} {
		if err := o.Transition(step, 2); err != nil {
			t.Fatalf("-> %s: %v", LogisticsStatusName(step), err)
		}
	}
	if o.Active() {
		t.Fatal("delivered order is not active")
	}
	if err := o.Transition(LogisticsFailed, 3); err == nil {
		t.Fatal("delivered is terminal")
	}
}

func TestLogisticsFailAllowedWhileMoving(t *testing.T) {
	o := &LogisticsOrder{Status: LogisticsInTransit}
	if err := o.Transition(LogisticsFailed, 9); err != nil {
		t.Fatalf("in_transit -> failed: %v", err)
	}
	// Cancel is only for orders that have not started moving.
	o2 := &LogisticsOrder{Status: LogisticsInTransit}
	if err := o2.Transition(LogisticsCancelled, 9); err == nil {
		t.Fatal("in_transit -> cancelled must be rejected")
	}
}

func TestCargoUnits(t *testing.T) {
	cat := econ.Catalog{
		econ.GoodProvisions: {ID: econ.GoodProvisions, UnitSize: 1},
		econ.GoodMaterials:  {ID: econ.GoodMaterials, UnitSize: 4},
	}
	o := &LogisticsOrder{Cargo: map[econ.GoodID]int{
		econ.GoodProvisions: 10,
		econ.GoodMaterials:  3,
	}}
	if got := o.CargoUnits(cat); got != 22 {
		t.Fatalf("CargoUnits = %d, want 22", got)
	}
}
