package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/emberline/civitas/internal/econ"
	"github.com/emberline/civitas/internal/world"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default balance invalid: %v", err)
	}
}

func TestValidateRejectsBadPrices(t *testing.T) {
	b := Default()
	for i := range b.Goods {
		if b.Goods[i].ID == econ.GoodProvisions {
			b.Goods[i].RetailPrice = 3 // below wholesale 5
		}
	}
	if err := b.Validate(); err == nil {
		t.Fatal("retail below wholesale should fail validation")
	}
}

func TestValidateRejectsUnknownTier(t *testing.T) {
	b := Default()
	b.Templates[0].SalaryTier = "imaginary"
	if err := b.Validate(); err == nil {
		t.Fatal("unknown salary tier should fail validation")
	}
}

func TestValidateRejectsUnknownProductionGood(t *testing.T) {
	b := Default()
	tmpl := b.Template("food_plant")
	if tmpl == nil {
		t.Fatal("default balance has no food_plant template")
	}
	tmpl.Production.Good = "unobtainium"
	if err := b.Validate(); err == nil {
		t.Fatal("production of an unknown good should fail validation")
	}
}

func TestSalaryMidpoint(t *testing.T) {
	b := Default()
	b.SalaryTiers["test"] = SalaryRange{Min: 40, Max: 60}
	if got := b.Salary("test"); got != 50 {
		t.Fatalf("Salary = %d, want 50", got)
	}
	if got := b.Salary("nope"); got != 0 {
		t.Fatalf("unknown tier salary = %d, want 0", got)
	}
}

func TestProfileByMode(t *testing.T) {
	b := Default()
	if b.Profile(world.ModeWalk) != b.Walk {
		t.Fatal("walk profile mismatch")
	}
	if b.Profile(world.ModeVehicle) != b.Vehicle {
		t.Fatal("vehicle profile mismatch")
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "balance.yaml")
	overlay := `
thresholds:
  hungry_at: 35
rules:
  owner_dividend: 120
`
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatal(err)
	}

	b, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b.Thresholds.HungryAt != 35 {
		t.Fatalf("HungryAt = %v, want overlay 35", b.Thresholds.HungryAt)
	}
	if b.Rules.OwnerDividend != 120 {
		t.Fatalf("OwnerDividend = %v, want overlay 120", b.Rules.OwnerDividend)
	}
	// Untouched keys keep their defaults.
	if b.Thresholds.EmergencyHunger != 80 {
		t.Fatalf("EmergencyHunger = %v, want default 80", b.Thresholds.EmergencyHunger)
	}
	if len(b.Goods) == 0 {
		t.Fatal("goods catalog lost in overlay")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	os.WriteFile(path, []byte("intervals:\n  procurement: 0\n"), 0o644)

	if _, err := Load(path); err == nil {
		t.Fatal("zero procurement interval should fail")
	}
}
