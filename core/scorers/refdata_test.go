package scorers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kmehta07/lastmile/core/model"
)

func TestLoadReferenceData(t *testing.T) {
	content := `
areas:
  - city: Metroville
    area_type: OldCity
    last_mile_difficulty: 4
    congestion_level: HIGH
vehicles:
  - class: bike
    max_payload_kg: 6
    min_road: Narrow
  - class: van
    max_payload_kg: 40
    min_road: Medium
  - class: truck
    max_payload_kg: 450
    min_road: Wide
`
	path := filepath.Join(t.TempDir(), "ref.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	ref, err := LoadReferenceData(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, ok := ref.AreaProfileFor("metroville", model.AreaOldCity)
	if !ok {
		t.Fatal("expected profile for Metroville old city")
	}
	if p.Difficulty != 4 || p.congestion() != CongestionHigh {
		t.Fatalf("unexpected profile: %+v", p)
	}
	spec, ok := ref.VehicleSpecFor(model.VehicleVan)
	if !ok || spec.MaxPayloadKg != 40 {
		t.Fatalf("unexpected van spec: %+v", spec)
	}
}

func TestLoadReferenceData_MissingVehiclesFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.yaml")
	if err := os.WriteFile(path, []byte("areas: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ref, err := LoadReferenceData(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := ref.VehicleSpecFor(model.VehicleBike); !ok {
		t.Fatal("vehicle table must fall back to the defaults")
	}
}

func TestDefaultReferenceData(t *testing.T) {
	ref := DefaultReferenceData()
	for _, class := range []model.VehicleClass{model.VehicleBike, model.VehicleVan, model.VehicleTruck} {
		if _, ok := ref.VehicleSpecFor(class); !ok {
			t.Errorf("missing default spec for %s", class)
		}
	}
	if _, ok := ref.AreaProfileFor("anywhere", model.AreaUrban); ok {
		t.Fatal("default area table must be empty")
	}
}
