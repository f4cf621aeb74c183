// Package world provides the city grid coordinate system and travel cost model.
package world

import "math"

// Point is a position on the city grid. Floor separates levels of the same
// building footprint.
type Point struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Floor int `json:"floor"`
}

// FloorPenalty is the distance added per floor of vertical separation.
const FloorPenalty = 0.5

// Distance returns the travel distance between two points: Euclidean grid
// distance plus a small penalty per floor difference.
func Distance(a, b Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	d := math.Sqrt(dx*dx + dy*dy)

	floors := a.Floor - b.Floor
	if floors < 0 {
		floors = -floors
	}
	return d + float64(floors)*FloorPenalty
}

// TransportMode selects which cost profile applies to a trip.
type TransportMode uint8

const (
	ModeWalk TransportMode = iota
	ModeVehicle
)

// ModeName returns a human-readable transport mode name.
func ModeName(m TransportMode) string {
	switch m {
	case ModeWalk:
		return "walk"
	case ModeVehicle:
		return "vehicle"
	default:
		return "unknown"
	}
}

// ModeProfile maps a distance to an integer phase cost for one transport mode.
// Trips at or under Near are free (same-block travel resolves within the
// phase); Mid and Far add one phase each; anything longer costs MaxPhases.
type ModeProfile struct {
	Near      float64 `yaml:"near"`
	Mid       float64 `yaml:"mid"`
	Far       float64 `yaml:"far"`
	MaxPhases int     `yaml:"max_phases"`
}

// TravelPhases returns the number of phases a trip of the given distance
// costs under the profile. Never negative.
func TravelPhases(dist float64, p ModeProfile) int {
	switch {
	case dist <= p.Near:
		return 0
	case dist <= p.Mid:
		return 1
	case dist <= p.Far:
		return 2
	default:
		return p.MaxPhases
	}
}

// Lerp returns the point a fraction t of the way from a to b. Used to place
// an agent mid-trip so redirects cost from where they actually are.
func Lerp(a, b Point, t float64) Point {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	return Point{
		X:     a.X + int(math.Round(float64(b.X-a.X)*t)),
		Y:     a.Y + int(math.Round(float64(b.Y-a.Y)*t)),
		Floor: a.Floor + int(math.Round(float64(b.Floor-a.Floor)*t)),
	}
}
