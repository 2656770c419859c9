package planner

import (
	"math"
	"testing"

	"github.com/hznxin/tripmind/core"
)

// poiAtKM places a POI roughly the given great-circle distance north of
// the anchor (1 degree of latitude is ~111.2 km).
func poiAtKM(anchor core.POI, km float64) core.POI {
	return core.POI{
		ID:  "target",
		Lat: anchor.Lat + km/111.2,
		Lon: anchor.Lon,
	}
}

func modesOf(edges []core.TransportEdge) map[core.TransportMode]core.TransportEdge {
	out := make(map[core.TransportMode]core.TransportEdge, len(edges))
	for _, e := range edges {
		out[e.Mode] = e
	}
	return out
}

func TestEnumerateEdgesShortHop(t *testing.T) {
	to := poiAtKM(station, 0.8)
	edges := EnumerateEdges(station, to)
	modes := modesOf(edges)

	walk, ok := modes[core.ModeWalk]
	if !ok {
		t.Fatal("walk edge missing under 2km")
	}
	if math.Abs(walk.TimeHours-walk.DistanceKM/4.0) > 1e-9 {
		t.Errorf("walk time = %v, want distance/4", walk.TimeHours)
	}
	if walk.Cost != 0 {
		t.Errorf("walk cost = %v, want 0", walk.Cost)
	}

	if _, ok := modes[core.ModeTaxi]; !ok {
		t.Error("taxi edge must always be present")
	}
	if _, ok := modes[core.ModeBus]; ok {
		t.Error("bus edge present under 1km")
	}
	if _, ok := modes[core.ModeSubway]; ok {
		t.Error("subway edge present under 3km")
	}
}

func TestEnumerateEdgesMidRange(t *testing.T) {
	to := poiAtKM(station, 10)
	edges := EnumerateEdges(station, to)
	modes := modesOf(edges)

	if _, ok := modes[core.ModeWalk]; ok {
		t.Error("walk edge present at 10km")
	}

	taxi := modes[core.ModeTaxi]
	straight := core.Haversine(station, to)
	if math.Abs(taxi.DistanceKM-straight*1.3) > 1e-9 {
		t.Errorf("taxi distance = %v, want straight*1.3", taxi.DistanceKM)
	}
	if math.Abs(taxi.Cost-(13.0+2.5*taxi.DistanceKM)) > 1e-9 {
		t.Errorf("taxi cost = %v, want 13+2.5*distance", taxi.Cost)
	}

	bus, ok := modes[core.ModeBus]
	if !ok {
		t.Fatal("bus edge missing in [1,20)km")
	}
	if bus.Cost != 2.0 {
		t.Errorf("bus cost = %v, want 2", bus.Cost)
	}
	if math.Abs(bus.TimeHours-(straight*1.4/15.0+0.3)) > 1e-9 {
		t.Errorf("bus time = %v", bus.TimeHours)
	}

	subway, ok := modes[core.ModeSubway]
	if !ok {
		t.Fatal("subway edge missing in [3,30)km")
	}
	wantCost := math.Min(2.0+(straight*1.2/10.0)*1.0, 8.0)
	if math.Abs(subway.Cost-wantCost) > 1e-9 {
		t.Errorf("subway cost = %v, want %v", subway.Cost, wantCost)
	}
}

func TestEnumerateEdgesLongHaul(t *testing.T) {
	to := poiAtKM(station, 25)
	modes := modesOf(EnumerateEdges(station, to))

	if _, ok := modes[core.ModeBus]; ok {
		t.Error("bus edge present at 25km")
	}
	if _, ok := modes[core.ModeSubway]; !ok {
		t.Error("subway edge missing at 25km")
	}

	to = poiAtKM(station, 35)
	modes = modesOf(EnumerateEdges(station, to))
	if len(modes) != 1 {
		t.Errorf("at 35km only taxi should remain, got %d modes", len(modes))
	}
	if _, ok := modes[core.ModeTaxi]; !ok {
		t.Error("taxi edge missing at 35km")
	}
}

func TestEnumerateEdgesDeterministicOrder(t *testing.T) {
	to := poiAtKM(station, 10)
	first := EnumerateEdges(station, to)
	second := EnumerateEdges(station, to)

	if len(first) != len(second) {
		t.Fatalf("edge counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("edge %d differs across calls: %+v vs %+v", i, first[i], second[i])
		}
	}
}
