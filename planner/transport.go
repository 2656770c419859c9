package planner

import (
	"math"

	"github.com/hznxin/tripmind/core"
)

// Transport heuristics. Distances multiply the great-circle distance by a
// mode-specific detour factor; speeds are urban averages; costs follow
// typical mainland fare schedules.
const (
	walkMaxKM   = 2.0
	walkSpeedKM = 4.0

	taxiDetour   = 1.3
	taxiSpeedKM  = 30.0
	taxiBaseFare = 13.0
	taxiPerKM    = 2.5

	busMinKM   = 1.0
	busMaxKM   = 20.0
	busDetour  = 1.4
	busSpeedKM = 15.0
	busWaitH   = 0.3
	busFare    = 2.0

	subwayMinKM     = 3.0
	subwayMaxKM     = 30.0
	subwayDetour    = 1.2
	subwaySpeedKM   = 35.0
	subwayTransferH = 0.25
	subwayBaseFare  = 2.0
	subwayPerTenKM  = 1.0
	subwayMaxFare   = 8.0
)

// EnumerateEdges generates the feasible travel modes from the current
// position to the target with (distance, time, cost) triples. The order
// walk, taxi, bus, subway is fixed so downstream ranking stays
// deterministic. An empty result means the candidate is unreachable and
// must be dropped.
func EnumerateEdges(from, to core.POI) []core.TransportEdge {
	straight := core.Haversine(from, to)
	edges := make([]core.TransportEdge, 0, 4)

	if straight < walkMaxKM {
		edges = append(edges, core.TransportEdge{
			Mode:       core.ModeWalk,
			DistanceKM: straight,
			TimeHours:  straight / walkSpeedKM,
			Cost:       0,
		})
	}

	taxiDist := straight * taxiDetour
	edges = append(edges, core.TransportEdge{
		Mode:       core.ModeTaxi,
		DistanceKM: taxiDist,
		TimeHours:  taxiDist / taxiSpeedKM,
		Cost:       taxiBaseFare + taxiPerKM*taxiDist,
	})

	if straight >= busMinKM && straight < busMaxKM {
		busDist := straight * busDetour
		edges = append(edges, core.TransportEdge{
			Mode:       core.ModeBus,
			DistanceKM: busDist,
			TimeHours:  busDist/busSpeedKM + busWaitH,
			Cost:       busFare,
		})
	}

	if straight >= subwayMinKM && straight < subwayMaxKM {
		subDist := straight * subwayDetour
		edges = append(edges, core.TransportEdge{
			Mode:       core.ModeSubway,
			DistanceKM: subDist,
			TimeHours:  subDist/subwaySpeedKM + subwayTransferH,
			Cost:       math.Min(subwayBaseFare+(subDist/10)*subwayPerTenKM, subwayMaxFare),
		})
	}

	return edges
}
