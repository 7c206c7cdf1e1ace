package ledger

import (
	"math"
	"sort"

	"github.com/iliyamo/parking-reservation/internal/model"
)

// Occupancy summarises a set of spots.
type Occupancy struct {
	Total                int     `json:"total"`
	Occupied             int     `json:"occupied"`
	Available            int     `json:"available"`
	OccupancyRatePercent float64 `json:"occupancy_rate_percent"`
}

// ComputeOccupancy counts occupied and free spots.  The rate is a
// percentage rounded to one decimal place; an empty set yields zeros.
func ComputeOccupancy(spots []model.Spot) Occupancy {
	var o Occupancy
	o.Total = len(spots)
	if o.Total == 0 {
		return o
	}
	for _, s := range spots {
		if s.IsOccupied {
			o.Occupied++
		}
	}
	o.Available = o.Total - o.Occupied
	o.OccupancyRatePercent = math.Round(float64(o.Occupied)*1000/float64(o.Total)) / 10
	return o
}

// FloorSpots is one floor of a building and its spots ordered by code.
type FloorSpots struct {
	Floor     uint32       `json:"floor"`
	Spots     []model.Spot `json:"spots"`
	Occupancy Occupancy    `json:"occupancy"`
}

// GroupByFloor groups spots by floor in ascending order.  The input is
// not modified.
func GroupByFloor(spots []model.Spot) []FloorSpots {
	sorted := make([]model.Spot, len(spots))
	copy(sorted, spots)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Floor != sorted[j].Floor {
			return sorted[i].Floor < sorted[j].Floor
		}
		return sorted[i].Code < sorted[j].Code
	})
	var out []FloorSpots
	for _, s := range sorted {
		if len(out) == 0 || out[len(out)-1].Floor != s.Floor {
			out = append(out, FloorSpots{Floor: s.Floor})
		}
		last := &out[len(out)-1]
		last.Spots = append(last.Spots, s)
	}
	for i := range out {
		out[i].Occupancy = ComputeOccupancy(out[i].Spots)
	}
	return out
}
