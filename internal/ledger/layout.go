package ledger

import (
	"fmt"

	"github.com/iliyamo/parking-reservation/internal/model"
)

// BuildingLabel converts a building ID into its spot-code prefix using
// spreadsheet-style letters: 1→A, 26→Z, 27→AA.  ID zero has no label.
func BuildingLabel(buildingID uint64) string {
	if buildingID == 0 {
		return ""
	}
	var res []byte
	for i := buildingID - 1; ; i = i/26 - 1 {
		res = append(res, byte('A'+i%26))
		if i < 26 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}

// SpotCode builds the code of the n-th spot (1-based) on a floor.
func SpotCode(buildingID uint64, floor, n uint32) string {
	return fmt.Sprintf("%s%d-%02d", BuildingLabel(buildingID), floor, n)
}

// MaxCapacity bounds the number of spots a single building may have.
const MaxCapacity = 10000

// FloorCounts splits capacity over floors.  Every floor but the last
// gets ceil(capacity/floors) spots and the last floor takes what is
// left.  When that would leave the last floor empty or negative the
// split falls back to floor(capacity/floors), so the last floor absorbs
// the larger remainder instead.
func FloorCounts(capacity, floors uint32) ([]uint32, error) {
	if floors < 1 || capacity < floors {
		return nil, fmt.Errorf("%w: capacity %d over %d floors", ErrInvalidLayout, capacity, floors)
	}
	if capacity > MaxCapacity {
		return nil, fmt.Errorf("%w: capacity %d exceeds %d", ErrInvalidLayout, capacity, MaxCapacity)
	}
	per := capacity / floors
	if capacity%floors != 0 {
		per++
	}
	if per*(floors-1) >= capacity {
		per = capacity / floors
	}
	counts := make([]uint32, floors)
	for i := range counts {
		counts[i] = per
	}
	counts[floors-1] = capacity - per*(floors-1)
	return counts, nil
}

// GenerateSpotLayout returns the drafts for a new building.  It has no
// side effects; callers persist the drafts together with the building.
func GenerateSpotLayout(buildingID uint64, capacity, floors uint32) ([]model.SpotDraft, error) {
	if buildingID == 0 {
		return nil, fmt.Errorf("%w: building id required", ErrInvalidLayout)
	}
	counts, err := FloorCounts(capacity, floors)
	if err != nil {
		return nil, err
	}
	drafts := make([]model.SpotDraft, 0, capacity)
	for i, n := range counts {
		floor := uint32(i + 1)
		for seq := uint32(1); seq <= n; seq++ {
			drafts = append(drafts, model.SpotDraft{
				Code:       SpotCode(buildingID, floor, seq),
				Floor:      floor,
				BuildingID: buildingID,
			})
		}
	}
	return drafts, nil
}
