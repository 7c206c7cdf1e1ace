package ledger_test

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/parking-reservation/internal/ledger"
	"github.com/iliyamo/parking-reservation/internal/model"
)

func TestGenerateSpotLayout_TenOverThree(t *testing.T) {
	drafts, err := ledger.GenerateSpotLayout(1, 10, 3)
	require.NoError(t, err)

	var codes []string
	for _, d := range drafts {
		codes = append(codes, d.Code)
		require.Equal(t, uint64(1), d.BuildingID)
	}
	want := []string{
		"A1-01", "A1-02", "A1-03", "A1-04",
		"A2-01", "A2-02", "A2-03", "A2-04",
		"A3-01", "A3-02",
	}
	if diff := cmp.Diff(want, codes); diff != "" {
		t.Fatalf("codes mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, model.SpotDraft{Code: "A3-02", Floor: 3, BuildingID: 1}, drafts[9])
}

func TestFloorCounts(t *testing.T) {
	cases := []struct {
		capacity, floors uint32
		want             []uint32
	}{
		{10, 3, []uint32{4, 4, 2}},
		{12, 3, []uint32{4, 4, 4}},
		{1, 1, []uint32{1}},
		{7, 4, []uint32{2, 2, 2, 1}},
		// ceil(5/4)=2 would leave the last floor at -1
		{5, 4, []uint32{1, 1, 1, 2}},
		{6, 4, []uint32{1, 1, 1, 3}},
		{4, 4, []uint32{1, 1, 1, 1}},
	}
	for _, tc := range cases {
		got, err := ledger.FloorCounts(tc.capacity, tc.floors)
		require.NoError(t, err)
		require.Equal(t, tc.want, got, "capacity=%d floors=%d", tc.capacity, tc.floors)
	}
}

func TestGenerateSpotLayout_Properties(t *testing.T) {
	for floors := uint32(1); floors <= 12; floors++ {
		for capacity := floors; capacity <= 60; capacity++ {
			drafts, err := ledger.GenerateSpotLayout(3, capacity, floors)
			require.NoError(t, err)
			require.Len(t, drafts, int(capacity))

			perFloor := map[uint32]int{}
			codes := map[string]struct{}{}
			for _, d := range drafts {
				require.GreaterOrEqual(t, d.Floor, uint32(1))
				require.LessOrEqual(t, d.Floor, floors)
				perFloor[d.Floor]++
				codes[d.Code] = struct{}{}
			}
			require.Len(t, codes, int(capacity), "codes must be unique")
			require.Len(t, perFloor, int(floors), "every floor gets spots")
			for f := uint32(2); f < floors; f++ {
				require.Equal(t, perFloor[1], perFloor[f], "capacity=%d floors=%d floor=%d", capacity, floors, f)
			}
		}
	}
}

func TestGenerateSpotLayout_Invalid(t *testing.T) {
	for _, tc := range []struct {
		id               uint64
		capacity, floors uint32
	}{
		{1, 10, 0},
		{1, 2, 3},
		{0, 10, 2},
		{1, ledger.MaxCapacity + 1, 3},
		{1, math.MaxUint32, 2},
		{1, math.MaxUint32, 3},
	} {
		_, err := ledger.GenerateSpotLayout(tc.id, tc.capacity, tc.floors)
		require.True(t, errors.Is(err, ledger.ErrInvalidLayout), "id=%d capacity=%d floors=%d", tc.id, tc.capacity, tc.floors)
	}
}

func TestFloorCountsAtMaxCapacity(t *testing.T) {
	got, err := ledger.FloorCounts(ledger.MaxCapacity, 3)
	require.NoError(t, err)
	require.Equal(t, []uint32{3334, 3334, 3332}, got)

	for _, floors := range []uint32{1, 2, 3, 7} {
		_, err := ledger.FloorCounts(math.MaxUint32, floors)
		require.ErrorIs(t, err, ledger.ErrInvalidLayout, "floors=%d", floors)
	}
}

func TestBuildingLabel(t *testing.T) {
	for id, want := range map[uint64]string{
		0: "", 1: "A", 2: "B", 26: "Z", 27: "AA", 28: "AB", 52: "AZ", 53: "BA", 702: "ZZ", 703: "AAA",
	} {
		require.Equal(t, want, ledger.BuildingLabel(id), "id=%d", id)
	}
	require.Equal(t, "B12-103", ledger.SpotCode(2, 12, 103))
}
