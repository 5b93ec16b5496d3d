package flowtable_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tsnfabric/gatesched/tsn/flowtable"
)

func TestInsert_AssignsStableSequentialIDs(t *testing.T) {
	a := flowtable.NewArena()
	table := flowtable.NewFlowTable[int](a)

	ids := table.Insert(
		[]flowtable.Seed{{Src: 0, Dst: 1, Size: 100, Period: 50, MaxDelay: 200, Offset: 5}},
		[]flowtable.Seed{{Src: 2, Dst: 3, Size: 75, Period: 0, MaxDelay: 100, Class: flowtable.ClassA}},
		0,
	)
	require.Equal(t, []int{0, 1}, ids)

	f0, ok := table.GetTSN(0)
	require.True(t, ok)
	require.Equal(t, flowtable.KindTSN, f0.Kind)
	require.Equal(t, 5, f0.Offset)

	f1, ok := table.GetAVB(1)
	require.True(t, ok)
	require.Equal(t, flowtable.ClassA, f1.Class)

	_, ok = table.GetTSN(1)
	require.False(t, ok)
}

func TestInsert_PanicsAfterCloneAsDiff(t *testing.T) {
	a := flowtable.NewArena()
	table := flowtable.NewFlowTable[int](a)
	table.Insert([]flowtable.Seed{{Src: 0, Dst: 1}}, nil, 0)
	table.CloneAsDiff()

	require.PanicsWithError(t, flowtable.ErrArenaShared.Error(), func() {
		table.Insert([]flowtable.Seed{{Src: 1, Dst: 2}}, nil, 0)
	})
}

func TestGetInfo_OutOfArenaBoundsPanics(t *testing.T) {
	a := flowtable.NewArena()
	table := flowtable.NewFlowTable[int](a)

	require.Panics(t, func() {
		table.GetInfo(0)
	})
}

func TestGetInfo_ActiveIDReturnsInsertedInfo(t *testing.T) {
	a := flowtable.NewArena()
	table := flowtable.NewFlowTable[int](a)
	table.Insert([]flowtable.Seed{{Src: 0, Dst: 1}}, nil, 7)

	v, ok := table.GetInfo(0)
	require.True(t, ok)
	require.Equal(t, 7, v)
}

func TestCloneAsType_MapsInfoIndependently(t *testing.T) {
	a := flowtable.NewArena()
	table := flowtable.NewFlowTable[int](a)
	table.Insert([]flowtable.Seed{{Src: 0, Dst: 1}, {Src: 1, Dst: 2}}, nil, 3)

	strs := flowtable.CloneAsType(table, func(v int) string {
		return "n"
	})

	s0, ok := strs.GetInfo(0)
	require.True(t, ok)
	require.Equal(t, "n", s0)

	table.UpdateInfo(0, func(v int) int { return v + 1 })
	v0, _ := table.GetInfo(0)
	require.Equal(t, 4, v0)

	s0again, _ := strs.GetInfo(0)
	require.Equal(t, "n", s0again, "clone's info must not alias the source's")
}

func TestApplyDiff_OnlyTouchesListedIDs(t *testing.T) {
	a := flowtable.NewArena()
	table := flowtable.NewFlowTable[int](a)
	table.Insert([]flowtable.Seed{{Src: 0, Dst: 1}}, []flowtable.Seed{{Src: 2, Dst: 3}}, 0)

	diff := table.CloneAsDiff()
	diff.UpdateInfo(0, func(v int) int { return 10 })
	diff.UpdateInfo(1, func(v int) int { return 20 })

	require.Equal(t, []int{0}, diff.TSNDiff())
	require.Equal(t, []int{1}, diff.AVBDiff())

	table.ApplyDiff(false, diff) // merge only TSN-changed ids
	v0, _ := table.GetInfo(0)
	require.Equal(t, 10, v0)
	v1, _ := table.GetInfo(1)
	require.Equal(t, 0, v1, "AVB-changed id must not merge when isAVB=false")

	table.ApplyDiff(true, diff)
	v1, _ = table.GetInfo(1)
	require.Equal(t, 20, v1)
}

func TestApplyDiff_ArenaMismatchPanics(t *testing.T) {
	a1 := flowtable.NewArena()
	t1 := flowtable.NewFlowTable[int](a1)
	t1.Insert([]flowtable.Seed{{Src: 0, Dst: 1}}, nil, 0)
	diff1 := t1.CloneAsDiff()

	a2 := flowtable.NewArena()
	t2 := flowtable.NewFlowTable[int](a2)
	t2.Insert([]flowtable.Seed{{Src: 0, Dst: 1}}, nil, 0)

	require.PanicsWithError(t, flowtable.ErrArenaMismatch.Error(), func() {
		t2.ApplyDiff(false, diff1)
	})
}

func TestDiffThenReverseDiff_RestoresOriginal(t *testing.T) {
	a := flowtable.NewArena()
	table := flowtable.NewFlowTable[int](a)
	table.Insert([]flowtable.Seed{{Src: 0, Dst: 1}}, []flowtable.Seed{{Src: 1, Dst: 2}}, 1)

	forward := table.CloneAsDiff()
	before0, _ := table.GetInfo(0)
	before1, _ := table.GetInfo(1)
	forward.UpdateInfo(0, func(v int) int { return 99 })
	forward.UpdateInfo(1, func(v int) int { return 42 })

	table.ApplyDiff(false, forward)
	changed0, _ := table.GetInfo(0)
	changed1, _ := table.GetInfo(1)
	require.Equal(t, 99, changed0)
	require.Equal(t, 1, changed1, "AVB id untouched by a TSN-only merge")

	reverse := table.CloneAsDiff()
	reverse.UpdateInfo(0, func(v int) int { return before0 })
	table.ApplyDiff(false, reverse)

	restored0, _ := table.GetInfo(0)
	require.Equal(t, before0, restored0)
	_ = before1
}

func TestForEach_VisitsActiveIDs(t *testing.T) {
	a := flowtable.NewArena()
	table := flowtable.NewFlowTable[int](a)
	table.Insert([]flowtable.Seed{{Src: 0, Dst: 1}}, nil, 5)
	a2ids := a.TSNIDs()
	require.Equal(t, []int{0}, a2ids)

	var seen []int
	table.ForEach(func(f flowtable.Flow, v int) {
		seen = append(seen, f.ID)
	})
	require.Equal(t, []int{0}, seen)
}
