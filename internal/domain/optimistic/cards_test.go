package optimistic_test

import (
	"testing"

	"github.com/rpggio/kanbansync/internal/domain/board"
	"github.com/rpggio/kanbansync/internal/domain/optimistic"
	"github.com/stretchr/testify/require"
)

// scenarioBoard is B1 with L1=[A(1), B(2)] and L2=[C(1)].
func scenarioBoard() *board.Board {
	return &board.Board{
		ID:      1,
		OwnerID: 2,
		Lists: []board.List{
			{ID: 1, BoardID: 1, Name: "L1", Position: 1, Cards: []board.Card{
				{ID: 'A', ListID: 1, Title: "cardA", Position: 1},
				{ID: 'B', ListID: 1, Title: "cardB", Position: 2},
			}},
			{ID: 2, BoardID: 1, Name: "L2", Position: 2, Cards: []board.Card{
				{ID: 'C', ListID: 2, Title: "cardC", Position: 1},
			}},
		},
	}
}

func cardIDs(l board.List) []int64 {
	ids := make([]int64, 0, len(l.Cards))
	for _, c := range l.Cards {
		ids = append(ids, c.ID)
	}
	return ids
}

func requireDense(t *testing.T, b *board.Board) {
	t.Helper()
	seen := map[int64]int64{}
	for _, l := range b.Lists {
		for i, c := range l.Cards {
			require.Equal(t, i+1, c.Position, "list %d card %d", l.ID, c.ID)
			require.Equal(t, l.ID, c.ListID)
			prev, dup := seen[c.ID]
			require.False(t, dup, "card %d in lists %d and %d", c.ID, prev, l.ID)
			seen[c.ID] = l.ID
		}
	}
}

func TestMoveCard_AcrossLists(t *testing.T) {
	snap := scenarioBoard()
	out, ok := optimistic.MoveCard(snap, 'A', 1, 2, 1)
	require.True(t, ok)

	require.Equal(t, []int64{'B'}, cardIDs(out.Lists[0]))
	require.Equal(t, []int64{'C', 'A'}, cardIDs(out.Lists[1]))
	require.Equal(t, 1, out.Lists[0].Cards[0].Position)
	require.Equal(t, 2, out.Lists[1].Cards[1].Position)
	require.Equal(t, int64(2), out.Lists[1].Cards[1].ListID)
	requireDense(t, out)

	require.Equal(t, scenarioBoard(), snap, "input snapshot must not change")
}

func TestMoveCard_WithinList(t *testing.T) {
	out, ok := optimistic.MoveCard(scenarioBoard(), 'A', 1, 1, 1)
	require.True(t, ok)
	require.Equal(t, []int64{'B', 'A'}, cardIDs(out.Lists[0]))
	requireDense(t, out)
}

func TestMoveCard_ClampsIndex(t *testing.T) {
	out, ok := optimistic.MoveCard(scenarioBoard(), 'B', 1, 2, 99)
	require.True(t, ok)
	require.Equal(t, []int64{'C', 'B'}, cardIDs(out.Lists[1]))

	out, ok = optimistic.MoveCard(scenarioBoard(), 'B', 1, 2, -3)
	require.True(t, ok)
	require.Equal(t, []int64{'B', 'C'}, cardIDs(out.Lists[1]))
	requireDense(t, out)
}

func TestMoveCard_MissReturnsInput(t *testing.T) {
	snap := scenarioBoard()
	cases := []struct {
		name          string
		card, src, to int64
	}{
		{"unknown card", 'Z', 1, 2},
		{"unknown source", 'A', 9, 2},
		{"unknown destination", 'A', 1, 9},
		{"card not in source", 'C', 1, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, ok := optimistic.MoveCard(snap, tc.card, tc.src, tc.to, 0)
			require.False(t, ok)
			require.Same(t, snap, out)
		})
	}

	out, ok := optimistic.MoveCard(nil, 'A', 1, 2, 0)
	require.False(t, ok)
	require.Nil(t, out)
}

func TestMoveCard_Idempotent(t *testing.T) {
	snap := scenarioBoard()
	first, ok := optimistic.MoveCard(snap, 'A', 1, 2, 0)
	require.True(t, ok)
	second, ok := optimistic.MoveCard(snap, 'A', 1, 2, 0)
	require.True(t, ok)
	require.Equal(t, first, second)
	require.NotSame(t, first, second)
}

func TestMoveCard_RenumbersFromSparsePositions(t *testing.T) {
	snap := scenarioBoard()
	snap.Lists[0].Cards[0].Position = 10
	snap.Lists[0].Cards[1].Position = 40
	snap.Lists[1].Cards[0].Position = 0

	out, ok := optimistic.MoveCard(snap, 'B', 1, 2, 0)
	require.True(t, ok)
	requireDense(t, out)
}

func TestMoveCard_AllPermutationsStayDense(t *testing.T) {
	for _, id := range []int64{'A', 'B', 'C'} {
		for dest := int64(1); dest <= 2; dest++ {
			for idx := 0; idx <= 3; idx++ {
				snap := scenarioBoard()
				p, ok := optimistic.Locate(snap, id)
				require.True(t, ok)
				out, ok := optimistic.MoveCard(snap, id, p.ListID, dest, idx)
				require.True(t, ok)
				requireDense(t, out)
				require.Len(t, optimistic.Flatten(out), 3)
			}
		}
	}
}

func TestReorderFlat_InfersListFromPreviousNeighbor(t *testing.T) {
	// flat view: A B C ; move A to the end -> after C, so into L2
	out, p, ok := optimistic.ReorderFlat(scenarioBoard(), 'A', 2)
	require.True(t, ok)
	require.Equal(t, int64(2), p.ListID)
	require.Equal(t, 2, p.Position)
	require.Equal(t, []int64{'B'}, cardIDs(out.Lists[0]))
	require.Equal(t, []int64{'C', 'A'}, cardIDs(out.Lists[1]))
	requireDense(t, out)
}

func TestReorderFlat_InfersListFromNextNeighbor(t *testing.T) {
	// move C to the top: no previous neighbor, next is A in L1
	out, p, ok := optimistic.ReorderFlat(scenarioBoard(), 'C', 0)
	require.True(t, ok)
	require.Equal(t, int64(1), p.ListID)
	require.Equal(t, 1, p.Position)
	require.Equal(t, []int64{'C', 'A', 'B'}, cardIDs(out.Lists[0]))
	require.Empty(t, out.Lists[1].Cards)
	requireDense(t, out)
}

func TestReorderFlat_NoNeighborKeepsList(t *testing.T) {
	snap := &board.Board{ID: 1, Lists: []board.List{
		{ID: 1, Position: 1},
		{ID: 2, Position: 2, Cards: []board.Card{{ID: 5, ListID: 2, Position: 1}}},
	}}
	out, p, ok := optimistic.ReorderFlat(snap, 5, 0)
	require.True(t, ok)
	require.Equal(t, int64(2), p.ListID)
	require.Equal(t, []int64{5}, cardIDs(out.Lists[1]))
}

func TestReorderFlat_Miss(t *testing.T) {
	snap := scenarioBoard()
	out, _, ok := optimistic.ReorderFlat(snap, 'Z', 0)
	require.False(t, ok)
	require.Same(t, snap, out)
}

func TestPatchCard(t *testing.T) {
	snap := scenarioBoard()
	title := "renamed"
	done := true
	out, ok := optimistic.PatchCard(snap, 'B', board.CardPatch{Title: &title, IsCompleted: &done, LabelIDs: []int64{3}})
	require.True(t, ok)
	require.Equal(t, "renamed", out.Lists[0].Cards[1].Title)
	require.True(t, out.Lists[0].Cards[1].IsCompleted)
	require.Equal(t, []int64{3}, out.Lists[0].Cards[1].LabelIDs)
	require.Equal(t, "cardB", snap.Lists[0].Cards[1].Title)

	_, ok = optimistic.PatchCard(snap, 'Z', board.CardPatch{Title: &title})
	require.False(t, ok)
}

func TestPatchCard_ZeroAssigneeUnassigns(t *testing.T) {
	snap := scenarioBoard()
	assignee := int64(4)
	out, ok := optimistic.PatchCard(snap, 'A', board.CardPatch{AssigneeID: &assignee})
	require.True(t, ok)
	require.Equal(t, int64(4), *out.Lists[0].Cards[0].AssigneeID)

	none := int64(0)
	out, ok = optimistic.PatchCard(out, 'A', board.CardPatch{AssigneeID: &none})
	require.True(t, ok)
	require.Nil(t, out.Lists[0].Cards[0].AssigneeID)
}

func TestInsertRemoveReplaceCard(t *testing.T) {
	snap := scenarioBoard()
	out, ok := optimistic.InsertCard(snap, 2, board.Card{ID: -1, Title: "draft"}, 0)
	require.True(t, ok)
	require.Equal(t, []int64{-1, 'C'}, cardIDs(out.Lists[1]))
	requireDense(t, out)

	out, ok = optimistic.ReplaceCard(out, -1, board.Card{ID: 'D', Title: "draft", Position: 7})
	require.True(t, ok)
	require.Equal(t, []int64{'D', 'C'}, cardIDs(out.Lists[1]))
	requireDense(t, out)

	out, ok = optimistic.RemoveCard(out, 'D')
	require.True(t, ok)
	require.Equal(t, scenarioBoard(), out)

	_, ok = optimistic.InsertCard(snap, 9, board.Card{ID: 1}, 0)
	require.False(t, ok)
	_, ok = optimistic.RemoveCard(snap, 'Z')
	require.False(t, ok)
}

func TestApplyServerCard(t *testing.T) {
	local, ok := optimistic.MoveCard(scenarioBoard(), 'A', 1, 2, 1)
	require.True(t, ok)

	// server put A at the top of L2 and normalised the title
	out, ok := optimistic.ApplyServerCard(local, board.Card{ID: 'A', ListID: 2, Position: 1, Title: "Card A"})
	require.True(t, ok)
	require.Equal(t, []int64{'A', 'C'}, cardIDs(out.Lists[1]))
	require.Equal(t, "Card A", out.Lists[1].Cards[0].Title)
	requireDense(t, out)

	// unknown list from server keeps the local list
	out, ok = optimistic.ApplyServerCard(local, board.Card{ID: 'A', ListID: 77, Position: 2, Title: "x"})
	require.True(t, ok)
	require.Equal(t, []int64{'C', 'A'}, cardIDs(out.Lists[1]))

	_, ok = optimistic.ApplyServerCard(local, board.Card{ID: 'Z'})
	require.False(t, ok)
}
