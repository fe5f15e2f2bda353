// Package optimistic computes local board snapshots for mutations that have
// not been confirmed by the server yet.
//
// Every function here is pure: the input snapshot is never modified and the
// returned snapshot shares no list or card storage with it. When a referenced
// card or list cannot be found the input is returned unchanged together with
// ok=false; nothing in this package panics on stale input.
package optimistic

import "github.com/rpggio/kanbansync/internal/domain/board"

// Placement is the location of a card after a move.
type Placement struct {
	ListID   int64
	Index    int
	Position int
}

// MoveCard moves a card from one list to destIndex of another (or the same)
// list. Positions of both affected lists are renumbered 1..n from slice order.
func MoveCard(snap *board.Board, cardID, srcListID, destListID int64, destIndex int) (*board.Board, bool) {
	if snap == nil {
		return snap, false
	}
	si := snap.ListIndex(srcListID)
	di := snap.ListIndex(destListID)
	if si < 0 || di < 0 {
		return snap, false
	}
	ci := snap.Lists[si].CardIndex(cardID)
	if ci < 0 {
		return snap, false
	}

	out := snap.Clone()
	src := &out.Lists[si]
	card := src.Cards[ci]
	src.Cards = append(src.Cards[:ci:ci], src.Cards[ci+1:]...)

	dest := &out.Lists[di]
	destIndex = clamp(destIndex, len(dest.Cards))
	card.ListID = destListID
	card.Position = destIndex + 1
	dest.Cards = insertCard(dest.Cards, destIndex, card)

	renumberCards(src)
	if si != di {
		renumberCards(dest)
	}
	return out, true
}

// ReorderFlat moves a card inside the flattened, single-list projection of the
// board used by the table view. The destination list is taken from the card
// that ends up right before it, else the card right after it; with no
// neighbor at all the card keeps its list.
func ReorderFlat(snap *board.Board, cardID int64, destIndex int) (*board.Board, Placement, bool) {
	if snap == nil {
		return snap, Placement{}, false
	}
	li, _, ok := snap.FindCard(cardID)
	if !ok {
		return snap, Placement{}, false
	}
	srcListID := snap.Lists[li].ID

	rest := make([]board.Card, 0)
	for _, c := range Flatten(snap) {
		if c.ID != cardID {
			rest = append(rest, c)
		}
	}
	destIndex = clamp(destIndex, len(rest))

	without, ok := RemoveCard(snap, cardID)
	if !ok {
		return snap, Placement{}, false
	}

	targetList := srcListID
	targetIndex := 0
	switch {
	case destIndex > 0:
		prev := rest[destIndex-1]
		pl, pc, _ := without.FindCard(prev.ID)
		targetList = without.Lists[pl].ID
		targetIndex = pc + 1
	case destIndex < len(rest):
		next := rest[destIndex]
		nl, nc, _ := without.FindCard(next.ID)
		targetList = without.Lists[nl].ID
		targetIndex = nc
	}

	out, ok := MoveCard(snap, cardID, srcListID, targetList, targetIndex)
	if !ok {
		return snap, Placement{}, false
	}
	p, _ := Locate(out, cardID)
	return out, p, true
}

// Locate returns where a card currently sits.
func Locate(snap *board.Board, cardID int64) (Placement, bool) {
	if snap == nil {
		return Placement{}, false
	}
	li, ci, ok := snap.FindCard(cardID)
	if !ok {
		return Placement{}, false
	}
	return Placement{
		ListID:   snap.Lists[li].ID,
		Index:    ci,
		Position: snap.Lists[li].Cards[ci].Position,
	}, true
}

// Flatten returns copies of all cards in list order, then card order.
func Flatten(snap *board.Board) []board.Card {
	if snap == nil {
		return nil
	}
	var cards []board.Card
	for _, l := range snap.Lists {
		for _, c := range l.Cards {
			cards = append(cards, c.Clone())
		}
	}
	return cards
}

// PatchCard applies the non-positional fields of patch to a card. ListID and
// Position in the patch are ignored; moves go through MoveCard.
func PatchCard(snap *board.Board, cardID int64, patch board.CardPatch) (*board.Board, bool) {
	if snap == nil {
		return snap, false
	}
	li, ci, ok := snap.FindCard(cardID)
	if !ok {
		return snap, false
	}
	out := snap.Clone()
	card := &out.Lists[li].Cards[ci]
	if patch.Title != nil {
		card.Title = *patch.Title
	}
	if patch.Description != nil {
		card.Description = *patch.Description
	}
	if patch.AssigneeID != nil {
		// zero unassigns
		card.AssigneeID = nil
		if v := *patch.AssigneeID; v != 0 {
			card.AssigneeID = &v
		}
	}
	if patch.LabelIDs != nil {
		card.LabelIDs = append([]int64{}, patch.LabelIDs...)
	}
	if patch.Progress != nil {
		v := *patch.Progress
		card.Progress = &v
	}
	if patch.IsCompleted != nil {
		card.IsCompleted = *patch.IsCompleted
	}
	return out, true
}

// InsertCard inserts card into a list at index and renumbers the list.
func InsertCard(snap *board.Board, listID int64, card board.Card, index int) (*board.Board, bool) {
	if snap == nil {
		return snap, false
	}
	li := snap.ListIndex(listID)
	if li < 0 {
		return snap, false
	}
	out := snap.Clone()
	l := &out.Lists[li]
	index = clamp(index, len(l.Cards))
	card = card.Clone()
	card.ListID = listID
	l.Cards = insertCard(l.Cards, index, card)
	renumberCards(l)
	return out, true
}

// RemoveCard drops a card and renumbers the list it was in.
func RemoveCard(snap *board.Board, cardID int64) (*board.Board, bool) {
	if snap == nil {
		return snap, false
	}
	li, ci, ok := snap.FindCard(cardID)
	if !ok {
		return snap, false
	}
	out := snap.Clone()
	l := &out.Lists[li]
	l.Cards = append(l.Cards[:ci:ci], l.Cards[ci+1:]...)
	renumberCards(l)
	return out, true
}

// ReplaceCard swaps the card with id oldID for card, keeping its slot. Used to
// exchange a temporary client-side card for the one the server created.
func ReplaceCard(snap *board.Board, oldID int64, card board.Card) (*board.Board, bool) {
	if snap == nil {
		return snap, false
	}
	li, ci, ok := snap.FindCard(oldID)
	if !ok {
		return snap, false
	}
	out := snap.Clone()
	l := &out.Lists[li]
	card = card.Clone()
	card.ListID = l.ID
	l.Cards[ci] = card
	renumberCards(l)
	return out, true
}

// ApplyServerCard reconciles the local copy of a card with the server's
// version of it. The server's list id and 1-based position decide where the
// card lives; local positions are then renumbered so lists stay dense.
func ApplyServerCard(snap *board.Board, server board.Card) (*board.Board, bool) {
	if snap == nil {
		return snap, false
	}
	li, _, ok := snap.FindCard(server.ID)
	if !ok {
		return snap, false
	}
	srcListID := snap.Lists[li].ID
	destListID := server.ListID
	if snap.ListIndex(destListID) < 0 {
		destListID = srcListID
	}

	out, ok := MoveCard(snap, server.ID, srcListID, destListID, server.Position-1)
	if !ok {
		return snap, false
	}
	dl, dc, _ := out.FindCard(server.ID)
	merged := server.Clone()
	merged.ListID = out.Lists[dl].ID
	merged.Position = out.Lists[dl].Cards[dc].Position
	out.Lists[dl].Cards[dc] = merged
	return out, true
}

func insertCard(cards []board.Card, index int, card board.Card) []board.Card {
	out := make([]board.Card, 0, len(cards)+1)
	out = append(out, cards[:index]...)
	out = append(out, card)
	return append(out, cards[index:]...)
}

func renumberCards(l *board.List) {
	for i := range l.Cards {
		l.Cards[i].Position = i + 1
		l.Cards[i].ListID = l.ID
	}
}

func clamp(index, n int) int {
	if index < 0 {
		return 0
	}
	if index > n {
		return n
	}
	return index
}
