package mutation

import (
	"github.com/rpggio/kanbansync/internal/domain/board"
	"github.com/rpggio/kanbansync/internal/domain/optimistic"
)

// restoreCard puts one card back where it was in before, leaving every other
// entity as it is in current. A card absent from before is removed.
func restoreCard(current, before *board.Board, cardID int64) *board.Board {
	out := current
	if _, _, ok := out.FindCard(cardID); ok {
		out, _ = optimistic.RemoveCard(out, cardID)
	}
	li, ci, ok := before.FindCard(cardID)
	if !ok {
		return out
	}
	orig := before.Lists[li].Cards[ci]
	if restored, ok := optimistic.InsertCard(out, orig.ListID, orig, ci); ok {
		return restored
	}
	return out
}

// restoreList is restoreCard for lists. A reinserted list keeps only the
// cards that have not shown up in another list since.
func restoreList(current, before *board.Board, listID int64) *board.Board {
	bi := before.ListIndex(listID)
	ci := current.ListIndex(listID)
	switch {
	case bi < 0 && ci < 0:
		return current
	case bi < 0:
		out, _ := optimistic.RemoveList(current, listID)
		return out
	case ci < 0:
		orig := before.Lists[bi].Clone()
		cards := orig.Cards[:0]
		for _, c := range orig.Cards {
			if _, _, taken := current.FindCard(c.ID); !taken {
				cards = append(cards, c)
			}
		}
		orig.Cards = cards
		out, _ := optimistic.InsertList(current, orig, bi)
		return out
	default:
		name := before.Lists[bi].Name
		out, _ := optimistic.PatchList(current, listID, board.ListPatch{Name: &name})
		out, _ = optimistic.MoveList(out, listID, bi)
		return out
	}
}

// restoreCollaborator resets one collaborator to its state in before.
func restoreCollaborator(current, before *board.Board, userID int64) *board.Board {
	var orig *board.Collaborator
	for i := range before.Collaborators {
		if before.Collaborators[i].UserID == userID {
			orig = &before.Collaborators[i]
			break
		}
	}
	if orig == nil {
		out, _ := optimistic.RemoveCollaborator(current, userID)
		return out
	}
	if out, ok := optimistic.SetCollaboratorRole(current, userID, orig.Role); ok {
		return out
	}
	out, _ := optimistic.AddCollaborator(current, *orig)
	return out
}
