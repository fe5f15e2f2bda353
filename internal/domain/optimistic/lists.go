package optimistic

import "github.com/rpggio/kanbansync/internal/domain/board"

// InsertList inserts a list at index and renumbers list positions.
func InsertList(snap *board.Board, list board.List, index int) (*board.Board, bool) {
	if snap == nil {
		return snap, false
	}
	out := snap.Clone()
	index = clamp(index, len(out.Lists))
	list = list.Clone()
	list.BoardID = out.ID
	lists := make([]board.List, 0, len(out.Lists)+1)
	lists = append(lists, out.Lists[:index]...)
	lists = append(lists, list)
	out.Lists = append(lists, out.Lists[index:]...)
	renumberLists(out)
	return out, true
}

// RemoveList drops a list together with its cards.
func RemoveList(snap *board.Board, listID int64) (*board.Board, bool) {
	if snap == nil {
		return snap, false
	}
	li := snap.ListIndex(listID)
	if li < 0 {
		return snap, false
	}
	out := snap.Clone()
	out.Lists = append(out.Lists[:li:li], out.Lists[li+1:]...)
	renumberLists(out)
	return out, true
}

// PatchList applies a rename. Position in the patch is ignored; use MoveList.
func PatchList(snap *board.Board, listID int64, patch board.ListPatch) (*board.Board, bool) {
	if snap == nil {
		return snap, false
	}
	li := snap.ListIndex(listID)
	if li < 0 {
		return snap, false
	}
	out := snap.Clone()
	if patch.Name != nil {
		out.Lists[li].Name = *patch.Name
	}
	return out, true
}

// ReplaceList swaps the list with id oldID for the server's list, keeping the
// local cards when the server returned none.
func ReplaceList(snap *board.Board, oldID int64, list board.List) (*board.Board, bool) {
	if snap == nil {
		return snap, false
	}
	li := snap.ListIndex(oldID)
	if li < 0 {
		return snap, false
	}
	out := snap.Clone()
	list = list.Clone()
	if list.Cards == nil {
		list.Cards = out.Lists[li].Cards
	}
	list.BoardID = out.ID
	out.Lists[li] = list
	for i := range out.Lists[li].Cards {
		out.Lists[li].Cards[i].ListID = list.ID
	}
	renumberLists(out)
	return out, true
}

// MoveList moves a list to destIndex among its siblings.
func MoveList(snap *board.Board, listID int64, destIndex int) (*board.Board, bool) {
	if snap == nil {
		return snap, false
	}
	li := snap.ListIndex(listID)
	if li < 0 {
		return snap, false
	}
	out := snap.Clone()
	list := out.Lists[li]
	rest := append(out.Lists[:li:li], out.Lists[li+1:]...)
	destIndex = clamp(destIndex, len(rest))
	lists := make([]board.List, 0, len(out.Lists))
	lists = append(lists, rest[:destIndex]...)
	lists = append(lists, list)
	out.Lists = append(lists, rest[destIndex:]...)
	renumberLists(out)
	return out, true
}

// SetCollaboratorRole changes a collaborator's role on the board.
func SetCollaboratorRole(snap *board.Board, userID int64, role board.Role) (*board.Board, bool) {
	if snap == nil {
		return snap, false
	}
	for i := range snap.Collaborators {
		if snap.Collaborators[i].UserID == userID {
			out := snap.Clone()
			out.Collaborators[i].Role = role
			if out.Collaborators[i].User != nil {
				out.Collaborators[i].User.Role = role
			}
			return out, true
		}
	}
	return snap, false
}

// AddCollaborator appends a collaborator unless the user is already one.
func AddCollaborator(snap *board.Board, c board.Collaborator) (*board.Board, bool) {
	if snap == nil || snap.OwnerID == c.UserID {
		return snap, false
	}
	for _, existing := range snap.Collaborators {
		if existing.UserID == c.UserID {
			return snap, false
		}
	}
	out := snap.Clone()
	if c.User != nil {
		u := *c.User
		c.User = &u
	}
	out.Collaborators = append(out.Collaborators, c)
	return out, true
}

// RemoveCollaborator drops a collaborator from the board.
func RemoveCollaborator(snap *board.Board, userID int64) (*board.Board, bool) {
	if snap == nil {
		return snap, false
	}
	for i := range snap.Collaborators {
		if snap.Collaborators[i].UserID == userID {
			out := snap.Clone()
			out.Collaborators = append(out.Collaborators[:i:i], out.Collaborators[i+1:]...)
			return out, true
		}
	}
	return snap, false
}

func renumberLists(b *board.Board) {
	for i := range b.Lists {
		b.Lists[i].Position = i + 1
	}
}
