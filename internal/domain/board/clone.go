package board

// Clone returns a deep copy of the board. Every list, card and label slice is
// reallocated so the copy can be mutated without touching the receiver.
func (b *Board) Clone() *Board {
	if b == nil {
		return nil
	}
	out := *b
	if b.Lists != nil {
		out.Lists = make([]List, len(b.Lists))
		for i := range b.Lists {
			out.Lists[i] = b.Lists[i].Clone()
		}
	}
	if b.Collaborators != nil {
		out.Collaborators = make([]Collaborator, len(b.Collaborators))
		for i, c := range b.Collaborators {
			if c.User != nil {
				u := *c.User
				c.User = &u
			}
			out.Collaborators[i] = c
		}
	}
	if b.Labels != nil {
		out.Labels = append([]Label(nil), b.Labels...)
	}
	return &out
}

// Clone returns a deep copy of the list and its cards.
func (l List) Clone() List {
	out := l
	if l.Cards != nil {
		out.Cards = make([]Card, len(l.Cards))
		for i := range l.Cards {
			out.Cards[i] = l.Cards[i].Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the card.
func (c Card) Clone() Card {
	out := c
	if c.AssigneeID != nil {
		v := *c.AssigneeID
		out.AssigneeID = &v
	}
	if c.DueDate != nil {
		v := *c.DueDate
		out.DueDate = &v
	}
	if c.Progress != nil {
		v := *c.Progress
		out.Progress = &v
	}
	if c.LabelIDs != nil {
		out.LabelIDs = append([]int64(nil), c.LabelIDs...)
	}
	return out
}

// ListIndex returns the index of the list with the given id, or -1.
func (b *Board) ListIndex(listID int64) int {
	for i := range b.Lists {
		if b.Lists[i].ID == listID {
			return i
		}
	}
	return -1
}

// CardIndex returns the index of the card with the given id inside the list, or -1.
func (l *List) CardIndex(cardID int64) int {
	for i := range l.Cards {
		if l.Cards[i].ID == cardID {
			return i
		}
	}
	return -1
}

// FindCard returns the list index and card index of a card anywhere on the
// board.
func (b *Board) FindCard(cardID int64) (listIdx, cardIdx int, ok bool) {
	for i := range b.Lists {
		if j := b.Lists[i].CardIndex(cardID); j >= 0 {
			return i, j, true
		}
	}
	return -1, -1, false
}
