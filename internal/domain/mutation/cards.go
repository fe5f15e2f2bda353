package mutation

import (
	"context"
	"fmt"
	"strings"

	"github.com/rpggio/kanbansync/internal/domain/board"
	"github.com/rpggio/kanbansync/internal/domain/optimistic"
)

// MoveCard moves a card to destIndex of destListID. The remote position is
// 1-based.
func (s *Service) MoveCard(ctx context.Context, boardID, cardID, srcListID, destListID int64, destIndex int) (*board.Card, error) {
	o := op{
		name:     "move_card",
		kind:     kindCard,
		entityID: cardID,
		success:  "Card moved",
		failure:  "Failed to move card",
		guard:    canEdit,
		apply: func(snap *board.Board) (*board.Board, bool) {
			return optimistic.MoveCard(snap, cardID, srcListID, destListID, destIndex)
		},
		revert: func(current, before *board.Board) *board.Board {
			return restoreCard(current, before, cardID)
		},
	}
	return run(ctx, s, boardID, o, func(ctx context.Context, next *board.Board) (*board.Card, error) {
		return s.sendPlacement(ctx, next, cardID)
	}, reconcileCard)
}

// ReorderCard moves a card within the flattened, board-wide card order. The
// destination list is taken from the neighbouring cards.
func (s *Service) ReorderCard(ctx context.Context, boardID, cardID int64, destIndex int) (*board.Card, error) {
	o := op{
		name:     "reorder_card",
		kind:     kindCard,
		entityID: cardID,
		success:  "Card moved",
		failure:  "Failed to reorder card",
		guard:    canEdit,
		apply: func(snap *board.Board) (*board.Board, bool) {
			out, _, ok := optimistic.ReorderFlat(snap, cardID, destIndex)
			return out, ok
		},
		revert: func(current, before *board.Board) *board.Board {
			return restoreCard(current, before, cardID)
		},
	}
	return run(ctx, s, boardID, o, func(ctx context.Context, next *board.Board) (*board.Card, error) {
		return s.sendPlacement(ctx, next, cardID)
	}, reconcileCard)
}

// UpdateCard applies an inline edit of non-positional fields. Use MoveCard
// or ReorderCard to change a card's list or position.
func (s *Service) UpdateCard(ctx context.Context, boardID, cardID int64, patch board.CardPatch) (*board.Card, error) {
	if patch.Empty() {
		return nil, &Error{Op: "update_card", Err: fmt.Errorf("%w: nothing to update", ErrInvalidInput)}
	}
	if patch.ListID != nil || patch.Position != nil {
		return nil, &Error{Op: "update_card", Err: fmt.Errorf("%w: list and position change through move", ErrInvalidInput)}
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, &Error{Op: "update_card", Err: fmt.Errorf("%w: title is required", ErrInvalidInput)}
	}
	if patch.Progress != nil && (*patch.Progress < 0 || *patch.Progress > 100) {
		return nil, &Error{Op: "update_card", Err: fmt.Errorf("%w: progress must be between 0 and 100", ErrInvalidInput)}
	}

	o := op{
		name:     "update_card",
		kind:     kindCard,
		entityID: cardID,
		success:  "Card updated",
		failure:  "Failed to update card",
		guard:    canEdit,
		apply: func(snap *board.Board) (*board.Board, bool) {
			return optimistic.PatchCard(snap, cardID, patch)
		},
		revert: func(current, before *board.Board) *board.Board {
			return restoreCard(current, before, cardID)
		},
	}
	return run(ctx, s, boardID, o, func(ctx context.Context, _ *board.Board) (*board.Card, error) {
		return s.cards.UpdateCard(ctx, cardID, patch)
	}, reconcileCard)
}

// CreateCard inserts a card at index of a list. The card carries a temporary
// negative id until the server's copy replaces it.
func (s *Service) CreateCard(ctx context.Context, boardID, listID int64, card board.Card, index int) (*board.Card, error) {
	if strings.TrimSpace(card.Title) == "" {
		return nil, &Error{Op: "create_card", Err: fmt.Errorf("%w: title is required", ErrInvalidInput)}
	}
	tempID := s.nextTempID()
	card.ID = tempID
	card.ListID = listID

	o := op{
		name:     "create_card",
		kind:     kindCard,
		entityID: tempID,
		success:  "Card created",
		failure:  "Failed to create card",
		guard:    canEdit,
		apply: func(snap *board.Board) (*board.Board, bool) {
			return optimistic.InsertCard(snap, listID, card, index)
		},
		revert: func(current, before *board.Board) *board.Board {
			return restoreCard(current, before, tempID)
		},
	}
	return run(ctx, s, boardID, o, func(ctx context.Context, next *board.Board) (*board.Card, error) {
		p, _ := optimistic.Locate(next, tempID)
		draft := card.Clone()
		draft.ID = 0
		draft.Position = p.Position
		return s.cards.CreateCard(ctx, listID, draft)
	}, func(snap *board.Board, created *board.Card) (*board.Board, bool) {
		if created == nil {
			return snap, false
		}
		return optimistic.ReplaceCard(snap, tempID, *created)
	})
}

// DeleteCard removes a card.
func (s *Service) DeleteCard(ctx context.Context, boardID, cardID int64) error {
	o := op{
		name:     "delete_card",
		kind:     kindCard,
		entityID: cardID,
		success:  "Card deleted",
		failure:  "Failed to delete card",
		guard:    canEdit,
		apply: func(snap *board.Board) (*board.Board, bool) {
			return optimistic.RemoveCard(snap, cardID)
		},
		revert: func(current, before *board.Board) *board.Board {
			return restoreCard(current, before, cardID)
		},
	}
	_, err := run[struct{}](ctx, s, boardID, o, func(ctx context.Context, _ *board.Board) (struct{}, error) {
		return struct{}{}, s.cards.DeleteCard(ctx, cardID)
	}, nil)
	return err
}

func (s *Service) sendPlacement(ctx context.Context, next *board.Board, cardID int64) (*board.Card, error) {
	p, _ := optimistic.Locate(next, cardID)
	return s.cards.UpdateCard(ctx, cardID, board.CardPatch{ListID: &p.ListID, Position: &p.Position})
}

func reconcileCard(snap *board.Board, server *board.Card) (*board.Board, bool) {
	if server == nil {
		return snap, false
	}
	return optimistic.ApplyServerCard(snap, *server)
}
