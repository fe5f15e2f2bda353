package mocks

import (
	"context"

	"github.com/rpggio/kanbansync/internal/domain/activity"
	"github.com/rpggio/kanbansync/internal/domain/board"
	"github.com/rpggio/kanbansync/internal/notify"
	"github.com/stretchr/testify/mock"
)

// BoardRepository is a mock for repository.BoardRepository.
type BoardRepository struct {
	mock.Mock
}

func (m *BoardRepository) GetBoard(ctx context.Context, id int64) (*board.Board, error) {
	args := m.Called(ctx, id)
	if b, ok := args.Get(0).(*board.Board); ok {
		return b.Clone(), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *BoardRepository) GetBoardUsers(ctx context.Context, boardID int64) ([]board.User, error) {
	args := m.Called(ctx, boardID)
	if list, ok := args.Get(0).([]board.User); ok {
		return append([]board.User(nil), list...), args.Error(1)
	}
	return nil, args.Error(1)
}

// UserRepository is a mock for repository.UserRepository.
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) GetUserByID(ctx context.Context, id int64) (*board.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*board.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

// CardRepository is a mock for repository.CardRepository.
type CardRepository struct {
	mock.Mock
}

func (m *CardRepository) CreateCard(ctx context.Context, listID int64, card board.Card) (*board.Card, error) {
	args := m.Called(ctx, listID, card)
	if c, ok := args.Get(0).(*board.Card); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CardRepository) UpdateCard(ctx context.Context, id int64, patch board.CardPatch) (*board.Card, error) {
	args := m.Called(ctx, id, patch)
	if c, ok := args.Get(0).(*board.Card); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CardRepository) DeleteCard(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// ListRepository is a mock for repository.ListRepository.
type ListRepository struct {
	mock.Mock
}

func (m *ListRepository) CreateList(ctx context.Context, boardID int64, patch board.ListPatch) (*board.List, error) {
	args := m.Called(ctx, boardID, patch)
	if l, ok := args.Get(0).(*board.List); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ListRepository) UpdateList(ctx context.Context, boardID, listID int64, patch board.ListPatch) (*board.List, error) {
	args := m.Called(ctx, boardID, listID, patch)
	if l, ok := args.Get(0).(*board.List); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ListRepository) DeleteList(ctx context.Context, boardID, listID int64) error {
	args := m.Called(ctx, boardID, listID)
	return args.Error(0)
}

// CollaboratorRepository is a mock for repository.CollaboratorRepository.
type CollaboratorRepository struct {
	mock.Mock
}

func (m *CollaboratorRepository) AddCollaborator(ctx context.Context, boardID, userID int64, role board.Role) error {
	args := m.Called(ctx, boardID, userID, role)
	return args.Error(0)
}

func (m *CollaboratorRepository) UpdateCollaborator(ctx context.Context, boardID, userID int64, role board.Role) error {
	args := m.Called(ctx, boardID, userID, role)
	return args.Error(0)
}

func (m *CollaboratorRepository) RemoveCollaborator(ctx context.Context, boardID, userID int64) error {
	args := m.Called(ctx, boardID, userID)
	return args.Error(0)
}

// ActivityRepository is a mock for repository.ActivityRepository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// Notifier is a mock for the mutation notification sink.
type Notifier struct {
	mock.Mock
}

func (m *Notifier) Notify(kind notify.Kind, message string) {
	m.Called(kind, message)
}
