package permission

import (
	"context"
	"errors"

	"github.com/rpggio/kanbansync/internal/domain/board"
	"github.com/rpggio/kanbansync/internal/repository"
)

const ownerPlaceholderName = "Owner"

// resolve never fails: every lookup error maps to a fallback record.
func (c *Cache) resolve(ctx context.Context, boardID, userID int64) Record {
	if userID == 0 {
		return noAccess()
	}

	b, err := c.boards.GetBoard(ctx, boardID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.logger.Warn("board not found while resolving permissions", "board_id", boardID, "user_id", userID)
			return noAccess()
		}
		c.logger.Warn("board fetch failed, falling back to viewer", "board_id", boardID, "user_id", userID, "error", err)
		return Capabilities(board.RoleViewer)
	}

	users, usersErr := c.boardUsers(ctx, b)
	if usersErr != nil {
		c.logger.Warn("collaborator fetch failed", "board_id", boardID, "error", usersErr)
	}
	users = c.withOwner(ctx, b.OwnerID, users)

	role := board.RoleNone
	switch {
	case b.OwnerID == userID:
		role = board.RoleOwner
	case usersErr != nil:
		role = board.RoleViewer
	default:
		for _, u := range users {
			if u.ID != userID {
				continue
			}
			role = u.Role
			if role == board.RoleNone {
				role = board.RoleEditor
			}
			break
		}
	}

	rec := Capabilities(role)
	rec.BoardUsers = users
	c.logger.Debug("permissions resolved", "board_id", boardID, "user_id", userID, "role", string(role))
	return rec
}

// boardUsers prefers the collaborators embedded in the board and falls back
// to the member list endpoint. Duplicates keep their first occurrence.
func (c *Cache) boardUsers(ctx context.Context, b *board.Board) ([]board.User, error) {
	var users []board.User
	if len(b.Collaborators) > 0 {
		users = make([]board.User, 0, len(b.Collaborators))
		for _, collab := range b.Collaborators {
			u := board.User{ID: collab.UserID, Role: collab.Role}
			if collab.User != nil {
				u.Name = collab.User.Name
				u.Email = collab.User.Email
			}
			users = append(users, u)
		}
	} else {
		fetched, err := c.boards.GetBoardUsers(ctx, b.ID)
		if err != nil {
			return []board.User{}, err
		}
		users = fetched
	}

	seen := make(map[int64]struct{}, len(users))
	out := make([]board.User, 0, len(users))
	for _, u := range users {
		if _, dup := seen[u.ID]; dup {
			continue
		}
		seen[u.ID] = struct{}{}
		out = append(out, u)
	}
	return out, nil
}

// withOwner makes sure the owner is listed with the owner role, prepending a
// profile (or a placeholder when the profile cannot be fetched) if missing.
func (c *Cache) withOwner(ctx context.Context, ownerID int64, users []board.User) []board.User {
	if ownerID == 0 {
		return users
	}
	for i := range users {
		if users[i].ID == ownerID {
			users[i].Role = board.RoleOwner
			return users
		}
	}

	owner := board.User{ID: ownerID, Name: ownerPlaceholderName, Role: board.RoleOwner}
	if c.users != nil {
		u, err := c.users.GetUserByID(ctx, ownerID)
		if err != nil {
			c.logger.Warn("owner profile fetch failed", "user_id", ownerID, "error", err)
		} else if u != nil {
			owner.Name = u.Name
			owner.Email = u.Email
		}
	}
	return append([]board.User{owner}, users...)
}
