// Package permission caches what the acting user may do on each board.
//
// Lookups never block: a miss inserts a loading placeholder and resolves the
// real record in the background, after which subscribers of that board are
// called. The whole cache belongs to one acting identity and is dropped when
// the identity changes.
package permission

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/rpggio/kanbansync/internal/domain/board"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Cache is a process-wide, per-identity permission store.
type Cache struct {
	boards BoardReader
	users  UserReader
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	group  singleflight.Group

	mu      sync.Mutex
	userID  int64
	gen     uint64
	entries map[int64]Record
	subs    map[int64]map[*subscriber]struct{}
}

type subscriber struct {
	fn func(Record)
}

// NewCache creates an empty cache with no acting user.
func NewCache(boards BoardReader, users UserReader, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		boards:  boards,
		users:   users,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[int64]Record),
		subs:    make(map[int64]map[*subscriber]struct{}),
	}
}

// SetUser switches the acting identity. Any change clears every entry, and
// resolutions still running for the previous identity are discarded when
// they finish. Zero means logged out.
func (c *Cache) SetUser(userID int64) {
	c.mu.Lock()
	if c.userID == userID {
		c.mu.Unlock()
		return
	}
	prev := c.userID
	c.userID = userID
	c.gen++
	c.entries = make(map[int64]Record)
	c.mu.Unlock()

	c.logger.Info("permission cache cleared", "previous_user_id", prev, "user_id", userID)
}

// UserID returns the acting identity.
func (c *Cache) UserID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// Get returns the cached record for a board. On a miss it stores and returns
// a loading placeholder and starts resolution in the background.
func (c *Cache) Get(boardID int64) Record {
	c.mu.Lock()
	if rec, ok := c.entries[boardID]; ok {
		c.mu.Unlock()
		return rec.clone()
	}
	rec := placeholder()
	c.entries[boardID] = rec
	userID, gen := c.userID, c.gen
	c.mu.Unlock()

	go c.load(c.ctx, boardID, userID, gen, false)
	return rec.clone()
}

// Users returns the resolved board users, owner included.
func (c *Cache) Users(boardID int64) []board.User {
	return c.Get(boardID).BoardUsers
}

// Refresh re-resolves a board and waits for the result. Used after
// collaborator changes so the acting user's own view follows.
func (c *Cache) Refresh(ctx context.Context, boardID int64) Record {
	c.mu.Lock()
	userID, gen := c.userID, c.gen
	c.mu.Unlock()
	return c.load(ctx, boardID, userID, gen, true)
}

// Preload resolves many boards concurrently and waits for all of them.
func (c *Cache) Preload(ctx context.Context, boardIDs []int64) error {
	c.mu.Lock()
	userID, gen := c.userID, c.gen
	c.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, id := range boardIDs {
		g.Go(func() error {
			c.load(gctx, id, userID, gen, false)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Subscribe registers fn to be called with every record stored for boardID.
// The returned function removes the subscription.
func (c *Cache) Subscribe(boardID int64, fn func(Record)) func() {
	sub := &subscriber{fn: fn}
	c.mu.Lock()
	if c.subs[boardID] == nil {
		c.subs[boardID] = make(map[*subscriber]struct{})
	}
	c.subs[boardID][sub] = struct{}{}
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			if subs, ok := c.subs[boardID]; ok {
				delete(subs, sub)
				if len(subs) == 0 {
					delete(c.subs, boardID)
				}
			}
			c.mu.Unlock()
		})
	}
}

// Close stops background resolutions.
func (c *Cache) Close() {
	c.cancel()
}

func (c *Cache) load(ctx context.Context, boardID, userID int64, gen uint64, force bool) Record {
	key := strconv.FormatUint(gen, 10) + ":" + strconv.FormatInt(boardID, 10)
	if force {
		c.group.Forget(key)
	}
	v, _, _ := c.group.Do(key, func() (any, error) {
		rec := c.resolve(ctx, boardID, userID)
		c.store(boardID, gen, rec)
		return rec, nil
	})
	return v.(Record).clone()
}

func (c *Cache) store(boardID int64, gen uint64, rec Record) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.logger.Debug("discarding permissions resolved for previous user", "board_id", boardID)
		return
	}
	c.entries[boardID] = rec
	subs := make([]*subscriber, 0, len(c.subs[boardID]))
	for sub := range c.subs[boardID] {
		subs = append(subs, sub)
	}
	c.mu.Unlock()

	for _, sub := range subs {
		sub.fn(rec.clone())
	}
}
