// Package mutation coordinates optimistic board mutations with the remote
// store.
//
// Every operation follows the same lifecycle. The guard checks the cached
// permissions, the reducer computes the next snapshot, and that snapshot
// becomes the current local state under a fresh single-use token. Only then
// is the remote call made. Success reconciles the local state with the
// server's copy; failure restores the snapshot taken before the mutation.
// A response for a token that is no longer the active one for its entity
// does not touch local state while a newer operation on that entity is still
// pending or has been confirmed. When every newer operation failed, a late
// failure still rolls its entity back.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rpggio/kanbansync/internal/domain/activity"
	"github.com/rpggio/kanbansync/internal/domain/board"
	"github.com/rpggio/kanbansync/internal/domain/permission"
	"github.com/rpggio/kanbansync/internal/notify"
	"github.com/rpggio/kanbansync/internal/repository"
	"golang.org/x/sync/singleflight"
)

// DefaultRefetchDelay is used when Options.RefetchDelay is zero.
const DefaultRefetchDelay = time.Second

// Dependencies are the collaborators of a Service. Activity, Notifier and
// Tracker are optional.
type Dependencies struct {
	Boards        BoardFetcher
	Cards         CardWriter
	Lists         ListWriter
	Collaborators CollaboratorWriter
	Permissions   Permissions
	Activity      ActivityLogger
	Notifier      notify.Notifier
	Tracker       *Tracker
}

// Options tune a Service.
type Options struct {
	// RefetchDelay is the debounce before the background refetch that
	// follows a confirmed mutation. Negative disables it.
	RefetchDelay time.Duration
}

// Service holds one local snapshot per board and applies mutations to it.
type Service struct {
	boards        BoardFetcher
	cards         CardWriter
	lists         ListWriter
	collaborators CollaboratorWriter
	perms         Permissions
	activity      ActivityLogger
	notifier      notify.Notifier
	tracker       *Tracker
	logger        *slog.Logger
	refetchDelay  time.Duration

	ctx       context.Context
	cancel    context.CancelFunc
	refetches singleflight.Group
	tempIDs   atomic.Int64

	mu     sync.Mutex
	views  map[int64]*view
	closed bool
}

// view is the local state of one board.
type view struct {
	snapshot *board.Board
	revision uint64
	active   map[string]string
	// seq numbers operations; confirmed holds the newest confirmed seq per
	// entity.
	seq       uint64
	confirmed map[string]uint64
	// refetchDue is set when a background refetch was skipped because
	// mutations were in flight.
	refetchDue bool
	timer      *time.Timer
	subs       map[*subscriber]struct{}
}

type subscriber struct {
	fn func(*board.Board)
}

// NewService creates a mutation service.
func NewService(deps Dependencies, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Discard
	}
	if deps.Tracker == nil {
		deps.Tracker = NewTracker()
	}
	delay := opts.RefetchDelay
	if delay == 0 {
		delay = DefaultRefetchDelay
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		boards:        deps.Boards,
		cards:         deps.Cards,
		lists:         deps.Lists,
		collaborators: deps.Collaborators,
		perms:         deps.Permissions,
		activity:      deps.Activity,
		notifier:      deps.Notifier,
		tracker:       deps.Tracker,
		logger:        logger,
		refetchDelay:  delay,
		ctx:           ctx,
		cancel:        cancel,
		views:         make(map[int64]*view),
	}
}

// Tracker returns the shared in-flight token set.
func (s *Service) Tracker() *Tracker {
	return s.tracker
}

// Load fetches a board and makes it the local snapshot.
func (s *Service) Load(ctx context.Context, boardID int64) (*board.Board, error) {
	b, err := s.boards.GetBoard(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("load board %d: %w", boardID, err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	v := s.viewLocked(boardID)
	v.set(b)
	subs := v.subscribers()
	s.mu.Unlock()

	publish(subs, b)
	s.logger.Debug("board loaded", "board_id", boardID, "lists", len(b.Lists))
	return b.Clone(), nil
}

// Snapshot returns a copy of the current local state of a board.
func (s *Service) Snapshot(boardID int64) (*board.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.views[boardID]
	if !ok || v.snapshot == nil {
		return nil, ErrBoardNotLoaded
	}
	return v.snapshot.Clone(), nil
}

// Subscribe registers fn to receive every new snapshot of a board.
func (s *Service) Subscribe(boardID int64, fn func(*board.Board)) func() {
	sub := &subscriber{fn: fn}
	s.mu.Lock()
	s.viewLocked(boardID).subs[sub] = struct{}{}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		if v, ok := s.views[boardID]; ok {
			delete(v.subs, sub)
		}
		s.mu.Unlock()
	}
}

// Refetch reloads a board from the store, unless a mutation was applied
// locally while the fetch was running.
func (s *Service) Refetch(ctx context.Context, boardID int64) error {
	return s.refetch(ctx, boardID, true)
}

// Close stops pending background refetches. Mutations after Close fail
// with ErrClosed.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	for _, v := range s.views {
		if v.timer != nil {
			v.timer.Stop()
		}
	}
	s.mu.Unlock()
	s.cancel()
}

func (s *Service) refetch(ctx context.Context, boardID int64, force bool) error {
	s.mu.Lock()
	v, ok := s.views[boardID]
	if !ok {
		s.mu.Unlock()
		return ErrBoardNotLoaded
	}
	if !force && len(v.active) > 0 {
		v.refetchDue = true
		s.mu.Unlock()
		s.logger.Debug("refetch skipped, mutations in flight", "board_id", boardID, "in_flight", len(v.active))
		return nil
	}
	rev := v.revision
	s.mu.Unlock()

	res, err, _ := s.refetches.Do(strconv.FormatInt(boardID, 10), func() (any, error) {
		return s.boards.GetBoard(ctx, boardID)
	})
	if err != nil {
		return fmt.Errorf("refetch board %d: %w", boardID, err)
	}
	fresh := res.(*board.Board).Clone()

	s.mu.Lock()
	if v.revision != rev {
		s.mu.Unlock()
		s.logger.Debug("refetch superseded by local mutation", "board_id", boardID)
		return nil
	}
	v.set(fresh)
	subs := v.subscribers()
	s.mu.Unlock()

	publish(subs, fresh)
	s.logger.Debug("board refetched", "board_id", boardID)
	return nil
}

func (s *Service) scheduleRefetch(boardID int64) {
	if s.refetchDelay < 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.views[boardID]
	if s.closed || !ok {
		return
	}
	if v.timer != nil {
		v.timer.Stop()
	}
	v.timer = time.AfterFunc(s.refetchDelay, func() {
		if err := s.refetch(s.ctx, boardID, false); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("background refetch failed", "board_id", boardID, "error", err)
		}
	})
}

// op describes one optimistic mutation.
type op struct {
	name     string
	kind     string
	entityID int64
	success  string
	failure  string
	guard    func(permission.Record) bool
	apply    func(*board.Board) (*board.Board, bool)
	// revert undoes this mutation alone on a snapshot that has moved on
	// since it was applied.
	revert func(current, before *board.Board) *board.Board
}

func canEdit(rec permission.Record) bool { return rec.CanEdit }

func canDelete(rec permission.Record) bool { return rec.CanEdit && rec.CanDelete }

func canManageCollaborators(rec permission.Record) bool { return rec.CanManageCollaborators }

// run drives one operation through its lifecycle. call receives the
// optimistic snapshot; reconcile may be nil.
func run[T any](
	ctx context.Context,
	s *Service,
	boardID int64,
	o op,
	call func(ctx context.Context, next *board.Board) (T, error),
	reconcile func(snap *board.Board, result T) (*board.Board, bool),
) (T, error) {
	var zero T
	entity := entityKey(o.kind, o.entityID)
	log := s.logger.With("op", o.name, "board_id", boardID, "entity", entity)

	if !o.guard(s.perms.Get(boardID)) {
		log.Info("mutation refused by cached permissions")
		s.record(ctx, boardID, o.name, entity, "", activity.TypeRefused, ErrPermissionDenied.Error())
		return zero, &Error{Op: o.name, Err: ErrPermissionDenied}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return zero, &Error{Op: o.name, Err: ErrClosed}
	}
	v, ok := s.views[boardID]
	if !ok || v.snapshot == nil {
		s.mu.Unlock()
		return zero, &Error{Op: o.name, Err: ErrBoardNotLoaded}
	}
	next, applied := o.apply(v.snapshot)
	if !applied {
		s.mu.Unlock()
		log.Warn("reducer miss, refetching board")
		s.record(ctx, boardID, o.name, entity, "", activity.TypeReducerMiss, ErrReducerMiss.Error())
		go func() {
			if err := s.refetch(s.ctx, boardID, true); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Warn("refetch after reducer miss failed", "board_id", boardID, "error", err)
			}
		}()
		return zero, &Error{Op: o.name, Err: ErrReducerMiss}
	}
	before := v.snapshot
	token := newToken(o.kind, o.entityID)
	v.seq++
	seq := v.seq
	v.active[entity] = token
	rev := v.set(next)
	subs := v.subscribers()
	s.mu.Unlock()

	log = log.With("token", token)
	s.tracker.Start(Operation{Token: token, BoardID: boardID, Op: o.name, Entity: entity})
	publish(subs, next)
	log.Debug("optimistic mutation applied")

	result, err := call(ctx, next)

	s.tracker.End(token)
	s.mu.Lock()
	stale := v.active[entity] != token
	if !stale {
		delete(v.active, entity)
	}
	_, pending := v.active[entity]

	if err != nil {
		// A superseded failure is settled only if a newer operation on the
		// entity is still pending or was confirmed.
		settled := stale && (pending || v.confirmed[entity] > seq)
		var restored *board.Board
		if !settled {
			restored = before
			if v.revision != rev {
				restored = o.revert(v.snapshot, before)
			}
			v.set(restored)
			subs = v.subscribers()
		}
		due := v.takeRefetchDue()
		s.mu.Unlock()

		msg := failureMessage(err, o.failure)
		s.notifier.Notify(notify.Error, msg)
		if settled {
			log.Warn("superseded mutation failed, local state kept", "error", err)
			s.record(ctx, boardID, o.name, entity, token, activity.TypeDiscarded, msg)
		} else {
			publish(subs, restored)
			log.Warn("mutation rolled back", "error", err, "superseded", stale)
			s.record(ctx, boardID, o.name, entity, token, activity.TypeRolledBack, msg)
		}
		if due {
			s.scheduleRefetch(boardID)
		}
		return zero, &Error{Op: o.name, Token: token, Err: err}
	}

	if v.confirmed[entity] < seq {
		v.confirmed[entity] = seq
	}

	if stale {
		v.takeRefetchDue()
		s.mu.Unlock()
		log.Info("discarding response for superseded mutation", "error", ErrStaleToken)
		s.record(ctx, boardID, o.name, entity, token, activity.TypeDiscarded, ErrStaleToken.Error())
		s.scheduleRefetch(boardID)
		return result, nil
	}

	current := v.snapshot
	if reconcile != nil {
		if merged, ok := reconcile(current, result); ok {
			v.set(merged)
			current = merged
		}
	}
	v.takeRefetchDue()
	subs = v.subscribers()
	s.mu.Unlock()

	publish(subs, current)
	s.notifier.Notify(notify.Success, o.success)
	log.Info("mutation confirmed")
	s.record(ctx, boardID, o.name, entity, token, activity.TypeConfirmed, o.success)
	s.scheduleRefetch(boardID)
	return result, nil
}

func (s *Service) record(ctx context.Context, boardID int64, opName, entity, token string, typ activity.Type, msg string) {
	if s.activity == nil {
		return
	}
	entry := &activity.Entry{
		BoardID:   boardID,
		UserID:    s.perms.UserID(),
		Operation: opName,
		Entity:    entity,
		Token:     token,
		Type:      typ,
		Message:   msg,
	}
	if err := s.activity.LogActivity(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Warn("failed to log activity", "op", opName, "error", err)
	}
}

// failureMessage picks the most specific message for a failed call.
func failureMessage(err error, fallback string) string {
	var verr *repository.ValidationError
	if errors.As(err, &verr) {
		if msg := verr.FirstMessage(); msg != "" {
			return msg
		}
	}
	var rerr *repository.RemoteError
	if errors.As(err, &rerr) && rerr.Message != "" {
		return rerr.Message
	}
	return fallback
}

func (s *Service) nextTempID() int64 {
	return -s.tempIDs.Add(1)
}

// viewLocked returns the view for a board, creating it. Caller holds s.mu.
func (s *Service) viewLocked(boardID int64) *view {
	v, ok := s.views[boardID]
	if !ok {
		v = &view{
			active:    make(map[string]string),
			confirmed: make(map[string]uint64),
			subs:      make(map[*subscriber]struct{}),
		}
		s.views[boardID] = v
	}
	return v
}

func (v *view) set(snap *board.Board) uint64 {
	v.snapshot = snap
	v.revision++
	return v.revision
}

// takeRefetchDue reports and clears a skipped refetch once no mutation is in
// flight.
func (v *view) takeRefetchDue() bool {
	if !v.refetchDue || len(v.active) > 0 {
		return false
	}
	v.refetchDue = false
	return true
}

func (v *view) subscribers() []*subscriber {
	subs := make([]*subscriber, 0, len(v.subs))
	for sub := range v.subs {
		subs = append(subs, sub)
	}
	return subs
}

func publish(subs []*subscriber, snap *board.Board) {
	for _, sub := range subs {
		sub.fn(snap.Clone())
	}
}
