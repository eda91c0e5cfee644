package session

import (
	"context"
	"sync"
	"time"

	"github.com/draftarena/backend/internal/models"
)

// idleEvictAfter is how long an actor sits with no pending ops before its
// goroutine exits. The session row itself is the source of truth; the actor
// is only a serialization mechanism, so tearing it down and recreating it
// later is always safe.
const idleEvictAfter = 5 * time.Minute

type opKind int

const (
	opApplyAction opKind = iota
	opOwnerUpdate
	opDelete
)

type sessionOp struct {
	kind     opKind
	ctx      context.Context
	side     models.Side
	action   Action
	ownerID  string
	update   *OwnerUpdateRequest
	reply    chan opResult
}

type opResult struct {
	session   *models.Session
	rejection *Rejection
	err       error
}

// actor serializes every mutation to a single session through one
// goroutine draining an unbuffered channel: load → burn → reduce → persist
// → broadcast. Grounded on the reference Room's single-goroutine select
// loop over typed request channels, adapted to lazy start on first access
// and teardown after an idle period.
type actor struct {
	id      string
	svc     *Service
	ops     chan sessionOp
	onAfter func(id string, sess *models.Session, deleted bool)
}

// ActorHub lazily creates and tears down one actor per live session id.
type ActorHub struct {
	mu      sync.Mutex
	actors  map[string]*actor
	svc     *Service
	onAfter func(id string, sess *models.Session, deleted bool)
}

// NewActorHub creates a hub of per-session actors backed by svc. onAfter is
// invoked after every successful mutation (deleted=true on session removal)
// so the broadcast hub can push the result; it runs on the actor's own
// goroutine, after persistence, per the ordering invariant.
func NewActorHub(svc *Service, onAfter func(id string, sess *models.Session, deleted bool)) *ActorHub {
	return &ActorHub{actors: make(map[string]*actor), svc: svc, onAfter: onAfter}
}

func (h *ActorHub) get(id string) *actor {
	h.mu.Lock()
	defer h.mu.Unlock()
	if a, ok := h.actors[id]; ok {
		return a
	}
	a := &actor{id: id, svc: h.svc, ops: make(chan sessionOp), onAfter: h.onAfter}
	h.actors[id] = a
	go a.run(h, id)
	return a
}

func (h *ActorHub) evict(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.actors, id)
}

func (a *actor) run(h *ActorHub, id string) {
	defer h.evict(id)
	timer := time.NewTimer(idleEvictAfter)
	defer timer.Stop()

	for {
		select {
		case op := <-a.ops:
			if !timer.Stop() {
				<-timer.C
			}
			a.handle(op)
			timer.Reset(idleEvictAfter)
		case <-timer.C:
			return
		}
	}
}

func (a *actor) handle(op sessionOp) {
	switch op.kind {
	case opApplyAction:
		sess, rej, err := a.svc.ApplyAction(op.ctx, a.id, op.side, op.action)
		op.reply <- opResult{session: sess, rejection: rej, err: err}
		if err == nil && rej == nil && a.onAfter != nil {
			a.onAfter(a.id, sess, false)
		}
	case opOwnerUpdate:
		sess, err := a.svc.OwnerUpdate(op.ctx, a.id, op.ownerID, op.update)
		op.reply <- opResult{session: sess, err: err}
		if err == nil && a.onAfter != nil {
			a.onAfter(a.id, sess, false)
		}
	case opDelete:
		err := a.svc.Delete(op.ctx, a.id, op.ownerID)
		op.reply <- opResult{err: err}
		if err == nil && a.onAfter != nil {
			a.onAfter(a.id, nil, true)
		}
	}
}

// ApplyAction serializes a player action through the session's actor,
// bounded by ctx's deadline; when ctx carries none, a 10-second deadline is
// applied here.
func (h *ActorHub) ApplyAction(ctx context.Context, id string, side models.Side, action Action) (*models.Session, *Rejection, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
	}
	reply := make(chan opResult, 1)
	op := sessionOp{kind: opApplyAction, ctx: ctx, side: side, action: action, reply: reply}
	select {
	case h.get(id).ops <- op:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
	select {
	case res := <-reply:
		return res.session, res.rejection, res.err
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}

// OwnerUpdate serializes an owner update through the session's actor.
func (h *ActorHub) OwnerUpdate(ctx context.Context, id, ownerID string, req *OwnerUpdateRequest) (*models.Session, error) {
	reply := make(chan opResult, 1)
	op := sessionOp{kind: opOwnerUpdate, ctx: ctx, ownerID: ownerID, update: req, reply: reply}
	select {
	case h.get(id).ops <- op:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case res := <-reply:
		return res.session, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Delete serializes an owner delete through the session's actor.
func (h *ActorHub) Delete(ctx context.Context, id, ownerID string) error {
	reply := make(chan opResult, 1)
	op := sessionOp{kind: opDelete, ctx: ctx, ownerID: ownerID, reply: reply}
	select {
	case h.get(id).ops <- op:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case res := <-reply:
		return res.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
