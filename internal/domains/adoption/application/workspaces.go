package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/domain"
	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/ports"
)

// DefaultSessionTTL bounds how long an idle workspace snapshot is kept.
const DefaultSessionTTL = 24 * time.Hour

// Workspace is the server-side half of one browser session.
type Workspace struct {
	ID         string
	Profile    domain.Credentials
	Controller *Controller
	remote     ports.RemoteSession
	lastSeen   time.Time
}

// Workspaces creates, resumes and ends browser sessions. Live workspaces are kept in memory;
// snapshots in the store let another process resume them.
type Workspaces struct {
	dial   ports.RemoteSessionDialer
	store  ports.WorkspaceStore
	logger *slog.Logger
	ttl    time.Duration
	newID  func() string
	now    func() time.Time

	mu     sync.Mutex
	active map[string]*Workspace

	// saveMu orders snapshot writes against End so an ended workspace is never saved again.
	saveMu sync.Mutex
}

type WorkspacesOption func(*Workspaces)

// WithWorkspaceStore sets where snapshots are saved.
func WithWorkspaceStore(store ports.WorkspaceStore) WorkspacesOption {
	return func(w *Workspaces) {
		w.store = store
	}
}

// WithWorkspaceLogger injects a slog logger, also handed to every controller.
func WithWorkspaceLogger(logger *slog.Logger) WorkspacesOption {
	return func(w *Workspaces) {
		w.logger = logger
	}
}

// WithSessionTTL overrides DefaultSessionTTL.
func WithSessionTTL(ttl time.Duration) WorkspacesOption {
	return func(w *Workspaces) {
		if ttl > 0 {
			w.ttl = ttl
		}
	}
}

// WithIDGenerator replaces the uuid session id generator.
func WithIDGenerator(fn func() string) WorkspacesOption {
	return func(w *Workspaces) {
		w.newID = fn
	}
}

// WithClock replaces time.Now for expiry computation.
func WithClock(now func() time.Time) WorkspacesOption {
	return func(w *Workspaces) {
		w.now = now
	}
}

// NewWorkspaces wires the manager with the dialer that opens remote catalog sessions.
func NewWorkspaces(dial ports.RemoteSessionDialer, opts ...WorkspacesOption) *Workspaces {
	w := &Workspaces{
		dial:   dial,
		store:  ports.NoopWorkspaceStore,
		ttl:    DefaultSessionTTL,
		newID:  uuid.NewString,
		now:    time.Now,
		active: make(map[string]*Workspace),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	if w.store == nil {
		w.store = ports.NoopWorkspaceStore
	}
	if w.logger == nil {
		w.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return w
}

// Login validates the form, opens a fresh remote session and creates its workspace.
func (w *Workspaces) Login(ctx context.Context, name, email string) (*Workspace, error) {
	creds, err := domain.NewCredentials(name, email)
	if err != nil {
		return nil, mapError(err)
	}
	remote, err := w.dial(domain.SessionCredential{})
	if err != nil {
		return nil, fmt.Errorf("open catalog session: %w", err)
	}
	if err := remote.Login(ctx, creds); err != nil {
		if errors.Is(err, ports.ErrUnauthorized) {
			return nil, fmt.Errorf("%w: %w", ErrLoginRejected, err)
		}
		return nil, mapError(err)
	}
	ws := &Workspace{
		ID:         w.newID(),
		Profile:    creds,
		Controller: NewController(remote.Catalog(), WithLogger(w.logger)),
		remote:     remote,
		lastSeen:   w.now(),
	}
	w.mu.Lock()
	w.active[ws.ID] = ws
	w.mu.Unlock()
	if err := w.Persist(ctx, ws); err != nil {
		w.logger.WarnContext(ctx, "failed to save new workspace", slog.String("error", err.Error()))
	}
	w.logger.InfoContext(ctx, "workspace opened", slog.String("session.id", ws.ID))
	return ws, nil
}

// Get returns the live workspace for id, resuming it from its snapshot when needed.
func (w *Workspaces) Get(ctx context.Context, id string) (*Workspace, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrWorkspaceNotFound
	}
	w.mu.Lock()
	ws, ok := w.active[id]
	if ok {
		ws.lastSeen = w.now()
	}
	w.mu.Unlock()
	if ok {
		return ws, nil
	}

	stored, err := w.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrSnapshotNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, err
	}
	snapshot := stored.Entity
	if snapshot == nil || snapshot.Expired(w.now()) {
		return nil, ErrWorkspaceNotFound
	}
	remote, err := w.dial(snapshot.Credential)
	if err != nil {
		return nil, fmt.Errorf("resume catalog session: %w", err)
	}
	resumed := &Workspace{
		ID:         id,
		Profile:    snapshot.Profile,
		Controller: NewController(remote.Catalog(), WithLogger(w.logger), WithState(snapshot.State)),
		remote:     remote,
		lastSeen:   w.now(),
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if existing, ok := w.active[id]; ok {
		return existing, nil
	}
	w.active[id] = resumed
	w.logger.InfoContext(ctx, "workspace resumed", slog.String("session.id", id))
	return resumed, nil
}

// Persist saves the workspace snapshot and extends its expiry. A workspace that was ended
// meanwhile is left deleted.
func (w *Workspaces) Persist(ctx context.Context, ws *Workspace) error {
	if ws == nil {
		return errors.New("workspace is nil")
	}
	w.saveMu.Lock()
	defer w.saveMu.Unlock()
	if ws.Controller.Invalidated() {
		return nil
	}
	state := ws.Controller.State()
	state.Notice = ""
	_, err := w.store.Save(ctx, domain.Snapshot{
		SessionID:  ws.ID,
		Profile:    ws.Profile,
		Credential: ws.remote.Credential(),
		State:      state,
		ExpiresAt:  w.now().Add(w.ttl),
	})
	return err
}

// Logout ends the remote session and the workspace. A rejected credential counts as already
// logged out; any other failure keeps the workspace so the user can retry.
func (w *Workspaces) Logout(ctx context.Context, id string) error {
	ws, err := w.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := ws.remote.Logout(ctx); err != nil {
		mapped := mapError(err)
		if !errors.Is(mapped, ErrSessionExpired) {
			return mapped
		}
	}
	return w.End(ctx, id)
}

// End drops the workspace locally and deletes its snapshot.
func (w *Workspaces) End(ctx context.Context, id string) error {
	w.saveMu.Lock()
	defer w.saveMu.Unlock()
	w.mu.Lock()
	ws, ok := w.active[id]
	delete(w.active, id)
	w.mu.Unlock()
	if ok {
		ws.Controller.Invalidate()
	}
	if err := w.store.Delete(ctx, id); err != nil {
		return err
	}
	w.logger.InfoContext(ctx, "workspace closed", slog.String("session.id", id))
	return nil
}

// EvictIdle drops in-memory workspaces unused for longer than the session TTL. Their
// snapshots stay in the store until purged.
func (w *Workspaces) EvictIdle(now time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	evicted := 0
	for id, ws := range w.active {
		if now.Sub(ws.lastSeen) > w.ttl {
			delete(w.active, id)
			evicted++
		}
	}
	return evicted
}

// Active reports how many workspaces are held in memory.
func (w *Workspaces) Active() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.active)
}
