// Package selection owns the dashboard's selection state machine: which tree
// entity is selected, what detail payload is shown for it, and whether that
// payload is authoritative or a cached copy being revalidated.
//
// Any number of selections may be in flight at once; a monotonic sequence
// number captured per Select call guarantees that results are applied in
// selection order, never completion order. A response that arrives after a
// newer selection has started is discarded silently (its cache write still
// happens, so the next visit to that entity benefits).
package selection

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/avety/scandash/internal/api"
	"github.com/avety/scandash/internal/cache"
	"github.com/avety/scandash/internal/domain"
)

// Fetcher is the read surface the controller needs from the backend client.
type Fetcher interface {
	GroupDetails(ctx context.Context, id string) (*domain.GroupDetail, error)
	BatchDetails(ctx context.Context, id string) (*domain.BatchDetail, error)
	ScanDetails(ctx context.Context, id string) (*domain.ScanDetail, error)
}

// OutcomeKind classifies how a Select call resolved.
type OutcomeKind int

const (
	// OutcomeApplied means the fetch result was committed to state.
	OutcomeApplied OutcomeKind = iota
	// OutcomeStale means a newer selection superseded this one; the result
	// was discarded without touching state.
	OutcomeStale
	// OutcomeRemoved means the server confirmed the entity is gone; its
	// cache entries were evicted and the selection cleared.
	OutcomeRemoved
	// OutcomeFailed means the fetch failed; cached data, when present,
	// remains on display.
	OutcomeFailed
	// OutcomeCleared means the selection was explicitly cleared.
	OutcomeCleared
)

// Result is the terminal outcome of one Select call.
type Result struct {
	Outcome OutcomeKind
	Node    *domain.Node
	Detail  domain.Detail
	Err     error
}

// Command performs the network half of a selection and returns its Result.
// It blocks and is intended to run in its own goroutine (a tea.Cmd wraps it
// directly).
type Command func() Result

// State is the renderable selection state. Loading means there is nothing to
// show yet; Refreshing means cached data is on display while a fetch is in
// flight. The two are mutually exclusive by construction.
type State struct {
	Selected   *domain.EntityView
	Detail     domain.Detail
	Loading    bool
	Refreshing bool
}

// Controller is the selection state machine. It consumes a Fetcher and a
// cache.Store and exposes a snapshot State for rendering.
type Controller struct {
	client Fetcher
	cache  *cache.Store

	// seq orders selections; each Select captures seq+1 and a result is
	// applied only while no newer selection has bumped it since.
	seq atomic.Uint64

	mu        sync.Mutex
	state     State
	onRemoved func(kind domain.Kind, id string)
}

// New creates a Controller over the given client and cache.
func New(client Fetcher, store *cache.Store) *Controller {
	return &Controller{
		client: client,
		cache:  store,
	}
}

// OnEntityRemoved registers the callback fired when a selected entity turns
// out to be deleted server-side, so the tree can prune its row.
func (c *Controller) OnEntityRemoved(fn func(kind domain.Kind, id string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRemoved = fn
}

// State returns a copy of the current selection state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	state := c.state
	if state.Selected != nil {
		view := *state.Selected
		state.Selected = &view
	}
	return state
}

// Select starts a selection of node. The synchronous part applies the
// cache-hit fast path (cached payload on display, Refreshing set) or the
// loading state, and bumps the sequence so older in-flight selections become
// stale. The returned Command performs the fetch and must be executed to
// complete the selection. Selecting nil clears the state and returns a
// Command that resolves immediately.
func (c *Controller) Select(ctx context.Context, node *domain.Node) Command {
	if node == nil {
		c.seq.Add(1) // in-flight results are now stale
		c.mu.Lock()
		c.state = State{}
		c.mu.Unlock()
		return func() Result { return Result{Outcome: OutcomeCleared} }
	}

	requestID := c.seq.Add(1)
	key := cache.Key(node.Kind, node.ID)
	entry, hit := c.cache.Get(key)

	c.mu.Lock()
	if hit {
		view := mergeView(entry.View, node.Seed)
		c.state = State{Selected: &view, Detail: entry.Detail, Refreshing: true}
	} else {
		seed := node.Seed
		seed.Kind = node.Kind
		seed.ID = node.ID
		c.state = State{Selected: &seed, Loading: true}
	}
	c.mu.Unlock()

	return func() Result {
		detail, err := c.fetch(ctx, node)
		return c.resolve(requestID, node, key, hit, detail, err)
	}
}

// Refresh re-selects the current entity, dropping its cache entry first so
// the fast path cannot serve the copy being questioned. Returns nil when
// nothing is selected.
func (c *Controller) Refresh(ctx context.Context) Command {
	c.mu.Lock()
	selected := c.state.Selected
	c.mu.Unlock()
	if selected == nil {
		return nil
	}

	view := *selected
	c.cache.Delete(cache.Key(view.Kind, view.ID))
	return c.Select(ctx, &domain.Node{Kind: view.Kind, ID: view.ID, Seed: view})
}

// fetch dispatches to the client operation matching the node's kind.
func (c *Controller) fetch(ctx context.Context, node *domain.Node) (domain.Detail, error) {
	switch node.Kind {
	case domain.KindGroup:
		return c.client.GroupDetails(ctx, node.ID)
	case domain.KindFolder:
		return c.client.BatchDetails(ctx, node.ID)
	case domain.KindFile:
		return c.client.ScanDetails(ctx, node.ID)
	default:
		return nil, errors.New("unknown entity kind: " + string(node.Kind))
	}
}

// resolve applies a completed fetch. The cache write happens regardless of
// staleness; state transitions happen only while this selection is still the
// newest one.
func (c *Controller) resolve(requestID uint64, node *domain.Node, key string, hadCache bool, detail domain.Detail, err error) Result {
	if err == nil {
		view := resolvedView(node, detail)
		c.cache.Set(key, cache.Entry{View: view, Detail: detail})
	}

	c.mu.Lock()

	if requestID != c.seq.Load() {
		c.mu.Unlock()
		return Result{Outcome: OutcomeStale, Node: node, Detail: detail, Err: err}
	}

	if err != nil {
		if errors.Is(err, api.ErrNotFound) && node.Kind == domain.KindGroup {
			// Authoritative deletion: evict the group and its cached
			// descendants, clear the slot, tell the tree to prune.
			c.state = State{}
			removed := c.onRemoved
			c.mu.Unlock()
			c.cache.DropGroup(node.ID)
			if removed != nil {
				removed(node.Kind, node.ID)
			}
			return Result{Outcome: OutcomeRemoved, Node: node, Err: err}
		}

		// Folder/file 404s and transport failures: keep the stale payload
		// on display when one exists, otherwise fall back to empty. Never
		// blank a populated panel over a failed revalidate.
		if hadCache {
			c.state.Loading = false
			c.state.Refreshing = false
		} else {
			c.state = State{}
		}
		c.mu.Unlock()
		return Result{Outcome: OutcomeFailed, Node: node, Err: err}
	}

	view := resolvedView(node, detail)
	c.state = State{Selected: &view, Detail: detail}
	c.mu.Unlock()
	return Result{Outcome: OutcomeApplied, Node: node, Detail: detail}
}

// resolvedView builds the display view for a committed detail payload,
// preferring fresh server fields over the click-time seed.
func resolvedView(node *domain.Node, detail domain.Detail) domain.EntityView {
	view := node.Seed
	view.Kind = node.Kind
	view.ID = node.ID

	switch d := detail.(type) {
	case *domain.GroupDetail:
		if d.Name != "" {
			view.Name = d.Name
		}
		view.FileCount = d.FileCount
	case *domain.BatchDetail:
		if d.BatchName != "" {
			view.Name = d.BatchName
		}
	case *domain.ScanDetail:
		if d.FileName != "" {
			view.Name = d.FileName
		}
		if d.Status != "" {
			view.Status = d.Status
		}
	}
	return view
}

// mergeView overlays a cached view with seed fields the cache is missing.
func mergeView(cached, seed domain.EntityView) domain.EntityView {
	if cached.Name == "" {
		cached.Name = seed.Name
	}
	if cached.GroupID == "" {
		cached.GroupID = seed.GroupID
	}
	if cached.FolderID == "" {
		cached.FolderID = seed.FolderID
	}
	if cached.Status == "" {
		cached.Status = seed.Status
	}
	return cached
}
