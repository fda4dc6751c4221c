package selection

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avety/scandash/internal/api"
	"github.com/avety/scandash/internal/cache"
	"github.com/avety/scandash/internal/domain"
)

// stubClient routes fetches to per-kind functions so tests can gate, fail,
// or count individual requests.
type stubClient struct {
	group func(ctx context.Context, id string) (*domain.GroupDetail, error)
	batch func(ctx context.Context, id string) (*domain.BatchDetail, error)
	scan  func(ctx context.Context, id string) (*domain.ScanDetail, error)
}

func (s *stubClient) GroupDetails(ctx context.Context, id string) (*domain.GroupDetail, error) {
	return s.group(ctx, id)
}

func (s *stubClient) BatchDetails(ctx context.Context, id string) (*domain.BatchDetail, error) {
	return s.batch(ctx, id)
}

func (s *stubClient) ScanDetails(ctx context.Context, id string) (*domain.ScanDetail, error) {
	return s.scan(ctx, id)
}

func fileNode(id string) *domain.Node {
	return &domain.Node{
		Kind: domain.KindFile,
		ID:   id,
		Seed: domain.EntityView{Kind: domain.KindFile, ID: id, Name: id + ".pdf"},
	}
}

func groupNode(id string) *domain.Node {
	return &domain.Node{
		Kind: domain.KindGroup,
		ID:   id,
		Seed: domain.EntityView{Kind: domain.KindGroup, ID: id, Name: "Group " + id},
	}
}

func TestSelect_LastClickWins(t *testing.T) {
	release := make(chan struct{})
	client := &stubClient{
		scan: func(ctx context.Context, id string) (*domain.ScanDetail, error) {
			if id == "s1" {
				<-release // s1's response arrives after s2's
			}
			return &domain.ScanDetail{ID: id, FileName: id + ".pdf"}, nil
		},
	}
	store := cache.New()
	ctrl := New(client, store)
	ctx := context.Background()

	cmd1 := ctrl.Select(ctx, fileNode("s1"))
	cmd2 := ctrl.Select(ctx, fileNode("s2"))

	// s2 resolves first and is the newest selection.
	res2 := cmd2()
	assert.Equal(t, OutcomeApplied, res2.Outcome)

	// s1 resolves afterwards and must not overwrite.
	close(release)
	res1 := cmd1()
	assert.Equal(t, OutcomeStale, res1.Outcome)

	state := ctrl.State()
	require.NotNil(t, state.Selected)
	assert.Equal(t, "s2", state.Selected.ID)
	assert.Equal(t, "s2.pdf", state.Detail.DetailName())

	// The stale result's cache write still happened, so a later revisit
	// of s1 benefits.
	assert.True(t, store.Has(cache.Key(domain.KindFile, "s1")))
}

func TestSelect_CacheThenRefresh(t *testing.T) {
	calls := 0
	client := &stubClient{
		scan: func(ctx context.Context, id string) (*domain.ScanDetail, error) {
			calls++
			return &domain.ScanDetail{ID: id, FileName: "report.pdf"}, nil
		},
	}
	ctrl := New(client, cache.New())
	ctx := context.Background()

	// First visit: nothing cached, loading state.
	cmd := ctrl.Select(ctx, fileNode("s1"))
	state := ctrl.State()
	assert.True(t, state.Loading)
	assert.False(t, state.Refreshing)
	assert.Nil(t, state.Detail)

	res := cmd()
	require.Equal(t, OutcomeApplied, res.Outcome)

	// Revisit: cached payload on display immediately, refresh in flight,
	// before the network responds.
	cmd = ctrl.Select(ctx, fileNode("s1"))
	state = ctrl.State()
	assert.False(t, state.Loading)
	assert.True(t, state.Refreshing)
	require.NotNil(t, state.Detail)
	assert.Equal(t, "report.pdf", state.Detail.DetailName())

	res = cmd()
	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.False(t, ctrl.State().Refreshing)
	assert.Equal(t, 2, calls, "every select issues exactly one fetch")
}

func TestSelect_LoadingAndRefreshingMutuallyExclusive(t *testing.T) {
	client := &stubClient{
		scan: func(ctx context.Context, id string) (*domain.ScanDetail, error) {
			return &domain.ScanDetail{ID: id}, nil
		},
	}
	ctrl := New(client, cache.New())
	ctx := context.Background()

	cmd := ctrl.Select(ctx, fileNode("s1"))
	state := ctrl.State()
	assert.False(t, state.Loading && state.Refreshing)
	cmd()

	ctrl.Select(ctx, fileNode("s1"))
	state = ctrl.State()
	assert.False(t, state.Loading && state.Refreshing)
}

func TestSelect_GroupNotFoundEvictsAndRemoves(t *testing.T) {
	gone := false
	client := &stubClient{
		group: func(ctx context.Context, id string) (*domain.GroupDetail, error) {
			if gone {
				return nil, fmt.Errorf("group %s: %w", id, api.ErrNotFound)
			}
			return &domain.GroupDetail{Name: "Group " + id}, nil
		},
	}
	store := cache.New()
	ctrl := New(client, store)
	ctx := context.Background()

	var removedKind domain.Kind
	var removedID string
	ctrl.OnEntityRemoved(func(kind domain.Kind, id string) {
		removedKind = kind
		removedID = id
	})

	// Populate the cache, including a descendant entry.
	res := ctrl.Select(ctx, groupNode("g1"))()
	require.Equal(t, OutcomeApplied, res.Outcome)
	store.Set(cache.Key(domain.KindFolder, "f1"), cache.Entry{
		View: domain.EntityView{Kind: domain.KindFolder, ID: "f1", GroupID: "g1"},
	})

	// The group is deleted by another client.
	gone = true
	res = ctrl.Select(ctx, groupNode("g1"))()
	assert.Equal(t, OutcomeRemoved, res.Outcome)

	assert.Equal(t, domain.KindGroup, removedKind)
	assert.Equal(t, "g1", removedID)
	assert.False(t, store.Has(cache.Key(domain.KindGroup, "g1")))
	assert.False(t, store.Has(cache.Key(domain.KindFolder, "f1")), "descendants evicted too")

	state := ctrl.State()
	assert.Nil(t, state.Selected, "slot returns to idle")
	assert.Nil(t, state.Detail)

	// A subsequent select performs a fresh fetch, not a cache hit.
	gone = false
	ctrl.Select(ctx, groupNode("g1"))
	assert.True(t, ctrl.State().Loading, "no cache entry survives the eviction")
}

func TestSelect_FileNotFoundDoesNotEvict(t *testing.T) {
	// Folder/file 404s surface as errors without eviction; only group 404s
	// are treated as authoritative deletion.
	fail := false
	client := &stubClient{
		scan: func(ctx context.Context, id string) (*domain.ScanDetail, error) {
			if fail {
				return nil, fmt.Errorf("scan %s: %w", id, api.ErrNotFound)
			}
			return &domain.ScanDetail{ID: id, FileName: "keep.pdf"}, nil
		},
	}
	store := cache.New()
	ctrl := New(client, store)
	ctx := context.Background()

	require.Equal(t, OutcomeApplied, ctrl.Select(ctx, fileNode("s1"))().Outcome)

	fail = true
	res := ctrl.Select(ctx, fileNode("s1"))()
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, api.ErrNotFound)

	assert.True(t, store.Has(cache.Key(domain.KindFile, "s1")), "no silent eviction")
	state := ctrl.State()
	require.NotNil(t, state.Detail)
	assert.Equal(t, "keep.pdf", state.Detail.DetailName(), "stale payload stays on display")
}

func TestSelect_FailureKeepsStaleCachedData(t *testing.T) {
	fail := false
	client := &stubClient{
		scan: func(ctx context.Context, id string) (*domain.ScanDetail, error) {
			if fail {
				return nil, errors.New("connection refused")
			}
			return &domain.ScanDetail{ID: id, FileName: "cached.pdf"}, nil
		},
	}
	ctrl := New(client, cache.New())
	ctx := context.Background()

	require.Equal(t, OutcomeApplied, ctrl.Select(ctx, fileNode("s1"))().Outcome)

	fail = true
	res := ctrl.Select(ctx, fileNode("s1"))()
	assert.Equal(t, OutcomeFailed, res.Outcome)

	state := ctrl.State()
	require.NotNil(t, state.Detail, "failed revalidate must not blank the panel")
	assert.Equal(t, "cached.pdf", state.Detail.DetailName())
	assert.False(t, state.Refreshing, "settled, stale-but-displayed")
	assert.False(t, state.Loading)
}

func TestSelect_FailureWithoutCacheGoesIdle(t *testing.T) {
	client := &stubClient{
		scan: func(ctx context.Context, id string) (*domain.ScanDetail, error) {
			return nil, errors.New("connection refused")
		},
	}
	ctrl := New(client, cache.New())

	res := ctrl.Select(context.Background(), fileNode("s1"))()
	assert.Equal(t, OutcomeFailed, res.Outcome)
	require.Error(t, res.Err)

	state := ctrl.State()
	assert.Nil(t, state.Selected)
	assert.Nil(t, state.Detail)
	assert.False(t, state.Loading)
}

func TestSelect_StaleFailureIsSilent(t *testing.T) {
	release := make(chan struct{})
	client := &stubClient{
		scan: func(ctx context.Context, id string) (*domain.ScanDetail, error) {
			if id == "s1" {
				<-release
				return nil, errors.New("too late and broken")
			}
			return &domain.ScanDetail{ID: id, FileName: id + ".pdf"}, nil
		},
	}
	ctrl := New(client, cache.New())
	ctx := context.Background()

	cmd1 := ctrl.Select(ctx, fileNode("s1"))
	require.Equal(t, OutcomeApplied, ctrl.Select(ctx, fileNode("s2"))().Outcome)

	close(release)
	res := cmd1()
	assert.Equal(t, OutcomeStale, res.Outcome, "superseded failures are discarded, not surfaced")

	state := ctrl.State()
	require.NotNil(t, state.Selected)
	assert.Equal(t, "s2", state.Selected.ID)
}

func TestSelect_NilClearsSelection(t *testing.T) {
	client := &stubClient{
		scan: func(ctx context.Context, id string) (*domain.ScanDetail, error) {
			return &domain.ScanDetail{ID: id}, nil
		},
	}
	ctrl := New(client, cache.New())
	ctx := context.Background()

	// An in-flight selection is superseded by the clear.
	inflight := ctrl.Select(ctx, fileNode("s1"))

	res := ctrl.Select(ctx, nil)()
	assert.Equal(t, OutcomeCleared, res.Outcome)

	state := ctrl.State()
	assert.Nil(t, state.Selected)
	assert.Nil(t, state.Detail)

	assert.Equal(t, OutcomeStale, inflight().Outcome)
}

func TestRefresh_BypassesCache(t *testing.T) {
	calls := 0
	client := &stubClient{
		scan: func(ctx context.Context, id string) (*domain.ScanDetail, error) {
			calls++
			return &domain.ScanDetail{ID: id, FileName: "v2.pdf"}, nil
		},
	}
	store := cache.New()
	ctrl := New(client, store)
	ctx := context.Background()

	require.Equal(t, OutcomeApplied, ctrl.Select(ctx, fileNode("s1"))().Outcome)

	cmd := ctrl.Refresh(ctx)
	require.NotNil(t, cmd)

	// The cache entry was dropped, so the fast path cannot serve it.
	state := ctrl.State()
	assert.True(t, state.Loading)
	assert.False(t, state.Refreshing)

	assert.Equal(t, OutcomeApplied, cmd().Outcome)
	assert.Equal(t, 2, calls)
}

func TestRefresh_NothingSelected(t *testing.T) {
	ctrl := New(&stubClient{}, cache.New())
	assert.Nil(t, ctrl.Refresh(context.Background()))
}

func TestSelect_ResolvedViewPrefersServerFields(t *testing.T) {
	client := &stubClient{
		scan: func(ctx context.Context, id string) (*domain.ScanDetail, error) {
			return &domain.ScanDetail{ID: id, FileName: "final-name.pdf", Status: "processed"}, nil
		},
	}
	ctrl := New(client, cache.New())

	node := fileNode("s1")
	node.Seed.Name = "provisional.pdf"
	require.Equal(t, OutcomeApplied, ctrl.Select(context.Background(), node)().Outcome)

	state := ctrl.State()
	require.NotNil(t, state.Selected)
	assert.Equal(t, "final-name.pdf", state.Selected.Name)
	assert.Equal(t, "processed", state.Selected.Status)
}
