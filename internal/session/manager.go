// Package session owns the live review sessions: one per open
// (folder, file) pair, keyed like the durable state store. It glues the
// loader, the navigator, and the state store together so every decision is
// mirrored into durable storage as soon as it is made.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/KuramitsuLab/ModelVistaPlus/internal/loader"
	"github.com/KuramitsuLab/ModelVistaPlus/internal/review"
)

// Manager serializes all access to the live navigators: request handlers
// run concurrently, and the navigator's session state (review map, current
// index) is not safe for unsynchronized use. The mutex is held across each
// whole operation, so a later operation always supersedes an earlier one.
type Manager struct {
	mu     sync.Mutex
	store  review.StateStore
	loader *loader.Loader
	navs   map[string]*review.Navigator
}

func NewManager(store review.StateStore, l *loader.Loader) *Manager {
	return &Manager{store: store, loader: l, navs: map[string]*review.Navigator{}}
}

// Open loads the question set, restores any persisted review state, and
// starts (or restarts) a session at question 0. Re-opening a pair replaces
// the previous session; the durable state already holds its decisions.
func (m *Manager) Open(ctx context.Context, folder, file string) (review.View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	nav, err := m.openLocked(ctx, folder, file)
	if err != nil {
		return review.View{}, err
	}
	return nav.View(), nil
}

func (m *Manager) openLocked(ctx context.Context, folder, file string) (*review.Navigator, error) {
	questions, err := m.loader.Load(folder, file)
	if err != nil {
		return nil, err
	}
	reviewer, err := m.store.ReviewerName(ctx)
	if err != nil {
		return nil, err
	}

	reviews := review.ReviewMap{}
	if st, ok, err := m.store.LoadState(ctx, folder, file); err != nil {
		return nil, err
	} else if ok && st.Reviews != nil {
		reviews = st.Reviews
	}

	nav := review.NewNavigator(&review.Session{
		ReviewerName:  reviewer,
		CurrentFolder: folder,
		CurrentFile:   file,
		Questions:     questions,
		Reviews:       reviews,
	})
	m.navs[review.StorageKey(folder, file)] = nav
	return nav, nil
}

func (m *Manager) navLocked(folder, file string) (*review.Navigator, error) {
	nav, ok := m.navs[review.StorageKey(folder, file)]
	if !ok {
		return nil, fmt.Errorf("no open session for %s/%s", folder, file)
	}
	return nav, nil
}

// Decide records a verdict for the current question and persists the
// session's review map.
func (m *Manager) Decide(ctx context.Context, folder, file string, v review.Verdict, remarks string) (review.View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	nav, err := m.navLocked(folder, file)
	if err != nil {
		return review.View{}, err
	}
	view := nav.Record(v, remarks)
	return view, m.persist(ctx, nav.Session())
}

// SetRemarks rewrites the remarks of the current already-decided question.
func (m *Manager) SetRemarks(ctx context.Context, folder, file, remarks string) (review.View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	nav, err := m.navLocked(folder, file)
	if err != nil {
		return review.View{}, err
	}
	if !nav.SetRemarks(remarks) {
		return nav.View(), review.ErrDecisionRequired
	}
	return nav.View(), m.persist(ctx, nav.Session())
}

// Advance moves the session by delta questions, with the navigator's
// decide-before-advance and finish gating intact.
func (m *Manager) Advance(_ context.Context, folder, file string, delta int) (review.View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	nav, err := m.navLocked(folder, file)
	if err != nil {
		return review.View{}, err
	}
	return nav.Advance(delta)
}

// Goto jumps to a question index.
func (m *Manager) Goto(_ context.Context, folder, file string, index int) (review.View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	nav, err := m.navLocked(folder, file)
	if err != nil {
		return review.View{}, err
	}
	return nav.Goto(index)
}

// Session returns a snapshot of the session for a pair, rebuilding it from
// the store and loader when the pair is not open (e.g. export of a file
// reviewed in an earlier run). The snapshot owns its own review map, so
// callers can read it without holding the manager's lock, and it carries
// the reviewer name as currently stored, not as it was at Open.
func (m *Manager) Session(ctx context.Context, folder, file string) (*review.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	nav, err := m.navLocked(folder, file)
	if err != nil {
		if nav, err = m.openLocked(ctx, folder, file); err != nil {
			return nil, err
		}
	}
	reviewer, err := m.store.ReviewerName(ctx)
	if err != nil {
		return nil, err
	}
	s := nav.Session()
	s.ReviewerName = reviewer

	cp := *s
	cp.Reviews = make(review.ReviewMap, len(s.Reviews))
	for idx, d := range s.Reviews {
		cp.Reviews[idx] = d
	}
	return &cp, nil
}

func (m *Manager) persist(ctx context.Context, s *review.Session) error {
	return m.store.SaveState(ctx, review.State{
		ReviewerName: s.ReviewerName,
		FolderName:   s.CurrentFolder,
		FileName:     s.CurrentFile,
		Reviews:      s.Reviews,
	})
}
