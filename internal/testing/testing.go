// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/crossover/internal/models"
	"github.com/desertthunder/crossover/internal/services"
)

// MockCatalog is a concurrency-safe test double for [services.Catalog].
//
// Search results are keyed by title. Every call is recorded in order.
type MockCatalog struct {
	Service models.Service

	Tracks       []models.TrackDescriptor
	ListErr      error
	PlaylistList []models.Playlist

	Hits        map[string]*models.Hit // title -> hit; missing titles return nil
	SearchErrs  map[string]error       // title -> error
	SearchHook  func(ctx context.Context, q services.SearchQuery)
	CreateErr   error
	AddErr      error
	DeleteErr   error
	NextID      func(n int) string
	mu          sync.Mutex
	calls       []string
	searched    []services.SearchQuery
	created     []string
	added       map[string][]string
	deleted     []string
	createCount int
}

// NewMockCatalog creates a MockCatalog for svc.
func NewMockCatalog(svc models.Service) *MockCatalog {
	return &MockCatalog{Service: svc, Hits: map[string]*models.Hit{}, SearchErrs: map[string]error{}}
}

func (m *MockCatalog) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *MockCatalog) Name() models.Service { return m.Service }

func (m *MockCatalog) ListTracks(ctx context.Context, playlistID string) ([]models.TrackDescriptor, error) {
	m.record("list-tracks")
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Tracks, nil
}

func (m *MockCatalog) Playlists(ctx context.Context) ([]models.Playlist, error) {
	m.record("playlists")
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.PlaylistList, nil
}

func (m *MockCatalog) Search(ctx context.Context, q services.SearchQuery) (*models.Hit, error) {
	m.record("search")
	m.mu.Lock()
	m.searched = append(m.searched, q)
	m.mu.Unlock()

	if m.SearchHook != nil {
		m.SearchHook(ctx, q)
	}
	if err := m.SearchErrs[q.Title]; err != nil {
		return nil, err
	}
	if hit, ok := m.Hits[q.Title]; ok && hit != nil {
		cp := *hit
		return &cp, nil
	}
	return nil, nil
}

func (m *MockCatalog) CreatePlaylist(ctx context.Context, title, description string, visibility models.Visibility) (string, error) {
	m.record("create")
	if m.CreateErr != nil {
		return "", m.CreateErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCount++
	id := fmt.Sprintf("P%d", m.createCount)
	if m.NextID != nil {
		id = m.NextID(m.createCount)
	}
	m.created = append(m.created, id)
	return id, nil
}

func (m *MockCatalog) AddItems(ctx context.Context, playlistID string, itemIDs []string) error {
	m.record("add")
	if m.AddErr != nil {
		return m.AddErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.added == nil {
		m.added = map[string][]string{}
	}
	m.added[playlistID] = append(m.added[playlistID], itemIDs...)
	return nil
}

func (m *MockCatalog) DeletePlaylist(ctx context.Context, playlistID string) error {
	m.record("delete")
	m.mu.Lock()
	m.deleted = append(m.deleted, playlistID)
	m.mu.Unlock()
	return m.DeleteErr
}

// Calls returns the recorded call names in order.
func (m *MockCatalog) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallCount returns how many times call was made.
func (m *MockCatalog) CallCount(call string) int {
	n := 0
	for _, c := range m.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

// Searched returns every query received.
func (m *MockCatalog) Searched() []services.SearchQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]services.SearchQuery(nil), m.searched...)
}

// Created returns the IDs of created playlists.
func (m *MockCatalog) Created() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.created...)
}

// Added returns the item IDs added to a playlist.
func (m *MockCatalog) Added(playlistID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.added[playlistID]...)
}

// Deleted returns the IDs passed to DeletePlaylist.
func (m *MockCatalog) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

// MockAuth is an [services.AuthProvider] with a fixed answer per service.
type MockAuth map[models.Service]bool

func (a MockAuth) IsAuthorized(_ string, svc models.Service) bool { return a[svc] }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
