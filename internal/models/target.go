package models

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// ConnectionStatus is the transient reachability annotation of a target instance.
type ConnectionStatus string

const (
	StatusUnknown              ConnectionStatus = "unknown"
	StatusConnecting           ConnectionStatus = "connecting"
	StatusConnected            ConnectionStatus = "connected"
	StatusAuthenticationFailed ConnectionStatus = "authentication_failed"
	StatusConnectionFailed     ConnectionStatus = "connection_failed"
	StatusTimeout              ConnectionStatus = "timeout"
)

// Known reports whether s is one of the defined statuses.
func (s ConnectionStatus) Known() bool {
	switch s {
	case StatusUnknown, StatusConnecting, StatusConnected,
		StatusAuthenticationFailed, StatusConnectionFailed, StatusTimeout:
		return true
	}
	return false
}

// TargetInstance is a named remote endpoint that imports are directed at.
// The list is owned by the remote service; the workbench only annotates it.
type TargetInstance struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	BaseURL     string           `json:"url"`
	AuthMethod  string           `json:"auth_type"`
	IsDefault   bool             `json:"is_default"`
	Status      ConnectionStatus `json:"status"`
	LastChecked *time.Time       `json:"last_checked,omitempty"`
}

// TargetStore is an in-memory thread-safe store for target instances.
type TargetStore struct {
	mu        sync.RWMutex
	instances map[string]*TargetInstance
}

// NewTargetStore creates an empty target store.
func NewTargetStore() *TargetStore {
	return &TargetStore{instances: make(map[string]*TargetInstance)}
}

// Replace swaps the instance list for a freshly fetched one. Status
// annotations of instances that are still present are kept.
func (s *TargetStore) Replace(list []TargetInstance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(map[string]*TargetInstance, len(list))
	for i := range list {
		ti := list[i]
		if prev, ok := s.instances[ti.ID]; ok {
			ti.Status = prev.Status
			ti.LastChecked = prev.LastChecked
		}
		if !ti.Status.Known() {
			ti.Status = StatusUnknown
		}
		next[ti.ID] = &ti
	}
	s.instances = next
}

// Get returns a copy of the instance with the given ID, or nil if not found.
func (s *TargetStore) Get(id string) *TargetInstance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ti, ok := s.instances[id]
	if !ok {
		return nil
	}
	cp := *ti
	return &cp
}

// Has reports whether id is a known instance.
func (s *TargetStore) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.instances[id]
	return ok
}

// List returns copies of all instances, default first, then by name.
func (s *TargetStore) List() []TargetInstance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]TargetInstance, 0, len(s.instances))
	for _, ti := range s.instances {
		result = append(result, *ti)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].IsDefault != result[j].IsDefault {
			return result[i].IsDefault
		}
		return result[i].Name < result[j].Name
	})
	return result
}

// IDs returns the ids of all instances in List order.
func (s *TargetStore) IDs() []string {
	list := s.List()
	ids := make([]string, len(list))
	for i, ti := range list {
		ids[i] = ti.ID
	}
	return ids
}

// Default returns the instance flagged as default, or nil.
func (s *TargetStore) Default() *TargetInstance {
	for _, ti := range s.List() {
		if ti.IsDefault {
			cp := ti
			return &cp
		}
	}
	return nil
}

// SetStatus records a probe outcome for an instance.
func (s *TargetStore) SetStatus(id string, status ConnectionStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ti, ok := s.instances[id]
	if !ok {
		return
	}
	ti.Status = status
	if status != StatusConnecting {
		now := time.Now()
		ti.LastChecked = &now
	}
}

// Resolve finds an instance by exact id, then by case-insensitive name,
// then by fuzzy name match. Ambiguous fuzzy matches resolve to nothing.
func (s *TargetStore) Resolve(query string) *TargetInstance {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.Default()
	}
	if ti := s.Get(query); ti != nil {
		return ti
	}
	list := s.List()
	for i := range list {
		if strings.EqualFold(list[i].Name, query) {
			return &list[i]
		}
	}
	var match *TargetInstance
	for i := range list {
		if fuzzy.MatchNormalizedFold(query, list[i].Name) {
			if match != nil {
				return nil
			}
			match = &list[i]
		}
	}
	return match
}
