package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/praetorian-inc/disclose/pkg/plan"
	"github.com/praetorian-inc/disclose/pkg/transcript"
	"github.com/praetorian-inc/disclose/pkg/types"
)

// transcriptRecord stores transcript metadata.
type transcriptRecord struct {
	id       types.TranscriptID
	source   string
	sentSize int
	recvSize int
}

// MemoryStore implements Store using in-memory data structures.
type MemoryStore struct {
	mu          sync.RWMutex
	transcripts map[types.TranscriptID]transcriptRecord
	plans       map[string]*plan.Plan // keyed by plan ID
	order       []string              // plan IDs in insertion order
}

// NewMemory creates a new in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		transcripts: make(map[types.TranscriptID]transcriptRecord),
		plans:       make(map[string]*plan.Plan),
	}
}

// AddTranscript stores a transcript record.
func (m *MemoryStore) AddTranscript(t *transcript.Transcript) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.transcripts[t.ID]; exists {
		return nil
	}
	m.transcripts[t.ID] = transcriptRecord{
		id:       t.ID,
		source:   t.Source,
		sentSize: len(t.Sent),
		recvSize: len(t.Received),
	}
	return nil
}

// TranscriptExists checks if a transcript has already been recorded.
func (m *MemoryStore) TranscriptExists(id types.TranscriptID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.transcripts[id]
	return exists, nil
}

// AddPlan stores a plan. Adding a plan twice is a no-op.
func (m *MemoryStore) AddPlan(p *plan.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.plans[p.ID]; exists {
		return nil
	}
	m.plans[p.ID] = p
	m.order = append(m.order, p.ID)
	return nil
}

// GetPlan retrieves one plan by ID.
func (m *MemoryStore) GetPlan(id string) (*plan.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.plans[id]
	if !ok {
		return nil, fmt.Errorf("plan %s: %w", id, ErrNotFound)
	}
	return p, nil
}

// GetPlans retrieves all plans, oldest first.
func (m *MemoryStore) GetPlans() ([]*plan.Plan, error) {
	return m.filter(func(*plan.Plan) bool { return true }), nil
}

// GetPlansForTranscript retrieves the plans built for one transcript, oldest first.
func (m *MemoryStore) GetPlansForTranscript(id types.TranscriptID) ([]*plan.Plan, error) {
	return m.filter(func(p *plan.Plan) bool { return p.TranscriptID == id }), nil
}

func (m *MemoryStore) filter(keep func(*plan.Plan) bool) []*plan.Plan {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*plan.Plan, 0, len(m.order))
	for _, id := range m.order {
		if p := m.plans[id]; keep(p) {
			result = append(result, p)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
