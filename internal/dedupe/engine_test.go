package dedupe

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dedupe/internal/model"
	"github.com/sells-group/dedupe/internal/resilience"
)

// memStore is an in-memory RecordStore.
type memStore struct {
	mu        sync.Mutex
	records   []model.Record
	listErr   error
	updateErr []error // consumed per call
	deleted   []string
	updates   int
}

func (m *memStore) ListRecords(_ context.Context, scope string) ([]model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []model.Record
	for _, r := range m.records {
		if scope == "" || r.Scope == scope {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) GetRecord(_ context.Context, id string) (*model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id {
			r := r
			return &r, nil
		}
	}
	return nil, nil
}

func (m *memStore) UpdateRecord(_ context.Context, rec model.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	if len(m.updateErr) > 0 {
		err := m.updateErr[0]
		m.updateErr = m.updateErr[1:]
		if err != nil {
			return err
		}
	}
	for i, r := range m.records {
		if r.ID == rec.ID {
			m.records[i] = rec
			return nil
		}
	}
	return errors.New("not found")
}

func (m *memStore) DeleteRecords(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := m.records[:0]
	for _, r := range m.records {
		if !drop[r.ID] {
			kept = append(kept, r)
		}
	}
	m.records = kept
	m.deleted = append(m.deleted, ids...)
	return nil
}

func newTestEngine(t *testing.T, st RecordStore) *Engine {
	t.Helper()
	e, err := NewEngine(st, DefaultConfig(),
		WithClock(func() time.Time { return mergeTime }),
		WithRetry(resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}),
	)
	require.NoError(t, err)
	return e
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PotentialDuplicateThreshold = 0.9
	_, err := NewEngine(&memStore{}, cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestEngine_UpdateConfig(t *testing.T) {
	e := newTestEngine(t, &memStore{})

	cfg, ignored, err := e.UpdateConfig(map[string]any{"duplicateThreshold": 0.9, "unknown": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"unknown"}, ignored)
	assert.InDelta(t, 0.9, cfg.DuplicateThreshold, 0.0001)
	assert.Equal(t, cfg, e.Config())
}

func TestEngine_UpdateConfig_RejectedLeavesConfig(t *testing.T) {
	e := newTestEngine(t, &memStore{})
	before := e.Config()

	cfg, _, err := e.UpdateConfig(map[string]any{
		"duplicateThreshold":          0.5,
		"potentialDuplicateThreshold": 0.9,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Equal(t, before, cfg)
	assert.Equal(t, before, e.Config())
}

func TestEngine_CheckDuplicate(t *testing.T) {
	st := &memStore{records: []model.Record{
		{ID: "1", Scope: "a", Name: "Fast Lube", Phone: "555-123-4567"},
		{ID: "2", Scope: "b", Name: "Fast Lube", Phone: "555-123-4567"},
	}}
	e := newTestEngine(t, st)

	res, err := e.CheckDuplicate(context.Background(), model.Record{Name: "XYZ Corp", Phone: "(555) 123-4567"}, "a")
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "1", res.Matches[0].Record.ID)
	assert.Equal(t, ClassDuplicate, res.Result.Classification)
}

func TestEngine_CheckDuplicate_RequiresName(t *testing.T) {
	st := &memStore{records: []model.Record{{ID: "1", Name: "Acme", Phone: "555-123-4567"}}}
	e := newTestEngine(t, st)

	for _, name := range []string{"", "!!!", " .. "} {
		_, err := e.CheckDuplicate(context.Background(), model.Record{Name: name, Phone: "555-123-4567"}, "")
		assert.ErrorIs(t, err, ErrMissingName, name)
	}
}

func TestEngine_CheckDuplicate_StoreError(t *testing.T) {
	e := newTestEngine(t, &memStore{listErr: errors.New("connection refused")})
	_, err := e.CheckDuplicate(context.Background(), model.Record{Name: "Acme"}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dedupe: list records")
}

func TestEngine_ScanCollection(t *testing.T) {
	e := newTestEngine(t, &memStore{records: sampleRecords()})

	report, err := e.ScanCollection(context.Background(), "", ScanOptions{Concurrency: 2})
	require.NoError(t, err)
	assert.Len(t, report.Groups, 2)
	assert.Equal(t, int64(15), report.Stats.Comparisons)
}

func TestEngine_ScanUsesConfigSnapshot(t *testing.T) {
	e := newTestEngine(t, &memStore{records: sampleRecords()})
	_, _, err := e.UpdateConfig(map[string]any{"duplicateThreshold": 1, "potentialDuplicateThreshold": 1, "phoneMatchIsDuplicate": false})
	require.NoError(t, err)

	report, err := e.ScanCollection(context.Background(), "", ScanOptions{})
	require.NoError(t, err)
	for _, p := range report.Pairs {
		assert.InDelta(t, 1, p.Result.Score, 0.0001)
	}
}

func TestEngine_Merge(t *testing.T) {
	st := &memStore{records: []model.Record{
		{ID: "keep", Name: "Joe's Pizza", Email: "joe@pizza.com"},
		{ID: "away", Name: "Joe Pizza", Phone: "5551234567"},
		{ID: "other", Name: "Unrelated"},
	}}
	e := newTestEngine(t, st)

	res, err := e.Merge(context.Background(), "keep", []string{"away", "missing", "keep", "away"})
	require.NoError(t, err)

	assert.Equal(t, "5551234567", res.Record.Phone)
	assert.Equal(t, "Joe's Pizza", res.Record.Name)
	assert.Equal(t, "joe@pizza.com", res.Record.Email)
	assert.Equal(t, []string{"phone"}, res.FilledFields)
	assert.Equal(t, []string{"away"}, res.MergedIDs)
	assert.Equal(t, []string{"missing"}, res.MissingIDs)
	assert.Contains(t, res.Record.Notes, "Merged away")

	assert.Equal(t, []string{"away"}, st.deleted)
	stored, _ := st.GetRecord(context.Background(), "keep")
	require.NotNil(t, stored)
	assert.Equal(t, "5551234567", stored.Phone)
	gone, _ := st.GetRecord(context.Background(), "away")
	assert.Nil(t, gone)
}

func TestEngine_Merge_MissingKeepID(t *testing.T) {
	e := newTestEngine(t, &memStore{})
	_, err := e.Merge(context.Background(), "", []string{"a"})
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestEngine_Merge_KeepNotFound(t *testing.T) {
	e := newTestEngine(t, &memStore{records: []model.Record{{ID: "a", Name: "A"}}})
	_, err := e.Merge(context.Background(), "nope", []string{"a"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEngine_Merge_NothingFoundIsNoop(t *testing.T) {
	st := &memStore{records: []model.Record{{ID: "keep", Name: "Acme"}}}
	e := newTestEngine(t, st)

	res, err := e.Merge(context.Background(), "keep", []string{"ghost"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ghost"}, res.MissingIDs)
	assert.Empty(t, res.MergedIDs)
	assert.Equal(t, 0, st.updates)
	assert.Empty(t, st.deleted)
}

func TestEngine_Merge_RetriesTransientUpdate(t *testing.T) {
	st := &memStore{
		records: []model.Record{
			{ID: "keep", Name: "Acme"},
			{ID: "away", Name: "Acme", City: "Austin"},
		},
		updateErr: []error{resilience.NewTransientError(errors.New("database is locked"), 0)},
	}
	e := newTestEngine(t, st)

	res, err := e.Merge(context.Background(), "keep", []string{"away"})
	require.NoError(t, err)
	assert.Equal(t, "Austin", res.Record.City)
	assert.Equal(t, 2, st.updates)
}

func TestEngine_Merge_PermanentUpdateError(t *testing.T) {
	st := &memStore{
		records: []model.Record{
			{ID: "keep", Name: "Acme"},
			{ID: "away", Name: "Acme", City: "Austin"},
		},
		updateErr: []error{errors.New("constraint violation")},
	}
	e := newTestEngine(t, st)

	_, err := e.Merge(context.Background(), "keep", []string{"away"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dedupe: update record keep")
	assert.Equal(t, 1, st.updates)
	assert.Empty(t, st.deleted)
}

func TestEngine_ConcurrentConfigAccess(t *testing.T) {
	e := newTestEngine(t, &memStore{records: sampleRecords()})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _, _ = e.UpdateConfig(map[string]any{"nameWeight": 0.4})
		}()
		go func() {
			defer wg.Done()
			_, err := e.ScanCollection(context.Background(), "", ScanOptions{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.InDelta(t, 0.4, e.Config().NameWeight, 0.0001)
}
