//go:build !wasm

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/disclose/pkg/plan"
	"github.com/praetorian-inc/disclose/pkg/transcript"
	"github.com/praetorian-inc/disclose/pkg/types"
)

const sent = "GET /api/v3/avgPrice?symbol=ETHUSDC HTTP/1.1\r\nhost: api.binance.com\r\n\r\n"

const received = "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\n\r\n" +
	`{"mins":5,"price":"3500.12","closeTime":1700000000000}`

func testPlan(t *testing.T, sentData, receivedData string) (*transcript.Transcript, *plan.Plan) {
	t.Helper()
	tr := transcript.New("test.json", []byte(sentData), []byte(receivedData))
	p, err := plan.Build(context.Background(), tr, &types.Profile{
		ID:       "binance.avgprice",
		Sent:     types.Selection{Headers: []string{"host"}, Query: []string{"symbol"}},
		Received: types.Selection{Keypaths: []string{"price", "mins"}},
		Fallback: true,
	}, plan.Options{})
	require.NoError(t, err)
	return tr, p
}

// backends runs fn against every Store implementation.
func backends(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) {
		s, err := New(Config{Path: ":memory:"})
		require.NoError(t, err)
		defer s.Close()
		fn(t, s)
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := New(Config{Path: filepath.Join(t.TempDir(), "disclose.db")})
		require.NoError(t, err)
		defer s.Close()
		fn(t, s)
	})
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestNew_Backends(t *testing.T) {
	s, err := New(Config{Path: ":memory:"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = New(Config{Path: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &SQLiteStore{}, s)
}

func TestStore_Transcripts(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		tr, _ := testPlan(t, sent, received)

		exists, err := s.TranscriptExists(tr.ID)
		require.NoError(t, err)
		assert.False(t, exists)

		require.NoError(t, s.AddTranscript(tr))
		require.NoError(t, s.AddTranscript(tr))

		exists, err = s.TranscriptExists(tr.ID)
		require.NoError(t, err)
		assert.True(t, exists)
	})
}

func TestStore_PlanRoundTrip(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		tr, p := testPlan(t, sent, received)
		require.NoError(t, s.AddTranscript(tr))
		require.NoError(t, s.AddPlan(p))
		require.NoError(t, s.AddPlan(p))

		got, err := s.GetPlan(p.ID)
		require.NoError(t, err)

		assert.Equal(t, p.ID, got.ID)
		assert.Equal(t, p.TranscriptID, got.TranscriptID)
		assert.Equal(t, p.ProfileID, got.ProfileID)
		assert.True(t, p.CreatedAt.Equal(got.CreatedAt))
		assert.Equal(t, p.Sent.Disclosures, got.Sent.Disclosures)
		assert.Equal(t, p.Received.Disclosures, got.Received.Disclosures)
		assert.Equal(t, p.Sent.Ranges, got.Sent.Ranges)
		assert.Equal(t, p.Received.Ranges, got.Received.Ranges)
		assert.Equal(t, types.DirectionSent, got.Sent.Direction)
		assert.Equal(t, types.DirectionReceived, got.Received.Direction)

		plans, err := s.GetPlans()
		require.NoError(t, err)
		assert.Len(t, plans, 1)
	})
}

func TestStore_PlanErrorsAndFallback(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		_, p := testPlan(t, "garbage", "HTTP/1.1 200 OK\r\nbroken\r\n\r\n"+`{"price":"1"}`)
		require.True(t, p.Received.Fallback)
		require.NoError(t, s.AddPlan(p))

		got, err := s.GetPlan(p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.Sent.Error, got.Sent.Error)
		assert.Equal(t, p.Received.Error, got.Received.Error)
		assert.True(t, got.Received.Fallback)
		assert.Empty(t, got.Sent.Disclosures)
		assert.Len(t, got.Received.Disclosures, 1)
	})
}

func TestStore_GetPlanNotFound(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		_, err := s.GetPlan("missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_PlansForTranscript(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		tr1, p1 := testPlan(t, sent, received)
		_, p2 := testPlan(t, sent, "")
		_, p3 := testPlan(t, sent, received)
		p1.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		p3.CreatedAt = p1.CreatedAt.Add(-time.Second)

		for _, p := range []*plan.Plan{p1, p2, p3} {
			require.NoError(t, s.AddPlan(p))
		}

		plans, err := s.GetPlansForTranscript(tr1.ID)
		require.NoError(t, err)
		require.Len(t, plans, 2)
		assert.Equal(t, p3.ID, plans[0].ID)
		assert.Equal(t, p1.ID, plans[1].ID)

		all, err := s.GetPlans()
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})
}

func TestCreateSchema_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disclose.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	var version int
	require.NoError(t, s.db.QueryRow("SELECT version FROM schema_version").Scan(&version))
	assert.Equal(t, SchemaVersion, version)

	for _, table := range []string{"transcripts", "plans", "disclosures"} {
		var count int
		err := s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s should exist", table)
	}
}

func TestCreateSchema_VersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disclose.db")
	s, err := NewSQLite(path)
	require.NoError(t, err)
	_, err = s.db.Exec("UPDATE schema_version SET version = 99")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = NewSQLite(path)
	assert.Error(t, err)
}
