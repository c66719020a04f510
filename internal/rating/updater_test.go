package rating

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netgrid/arena/internal/match"
)

type memStore struct {
	records map[string]*Record
}

func newMemStore() *memStore { return &memStore{records: make(map[string]*Record)} }

func (s *memStore) key(playerID, gameType string) string { return playerID + "/" + gameType }

func (s *memStore) GetRecord(_ context.Context, playerID, gameType string) (*Record, error) {
	rec, ok := s.records[s.key(playerID, gameType)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *memStore) UpsertRecord(_ context.Context, rec *Record) error {
	cp := *rec
	s.records[s.key(rec.PlayerID, rec.GameType)] = &cp
	return nil
}

func TestRecordResultCreatesRecordsLazily(t *testing.T) {
	store := newMemStore()
	u := NewUpdater(store)

	err := u.RecordResult(context.Background(), "sess-1", "match-1", "free_line", []match.Placement{
		{PlayerID: "a", Placement: 1, Score: 4},
		{PlayerID: "b", Placement: 2, Score: 2},
	})
	require.NoError(t, err)

	a, err := store.GetRecord(context.Background(), "a", "free_line")
	require.NoError(t, err)
	require.NotNil(t, a)
	b, err := store.GetRecord(context.Background(), "b", "free_line")
	require.NoError(t, err)
	require.NotNil(t, b)

	// Both start from the initial rating; the first game swings a full
	// half-K each way.
	assert.Equal(t, InitialMMR+32, a.MMR)
	assert.Equal(t, InitialMMR-32, b.MMR)
	assert.Equal(t, 1, a.GamesPlayed)
	assert.Equal(t, 1, a.Wins)
	assert.Equal(t, 0, a.Losses)
	assert.Equal(t, 1, b.Losses)

	require.Len(t, a.History, 1)
	assert.Equal(t, "match-1", a.History[0].MatchID)
	assert.Equal(t, 32, a.History[0].Delta)
	require.Len(t, a.History[0].Opponents, 1)
	assert.Equal(t, "b", a.History[0].Opponents[0].PlayerID)
	assert.Equal(t, InitialMMR, a.History[0].Opponents[0].MMR, "opponent snapshot uses the pre-match rating")
}

func TestRecordResultAccumulatesAcrossMatches(t *testing.T) {
	store := newMemStore()
	u := NewUpdater(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := u.RecordResult(ctx, "sess-1", "m", "snake", []match.Placement{
			{PlayerID: "a", Placement: 1},
			{PlayerID: "b", Placement: 2},
		})
		require.NoError(t, err)
	}

	a, _ := store.GetRecord(ctx, "a", "snake")
	b, _ := store.GetRecord(ctx, "b", "snake")
	assert.Equal(t, 3, a.GamesPlayed)
	assert.Equal(t, 3, a.Wins)
	assert.Equal(t, 3, b.Losses)
	assert.Greater(t, a.MMR, b.MMR)
	assert.Len(t, a.History, 3)
	// The favorite earns less for each further win over the same opponent.
	assert.Greater(t, a.History[0].Delta, a.History[2].Delta)
}

func TestRecordResultFullDrawCountsNeitherWinNorLoss(t *testing.T) {
	store := newMemStore()
	u := NewUpdater(store)
	ctx := context.Background()

	err := u.RecordResult(ctx, "sess-1", "m-draw", "free_line", []match.Placement{
		{PlayerID: "a", Placement: 1},
		{PlayerID: "b", Placement: 1},
	})
	require.NoError(t, err)

	for _, id := range []string{"a", "b"} {
		rec, err := store.GetRecord(ctx, id, "free_line")
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, 1, rec.GamesPlayed)
		assert.Equal(t, 0, rec.Wins, "a drawn match is not a win for %s", id)
		assert.Equal(t, 0, rec.Losses)
		assert.Equal(t, InitialMMR, rec.MMR)
	}
}

func TestRecordResultIgnoresSoloPlacements(t *testing.T) {
	store := newMemStore()
	u := NewUpdater(store)
	err := u.RecordResult(context.Background(), "s", "m", "snake", []match.Placement{
		{PlayerID: "a", Placement: 1},
	})
	require.NoError(t, err)
	rec, _ := store.GetRecord(context.Background(), "a", "snake")
	assert.Nil(t, rec, "a walkover must not touch ratings")
}
