package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stretchr/testify/suite"

	"flightsurety/internal/oplog/models"
	"flightsurety/pkg/platform/sentinel"
)

type logStore interface {
	Append(ctx context.Context, entry *models.Entry) error
	Since(ctx context.Context, after uint64) ([]models.Entry, error)
	Height(ctx context.Context) (uint64, error)
}

// LogStoreContract is embedded by every store suite. Concrete suites set
// newStore to return an empty store.
type LogStoreContract struct {
	suite.Suite
	newStore func() logStore
}

func entry(height uint64, kind string) *models.Entry {
	return models.NewEntry(height, kind, json.RawMessage(`{"sender":"0x01"}`), time.Unix(1700000000, 0))
}

func (s *LogStoreContract) TestAppendAndRead() {
	ctx := context.Background()
	st := s.newStore()

	h, err := st.Height(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(0), h)

	first := entry(1, "fund_airline")
	s.Require().NoError(st.Append(ctx, first))
	s.Require().NoError(st.Append(ctx, entry(2, "register_airline")))
	s.Require().NoError(st.Append(ctx, entry(3, "register_flight")))

	h, err = st.Height(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(3), h)

	all, err := st.Since(ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal(first.ID, all[0].ID)
	s.Equal("fund_airline", all[0].Kind)
	s.JSONEq(`{"sender":"0x01"}`, string(all[0].Payload))
	s.True(first.AppliedAt.Equal(all[0].AppliedAt))

	tail, err := st.Since(ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(tail, 1)
	s.Equal(uint64(3), tail[0].Height)

	none, err := st.Since(ctx, 3)
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *LogStoreContract) TestAppendRejectsGaps() {
	ctx := context.Background()
	st := s.newStore()

	s.Run("first entry must be height 1", func() {
		err := st.Append(ctx, entry(2, "fund_airline"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Require().NoError(st.Append(ctx, entry(1, "fund_airline")))

	s.Run("replayed height conflicts", func() {
		err := st.Append(ctx, entry(1, "fund_airline"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("skipped height conflicts", func() {
		err := st.Append(ctx, entry(3, "fund_airline"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	h, err := st.Height(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(1), h)
}
