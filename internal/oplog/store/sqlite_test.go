package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

type SQLiteSuite struct {
	LogStoreContract
	dir   string
	count int
}

func (s *SQLiteSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.newStore = func() logStore {
		s.count++
		st, err := NewSQLite(context.Background(), filepath.Join(s.dir, fmt.Sprintf("log-%d.db", s.count)))
		s.Require().NoError(err)
		s.T().Cleanup(func() { _ = st.Close() })
		return st
	}
}

func TestSQLiteSuite(t *testing.T) {
	suite.Run(t, new(SQLiteSuite))
}

func (s *SQLiteSuite) TestReopenKeepsEntries() {
	ctx := context.Background()
	path := filepath.Join(s.dir, "reopen.db")

	st, err := NewSQLite(ctx, path)
	s.Require().NoError(err)
	s.Require().NoError(st.Append(ctx, entry(1, "fund_airline")))
	s.Require().NoError(st.Close())

	st, err = NewSQLite(ctx, path)
	s.Require().NoError(err)
	defer st.Close()
	h, err := st.Height(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(1), h)
}
