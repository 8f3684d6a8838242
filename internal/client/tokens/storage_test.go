package tokens

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/dmitrijs2005/incidentauth/internal/client/repositories/metadata"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupRepo(t *testing.T) *metadata.SQLiteRepository {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE metadata (key TEXT PRIMARY KEY, value BLOB NOT NULL);`)
	require.NoError(t, err)
	return metadata.NewSQLiteRepository(db)
}

type failingRepo struct{ err error }

func (f failingRepo) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingRepo) Set(context.Context, string, []byte) error   { return f.err }
func (f failingRepo) Delete(context.Context, string) error        { return f.err }

func TestStore_AccessSlot(t *testing.T) {
	s := NewStore(setupRepo(t))
	ctx := context.Background()

	tok, err := s.Token(ctx)
	require.NoError(t, err)
	require.Empty(t, tok)

	require.NoError(t, s.SetToken(ctx, "at-1"))
	require.NoError(t, s.SetToken(ctx, "at-2"))
	tok, _ = s.Token(ctx)
	require.Equal(t, "at-2", tok)

	require.NoError(t, s.RemoveToken(ctx))
	tok, _ = s.Token(ctx)
	require.Empty(t, tok)
}

func TestStore_RefreshSlotIsDurable(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	first := NewStore(repo)
	require.NoError(t, first.SetToken(ctx, "at"))
	require.NoError(t, first.SetRefreshToken(ctx, "rt"))

	// a new process sees the refresh token but not the access token
	second := NewStore(repo)
	rt, err := second.RefreshToken(ctx)
	require.NoError(t, err)
	require.Equal(t, "rt", rt)
	at, _ := second.Token(ctx)
	require.Empty(t, at)

	require.NoError(t, second.RemoveRefreshToken(ctx))
	rt, err = first.RefreshToken(ctx)
	require.NoError(t, err)
	require.Empty(t, rt)
}

func TestStore_DurableErrorsWrapped(t *testing.T) {
	boom := errors.New("readonly database")
	s := NewStore(failingRepo{err: boom})
	ctx := context.Background()

	require.ErrorIs(t, s.SetRefreshToken(ctx, "x"), boom)
	_, err := s.RefreshToken(ctx)
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, s.RemoveRefreshToken(ctx), boom)

	// the session slot does not touch the durable store
	require.NoError(t, s.SetToken(ctx, "at"))
}
