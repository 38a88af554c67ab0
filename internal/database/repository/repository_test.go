package repository_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/solvetree/internal/database"
	"github.com/jask/solvetree/internal/database/repository"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	require.NoError(t, database.RunMigrations(dbPath))
	t.Log("migrations applied")

	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db := openTestDB(t)
	sessions := repository.NewSessionRepo(db)
	messages := repository.NewMessageRepo(db)

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, sessions.Create(ctx, repository.Session{ID: "aaaa-1", Host: "ws://h", Mode: "websocket", StartedAt: start}))
	require.NoError(t, sessions.Create(ctx, repository.Session{ID: "bbbb-2", Host: "stdio", Mode: "stdio", StartedAt: start.Add(time.Minute)}))

	for i, cmd := range []string{"init", "loadCore", "loadChildren"} {
		require.NoError(t, messages.Append(ctx, repository.Message{
			SessionID: "aaaa-1", Seq: int64(i + 1), Direction: repository.DirectionIn,
			Command: cmd, Payload: "{}", ReceivedAt: start.Add(time.Duration(i) * time.Millisecond),
		}))
	}
	require.NoError(t, messages.Append(ctx, repository.Message{
		SessionID: "aaaa-1", Seq: 4, Direction: repository.DirectionOut,
		Command: "pretty", Payload: `{"nodeId":1}`, ReceivedAt: start,
	}))

	got, err := messages.List(ctx, "aaaa-1", repository.DirectionIn)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "init", got[0].Command)
	require.Equal(t, "loadChildren", got[2].Command)

	all, err := messages.List(ctx, "aaaa-1", "")
	require.NoError(t, err)
	require.Len(t, all, 4)

	last, err := messages.LastSeq(ctx, "aaaa-1")
	require.NoError(t, err)
	require.EqualValues(t, 4, last)
	last, err = messages.LastSeq(ctx, "bbbb-2")
	require.NoError(t, err)
	require.Zero(t, last)

	require.NoError(t, sessions.End(ctx, "aaaa-1", start.Add(time.Hour)))
	require.NoError(t, sessions.End(ctx, "aaaa-1", start.Add(2*time.Hour)))
	s, err := sessions.Get(ctx, "aaaa-1")
	require.NoError(t, err)
	require.NotNil(t, s.EndedAt)
	require.True(t, s.EndedAt.Equal(start.Add(time.Hour)))

	list, err := sessions.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "bbbb-2", list[0].ID)
	require.Equal(t, 4, list[1].Messages)

	latest, err := sessions.Latest(ctx)
	require.NoError(t, err)
	require.Equal(t, "bbbb-2", latest.ID)

	require.ErrorIs(t, sessions.End(ctx, "missing", start), repository.ErrNotFound)
	_, err = sessions.Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFindByPrefix(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)
	sessions := repository.NewSessionRepo(db)
	now := time.Now().UTC()
	for _, id := range []string{"abc-1", "abd-2", "xyz-3"} {
		require.NoError(t, sessions.Create(ctx, repository.Session{ID: id, Host: "h", Mode: "stdio", StartedAt: now}))
	}

	s, err := sessions.Find(ctx, "xy")
	require.NoError(t, err)
	require.Equal(t, "xyz-3", s.ID)

	_, err = sessions.Find(ctx, "ab")
	require.ErrorIs(t, err, repository.ErrAmbiguous)

	_, err = sessions.Find(ctx, "q")
	require.ErrorIs(t, err, repository.ErrNotFound)

	s, err = sessions.Find(ctx, "abc-1")
	require.NoError(t, err)
	require.Equal(t, "abc-1", s.ID)
}

func TestPruneKeepsNewestAndCascades(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)
	sessions := repository.NewSessionRepo(db)
	messages := repository.NewMessageRepo(db)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"s1", "s2", "s3", "s4"} {
		require.NoError(t, sessions.Create(ctx, repository.Session{ID: id, Host: "h", Mode: "stdio", StartedAt: base.Add(time.Duration(i) * time.Hour)}))
		require.NoError(t, messages.Append(ctx, repository.Message{SessionID: id, Seq: 1, Direction: repository.DirectionIn, Command: "init", Payload: "{}", ReceivedAt: base}))
	}

	n, err := sessions.Prune(ctx, 2)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	list, err := sessions.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "s4", list[0].ID)
	require.Equal(t, "s3", list[1].ID)

	count, err := messages.Count(ctx, "s1")
	require.NoError(t, err)
	require.Zero(t, count)
}
