package history

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/postmaster/pkg/mailer"
)

func sampleRecord() mailer.HistoryRecord {
	return mailer.HistoryRecord{
		"mid":      "mid-1",
		"template": "welcome~acme",
		"code":     "welcome",
		"owner":    "acme",
		"orbit":    "",
		"status":   250,
		"when":     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		"to":       []string{"a@example.com"},
	}
}

type execCall struct {
	sql  string
	args []any
}

type fakeExecer struct {
	calls []execCall
	tag   string
	err   error
}

func (f *fakeExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	tag := f.tag
	if tag == "" {
		tag = "INSERT 0 1"
	}
	return pgconn.NewCommandTag(tag), f.err
}

func TestPostgres_Save(t *testing.T) {
	t.Parallel()

	db := &fakeExecer{}
	require.NoError(t, NewPostgres(db).Save(context.Background(), sampleRecord()))

	require.Len(t, db.calls, 1)
	args := db.calls[0].args
	require.Equal(t, "mid-1", args[0])
	require.Equal(t, "welcome~acme", args[1])
	require.Equal(t, "welcome", args[2])
	require.Equal(t, "acme", args[3])
	require.Equal(t, 250, args[5])
	require.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), args[6])

	var doc map[string]any
	require.NoError(t, json.Unmarshal(args[7].([]byte), &doc))
	require.Equal(t, []any{"a@example.com"}, doc["to"])
}

func TestPostgres_Save_Error(t *testing.T) {
	t.Parallel()

	boom := errors.New("duplicate key")
	err := NewPostgres(&fakeExecer{err: boom}).Save(context.Background(), sampleRecord())

	require.ErrorIs(t, err, ErrSaveFailed)
	require.ErrorIs(t, err, boom)
}

func TestPostgres_Prune(t *testing.T) {
	t.Parallel()

	cutoff := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	db := &fakeExecer{tag: "DELETE 7"}

	n, err := NewPostgres(db).Prune(context.Background(), cutoff)
	require.NoError(t, err)
	require.EqualValues(t, 7, n)
	require.Len(t, db.calls, 1)
	require.Equal(t, cutoff, db.calls[0].args[0])
}

func TestSummarize_DecodedRecord(t *testing.T) {
	t.Parallel()

	var rec mailer.HistoryRecord
	require.NoError(t, json.Unmarshal([]byte(`{"mid":"m","status":202,"when":"2026-03-01T10:00:00Z"}`), &rec))

	s := summarize(rec)
	require.Equal(t, 202, s.Status)
	require.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), s.When)
}

func TestPostgres_Save_Unencodable(t *testing.T) {
	t.Parallel()

	db := &fakeExecer{}
	err := NewPostgres(db).Save(context.Background(), mailer.HistoryRecord{"bad": make(chan int)})

	require.Error(t, err)
	require.Empty(t, db.calls)
}

func TestMigrations_Embedded(t *testing.T) {
	t.Parallel()

	data, err := fs.ReadFile(Migrations, "migrations/00001_create_mail_history.sql")
	require.NoError(t, err)
	require.Contains(t, string(data), "-- +goose Up")
	require.Contains(t, string(data), "mail_history")
}

type fakeStream struct {
	args []*redis.XAddArgs
	err  error
}

func (f *fakeStream) XAdd(_ context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.args = append(f.args, a)
	return redis.NewStringResult("1-0", f.err)
}

func TestRedis_Save(t *testing.T) {
	t.Parallel()

	stream := &fakeStream{}
	store := NewRedis(stream, RedisConfig{Stream: "mail", MaxLen: 10})

	require.NoError(t, store.Save(context.Background(), sampleRecord()))

	require.Len(t, stream.args, 1)
	a := stream.args[0]
	require.Equal(t, "mail", a.Stream)
	require.Equal(t, int64(10), a.MaxLen)
	require.True(t, a.Approx)

	values := a.Values.(map[string]any)
	require.Equal(t, "mid-1", values["mid"])
	require.Equal(t, "250", values["status"])
	require.Contains(t, values["record"], `"template":"welcome~acme"`)
}

func TestRedis_Save_Uncapped(t *testing.T) {
	t.Parallel()

	stream := &fakeStream{}
	require.NoError(t, NewRedis(stream, RedisConfig{}).Save(context.Background(), sampleRecord()))

	require.Equal(t, "postmaster:history", stream.args[0].Stream)
	require.Zero(t, stream.args[0].MaxLen)
	require.False(t, stream.args[0].Approx)
}

func TestRedis_Save_Error(t *testing.T) {
	t.Parallel()

	boom := errors.New("OOM")
	err := NewRedis(&fakeStream{err: boom}, RedisConfig{}).Save(context.Background(), sampleRecord())

	require.ErrorIs(t, err, ErrSaveFailed)
	require.ErrorIs(t, err, boom)
}

func TestMulti_Save(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var saved []string
	ok := func(name string) mailer.HistoryStore {
		return mailer.HistoryStoreFunc(func(context.Context, mailer.HistoryRecord) error {
			mu.Lock()
			defer mu.Unlock()
			saved = append(saved, name)
			return nil
		})
	}
	boom := errors.New("down")
	failing := mailer.HistoryStoreFunc(func(context.Context, mailer.HistoryRecord) error { return boom })

	err := Multi{ok("a"), failing, ok("b")}.Save(context.Background(), sampleRecord())

	require.ErrorIs(t, err, boom)
	require.ElementsMatch(t, []string{"a", "b"}, saved)
	require.NoError(t, Multi{}.Save(context.Background(), sampleRecord()))
}

func TestInstrumented_Save(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := NewCollectors(reg)

	good := c.Instrument(mailer.HistoryStoreFunc(func(context.Context, mailer.HistoryRecord) error { return nil }), "pg")
	bad := c.Instrument(mailer.HistoryStoreFunc(func(context.Context, mailer.HistoryRecord) error {
		return errors.New("x")
	}), "redis")

	require.NoError(t, good.Save(context.Background(), sampleRecord()))
	require.NoError(t, good.Save(context.Background(), sampleRecord()))
	require.Error(t, bad.Save(context.Background(), sampleRecord()))

	require.Equal(t, float64(2), testutil.ToFloat64(c.Saves.WithLabelValues("pg", "ok")))
	require.Equal(t, float64(1), testutil.ToFloat64(c.Saves.WithLabelValues("redis", "error")))
	require.Equal(t, 2, testutil.CollectAndCount(c.Duration))
}

func TestSummarize_Defaults(t *testing.T) {
	t.Parallel()

	s := summarize(mailer.HistoryRecord{})
	require.Empty(t, s.MID)
	require.Zero(t, s.Status)
	require.False(t, s.When.IsZero())
}
