package storage

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/sqb/errors"
	sqbtest "github.com/teranos/sqb/internal/testing"
	"github.com/teranos/sqb/search/keys"
	"github.com/teranos/sqb/search/suggest"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, s *TagStore) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.RecordBatch(ctx, "errors", []Observation{
		{Key: "browser", Value: "Chrome", SeenAt: t0},
		{Key: "browser", Value: "Chrome", SeenAt: t0.Add(time.Hour)},
		{Key: "browser", Value: "Firefox", SeenAt: t0},
		{Key: "browser", Value: "50%_off", SeenAt: t0},
		{Key: "release", Value: "1.0.0", SeenAt: t0},
	}))
	require.NoError(t, s.Record(ctx, "issue_platform", "browser", "Chrome", t0.Add(2*time.Hour)))
	require.NoError(t, s.Record(ctx, "issue_platform", "os", "Linux", t0))
}

func TestTagStoreValues(t *testing.T) {
	s := NewTagStore(sqbtest.CreateTestDB(t))
	seed(t, s)
	ctx := context.Background()

	values, err := s.Values(ctx, "errors", "browser", "", 0)
	require.NoError(t, err)
	require.Len(t, values, 3)
	assert.Equal(t, suggest.Value{Value: "Chrome", Count: 2, LastSeen: t0.Add(time.Hour)}, values[0])

	values, err = s.Values(ctx, "", "browser", "chr", 0)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, int64(3), values[0].Count, "counts sum across datasets")
	assert.Equal(t, t0.Add(2*time.Hour), values[0].LastSeen)

	values, err = s.Values(ctx, "errors", "browser", "o", 1)
	require.NoError(t, err)
	assert.Len(t, values, 1)
}

func TestTagStoreValuesEscapesLike(t *testing.T) {
	s := NewTagStore(sqbtest.CreateTestDB(t))
	seed(t, s)

	values, err := s.Values(context.Background(), "errors", "browser", "%_", 0)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "50%_off", values[0].Value)

	values, err = s.Values(context.Background(), "errors", "browser", "_", 0)
	require.NoError(t, err)
	assert.Len(t, values, 1, "underscore matches literally")
}

func TestTagStoreTagKeys(t *testing.T) {
	s := NewTagStore(sqbtest.CreateTestDB(t))
	seed(t, s)

	all, err := s.TagKeys(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []keys.TagInfo{
		{Key: "browser", TotalValues: 3},
		{Key: "os", TotalValues: 1},
		{Key: "release", TotalValues: 1},
	}, all)

	platform, err := s.TagKeys(context.Background(), "issue_platform")
	require.NoError(t, err)
	assert.Equal(t, []keys.TagInfo{{Key: "browser", TotalValues: 1}, {Key: "os", TotalValues: 1}}, platform)
}

func TestTagStoreRecordValidation(t *testing.T) {
	s := NewTagStore(sqbtest.CreateTestDB(t))

	err := s.Record(context.Background(), "", "browser", "x", t0)
	assert.True(t, errors.IsInvalidRequestError(err))

	err = s.RecordBatch(context.Background(), "errors", []Observation{{Key: " ", Value: "x"}})
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestTagStoreSourcesFeedOrchestrator(t *testing.T) {
	s := NewTagStore(sqbtest.CreateTestDB(t))
	seed(t, s)

	o := suggest.New(nil, s.Sources([]string{"errors", "issue_platform"}, 10), suggest.Options{})
	var got []string
	for v := range o.GetValues(context.Background(), "browser", "") {
		got = append(got, v)
	}
	assert.Equal(t, []string{"Chrome", "50%_off", "Firefox"}, got)
}

func TestTagStoreQueryFailure(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectQuery(`SELECT value, SUM\(times_seen\), MAX\(last_seen\)\s+FROM tag_values`).
		WillReturnError(errors.New("disk I/O error"))

	_, err = NewTagStore(conn).Values(context.Background(), "errors", "browser", "", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query values for browser")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTagStoreBatchRollsBack(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`INSERT INTO tag_values`)
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	err = NewTagStore(conn).RecordBatch(context.Background(), "errors", []Observation{
		{Key: "a", Value: "1", SeenAt: t0},
		{Key: "b", Value: "2", SeenAt: t0},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record b=2 in errors")
	assert.NoError(t, mock.ExpectationsWereMet())
}
