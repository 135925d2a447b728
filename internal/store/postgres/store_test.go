package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mradkov043/discite-omnes-app/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err, "не удалось создать мок БД")
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func expectNotify(mock sqlmock.Sqlmock, collection string) {
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_notify($1, $2)")).
		WithArgs(NotifyChannel, collection).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestStore_Write(t *testing.T) {
	ctx := context.Background()

	t.Run("запись документа с уведомлением", func(t *testing.T) {
		db, mock := setupMockDB(t)
		s := New(db)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO records").
			WithArgs("groups", "g1", `{"id":"g1","name":"Algo"}`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		expectNotify(mock, "groups")
		mock.ExpectCommit()

		err := s.Write(ctx, "groups/g1", map[string]any{"id": "g1", "name": "Algo"})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("запись одного поля", func(t *testing.T) {
		db, mock := setupMockDB(t)
		s := New(db)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("jsonb_build_object($3::text, $4::jsonb)")).
			WithArgs("tasks", "t1", "completed", "true").
			WillReturnResult(sqlmock.NewResult(0, 1))
		expectNotify(mock, "tasks")
		mock.ExpectCommit()

		require.NoError(t, s.Write(ctx, "tasks/t1/completed", true))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("null удаляет документ и поле", func(t *testing.T) {
		db, mock := setupMockDB(t)
		s := New(db)

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM records").
			WithArgs("groups", "g1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		expectNotify(mock, "groups")
		mock.ExpectCommit()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("SET value = value - $3::text")).
			WithArgs("tasks", "t1", "dueDate").
			WillReturnResult(sqlmock.NewResult(0, 1))
		expectNotify(mock, "tasks")
		mock.ExpectCommit()

		require.NoError(t, s.Write(ctx, "groups/g1", nil))
		require.NoError(t, s.Write(ctx, "tasks/t1/dueDate", nil))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ошибка записи откатывает транзакцию", func(t *testing.T) {
		db, mock := setupMockDB(t)
		s := New(db)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO records").
			WillReturnError(errors.New("permission denied"))
		mock.ExpectRollback()

		err := s.Write(ctx, "groups/g1", map[string]any{"id": "g1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "permission denied")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid targets never reach the database", func(t *testing.T) {
		db, mock := setupMockDB(t)
		s := New(db)

		assert.Error(t, s.Write(ctx, "groups", map[string]any{}))
		assert.Error(t, s.Write(ctx, "groups/g1", []string{"u1"}))
		assert.Error(t, s.Write(ctx, "a/b/c/d", 1))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_ReadOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("collection in insertion order", func(t *testing.T) {
		db, mock := setupMockDB(t)
		s := New(db)

		mock.ExpectQuery(regexp.QuoteMeta("WHERE collection = $1 ORDER BY seq")).
			WithArgs("groups").
			WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).
				AddRow("g2", []byte(`{"id":"g2","name":"B"}`)).
				AddRow("g1", []byte(`{"id":"g1","name":"A"}`)))

		snap, err := s.ReadOnce(ctx, "groups")
		require.NoError(t, err)
		assert.True(t, snap.Exists)
		require.Len(t, snap.Children, 2)
		assert.Equal(t, "g2", snap.Children[0].Key)
		assert.JSONEq(t, `{"id":"g1","name":"A"}`, string(snap.Children[1].Value))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("record and missing record", func(t *testing.T) {
		db, mock := setupMockDB(t)
		s := New(db)

		mock.ExpectQuery("SELECT value FROM records").
			WithArgs("users", "u1").
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`{"id":"u1","name":"Alex"}`)))
		mock.ExpectQuery("SELECT value FROM records").
			WithArgs("users", "u404").
			WillReturnRows(sqlmock.NewRows([]string{"value"}))

		snap, err := s.ReadOnce(ctx, "users/u1")
		require.NoError(t, err)
		assert.True(t, snap.Exists)
		assert.JSONEq(t, `{"id":"u1","name":"Alex"}`, string(snap.Value))

		snap, err = s.ReadOnce(ctx, "users/u404")
		require.NoError(t, err)
		assert.False(t, snap.Exists)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("field that is not set", func(t *testing.T) {
		db, mock := setupMockDB(t)
		s := New(db)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT value -> $3::text")).
			WithArgs("groups", "g1", "members").
			WillReturnRows(sqlmock.NewRows([]string{"members"}).AddRow(nil))

		snap, err := s.ReadOnce(ctx, "groups/g1/members")
		require.NoError(t, err)
		assert.False(t, snap.Exists)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ошибка чтения", func(t *testing.T) {
		db, mock := setupMockDB(t)
		s := New(db)

		mock.ExpectQuery("SELECT key, value").WillReturnError(errors.New("connection refused"))

		_, err := s.ReadOnce(ctx, "tasks")
		require.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_SetOperations(t *testing.T) {
	ctx := context.Background()
	db, mock := setupMockDB(t)
	s := New(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("jsonb_build_array($4::text)")).
		WithArgs("groups", "g1", "members", "u2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectNotify(mock, "groups")
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("(value -> $3::text) - $4::text")).
		WithArgs("groups", "g1", "members", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectNotify(mock, "groups")
	mock.ExpectCommit()

	require.NoError(t, s.AddToSet(ctx, "groups/g1/members", "u2"))
	require.NoError(t, s.RemoveFromSet(ctx, "groups/g1/members", "u1"))
	assert.Error(t, s.AddToSet(ctx, "groups/g1", "u3"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_NewKey(t *testing.T) {
	db, _ := setupMockDB(t)
	s := New(db)

	a, err := s.NewKey("tasks")
	require.NoError(t, err)
	b, err := s.NewKey("tasks")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b)
}

func blockingListener(ctx context.Context, ready func(), notify func(string)) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestStore_Subscribe(t *testing.T) {
	db, mock := setupMockDB(t)
	s := New(db, WithRefetchRate(rate.Inf, 1))
	s.listen = blockingListener

	filtered := regexp.QuoteMeta("value ->> $2::text = $3")
	mock.ExpectQuery(filtered).
		WithArgs("tasks", "groupId", "g1").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).
			AddRow("t1", []byte(`{"id":"t1","groupId":"g1","title":"Read"}`)))
	mock.ExpectQuery(filtered).
		WithArgs("tasks", "groupId", "g1").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).
			AddRow("t1", []byte(`{"id":"t1","groupId":"g1","title":"Read"}`)).
			AddRow("t2", []byte(`{"id":"t2","groupId":"g1","title":"Write"}`)))
	mock.ExpectQuery(filtered).
		WithArgs("tasks", "groupId", "g1").
		WillReturnError(errors.New("connection reset"))

	snaps := make(chan store.Snapshot, 4)
	errs := make(chan error, 4)
	id, err := s.Subscribe(store.EqualityQuery("tasks", "groupId", "g1"),
		func(snap store.Snapshot) { snaps <- snap },
		func(err error) { errs <- err },
	)
	require.NoError(t, err)

	first := receive(t, snaps)
	assert.Len(t, first.Children, 1)

	s.wakeCollection("groups")
	s.wakeCollection("tasks")
	second := receive(t, snaps)
	assert.Len(t, second.Children, 2)

	s.failAll(errors.New("listener lost"))
	assert.EqualError(t, receive(t, errs), "listener lost")
	assert.Contains(t, receive(t, errs).Error(), "connection reset")

	s.Unsubscribe(id)
	s.Close()

	_, err = s.Subscribe(store.CollectionQuery("tasks"), func(store.Snapshot) {}, nil)
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SubscribeValidation(t *testing.T) {
	db, _ := setupMockDB(t)
	s := New(db)
	defer s.Close()

	_, err := s.Subscribe(store.Query{}, func(store.Snapshot) {}, nil)
	assert.Error(t, err)
	_, err = s.Subscribe(store.CollectionQuery("tasks"), nil, nil)
	assert.Error(t, err)
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}
	var zero T
	return zero
}

func TestIsObject(t *testing.T) {
	assert.True(t, isObject([]byte(` {"a":1}`)))
	assert.False(t, isObject([]byte(`[1]`)))
	assert.False(t, isObject([]byte(`"x"`)))
	assert.False(t, isObject(nil))
}
