package docstore_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkpoint/forkpoint-backend/pkg/database"
	"github.com/forkpoint/forkpoint-backend/pkg/docstore"
	"github.com/forkpoint/forkpoint-backend/pkg/errors"
	"github.com/forkpoint/forkpoint-backend/pkg/logger"
	"github.com/forkpoint/forkpoint-backend/pkg/testutil"
)

func newStore(t *testing.T) (*docstore.Store, *testutil.MockDB) {
	t.Helper()
	mockDB := testutil.NewMockDB(t)
	db := database.NewWithDB(mockDB.DB, logger.Nop())
	return docstore.New(db, logger.Nop()), mockDB
}

func docRows(id string, version int64, body string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"collection", "id", "version", "body", "created_at", "updated_at"}).
		AddRow("items", id, version, []byte(body), now, now)
}

func TestStore_Get(t *testing.T) {
	store, mockDB := newStore(t)
	defer mockDB.Close()

	mockDB.Mock.ExpectQuery("SELECT collection, id, version, body").
		WithArgs("items", "item-1").
		WillReturnRows(docRows("item-1", 3, `{"name":"tomatoes"}`))

	doc, err := store.Get(context.Background(), "items", "item-1")
	require.NoError(t, err)
	assert.Equal(t, "item-1", doc.ID)
	assert.Equal(t, int64(3), doc.Version)

	var body map[string]string
	require.NoError(t, doc.Unmarshal(&body))
	assert.Equal(t, "tomatoes", body["name"])

	mockDB.ExpectationsWereMet(t)
}

func TestStore_Get_NotFound(t *testing.T) {
	store, mockDB := newStore(t)
	defer mockDB.Close()

	mockDB.Mock.ExpectQuery("SELECT collection, id, version, body").
		WithArgs("items", "missing").
		WillReturnRows(sqlmock.NewRows([]string{"collection", "id", "version", "body", "created_at", "updated_at"}))

	_, err := store.Get(context.Background(), "items", "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	mockDB.ExpectationsWereMet(t)
}

func TestStore_GetAll(t *testing.T) {
	store, mockDB := newStore(t)
	defer mockDB.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"collection", "id", "version", "body", "created_at", "updated_at"}).
		AddRow("items", "item-1", 1, []byte(`{}`), now, now).
		AddRow("items", "item-2", 4, []byte(`{}`), now, now)

	mockDB.Mock.ExpectQuery("SELECT collection, id, version, body").
		WithArgs("items").
		WillReturnRows(rows)

	docs, err := store.GetAll(context.Background(), "items")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "item-1", docs[0].ID)
	assert.Equal(t, int64(4), docs[1].Version)

	mockDB.ExpectationsWereMet(t)
}

func TestStore_PutVersioned_Update(t *testing.T) {
	store, mockDB := newStore(t)
	defer mockDB.Close()

	body := map[string]int{"quantity": 5}
	raw, _ := json.Marshal(body)

	mockDB.Mock.ExpectQuery("UPDATE documents").
		WithArgs("items", "item-1", int64(2), raw).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(3))

	version, err := store.PutVersioned(context.Background(), "items", "item-1", body, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)

	mockDB.ExpectationsWereMet(t)
}

func TestStore_PutVersioned_Conflict(t *testing.T) {
	store, mockDB := newStore(t)
	defer mockDB.Close()

	body := map[string]int{"quantity": 5}
	raw, _ := json.Marshal(body)

	// Empty result set means the version predicate did not match.
	mockDB.Mock.ExpectQuery("UPDATE documents").
		WithArgs("items", "item-1", int64(2), raw).
		WillReturnRows(sqlmock.NewRows([]string{"version"}))

	_, err := store.PutVersioned(context.Background(), "items", "item-1", body, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, docstore.ErrVersionConflict))

	mockDB.ExpectationsWereMet(t)
}

func TestStore_PutVersioned_Create(t *testing.T) {
	store, mockDB := newStore(t)
	defer mockDB.Close()

	body := map[string]string{"name": "basil"}
	raw, _ := json.Marshal(body)

	mockDB.Mock.ExpectQuery("INSERT INTO documents").
		WithArgs("items", "item-9", raw).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1))

	version, err := store.PutVersioned(context.Background(), "items", "item-9", body, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	mockDB.ExpectationsWereMet(t)
}

func TestStore_PutVersioned_CreateConflict(t *testing.T) {
	store, mockDB := newStore(t)
	defer mockDB.Close()

	body := map[string]string{"name": "basil"}
	raw, _ := json.Marshal(body)

	// ON CONFLICT DO NOTHING returns no rows when the document exists.
	mockDB.Mock.ExpectQuery("INSERT INTO documents").
		WithArgs("items", "item-9", raw).
		WillReturnRows(sqlmock.NewRows([]string{"version"}))

	_, err := store.PutVersioned(context.Background(), "items", "item-9", body, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, docstore.ErrVersionConflict))

	mockDB.ExpectationsWereMet(t)
}

func TestStore_Delete_NotFound(t *testing.T) {
	store, mockDB := newStore(t)
	defer mockDB.Close()

	mockDB.Mock.ExpectExec("DELETE FROM documents").
		WithArgs("items", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Delete(context.Background(), "items", "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	mockDB.ExpectationsWereMet(t)
}

func TestStore_PutVersionedEach_ContinuesPastFailures(t *testing.T) {
	store, mockDB := newStore(t)
	defer mockDB.Close()

	bodyA := map[string]int{"quantity": 1}
	rawA, _ := json.Marshal(bodyA)
	bodyB := map[string]int{"quantity": 2}
	rawB, _ := json.Marshal(bodyB)

	mockDB.Mock.ExpectQuery("UPDATE documents").
		WithArgs("items", "item-a", int64(1), rawA).
		WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mockDB.Mock.ExpectQuery("UPDATE documents").
		WithArgs("items", "item-b", int64(1), rawB).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(2))

	results := store.PutVersionedEach(context.Background(), "items", []docstore.VersionedWrite{
		{ID: "item-a", Body: bodyA, ExpectedVersion: 1},
		{ID: "item-b", Body: bodyB, ExpectedVersion: 1},
	})

	require.Len(t, results, 2)
	assert.Error(t, results["item-a"])
	assert.NoError(t, results["item-b"])

	mockDB.ExpectationsWereMet(t)
}
