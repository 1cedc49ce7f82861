package state

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lineal-labs/lineal/pkg/core"
)

// newMockStore wires a PostgresStore onto a sqlmock connection, bypassing
// Open so no real server or migration run is needed.
func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := NewPostgresStore(nil)
	s.db = db
	return s, mock
}

func TestPostgresStore_NotOpened(t *testing.T) {
	s := NewPostgresStore(nil)

	_, err := s.GetNode("a")
	assert.Error(t, err)
	_, err = s.UpsertEdge("a", "b", core.EdgeTypeDirect)
	assert.Error(t, err)
	assert.NoError(t, s.Close())
}

func TestPostgresStore_GetNode(t *testing.T) {
	s, mock := newMockStore(t)
	ts := now()

	rows := sqlmock.NewRows([]string{"name", "type", "owner", "team", "description", "tags", "created_at", "updated_at"}).
		AddRow("analytics.orders", "DATASET", "data-eng", "analytics", "", `["core"]`, ts, ts)
	mock.ExpectQuery(`SELECT name, type, owner, team, description, tags, created_at, updated_at`).
		WithArgs("analytics.orders").
		WillReturnRows(rows)

	n, err := s.GetNode("analytics.orders")
	require.NoError(t, err)
	assert.Equal(t, core.NodeTypeDataset, n.Type)
	assert.Equal(t, []string{"core"}, n.Tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetNode_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT name, type, owner`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"name"}))

	_, err := s.GetNode("missing")
	assert.ErrorIs(t, err, core.ErrResourceNotFound)
}

func TestPostgresStore_GetNode_CorruptTags(t *testing.T) {
	s, mock := newMockStore(t)
	ts := now()

	rows := sqlmock.NewRows([]string{"name", "type", "owner", "team", "description", "tags", "created_at", "updated_at"}).
		AddRow("a", "TABLE", "", "", "", `not json`, ts, ts)
	mock.ExpectQuery(`SELECT name, type, owner`).WithArgs("a").WillReturnRows(rows)

	n, err := s.GetNode("a")
	require.NoError(t, err)
	assert.Nil(t, n.Tags)
}

func TestPostgresStore_UpsertNode(t *testing.T) {
	s, mock := newMockStore(t)
	ts := now()

	mock.ExpectExec(`INSERT INTO nodes`).
		WithArgs("a", "DATASET", "owner", "team", "desc", `["x"]`,
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	rows := sqlmock.NewRows([]string{"name", "type", "owner", "team", "description", "tags", "created_at", "updated_at"}).
		AddRow("a", "DATASET", "owner", "team", "desc", `["x"]`, ts, ts)
	mock.ExpectQuery(`SELECT name, type, owner`).WithArgs("a").WillReturnRows(rows)

	n, err := s.UpsertNode("a", core.NodeTypeDataset, core.NodeMeta{
		Owner: "owner", Team: "team", Description: "desc", Tags: []string{"x"},
	})
	require.NoError(t, err)
	assert.Equal(t, "a", n.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertNode_ExecError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO nodes`).WillReturnError(assert.AnError)

	_, err := s.UpsertNode("a", core.NodeTypeTable, core.NodeMeta{})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, core.ErrResourceNotFound))
}

func TestPostgresStore_UpsertEdge(t *testing.T) {
	s, mock := newMockStore(t)
	ts := now()

	mock.ExpectExec(`INSERT INTO edges`).
		WithArgs(sqlmock.AnyArg(), "a", "b", "DIRECT", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	rows := sqlmock.NewRows([]string{"id", "source", "target", "edge_type", "created_at"}).
		AddRow("edge-1", "a", "b", "DIRECT", ts)
	mock.ExpectQuery(`SELECT id, source, target, edge_type`).
		WithArgs("a", "b").
		WillReturnRows(rows)

	e, err := s.UpsertEdge("a", "b", core.EdgeTypeDirect)
	require.NoError(t, err)
	assert.Equal(t, "edge-1", e.ID)
	assert.Equal(t, core.EdgeTypeDirect, e.Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_EdgesBy(t *testing.T) {
	s, mock := newMockStore(t)
	ts := now()

	rows := sqlmock.NewRows([]string{"id", "source", "target", "edge_type", "created_at"}).
		AddRow("e1", "a", "d", "DIRECT", ts).
		AddRow("e2", "b", "d", "MANUAL", ts)
	mock.ExpectQuery(`SELECT id, source, target, edge_type, created_at`).
		WithArgs("d").
		WillReturnRows(rows)

	edges, err := s.IncomingEdges("d")
	require.NoError(t, err)
	require.Len(t, edges, 2)
	assert.Equal(t, "a", edges[0].Source)
	assert.Equal(t, core.EdgeTypeManual, edges[1].Type)
}

func TestPostgresStore_SoftDeletes(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE nodes SET deleted_at`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "a").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.SoftDeleteNode("a"))

	mock.ExpectExec(`UPDATE edges SET deleted_at`).
		WithArgs(sqlmock.AnyArg(), "a", "b").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.SoftDeleteEdge("a", "b"))

	assert.NoError(t, mock.ExpectationsWereMet())
}
