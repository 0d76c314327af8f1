package merging

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/aster/internal/repositories/attribute"
	"github.com/Ramsey-B/aster/internal/repositories/media"
	"github.com/Ramsey-B/aster/internal/repositories/mergelog"
	"github.com/Ramsey-B/aster/internal/repositories/person"
	"github.com/Ramsey-B/aster/internal/repositories/relationship"
	"github.com/Ramsey-B/aster/pkg/database"
	"github.com/Ramsey-B/aster/pkg/models"
)

func newEngineHarness(t *testing.T) (*Engine, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	log := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	db := database.NewDatabaseInstance(sqlx.NewDb(mockDB, "postgres"), log)

	engine := NewEngine(
		log,
		person.NewRepository(db, log),
		attribute.NewRepository(db, log),
		relationship.NewRepository(db, log),
		media.NewRepository(db, log),
		mergelog.NewRepository(db, log),
		nil,
	)
	return engine, mock
}

func personRows(id, dossierID, name string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "dossier_id", "canonical_name", "aliases", "description", "confidence_score", "merged_from", "created_at", "updated_at"}).
		AddRow(id, dossierID, name, "{}", nil, 0.9, "{}", now, now)
}

const selectPersonPattern = `SELECT id, dossier_id, .+ FROM persons WHERE id =`

func TestMerge_SingleTransactionAppliesAllSteps(t *testing.T) {
	engine, mock := newEngineHarness(t)

	mock.ExpectQuery(selectPersonPattern).WillReturnRows(personRows("p1", "d1", "Alice"))
	mock.ExpectQuery(selectPersonPattern).WillReturnRows(personRows("p2", "d1", "Al"))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE persons SET merged_from = array_append`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE person_attributes SET person_id`).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`UPDATE person_relationships SET person_a_id`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE person_relationships SET person_b_id`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`UPDATE person_media SET person_id`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO person_merge_log`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM persons WHERE id = \$1`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	resp, err := engine.Merge(context.Background(), models.MergePersonsRequest{
		PrimaryPersonID: "p1",
		MergedPersonID:  "p2",
		Reason:          "duplicate entry",
	}, "user-1")
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "p1", resp.PrimaryPersonID)
	assert.Equal(t, "p2", resp.MergedPersonID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMerge_RollsBackWhenStepFails(t *testing.T) {
	engine, mock := newEngineHarness(t)

	mock.ExpectQuery(selectPersonPattern).WillReturnRows(personRows("p1", "d1", "Alice"))
	mock.ExpectQuery(selectPersonPattern).WillReturnRows(personRows("p2", "d1", "Al"))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE persons SET merged_from = array_append`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE person_attributes SET person_id`).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`UPDATE person_relationships SET person_a_id`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := engine.Merge(context.Background(), models.MergePersonsRequest{
		PrimaryPersonID: "p1",
		MergedPersonID:  "p2",
	}, "")
	require.Error(t, err)

	assert.Equal(t, http.StatusInternalServerError, httperror.GetStatusCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMerge_RepeatAfterCommitReadsNotFound(t *testing.T) {
	engine, mock := newEngineHarness(t)

	mock.ExpectQuery(selectPersonPattern).WillReturnRows(personRows("p1", "d1", "Alice"))
	mock.ExpectQuery(selectPersonPattern).WillReturnError(sql.ErrNoRows)

	_, err := engine.Merge(context.Background(), models.MergePersonsRequest{
		PrimaryPersonID: "p1",
		MergedPersonID:  "p2",
	}, "")
	require.Error(t, err)

	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
	assert.Contains(t, err.Error(), "p2")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMerge_SelfMergeRejected(t *testing.T) {
	engine, mock := newEngineHarness(t)

	_, err := engine.Merge(context.Background(), models.MergePersonsRequest{
		PrimaryPersonID: "p1",
		MergedPersonID:  "p1",
	}, "")
	require.Error(t, err)

	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckMergeable(t *testing.T) {
	t.Run("same dossier", func(t *testing.T) {
		primary := &models.Person{ID: "p1", DossierID: "d1"}
		merged := &models.Person{ID: "p2", DossierID: "d1"}

		assert.NoError(t, checkMergeable(primary, merged))
	})

	t.Run("cross dossier reads as not found", func(t *testing.T) {
		primary := &models.Person{ID: "p1", DossierID: "d1"}
		merged := &models.Person{ID: "p2", DossierID: "d2"}

		err := checkMergeable(primary, merged)
		require.Error(t, err)
		assert.True(t, httperror.IsHTTPError(err))
		assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
		assert.Contains(t, err.Error(), "p2")
		assert.Contains(t, err.Error(), "d1")
	})
}
