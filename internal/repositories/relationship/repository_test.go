package relationship

import (
	"context"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/aster/pkg/database"
	"github.com/Ramsey-B/aster/pkg/models"
)

func newTestRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	log := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	db := database.NewDatabaseInstance(sqlx.NewDb(mockDB, "postgres"), log)
	return NewRepository(db, log), mock
}

func countRows(n int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

func TestCreate_DuplicateTupleConflicts(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM persons WHERE id IN`).WillReturnRows(countRows(2))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM person_relationships WHERE dossier_id`).WillReturnRows(countRows(1))

	_, err := repo.Create(context.Background(), "d1", models.CreateRelationshipRequest{
		PersonAID:        "p1",
		PersonBID:        "p2",
		RelationshipType: "associate",
	})
	require.Error(t, err)

	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_EndpointOutsideDossierRejected(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM persons WHERE id IN`).WillReturnRows(countRows(1))

	_, err := repo.Create(context.Background(), "d1", models.CreateRelationshipRequest{
		PersonAID:        "p1",
		PersonBID:        "p9",
		RelationshipType: "associate",
	})
	require.Error(t, err)

	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_InsertsWhenTupleUnique(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM persons WHERE id IN`).WillReturnRows(countRows(2))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM person_relationships WHERE dossier_id`).WillReturnRows(countRows(0))
	mock.ExpectExec(`INSERT INTO person_relationships`).WillReturnResult(sqlmock.NewResult(0, 1))

	rel, err := repo.Create(context.Background(), "d1", models.CreateRelationshipRequest{
		PersonAID:        "p1",
		PersonBID:        "p2",
		RelationshipType: "associate",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, rel.ID)
	assert.Equal(t, "d1", rel.DossierID)
	assert.Equal(t, "p1", rel.PersonAID)
	assert.Equal(t, "p2", rel.PersonBID)
	assert.Equal(t, 0.5, rel.ConfidenceScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}
