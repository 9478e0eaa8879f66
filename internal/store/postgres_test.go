package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/metal-lca/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS projects`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateProject(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO projects`).
		WithArgs(pgxmock.AnyArg(), "Cathode line", "Copper", "Circular", 2.5, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	p := sampleProject()
	require.NoError(t, s.CreateProject(context.Background(), p))
	assert.NotEmpty(t, p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetProject(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, name, metal_type, processing_mode, functional_unit_mass_tonnes, created_at\s+FROM projects WHERE id = \$1`).
		WithArgs("p1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "metal_type", "processing_mode", "functional_unit_mass_tonnes", "created_at"}).
			AddRow("p1", "Rod mill", "Aluminium", "Linear", 1.0, created))

	p, err := s.GetProject(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, model.MetalAluminium, p.MetalType)
	assert.Equal(t, model.ProcessingLinear, p.ProcessingMode)
	assert.Equal(t, created, p.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetProject_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM projects WHERE id = \$1`).
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetProject(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveStageRecord_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`ON CONFLICT \(project_id, stage\) DO UPDATE`).
		WithArgs("p1", "Mining", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveStageRecord(context.Background(), sampleRecord("p1", model.StageMining, 12)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetStageRecord(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	doc, err := json.Marshal(sampleRecord("p1", model.StageMining, 12))
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT record FROM stage_records WHERE project_id = \$1 AND stage = \$2`).
		WithArgs("p1", "Mining").
		WillReturnRows(pgxmock.NewRows([]string{"record"}).AddRow(doc))

	rec, err := s.GetStageRecord(context.Background(), "p1", model.StageMining)
	require.NoError(t, err)
	assert.Equal(t, 12.0, rec.Outputs["CarbonFootprintMiningKgCO2e"])
	assert.Equal(t, model.SeverityHigh, rec.Classification["OreGradePercent"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetStageRecord_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT record FROM stage_records`).
		WithArgs("p1", "EndOfLife").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetStageRecord(context.Background(), "p1", model.StageEndOfLife)
	assert.True(t, eris.Is(err, model.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListScenarios(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	a, err := json.Marshal(model.Scenario{ID: "s1", ProjectID: "p1", Stage: model.StageSmelting, Name: "a"})
	require.NoError(t, err)
	b, err := json.Marshal(model.Scenario{ID: "s2", ProjectID: "p1", Stage: model.StageSmelting, Name: "b"})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT scenario FROM scenarios WHERE project_id = \$1 AND stage = \$2`).
		WithArgs("p1", "Smelting").
		WillReturnRows(pgxmock.NewRows([]string{"scenario"}).AddRow(a).AddRow(b))

	list, err := s.ListScenarios(context.Background(), "p1", model.StageSmelting)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "s1", list[0].ID)
	assert.Equal(t, "s2", list[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteScenario_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM scenarios WHERE project_id = \$1 AND id = \$2`).
		WithArgs("p1", "gone").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := s.DeleteScenario(context.Background(), "p1", "gone")
	assert.True(t, eris.Is(err, model.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteProject_Cascades(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM scenarios WHERE project_id`).WithArgs("p1").WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec(`DELETE FROM stage_records WHERE project_id`).WithArgs("p1").WillReturnResult(pgxmock.NewResult("DELETE", 5))
	mock.ExpectExec(`DELETE FROM projects WHERE id`).WithArgs("p1").WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	require.NoError(t, s.DeleteProject(context.Background(), "p1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteProject_NotFoundRollsBack(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM scenarios`).WithArgs("p9").WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM stage_records`).WithArgs("p9").WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM projects`).WithArgs("p9").WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	err := s.DeleteProject(context.Background(), "p9")
	assert.True(t, eris.Is(err, model.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
