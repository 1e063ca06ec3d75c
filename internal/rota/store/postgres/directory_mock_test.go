package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotakit/rotakit/internal/rota/store/postgres"
	"github.com/rotakit/rotakit/pkg/testutil"
)

// These exercise the employee repository's query/scan logic against a
// sqlmock driver rather than a real database, so they run without Docker.

func TestEmployeeStore_Get_ScansEveryColumn(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	hireDate := time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := testutil.MockRows(
		"id", "display_name", "email", "team_id", "skills", "fte", "hire_date", "active",
		"available_for_incidents", "available_for_waakdienst", "created_at", "updated_at", "deleted_at",
	).AddRow("emp-1", "Alice Smith", "alice@example.com", nil, "{network,linux}", 1.0, hireDate, true,
		true, false, now, now, nil)

	mockDB.Mock.ExpectQuery("SELECT id, display_name, email, team_id, skills, fte, hire_date, active").
		WithArgs("emp-1").
		WillReturnRows(rows)

	st := postgres.NewFromSqlx(mockDB.DB)
	got, err := st.Employees().Get(context.Background(), "emp-1")
	require.NoError(t, err)

	assert.Equal(t, "Alice Smith", got.DisplayName)
	assert.Equal(t, []string{"network", "linux"}, got.Skills)
	assert.True(t, got.AvailableForIncidents)
	assert.False(t, got.AvailableForWaakdienst)
	mockDB.ExpectationsWereMet(t)
}

func TestEmployeeStore_Get_NotFound(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.Mock.ExpectQuery("SELECT id, display_name, email, team_id, skills, fte, hire_date, active").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	st := postgres.NewFromSqlx(mockDB.DB)
	_, err := st.Employees().Get(context.Background(), "missing")
	assert.Error(t, err)
	mockDB.ExpectationsWereMet(t)
}
