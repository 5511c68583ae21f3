package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maverics-Seneca/auth-service/internal/models"
)

var auditRowColumns = []string{"id", "action", "user_id", "legacy_user", "user_name", "entity", "entity_id", "entity_name", "details", "organization_id", "timestamp"}

func TestAuditInsertReturnsStoreAssignedFields(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	actor := "u1"
	org := "org-1"
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO audit_logs (action, user_id, user_name, entity, entity_id, entity_name, details, organization_id) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, "timestamp"`)).
		WithArgs("LOGIN", actor, "Alice", "User", "u1", "Alice", sqlmock.AnyArg(), org).
		WillReturnRows(sqlmock.NewRows([]string{"id", "timestamp"}).AddRow("log-1", at))

	entry := &models.LogEntry{
		Action:         "LOGIN",
		ActorUserID:    &actor,
		ActorName:      "Alice",
		EntityKind:     "User",
		EntityID:       "u1",
		EntityName:     "Alice",
		Details:        types.JSONText(`{"email":"a@example.com"}`),
		OrganizationID: &org,
	}
	require.NoError(t, repo.Insert(context.Background(), entry))
	assert.Equal(t, "log-1", entry.ID)
	require.NotNil(t, entry.Timestamp)
	assert.True(t, at.Equal(*entry.Timestamp))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditInsertWrapsStoreError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectQuery("INSERT INTO audit_logs").WillReturnError(errors.New("connection reset"))

	err := repo.Insert(context.Background(), &models.LogEntry{Action: "LOGIN", Details: types.JSONText(`{}`)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert audit log")
}

func TestAuditListUnfiltered(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	at := time.Now()
	rows := sqlmock.NewRows(auditRowColumns).
		AddRow("2", "DELETE_USER", nil, "legacy-1", "Bob", "User", "p1", "Pat", []byte(`{}`), nil, at).
		AddRow("1", "LOGIN", "u1", nil, "Alice", "User", "u1", "Alice", []byte(`{"email":"a@example.com"}`), "org-1", at)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM audit_logs WHERE 1=1 ORDER BY "timestamp" DESC, id DESC`)).
		WillReturnRows(rows)

	entries, err := repo.List(context.Background(), models.LogFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Nil(t, entries[0].ActorUserID)
	assert.Equal(t, "legacy-1", *entries[0].LegacyActor)
	assert.Equal(t, `{"email":"a@example.com"}`, entries[1].Details.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditListExcludesActionsAndScopesOrganization(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	excluded := []string{"REGISTER", "LOGIN"}
	org := "org-1"
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE 1=1 AND action <> ALL($1) AND organization_id = $2 ORDER BY "timestamp" DESC, id DESC`)).
		WithArgs(pq.Array(excluded), org).
		WillReturnRows(sqlmock.NewRows(auditRowColumns))

	entries, err := repo.List(context.Background(), models.LogFilter{ExcludeActions: excluded, OrganizationID: &org})
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}
