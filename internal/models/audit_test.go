package models

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestLogEntryViewUsesLegacyActor(t *testing.T) {
	entry := LogEntry{ID: "1", Action: AuditActionLogin, LegacyActor: strPtr("legacy-user"), Details: types.JSONText(`{"data":{}}`)}
	view := entry.View()
	if assert.NotNil(t, view.ActorUserID) {
		assert.Equal(t, "legacy-user", *view.ActorUserID)
	}
	assert.JSONEq(t, `{"data":{}}`, string(view.Details))
}

func TestLogEntryViewPrefersActor(t *testing.T) {
	entry := LogEntry{ActorUserID: strPtr("u1"), LegacyActor: strPtr("legacy")}
	assert.Equal(t, "u1", *entry.View().ActorUserID)
}

func TestLogEntryViewNullFields(t *testing.T) {
	view := LogEntry{OrganizationID: strPtr("")}.View()
	assert.Nil(t, view.ActorUserID)
	assert.Nil(t, view.OrganizationID)
	assert.Nil(t, view.Timestamp)
	assert.Equal(t, "null", string(view.Details))
}

func TestLogEntryViewKeepsTimestamp(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	view := LogEntry{Timestamp: &ts, OrganizationID: strPtr("org1")}.View()
	assert.Equal(t, ts, *view.Timestamp)
	assert.Equal(t, "org1", *view.OrganizationID)
}
