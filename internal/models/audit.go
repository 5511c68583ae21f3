package models

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Audit actions written by the domain handlers. The set is open: the store
// accepts any non-empty action string.
const (
	AuditActionCreate               = "CREATE"
	AuditActionUpdate               = "UPDATE"
	AuditActionDelete               = "DELETE"
	AuditActionLogin                = "LOGIN"
	AuditActionRegister             = "REGISTER"
	AuditActionRegisterAdmin        = "REGISTER_ADMIN"
	AuditActionUpdateAdmin          = "UPDATE_ADMIN"
	AuditActionDeleteAdmin          = "DELETE_ADMIN"
	AuditActionCreateOrganization   = "CREATE_ORGANIZATION"
	AuditActionUpdateOrganization   = "UPDATE_ORGANIZATION"
	AuditActionDeleteOrganization   = "DELETE_ORGANIZATION"
	AuditActionDeleteUser           = "DELETE_USER"
	AuditActionUpdateUser           = "UPDATE_USER"
	AuditActionRequestPasswordReset = "REQUEST_PASSWORD_RESET"
	AuditActionResetPassword        = "RESET_PASSWORD"
)

// Entity kinds recorded on audit entries.
const (
	EntityUser         = "User"
	EntityOrganization = "Organization"
	EntityMedication   = "Medication"
	EntityReminder     = "Reminder"
)

// UnknownActorName is stored when the actor record cannot be loaded.
const UnknownActorName = "Unknown"

// AuditRecord is what a domain handler hands to the audit writer.
type AuditRecord struct {
	Action      string
	ActorUserID string
	EntityKind  string
	EntityID    string
	EntityName  string
	Details     interface{}
}

// LogEntry is a persisted audit row. Entries are write-once.
type LogEntry struct {
	ID             string         `db:"id"`
	Action         string         `db:"action"`
	ActorUserID    *string        `db:"user_id"`
	LegacyActor    *string        `db:"legacy_user"`
	ActorName      string         `db:"user_name"`
	EntityKind     string         `db:"entity"`
	EntityID       string         `db:"entity_id"`
	EntityName     string         `db:"entity_name"`
	Details        types.JSONText `db:"details"`
	OrganizationID *string        `db:"organization_id"`
	Timestamp      *time.Time     `db:"timestamp"`
}

// LogView is the projection returned to log readers.
type LogView struct {
	ID             string          `json:"id"`
	Action         string          `json:"action"`
	ActorUserID    *string         `json:"actorUserId"`
	ActorName      string          `json:"actorName"`
	EntityKind     string          `json:"entityKind"`
	EntityID       string          `json:"entityId"`
	EntityName     string          `json:"entityName"`
	Details        json.RawMessage `json:"details"`
	Timestamp      *time.Time      `json:"timestamp"`
	OrganizationID *string         `json:"organizationId"`
}

// View projects the entry for readers. Older rows that predate user_id fall
// back to the legacy actor column.
func (e LogEntry) View() LogView {
	actor := e.ActorUserID
	if actor == nil || *actor == "" {
		actor = e.LegacyActor
	}
	var orgID *string
	if e.OrganizationID != nil && *e.OrganizationID != "" {
		orgID = e.OrganizationID
	}
	details := json.RawMessage(e.Details)
	if len(details) == 0 {
		details = json.RawMessage("null")
	}
	return LogView{
		ID:             e.ID,
		Action:         e.Action,
		ActorUserID:    actor,
		ActorName:      e.ActorName,
		EntityKind:     e.EntityKind,
		EntityID:       e.EntityID,
		EntityName:     e.EntityName,
		Details:        details,
		Timestamp:      e.Timestamp,
		OrganizationID: orgID,
	}
}

// LogFilter is the store-level query built by the log reader.
type LogFilter struct {
	ExcludeActions []string
	OrganizationID *string
}

// LogQuery carries the viewer identity for GET /logs.
type LogQuery struct {
	ViewerUserID string   `form:"userId" validate:"required"`
	ViewerRole   UserRole `form:"role" validate:"required"`
}
