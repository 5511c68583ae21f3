package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/Maverics-Seneca/auth-service/internal/models"
	appErrors "github.com/Maverics-Seneca/auth-service/pkg/errors"
	"github.com/Maverics-Seneca/auth-service/pkg/export"
	"github.com/Maverics-Seneca/auth-service/pkg/jobs"
	"github.com/Maverics-Seneca/auth-service/pkg/middleware/requestid"
)

const auditJobType = "audit.record"

// Viewer scopes reported to metrics.
const (
	scopeGlobal       = "global"
	scopeOrganization = "organization"
	scopeUnassigned   = "unassigned"
)

type auditLogStore interface {
	Insert(ctx context.Context, entry *models.LogEntry) error
	List(ctx context.Context, filter models.LogFilter) ([]models.LogEntry, error)
}

type auditUserLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// AuditRecorder is the write side handed to domain services.
type AuditRecorder interface {
	Record(ctx context.Context, rec models.AuditRecord)
}

// AuditConfig controls which entries organization-scoped viewers may read.
type AuditConfig struct {
	PrivilegedActions []string
	// UnscopedAdminFallback lets an admin without an organization read every
	// organization's non-privileged entries. When false such admins get an
	// empty list.
	UnscopedAdminFallback bool
}

// LogExport is a rendered audit log download.
type LogExport struct {
	Filename    string
	ContentType string
	Body        []byte
}

type logExporter interface {
	Render(data export.Dataset, title string) ([]byte, error)
	ContentType() string
	Extension() string
}

type auditJob struct {
	Record    models.AuditRecord
	RequestID string
}

// AuditService writes and reads the audit trail.
type AuditService struct {
	store     auditLogStore
	users     auditUserLookup
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	config    AuditConfig
	exporters map[string]logExporter
	queue     *jobs.Queue
}

// NewAuditService constructs the audit service. Without Start the writer
// inserts synchronously.
func NewAuditService(store auditLogStore, users auditUserLookup, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService, config AuditConfig) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuditService{
		store:     store,
		users:     users,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		config:    config,
		exporters: map[string]logExporter{
			"csv": export.NewCSVExporter(),
			"pdf": export.NewPDFExporter(),
		},
	}
}

// Start launches the background writer pool. Call before serving traffic.
func (s *AuditService) Start(ctx context.Context, cfg jobs.QueueConfig) {
	// A failed insert is logged once and dropped.
	cfg.MaxRetries = -1
	if cfg.Logger == nil {
		cfg.Logger = s.logger
	}
	s.queue = jobs.NewQueue("audit", s.handleJob, cfg)
	s.queue.Start(ctx)
}

// Stop drains pending entries and stops the writer pool.
func (s *AuditService) Stop() {
	if s.queue != nil {
		s.queue.Stop()
	}
}

// Record appends one entry for a completed domain action. It never returns
// an error and never blocks on the store when the writer pool has room.
func (s *AuditService) Record(ctx context.Context, rec models.AuditRecord) {
	if strings.TrimSpace(rec.Action) == "" {
		s.logger.Warn("audit record without action dropped", zap.String("entity_id", rec.EntityID))
		return
	}
	reqID := requestid.FromContext(ctx)

	if s.queue != nil {
		err := s.queue.TryEnqueue(jobs.Job{
			ID:      uuid.NewString(),
			Type:    auditJobType,
			Payload: auditJob{Record: rec, RequestID: reqID},
		})
		if err == nil {
			return
		}
		s.logger.Debug("audit queue unavailable, writing inline", zap.Error(err))
	}

	s.write(context.WithoutCancel(ctx), rec, reqID)
}

func (s *AuditService) handleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(auditJob)
	if !ok {
		s.logger.Error("unexpected audit job payload", zap.String("job_id", job.ID), zap.String("type", fmt.Sprintf("%T", job.Payload)))
		return nil
	}
	s.write(ctx, payload.Record, payload.RequestID)
	return nil
}

// write performs the actor lookup followed by exactly one insert attempt.
func (s *AuditService) write(ctx context.Context, rec models.AuditRecord, reqID string) {
	fields := []zap.Field{
		zap.String("action", rec.Action),
		zap.String("actor_user_id", rec.ActorUserID),
		zap.String("entity_id", rec.EntityID),
	}
	if reqID != "" {
		fields = append(fields, zap.String("request_id", reqID))
	}

	entry := &models.LogEntry{
		Action:     rec.Action,
		ActorName:  models.UnknownActorName,
		EntityKind: rec.EntityKind,
		EntityID:   rec.EntityID,
		EntityName: rec.EntityName,
		Details:    s.encodeDetails(rec.Details, fields),
	}
	if rec.ActorUserID != "" {
		actorID := rec.ActorUserID
		entry.ActorUserID = &actorID
	}

	outcome := auditOutcomeWritten
	actor, err := s.lookupActor(ctx, rec.ActorUserID)
	switch {
	case err != nil:
		outcome = auditOutcomeUnknown
		s.logger.Warn("audit actor lookup failed", append(fields, zap.Error(err))...)
	case actor == nil:
		outcome = auditOutcomeUnknown
	default:
		entry.ActorName = actor.Name
		if orgID := actor.OrgID(); orgID != "" {
			entry.OrganizationID = &orgID
		}
	}

	if err := s.store.Insert(ctx, entry); err != nil {
		s.metrics.RecordAuditWrite(rec.Action, auditOutcomeFailed)
		s.logger.Warn("failed to write audit log", append(fields, zap.Error(err))...)
		return
	}
	s.metrics.RecordAuditWrite(rec.Action, outcome)
}

// lookupActor returns nil without error when the actor does not exist.
func (s *AuditService) lookupActor(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, nil
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (s *AuditService) encodeDetails(details interface{}, fields []zap.Field) types.JSONText {
	if details == nil {
		return types.JSONText(`{}`)
	}
	raw, err := json.Marshal(details)
	if err != nil || string(raw) == "null" {
		if err != nil {
			s.logger.Warn("audit details not serialisable", append(fields, zap.Error(err))...)
		}
		return types.JSONText(`{}`)
	}
	return types.JSONText(raw)
}

// Query returns the entries visible to the viewer, newest first.
func (s *AuditService) Query(ctx context.Context, q models.LogQuery) ([]models.LogView, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, appErrors.Validation(err, "invalid log query")
	}

	filter, scope, err := s.scopeFor(ctx, q)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordAuditQuery(scope)
	if filter == nil {
		return []models.LogView{}, nil
	}

	entries, err := s.store.List(ctx, *filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to fetch logs")
	}

	views := make([]models.LogView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, entry.View())
	}
	return views, nil
}

// scopeFor builds the store filter for a viewer. A nil filter means the
// viewer can see nothing.
func (s *AuditService) scopeFor(ctx context.Context, q models.LogQuery) (*models.LogFilter, string, error) {
	switch q.ViewerRole {
	case models.RoleOwner:
		return &models.LogFilter{}, scopeGlobal, nil
	case models.RoleAdmin:
	default:
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "role is not permitted to view logs")
	}

	viewer, err := s.lookupActor(ctx, q.ViewerUserID)
	if err != nil {
		return nil, "", appErrors.Internal(err, "failed to fetch viewer")
	}

	filter := &models.LogFilter{ExcludeActions: s.config.PrivilegedActions}
	orgID := viewer.OrgID()
	if orgID == "" {
		if !s.config.UnscopedAdminFallback {
			return nil, scopeUnassigned, nil
		}
		return filter, scopeUnassigned, nil
	}
	filter.OrganizationID = &orgID
	return filter, scopeOrganization, nil
}

var logExportColumns = []export.Column{
	{Key: "timestamp", Title: "Timestamp", Width: 1.4},
	{Key: "action", Title: "Action", Width: 1.4},
	{Key: "actorName", Title: "Actor", Width: 1.2},
	{Key: "actorUserId", Title: "Actor ID", Width: 1.4},
	{Key: "entityKind", Title: "Entity", Width: 0.9},
	{Key: "entityName", Title: "Entity Name", Width: 1.2},
	{Key: "entityId", Title: "Entity ID", Width: 1.4},
	{Key: "organizationId", Title: "Organization", Width: 1.4},
	{Key: "details", Title: "Details", Width: 2.5},
}

// Export renders the viewer's scoped log in the requested format.
func (s *AuditService) Export(ctx context.Context, q models.LogQuery, format string) (*LogExport, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	exporter, ok := s.exporters[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	views, err := s.Query(ctx, q)
	if err != nil {
		return nil, err
	}

	data := export.Dataset{Columns: logExportColumns, Rows: make([]map[string]string, 0, len(views))}
	for _, v := range views {
		data.Rows = append(data.Rows, logRow(v))
	}

	now := time.Now().UTC()
	body, err := exporter.Render(data, "Audit Log "+now.Format("2006-01-02 15:04 MST"))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render log export")
	}
	return &LogExport{
		Filename:    fmt.Sprintf("audit-log-%s.%s", now.Format("20060102-150405"), exporter.Extension()),
		ContentType: exporter.ContentType(),
		Body:        body,
	}, nil
}

func logRow(v models.LogView) map[string]string {
	row := map[string]string{
		"action":     v.Action,
		"actorName":  v.ActorName,
		"entityKind": v.EntityKind,
		"entityName": v.EntityName,
		"entityId":   v.EntityID,
		"details":    string(v.Details),
	}
	if v.Timestamp != nil {
		row["timestamp"] = v.Timestamp.UTC().Format(time.RFC3339)
	}
	if v.ActorUserID != nil {
		row["actorUserId"] = *v.ActorUserID
	}
	if v.OrganizationID != nil {
		row["organizationId"] = *v.OrganizationID
	}
	return row
}
