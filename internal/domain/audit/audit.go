// Package audit persists the audit trail and security incident log.
// Recording is best effort from the caller's point of view: handlers log
// failures but never fail a request because the trail could not be
// written.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"staffcore/internal/requestctx"
)

const (
	SeverityLow    = "Low"
	SeverityMedium = "Medium"
	SeverityHigh   = "High"
)

type Entry struct {
	ID        string    `json:"id"`
	AdminID   string    `json:"adminId"`
	Role      string    `json:"role"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	RequestID string    `json:"requestId"`
	CreatedAt time.Time `json:"createdAt"`
}

type IncidentEntry struct {
	ID          string    `json:"id"`
	AdminID     string    `json:"adminId"`
	Severity    string    `json:"severity"`
	Description string    `json:"description"`
	RequestID   string    `json:"requestId"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Filter struct {
	AdminID string
	Action  string
}

type Service struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

func (s *Service) Record(ctx context.Context, adminID, role, action, details string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO audit_logs (admin_id, role, action, details, request_id)
    VALUES ($1, $2, $3, $4, $5)
  `, nullIfEmpty(adminID), role, action, details, requestctx.GetRequestID(ctx))
	return err
}

// Incident records a security incident. Severity must be Low, Medium, or
// High; anything else is coerced to Medium rather than dropped.
func (s *Service) Incident(ctx context.Context, severity, description, adminID string) {
	switch severity {
	case SeverityLow, SeverityMedium, SeverityHigh:
	default:
		severity = SeverityMedium
	}
	_, _ = s.DB.Exec(ctx, `
    INSERT INTO incident_logs (admin_id, severity, description, request_id)
    VALUES ($1, $2, $3, $4)
  `, nullIfEmpty(adminID), severity, description, requestctx.GetRequestID(ctx))
}

func (s *Service) Count(ctx context.Context, filter Filter) (int, error) {
	query, args := buildBaseQuery("SELECT COUNT(1)", filter)
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]Entry, error) {
	query, args := buildBaseQuery("SELECT id, COALESCE(admin_id::text, ''), role, action, details, COALESCE(request_id, ''), created_at", filter)
	limitPos := len(args) + 1
	offsetPos := len(args) + 2
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", limitPos, offsetPos)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.ID, &entry.AdminID, &entry.Role, &entry.Action, &entry.Details, &entry.RequestID, &entry.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// ListExport returns the full trail, newest first, for PDF export.
func (s *Service) ListExport(ctx context.Context, filter Filter) ([]Entry, error) {
	query, args := buildBaseQuery("SELECT id, COALESCE(admin_id::text, ''), role, action, details, COALESCE(request_id, ''), created_at", filter)
	query += " ORDER BY created_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.ID, &entry.AdminID, &entry.Role, &entry.Action, &entry.Details, &entry.RequestID, &entry.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (s *Service) ListIncidents(ctx context.Context, limit, offset int) ([]IncidentEntry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, COALESCE(admin_id::text, ''), severity, description, COALESCE(request_id, ''), created_at
    FROM incident_logs
    ORDER BY created_at DESC
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []IncidentEntry
	for rows.Next() {
		var entry IncidentEntry
		if err := rows.Scan(&entry.ID, &entry.AdminID, &entry.Severity, &entry.Description, &entry.RequestID, &entry.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func buildBaseQuery(prefix string, filter Filter) (string, []any) {
	query := prefix + " FROM audit_logs WHERE 1=1"
	args := []any{}
	if filter.AdminID != "" {
		query += fmt.Sprintf(" AND admin_id::text = $%d", len(args)+1)
		args = append(args, filter.AdminID)
	}
	if filter.Action != "" {
		query += fmt.Sprintf(" AND action = $%d", len(args)+1)
		args = append(args, filter.Action)
	}
	return query, args
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
