// Package storage provides GORM-backed persistence for resumeflow: the
// durable pending-record store that carries a workflow across the review
// pause, the role record store, and the citations table.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/talentbase/resumeflow/pkg/core"
	"github.com/talentbase/resumeflow/pkg/security"
)

// RecordRow persists one ProcessingRecord. The full record is serialized
// into Payload; the indexed columns exist for querying only.
type RecordRow struct {
	WorkflowID string    `gorm:"primaryKey;size:36"`
	DocumentID string    `gorm:"index;size:40"`
	ClientID   string    `gorm:"index;size:255"`
	Status     string    `gorm:"index;size:40"`
	Payload    []byte    `gorm:"type:bytes"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// RoleRow is one accepted role in the record store.
type RoleRow struct {
	ID        string    `gorm:"primaryKey;size:36"`
	ClientID  string    `gorm:"index;size:255;not null"`
	Company   string    `gorm:"size:255"`
	Title     string    `gorm:"size:255"`
	Payload   []byte    `gorm:"type:bytes"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// CitationRow records provenance for one persisted fact.
type CitationRow struct {
	ID         string    `gorm:"primaryKey;size:36"`
	DocumentID string    `gorm:"index;size:40;not null"`
	Text       string    `gorm:"type:text"`
	Location   string    `gorm:"type:text"`
	StoreID    string    `gorm:"index;size:36"`
	Field      string    `gorm:"size:255"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// GormStorage implements record, role, and citation persistence using GORM.
type GormStorage struct {
	db *gorm.DB
}

// NewGormStorage creates a new GORM-backed storage.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db}
}

// Migrate creates the necessary tables.
func (s *GormStorage) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&RecordRow{}, &RoleRow{}, &CitationRow{})
}

// SaveRecord upserts a ProcessingRecord keyed by its workflow id. This is
// the durability the review pause relies on: a PENDING_REVIEW record saved
// here survives until the human decision arrives.
func (s *GormStorage) SaveRecord(ctx context.Context, rec *core.ProcessingRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("storage: marshal record: %w", err)
	}
	row := RecordRow{
		WorkflowID: rec.WorkflowID,
		DocumentID: rec.DocumentID,
		ClientID:   rec.ClientID,
		Status:     string(rec.Status),
		Payload:    payload,
	}
	return s.db.WithContext(ctx).Save(&row).Error
}

// GetRecord loads a ProcessingRecord by workflow id.
func (s *GormStorage) GetRecord(ctx context.Context, workflowID string) (*core.ProcessingRecord, error) {
	var row RecordRow
	err := s.db.WithContext(ctx).First(&row, "workflow_id = ?", workflowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, core.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec core.ProcessingRecord
	if err := json.Unmarshal(row.Payload, &rec); err != nil {
		return nil, fmt.Errorf("storage: unmarshal record %s: %w", workflowID, err)
	}
	return &rec, nil
}

// ListPendingReview returns records paused at the review boundary whose
// last update is older than the cutoff. A zero cutoff returns all of them.
func (s *GormStorage) ListPendingReview(ctx context.Context, updatedBefore time.Time) ([]*core.ProcessingRecord, error) {
	q := s.db.WithContext(ctx).
		Where("status = ?", string(core.StatusPendingReview)).
		Order("updated_at ASC")
	if !updatedBefore.IsZero() {
		q = q.Where("updated_at < ?", updatedBefore)
	}

	var rows []RecordRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]*core.ProcessingRecord, 0, len(rows))
	for _, row := range rows {
		var rec core.ProcessingRecord
		if err := json.Unmarshal(row.Payload, &rec); err != nil {
			return nil, fmt.Errorf("storage: unmarshal record %s: %w", row.WorkflowID, err)
		}
		records = append(records, &rec)
	}
	return records, nil
}

// ExpireStaleReviews transitions records stuck in PENDING_REVIEW for longer
// than ttl into the terminal REVIEW_EXPIRED status, logging the expiry on
// each record. It returns how many records were expired.
func (s *GormStorage) ExpireStaleReviews(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := time.Now().Add(-ttl)
	stale, err := s.ListPendingReview(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, rec := range stale {
		rec.Status = core.StatusReviewExpired
		rec.AppendError(security.SanitizeErrorMessage(
			fmt.Sprintf("review expired after %s without a decision", ttl)))
		rec.TaskInfo = "Review window expired. No changes were saved."
		if err := s.SaveRecord(ctx, rec); err != nil {
			return expired, err
		}
		expired++
	}
	return expired, nil
}

// QueryRoles returns all stored roles for a client, each carrying its
// store-assigned identifier.
func (s *GormStorage) QueryRoles(ctx context.Context, clientID string) ([]core.Role, error) {
	var rows []RoleRow
	err := s.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	roles := make([]core.Role, 0, len(rows))
	for _, row := range rows {
		var role core.Role
		if err := json.Unmarshal(row.Payload, &role); err != nil {
			return nil, fmt.Errorf("storage: unmarshal role %s: %w", row.ID, err)
		}
		role.StoreID = row.ID
		roles = append(roles, role)
	}
	return roles, nil
}

// CreateRole stores an accepted role and returns its store identifier.
func (s *GormStorage) CreateRole(ctx context.Context, role core.Role, clientID string) (string, error) {
	id := uuid.New().String()
	role.StoreID = id
	payload, err := json.Marshal(role)
	if err != nil {
		return "", fmt.Errorf("storage: marshal role: %w", err)
	}
	row := RoleRow{
		ID:       id,
		ClientID: clientID,
		Company:  role.Company,
		Title:    role.Title,
		Payload:  payload,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", err
	}
	return id, nil
}

// SaveCitation records provenance for one persisted fact and returns the
// citation identifier.
func (s *GormStorage) SaveCitation(ctx context.Context, cit core.Citation) (string, error) {
	if cit.CitationID == "" {
		cit.CitationID = uuid.New().String()
	}
	row := CitationRow{
		ID:         cit.CitationID,
		DocumentID: cit.DocumentID,
		Text:       cit.Text,
		Location:   cit.Location,
		StoreID:    cit.StoreID,
		Field:      cit.Field,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", err
	}
	return cit.CitationID, nil
}

// CitationsForDocument returns all citations recorded for a document, in
// insertion order.
func (s *GormStorage) CitationsForDocument(ctx context.Context, documentID string) ([]core.Citation, error) {
	var rows []CitationRow
	err := s.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	citations := make([]core.Citation, 0, len(rows))
	for _, row := range rows {
		citations = append(citations, core.Citation{
			CitationID: row.ID,
			DocumentID: row.DocumentID,
			Text:       row.Text,
			Location:   row.Location,
			StoreID:    row.StoreID,
			Field:      row.Field,
			RecordedAt: row.CreatedAt,
		})
	}
	return citations, nil
}
