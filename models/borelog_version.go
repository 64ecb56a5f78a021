package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BorelogStatus defines the approval status of a borelog version
type BorelogStatus string

const (
	StatusDraft     BorelogStatus = "draft"
	StatusSubmitted BorelogStatus = "submitted"
	StatusApproved  BorelogStatus = "approved"
	StatusRejected  BorelogStatus = "rejected"
)

// BorelogVersion is one immutable snapshot in a borehole's append-only
// version history. The details document is written once at creation and
// never touched again; a correction is always a new row with a higher
// version_no. Only the status and the reviewer fields change after
// creation, and only through the approval state machine.
type BorelogVersion struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BorelogID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_borelog_version_no,priority:1" json:"borelog_id"`
	Borehole  *Borehole `gorm:"foreignKey:BorelogID" json:"borehole,omitempty"`

	// Monotonic per borehole, starts at 1, never reused. The composite
	// unique index is what makes concurrent allocation safe.
	VersionNo int `gorm:"not null;uniqueIndex:idx_borelog_version_no,priority:2" json:"version_no"`

	Status BorelogStatus `gorm:"size:20;not null;default:'draft';index" json:"status"`

	// Full snapshot: metadata plus the ordered stratum/sample tree
	Details BorelogDetails `gorm:"type:jsonb;not null" json:"details"`

	// Submission payload exactly as received, before reconciliation and
	// normalization. Kept for audit.
	RawInput datatypes.JSON `gorm:"type:jsonb" json:"raw_input,omitempty"`

	// Actor trail
	CreatedBy   uuid.UUID  `gorm:"type:uuid;not null" json:"created_by"`
	SubmittedBy *uuid.UUID `gorm:"type:uuid" json:"submitted_by,omitempty"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`

	ApprovedBy       *uuid.UUID `gorm:"type:uuid" json:"approved_by,omitempty"`
	ApprovalComments string     `gorm:"type:text" json:"approval_comments,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`

	RejectedBy        *uuid.UUID `gorm:"type:uuid" json:"rejected_by,omitempty"`
	RejectionComments string     `gorm:"type:text" json:"rejection_comments,omitempty"`
	RejectedAt        *time.Time `json:"rejected_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for BorelogVersion
func (BorelogVersion) TableName() string {
	return "borelog_versions"
}

func (bv *BorelogVersion) BeforeCreate(tx *gorm.DB) (err error) {
	if bv.ID == uuid.Nil {
		bv.ID = uuid.New()
	}
	return
}

// IsTerminal reports whether the version can no longer change status
func (bv *BorelogVersion) IsTerminal() bool {
	return bv.Status == StatusApproved || bv.Status == StatusRejected
}
