package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project represents a geotechnical investigation project
type Project struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code        string    `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Client      string    `gorm:"size:255" json:"client,omitempty"`
	Location    string    `gorm:"size:255" json:"location,omitempty"`

	// Metadata
	CreatedBy string         `gorm:"size:255;not null" json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Structures []Structure `gorm:"foreignKey:ProjectID" json:"structures,omitempty"`
}

// TableName specifies the table name for Project
func (Project) TableName() string {
	return "projects"
}

// Structure represents a structure (bridge, building, embankment) within a project
type Structure struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Project   *Project  `gorm:"foreignKey:ProjectID" json:"project,omitempty"`

	Code        string `gorm:"size:50" json:"code,omitempty"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	// Metadata
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Boreholes []Borehole `gorm:"foreignKey:StructureID" json:"boreholes,omitempty"`
}

// TableName specifies the table name for Structure
func (Structure) TableName() string {
	return "structures"
}

// Borehole identifies a physical drilling location. Its identity is
// immutable; the descriptive attributes below act as defaults inherited
// by new borelog versions unless the submitted payload overrides them.
type Borehole struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	StructureID uuid.UUID  `gorm:"type:uuid;not null;index" json:"structure_id"`
	Structure   *Structure `gorm:"foreignKey:StructureID" json:"structure,omitempty"`
	ProjectID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"project_id"`
	Project     *Project   `gorm:"foreignKey:ProjectID" json:"project,omitempty"`

	Number string `gorm:"size:50;not null" json:"number"` // e.g. BH-01

	// Location and drilling defaults
	Easting        *float64 `gorm:"type:decimal(12,4)" json:"easting,omitempty"`
	Northing       *float64 `gorm:"type:decimal(12,4)" json:"northing,omitempty"`
	MSL            *float64 `gorm:"type:decimal(10,3)" json:"msl,omitempty"` // reduced level w.r.t. Mean Sea Level
	MethodOfBoring string   `gorm:"size:100" json:"method_of_boring,omitempty"`
	DiameterMM     *float64 `gorm:"type:decimal(8,2)" json:"diameter_mm,omitempty"`

	// Pointer to the authoritative version. Updated only by the approval
	// state machine, never derived by scanning version rows.
	LatestApprovedVersionNo *int `json:"latest_approved_version_no,omitempty"`

	// Metadata
	CreatedBy string         `gorm:"size:255;not null" json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Versions []BorelogVersion `gorm:"foreignKey:BorelogID" json:"versions,omitempty"`
}

// TableName specifies the table name for Borehole
func (Borehole) TableName() string {
	return "boreholes"
}

func (p *Project) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

func (s *Structure) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}

func (b *Borehole) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return
}
