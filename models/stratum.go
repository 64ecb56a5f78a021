package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// DepthMode selects how a sample point records its depth
type DepthMode string

const (
	DepthModeSingle DepthMode = "single"
	DepthModeRange  DepthMode = "range"
)

// BorelogDetails is the self-contained document stored per version:
// borehole metadata plus the ordered stratum tree. It never references
// another version's records.
type BorelogDetails struct {
	Metadata BorelogMetadata `json:"metadata"`
	Layers   []StratumLayer  `json:"layers"`
}

// BorelogMetadata holds per-version drilling metadata. Blank fields are
// filled from the borehole's descriptive defaults at version creation.
type BorelogMetadata struct {
	Easting        *float64  `json:"easting,omitempty"`
	Northing       *float64  `json:"northing,omitempty"`
	MSL            *float64  `json:"msl,omitempty"`
	MethodOfBoring string    `json:"method_of_boring,omitempty"`
	DiameterMM     *float64  `json:"diameter_mm,omitempty"`
	WaterLevel     *float64  `json:"water_level,omitempty"`
	TerminationRL  *float64  `json:"termination_rl,omitempty"`
	Remarks        string    `json:"remarks,omitempty"`
	SubmittedAt    *JSONTime `json:"submitted_at,omitempty"`

	// Legacy per-version test counts carried over from flat submissions
	// (e.g. a combined "12/3" SPT/VS field)
	SPTTestCount *float64 `json:"spt_test_count,omitempty"`
	VSTestCount  *float64 `json:"vs_test_count,omitempty"`
}

// StratumLayer is one depth interval of described soil/rock. A layer
// with a non-empty parent_id is a subdivision: a finer-grained record
// owned by exactly one parent layer, with its own independent depth
// range.
type StratumLayer struct {
	ID                string   `json:"id"`
	ParentID          string   `json:"parent_id,omitempty"`
	SubdivisionNumber int      `json:"subdivision_number,omitempty"`
	Description       string   `json:"description,omitempty"`
	DepthFrom         *float64 `json:"depth_from,omitempty"`
	DepthTo           *float64 `json:"depth_to,omitempty"`
	Thickness         *float64 `json:"thickness,omitempty"` // derived: depth_to - depth_from
	ReturnWaterColor  string   `json:"return_water_color,omitempty"`
	WaterLoss         string   `json:"water_loss,omitempty"`
	BoreholeDiameter  *float64 `json:"borehole_diameter,omitempty"`
	Remarks           string   `json:"remarks,omitempty"`

	// Presentational only; subdivisions collapse as a unit with their parent
	IsCollapsed bool `json:"is_collapsed,omitempty"`

	Samples []SamplePoint `json:"samples"`
}

// IsSubdivision reports whether the layer is owned by a parent layer
func (l *StratumLayer) IsSubdivision() bool {
	return l.ParentID != ""
}

// SamplePoint is one sample/test event within a layer
type SamplePoint struct {
	ID         string    `json:"id"`
	SampleType string    `json:"sample_type,omitempty"` // e.g. D-1, S/D-2, U, W, VS
	DepthMode  DepthMode `json:"depth_mode"`

	// single mode
	DepthSingle *float64 `json:"depth_single,omitempty"`

	// range mode
	DepthFrom *float64 `json:"depth_from,omitempty"`
	DepthTo   *float64 `json:"depth_to,omitempty"`
	RunLength *float64 `json:"run_length,omitempty"` // derived: depth_to - depth_from

	// SPT blow counts per 15 cm increment
	SPT15cm1 *float64 `json:"spt_15cm_1,omitempty"`
	SPT15cm2 *float64 `json:"spt_15cm_2,omitempty"`
	SPT15cm3 *float64 `json:"spt_15cm_3,omitempty"`
	NValue   *float64 `json:"n_value,omitempty"` // derived sum of the three counts

	// Core recovery. The percentages are 0 rather than null when no run
	// length exists so that aggregate sums stay well-defined.
	TotalCoreLength *float64 `json:"total_core_length,omitempty"`
	TCRPercent      float64  `json:"tcr_percent"`
	RQDLength       *float64 `json:"rqd_length,omitempty"`
	RQDPercent      float64  `json:"rqd_percent"`

	// Set when the sample was synthesized from a flat legacy row; the
	// N-value formula null-propagates for these (see the calculator)
	LegacyFlat bool `json:"legacy_flat,omitempty"`
}

// Scan implements the sql.Scanner interface
func (d *BorelogDetails) Scan(value interface{}) error {
	if value == nil {
		*d = BorelogDetails{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("BorelogDetails.Scan: unsupported type %T", value)
	}

	return json.Unmarshal(bytes, d)
}

// Value implements the driver.Valuer interface
func (d BorelogDetails) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// GormDataType defines the data type for GORM
func (BorelogDetails) GormDataType() string {
	return "jsonb"
}
