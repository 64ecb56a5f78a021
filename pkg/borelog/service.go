package borelog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"p9e.in/borelog/models"
)

// Actor is the already-authorized identity performing an operation.
// Role resolution happens outside the engine; the capability flags are
// what the state machine asserts.
type Actor struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name,omitempty"`
	CanEdit    bool      `json:"can_edit"`
	CanApprove bool      `json:"can_approve"`
}

// VersionService manages the append-only version history of borelogs
type VersionService struct {
	db *gorm.DB
}

// NewVersionService creates a new version service instance
func NewVersionService(db *gorm.DB) *VersionService {
	return &VersionService{db: db}
}

// Version allocation retries this many times before giving up with
// ErrConcurrentModification.
const allocationAttempts = 5

// CreateVersion normalizes the payload, recomputes every derived field,
// allocates the next version number and persists the snapshot. The
// allocation and insert run as one transaction; the composite unique
// index on (borelog_id, version_no) turns a lost race into a retry.
// With submit set the version starts life submitted instead of draft,
// which requires the editing capability.
func (vs *VersionService) CreateVersion(borelogID uuid.UUID, actor Actor, input VersionInput, submit bool) (*models.BorelogVersion, error) {
	var borehole models.Borehole
	if err := vs.db.First(&borehole, "id = ?", borelogID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: borehole %s", ErrNotFound, borelogID)
		}
		return nil, fmt.Errorf("failed to fetch borehole: %v", err)
	}

	if submit && !actor.CanEdit {
		return nil, fmt.Errorf("%w: editing capability required to submit", ErrInvalidTransition)
	}

	// Snapshot the payload before reconciliation and normalization touch
	// anything, so the audit column records what the caller actually sent
	rawInput, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to encode raw input: %v", err)
	}

	details, err := ReconcileInput(input)
	if err != nil {
		return nil, err
	}

	inheritBoreholeDefaults(details, &borehole)

	// Caller-supplied derived values are never trusted
	NormalizeDetails(details)

	if err := validateDetails(details); err != nil {
		return nil, err
	}

	version := &models.BorelogVersion{
		BorelogID: borelogID,
		Status:    models.StatusDraft,
		Details:   *details,
		RawInput:  datatypes.JSON(rawInput),
		CreatedBy: actor.ID,
	}
	if submit {
		now := time.Now()
		version.Status = models.StatusSubmitted
		version.SubmittedBy = &actor.ID
		version.SubmittedAt = &now
	}

	err = retry.Do(
		func() error {
			return vs.db.Transaction(func(tx *gorm.DB) error {
				var maxNo int
				if err := tx.Model(&models.BorelogVersion{}).
					Where("borelog_id = ?", borelogID).
					Select("COALESCE(MAX(version_no), 0)").
					Scan(&maxNo).Error; err != nil {
					return err
				}
				version.ID = uuid.New()
				version.VersionNo = maxNo + 1
				return tx.Create(version).Error
			})
		},
		retry.Attempts(allocationAttempts),
		retry.RetryIf(isDuplicateKey),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("%w: version allocation lost for borehole %s", ErrConcurrentModification, borelogID)
		}
		return nil, fmt.Errorf("failed to create version: %v", err)
	}

	return version, nil
}

// GetVersion fetches one specific version of a borelog
func (vs *VersionService) GetVersion(borelogID uuid.UUID, versionNo int) (*models.BorelogVersion, error) {
	var version models.BorelogVersion
	if err := vs.db.First(&version, "borelog_id = ? AND version_no = ?", borelogID, versionNo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: version %d of borehole %s", ErrNotFound, versionNo, borelogID)
		}
		return nil, fmt.Errorf("failed to fetch version: %v", err)
	}
	return &version, nil
}

// GetLatestVersion returns the most recent version regardless of
// status, or nil when the borehole has no versions yet
func (vs *VersionService) GetLatestVersion(borelogID uuid.UUID) (*models.BorelogVersion, error) {
	if err := vs.ensureBorehole(borelogID); err != nil {
		return nil, err
	}

	var version models.BorelogVersion
	err := vs.db.Where("borelog_id = ?", borelogID).
		Order("version_no DESC").First(&version).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch latest version: %v", err)
	}
	return &version, nil
}

// GetLatestApprovedVersion resolves the borehole's authoritative
// version through the pointer maintained by the approval state machine.
// It is nil until the first approval and is deliberately not "most
// recent row with status approved": a later rejected submission must
// never displace an earlier approved one.
func (vs *VersionService) GetLatestApprovedVersion(borelogID uuid.UUID) (*models.BorelogVersion, error) {
	var borehole models.Borehole
	if err := vs.db.First(&borehole, "id = ?", borelogID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: borehole %s", ErrNotFound, borelogID)
		}
		return nil, fmt.Errorf("failed to fetch borehole: %v", err)
	}

	if borehole.LatestApprovedVersionNo == nil {
		return nil, nil
	}
	return vs.GetVersion(borelogID, *borehole.LatestApprovedVersionNo)
}

// GetVersionHistory returns all versions of a borelog, newest first
func (vs *VersionService) GetVersionHistory(borelogID uuid.UUID) ([]models.BorelogVersion, error) {
	if err := vs.ensureBorehole(borelogID); err != nil {
		return nil, err
	}

	var versions []models.BorelogVersion
	if err := vs.db.Where("borelog_id = ?", borelogID).
		Order("version_no DESC").Find(&versions).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch version history: %v", err)
	}
	return versions, nil
}

// GetTestCountSummary derives the test-count aggregate for one version
func (vs *VersionService) GetTestCountSummary(borelogID uuid.UUID, versionNo int) (*TestCountSummary, error) {
	version, err := vs.GetVersion(borelogID, versionNo)
	if err != nil {
		return nil, err
	}
	summary := CountTests(version.Details.Layers)
	return &summary, nil
}

func (vs *VersionService) ensureBorehole(borelogID uuid.UUID) error {
	var count int64
	if err := vs.db.Model(&models.Borehole{}).Where("id = ?", borelogID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to fetch borehole: %v", err)
	}
	if count == 0 {
		return fmt.Errorf("%w: borehole %s", ErrNotFound, borelogID)
	}
	return nil
}

// inheritBoreholeDefaults fills metadata fields the payload left blank
// from the borehole's descriptive attributes
func inheritBoreholeDefaults(details *models.BorelogDetails, borehole *models.Borehole) {
	meta := &details.Metadata
	if meta.Easting == nil && meta.Northing == nil {
		meta.Easting = borehole.Easting
		meta.Northing = borehole.Northing
	}
	if meta.MSL == nil {
		meta.MSL = borehole.MSL
	}
	if meta.MethodOfBoring == "" {
		meta.MethodOfBoring = borehole.MethodOfBoring
	}
	if meta.DiameterMM == nil {
		meta.DiameterMM = borehole.DiameterMM
	}
}

// validateDetails rejects malformed snapshots before anything persists
func validateDetails(details *models.BorelogDetails) error {
	parents := make(map[string]bool, len(details.Layers))
	for _, layer := range details.Layers {
		if !layer.IsSubdivision() {
			parents[layer.ID] = true
		}
	}

	for i, layer := range details.Layers {
		if layer.DepthFrom != nil && layer.DepthTo != nil && *layer.DepthTo < *layer.DepthFrom {
			return validationErr("depth_to", "layer %d: depth_to %.2f is above depth_from %.2f", i+1, *layer.DepthTo, *layer.DepthFrom)
		}
		if layer.IsSubdivision() && !parents[layer.ParentID] {
			return validationErr("parent_id", "layer %d: subdivision references unknown parent %s", i+1, layer.ParentID)
		}
		for j, sample := range layer.Samples {
			if sample.DepthMode == models.DepthModeRange &&
				sample.DepthFrom != nil && sample.DepthTo != nil && *sample.DepthTo < *sample.DepthFrom {
				return validationErr("depth_to", "layer %d sample %d: depth_to %.2f is above depth_from %.2f", i+1, j+1, *sample.DepthTo, *sample.DepthFrom)
			}
		}
	}
	return nil
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
