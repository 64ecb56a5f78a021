package borelog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"p9e.in/borelog/models"
)

// The state machine is per-version: draft -> submitted ->
// approved/rejected. Approved and rejected are terminal; a correction
// is always a new version, never a mutation of history.
var statusTransitions = map[models.BorelogStatus][]models.BorelogStatus{
	models.StatusDraft:     {models.StatusSubmitted},
	models.StatusSubmitted: {models.StatusApproved, models.StatusRejected},
}

func canTransition(from, to models.BorelogStatus) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// SubmitVersion moves a draft version to submitted. The actor must hold
// the editing capability for the borehole's project.
func (vs *VersionService) SubmitVersion(borelogID uuid.UUID, versionNo int, actor Actor) (*models.BorelogVersion, error) {
	version, err := vs.GetVersion(borelogID, versionNo)
	if err != nil {
		return nil, err
	}

	if !actor.CanEdit {
		return nil, fmt.Errorf("%w: editing capability required to submit", ErrInvalidTransition)
	}
	if !canTransition(version.Status, models.StatusSubmitted) {
		return nil, fmt.Errorf("%w: cannot submit a %s version", ErrInvalidTransition, version.Status)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":       models.StatusSubmitted,
		"submitted_by": actor.ID,
		"submitted_at": now,
	}
	if err := vs.db.Model(&models.BorelogVersion{}).
		Where("id = ?", version.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to submit version: %v", err)
	}

	version.Status = models.StatusSubmitted
	version.SubmittedBy = &actor.ID
	version.SubmittedAt = &now
	return version, nil
}

// ApproveVersion moves a submitted version to approved and, in the same
// transaction, points the borehole's latest-approved marker at it. The
// actor must hold the approval capability.
func (vs *VersionService) ApproveVersion(borelogID uuid.UUID, versionNo int, actor Actor, comments string) (*models.BorelogVersion, error) {
	version, err := vs.GetVersion(borelogID, versionNo)
	if err != nil {
		return nil, err
	}

	if !actor.CanApprove {
		return nil, fmt.Errorf("%w: approval capability required", ErrInvalidTransition)
	}
	if !canTransition(version.Status, models.StatusApproved) {
		return nil, fmt.Errorf("%w: cannot approve a %s version", ErrInvalidTransition, version.Status)
	}

	now := time.Now()
	err = vs.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":            models.StatusApproved,
			"approved_by":       actor.ID,
			"approval_comments": comments,
			"approved_at":       now,
		}
		if err := tx.Model(&models.BorelogVersion{}).
			Where("id = ?", version.ID).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Model(&models.Borehole{}).
			Where("id = ?", borelogID).
			Update("latest_approved_version_no", versionNo).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to approve version: %v", err)
	}

	version.Status = models.StatusApproved
	version.ApprovedBy = &actor.ID
	version.ApprovalComments = comments
	version.ApprovedAt = &now
	return version, nil
}

// RejectVersion moves a submitted version to rejected. The borehole's
// latest-approved pointer is left untouched, so an earlier approved
// version stays authoritative.
func (vs *VersionService) RejectVersion(borelogID uuid.UUID, versionNo int, actor Actor, comments string) (*models.BorelogVersion, error) {
	version, err := vs.GetVersion(borelogID, versionNo)
	if err != nil {
		return nil, err
	}

	if !actor.CanApprove {
		return nil, fmt.Errorf("%w: approval capability required", ErrInvalidTransition)
	}
	if !canTransition(version.Status, models.StatusRejected) {
		return nil, fmt.Errorf("%w: cannot reject a %s version", ErrInvalidTransition, version.Status)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":             models.StatusRejected,
		"rejected_by":        actor.ID,
		"rejection_comments": comments,
		"rejected_at":        now,
	}
	if err := vs.db.Model(&models.BorelogVersion{}).
		Where("id = ?", version.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to reject version: %v", err)
	}

	version.Status = models.StatusRejected
	version.RejectedBy = &actor.ID
	version.RejectionComments = comments
	version.RejectedAt = &now
	return version, nil
}
