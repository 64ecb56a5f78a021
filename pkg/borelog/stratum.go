package borelog

import (
	"strings"

	"github.com/google/uuid"

	"p9e.in/borelog/models"
)

// NewLayer constructs an empty stratum layer with a fresh opaque id.
// All optional numeric fields start null.
func NewLayer() models.StratumLayer {
	return models.StratumLayer{
		ID:      uuid.NewString(),
		Samples: []models.SamplePoint{},
	}
}

// NewSubdivision constructs a subdivision of the given parent. The
// ordinal follows the existing siblings so display numbering stays
// stable.
func NewSubdivision(parentID string, existingSiblingCount int) models.StratumLayer {
	layer := NewLayer()
	layer.ParentID = parentID
	layer.SubdivisionNumber = existingSiblingCount + 1
	return layer
}

// NewSamplePoint constructs an empty sample in single-depth mode
func NewSamplePoint() models.SamplePoint {
	return models.SamplePoint{
		ID:        uuid.NewString(),
		DepthMode: models.DepthModeSingle,
	}
}

// InsertSubdivision places a subdivision immediately after the last
// existing subdivision of the same parent, or directly after the parent
// when it is the first one. A subdivision never precedes its parent. If
// the parent is not present the input is returned unchanged.
func InsertSubdivision(layers []models.StratumLayer, sub models.StratumLayer) []models.StratumLayer {
	insertAt := -1
	for i, l := range layers {
		if l.ID == sub.ParentID || l.ParentID == sub.ParentID {
			insertAt = i + 1
		}
	}
	if insertAt < 0 {
		return layers
	}

	out := make([]models.StratumLayer, 0, len(layers)+1)
	out = append(out, layers[:insertAt]...)
	out = append(out, sub)
	out = append(out, layers[insertAt:]...)
	return out
}

// RemoveLayer removes the target layer. Removing a parent cascades to
// every subdivision keyed by its id in the same pass, so a partial
// cascade is never observable. Removing a subdivision touches only that
// subdivision.
func RemoveLayer(layers []models.StratumLayer, targetID string) []models.StratumLayer {
	out := make([]models.StratumLayer, 0, len(layers))
	for _, l := range layers {
		if l.ID == targetID || l.ParentID == targetID {
			continue
		}
		out = append(out, l)
	}
	return out
}

// SubdivisionsOf returns the subdivisions owned by the given parent, in
// stored order
func SubdivisionsOf(layers []models.StratumLayer, parentID string) []models.StratumLayer {
	var subs []models.StratumLayer
	for _, l := range layers {
		if l.ParentID == parentID {
			subs = append(subs, l)
		}
	}
	return subs
}

// ToggleCollapsed flips the presentational collapse flag. Subdivisions
// have no collapse state of their own; they hide and show with their
// parent, so the call is a no-op for them.
func ToggleCollapsed(layer *models.StratumLayer) {
	if layer.IsSubdivision() {
		return
	}
	layer.IsCollapsed = !layer.IsCollapsed
}

// TestCountSummary aggregates sample/test events over a version's
// layers. Derived on demand, never stored.
type TestCountSummary struct {
	SPT         int `json:"spt"`
	VS          int `json:"vs"`
	Undisturbed int `json:"undisturbed"`
	Disturbed   int `json:"disturbed"`
	Water       int `json:"water"`
}

// CountTests tallies sample types by case-sensitive substring match
// against the codes S, VS, U, D and W. One sample can satisfy several
// codes: S/D counts toward both S and D, and VS toward both VS and S.
func CountTests(layers []models.StratumLayer) TestCountSummary {
	var summary TestCountSummary
	for _, layer := range layers {
		for _, sample := range layer.Samples {
			if sample.SampleType == "" {
				continue
			}
			if strings.Contains(sample.SampleType, "S") {
				summary.SPT++
			}
			if strings.Contains(sample.SampleType, "VS") {
				summary.VS++
			}
			if strings.Contains(sample.SampleType, "U") {
				summary.Undisturbed++
			}
			if strings.Contains(sample.SampleType, "D") {
				summary.Disturbed++
			}
			if strings.Contains(sample.SampleType, "W") {
				summary.Water++
			}
		}
	}
	return summary
}
