package borelog

import (
	"encoding/json"
	"fmt"

	"p9e.in/borelog/models"
	"p9e.in/borelog/utils"
)

// Patch is the minimal set of field changes needed to keep derived
// values consistent after one input field changed. Keys are the JSON
// field names of StratumLayer / SamplePoint.
type Patch map[string]interface{}

// N-value note: the two historical shapes disagree on null handling.
// Flat legacy rows sum the three blow counts only when all three are
// present (utils.SumStrict); nested samples sum whatever is present
// (utils.SumPresent). Both behaviors are kept per shape: samples
// synthesized from flat input carry the legacy_flat marker. This looks
// like an inconsistency in the source system and is preserved, not
// unified.

// RecomputeLayerField returns the patch for a single changed layer
// field. The prior stored values of all other fields come from layer;
// value is the post-change value of the changed field. Subdivisions
// never inherit a parent's depth change: each layer's thickness is a
// function of its own bounds only.
func RecomputeLayerField(layer models.StratumLayer, field string, value interface{}) Patch {
	patch := Patch{}
	switch field {
	case "depth_from":
		nv := floatValue(value)
		patch["depth_from"] = nv
		patch["thickness"] = span(nv, layer.DepthTo)
	case "depth_to":
		nv := floatValue(value)
		patch["depth_to"] = nv
		patch["thickness"] = span(layer.DepthFrom, nv)
	default:
		patch[field] = value
	}
	return patch
}

// RecomputeSampleField returns the patch for a single changed sample
// field, cascading into run_length and the core-recovery percentages
// where those depend on the change.
func RecomputeSampleField(sample models.SamplePoint, field string, value interface{}) Patch {
	patch := Patch{}
	switch field {
	case "depth_from", "depth_to":
		nv := floatValue(value)
		patch[field] = nv
		if sample.DepthMode == models.DepthModeRange {
			from, to := sample.DepthFrom, sample.DepthTo
			if field == "depth_from" {
				from = nv
			} else {
				to = nv
			}
			run := span(from, to)
			patch["run_length"] = run
			patch["tcr_percent"] = utils.SafeDivide(sample.TotalCoreLength, run) * 100
			patch["rqd_percent"] = utils.SafeDivide(sample.RQDLength, run) * 100
		}

	case "depth_mode":
		mode := models.DepthMode(fmt.Sprint(value))
		patch["depth_mode"] = mode
		switch mode {
		case models.DepthModeRange:
			from := valueOrZero(sample.DepthFrom)
			to := valueOrZero(sample.DepthTo)
			run := span(from, to)
			patch["depth_single"] = (*float64)(nil)
			patch["depth_from"] = from
			patch["depth_to"] = to
			patch["run_length"] = run
			patch["tcr_percent"] = utils.SafeDivide(sample.TotalCoreLength, run) * 100
			patch["rqd_percent"] = utils.SafeDivide(sample.RQDLength, run) * 100
		case models.DepthModeSingle:
			patch["depth_single"] = valueOrZero(sample.DepthSingle)
			patch["depth_from"] = (*float64)(nil)
			patch["depth_to"] = (*float64)(nil)
			patch["run_length"] = (*float64)(nil)
			patch["tcr_percent"] = 0.0
			patch["rqd_percent"] = 0.0
		}

	case "spt_15cm_1", "spt_15cm_2", "spt_15cm_3":
		nv := floatValue(value)
		patch[field] = nv
		c1, c2, c3 := sample.SPT15cm1, sample.SPT15cm2, sample.SPT15cm3
		switch field {
		case "spt_15cm_1":
			c1 = nv
		case "spt_15cm_2":
			c2 = nv
		case "spt_15cm_3":
			c3 = nv
		}
		patch["n_value"] = nValue(sample.LegacyFlat, c1, c2, c3)

	case "total_core_length":
		nv := floatValue(value)
		patch[field] = nv
		patch["tcr_percent"] = utils.SafeDivide(nv, sample.RunLength) * 100

	case "rqd_length":
		nv := floatValue(value)
		patch[field] = nv
		patch["rqd_percent"] = utils.SafeDivide(nv, sample.RunLength) * 100

	case "run_length":
		nv := floatValue(value)
		patch[field] = nv
		patch["tcr_percent"] = utils.SafeDivide(sample.TotalCoreLength, nv) * 100
		patch["rqd_percent"] = utils.SafeDivide(sample.RQDLength, nv) * 100

	default:
		patch[field] = value
	}
	return patch
}

// ApplyLayerPatch writes a patch back onto a layer. Every field the
// recompute functions can emit has a case here; a patched change is
// never silently discarded.
func ApplyLayerPatch(layer *models.StratumLayer, patch Patch) {
	for field, value := range patch {
		switch field {
		case "id":
			layer.ID = fmt.Sprint(value)
		case "parent_id":
			layer.ParentID = fmt.Sprint(value)
		case "subdivision_number":
			if v := floatValue(value); v != nil {
				layer.SubdivisionNumber = int(*v)
			}
		case "is_collapsed":
			if b, ok := value.(bool); ok {
				layer.IsCollapsed = b
			}
		case "description":
			layer.Description = fmt.Sprint(value)
		case "depth_from":
			layer.DepthFrom = floatValue(value)
		case "depth_to":
			layer.DepthTo = floatValue(value)
		case "thickness":
			layer.Thickness = floatValue(value)
		case "return_water_color":
			layer.ReturnWaterColor = fmt.Sprint(value)
		case "water_loss":
			layer.WaterLoss = fmt.Sprint(value)
		case "borehole_diameter":
			layer.BoreholeDiameter = floatValue(value)
		case "remarks":
			layer.Remarks = fmt.Sprint(value)
		}
	}
}

// ApplySamplePatch writes a patch back onto a sample
func ApplySamplePatch(sample *models.SamplePoint, patch Patch) {
	// depth_mode first so the cleared fields in the same patch win
	if v, ok := patch["depth_mode"]; ok {
		sample.DepthMode = models.DepthMode(fmt.Sprint(v))
	}
	for field, value := range patch {
		switch field {
		case "id":
			sample.ID = fmt.Sprint(value)
		case "legacy_flat":
			if b, ok := value.(bool); ok {
				sample.LegacyFlat = b
			}
		case "sample_type":
			sample.SampleType = fmt.Sprint(value)
		case "depth_single":
			sample.DepthSingle = floatValue(value)
		case "depth_from":
			sample.DepthFrom = floatValue(value)
		case "depth_to":
			sample.DepthTo = floatValue(value)
		case "run_length":
			sample.RunLength = floatValue(value)
		case "spt_15cm_1":
			sample.SPT15cm1 = floatValue(value)
		case "spt_15cm_2":
			sample.SPT15cm2 = floatValue(value)
		case "spt_15cm_3":
			sample.SPT15cm3 = floatValue(value)
		case "n_value":
			sample.NValue = floatValue(value)
		case "total_core_length":
			sample.TotalCoreLength = floatValue(value)
		case "tcr_percent":
			if v := floatValue(value); v != nil {
				sample.TCRPercent = *v
			} else {
				sample.TCRPercent = 0
			}
		case "rqd_length":
			sample.RQDLength = floatValue(value)
		case "rqd_percent":
			if v := floatValue(value); v != nil {
				sample.RQDPercent = *v
			} else {
				sample.RQDPercent = 0
			}
		}
	}
}

// NormalizeDetails recomputes every derived field of a snapshot so that
// stored values are self-consistent regardless of what the caller sent.
// Applying it twice is a no-op.
func NormalizeDetails(d *models.BorelogDetails) {
	for i := range d.Layers {
		NormalizeLayer(&d.Layers[i])
	}
}

// NormalizeLayer recomputes the layer's thickness and all of its
// samples' derived fields
func NormalizeLayer(l *models.StratumLayer) {
	l.Thickness = span(l.DepthFrom, l.DepthTo)
	for i := range l.Samples {
		NormalizeSample(&l.Samples[i])
	}
}

// NormalizeSample enforces the depth-mode XOR and recomputes run_length,
// n_value and the core-recovery percentages
func NormalizeSample(s *models.SamplePoint) {
	if s.DepthMode == "" {
		if s.DepthFrom != nil || s.DepthTo != nil {
			s.DepthMode = models.DepthModeRange
		} else {
			s.DepthMode = models.DepthModeSingle
		}
	}

	switch s.DepthMode {
	case models.DepthModeRange:
		s.DepthSingle = nil
		s.RunLength = span(s.DepthFrom, s.DepthTo)
	default:
		s.DepthFrom = nil
		s.DepthTo = nil
		s.RunLength = nil
	}

	s.NValue = nValue(s.LegacyFlat, s.SPT15cm1, s.SPT15cm2, s.SPT15cm3)
	s.TCRPercent = utils.SafeDivide(s.TotalCoreLength, s.RunLength) * 100
	s.RQDPercent = utils.SafeDivide(s.RQDLength, s.RunLength) * 100
}

func nValue(legacyFlat bool, c1, c2, c3 *float64) *float64 {
	if legacyFlat {
		return utils.SumStrict(c1, c2, c3)
	}
	return utils.SumPresent(c1, c2, c3)
}

// span is depth_to - depth_from, or nil when either bound is absent
func span(from, to *float64) *float64 {
	if from == nil || to == nil {
		return nil
	}
	d := *to - *from
	return &d
}

func valueOrZero(v *float64) *float64 {
	if v != nil {
		c := *v
		return &c
	}
	z := 0.0
	return &z
}

// floatValue coerces the loosely-typed values that arrive in patches and
// JSON payloads into a nullable float. Unparsable input becomes nil.
func floatValue(value interface{}) *float64 {
	switch v := value.(type) {
	case nil:
		return nil
	case *float64:
		if v == nil {
			return nil
		}
		c := *v
		return &c
	case float64:
		c := v
		return &c
	case float32:
		c := float64(v)
		return &c
	case int:
		c := float64(v)
		return &c
	case int64:
		c := float64(v)
		return &c
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil
		}
		return &f
	case string:
		return utils.ParseNumber(v)
	default:
		return nil
	}
}
