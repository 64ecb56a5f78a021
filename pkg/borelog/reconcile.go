package borelog

import (
	"encoding/json"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"

	"p9e.in/borelog/models"
	"p9e.in/borelog/utils"
)

// VersionInput is the submission payload for a new borelog version. Two
// historical shapes exist: the canonical nested shape (metadata plus a
// layers collection) and the legacy flat shape where stratum and sample
// fields live as scalars directly on the submission, strings as they
// came off the form. Exactly one shape may be present. Keys the engine
// does not recognize are ignored, never folded into derived output.
type VersionInput struct {
	// canonical nested shape
	Metadata *models.BorelogMetadata `json:"metadata,omitempty"`
	Layers   []models.StratumLayer   `json:"layers,omitempty"`

	// Coordinate accepts a GeoJSON Point, an [e, l] pair, an {e, l}
	// object or a "POINT(x y)" WKT string
	Coordinate json.RawMessage `json:"coordinate,omitempty"`

	// legacy flat shape
	StratumDescription      string `json:"stratum_description,omitempty"`
	StratumDepthFrom        string `json:"stratum_depth_from,omitempty"`
	StratumDepthTo          string `json:"stratum_depth_to,omitempty"`
	StratumReturnWaterColor string `json:"stratum_return_water_color,omitempty"`
	StratumWaterLoss        string `json:"stratum_water_loss,omitempty"`
	StratumDiameter         string `json:"stratum_borehole_diameter,omitempty"`
	StratumRemarks          string `json:"stratum_remarks,omitempty"`

	SampleEventType  string `json:"sample_event_type,omitempty"`
	SampleEventDepth string `json:"sample_event_depth_m,omitempty"`
	SPTBlows1        string `json:"spt_blows_per_15cm_1,omitempty"`
	SPTBlows2        string `json:"spt_blows_per_15cm_2,omitempty"`
	SPTBlows3        string `json:"spt_blows_per_15cm_3,omitempty"`
	TotalCoreLength  string `json:"total_core_length_cm,omitempty"`
	RQDLength        string `json:"rqd_length_cm,omitempty"`

	// combined SPT/VS test counts, e.g. "12/3"
	TestCounts string `json:"spt_vs_test_counts,omitempty"`
}

func (in *VersionInput) hasCanonical() bool {
	return len(in.Layers) > 0
}

func (in *VersionInput) hasFlat() bool {
	return in.StratumDescription != "" || in.StratumDepthFrom != "" ||
		in.StratumDepthTo != "" || in.StratumReturnWaterColor != "" ||
		in.StratumWaterLoss != "" || in.StratumDiameter != "" ||
		in.StratumRemarks != "" || in.hasFlatSample()
}

func (in *VersionInput) hasFlatSample() bool {
	return in.SampleEventType != "" || in.SampleEventDepth != "" ||
		in.SPTBlows1 != "" || in.SPTBlows2 != "" || in.SPTBlows3 != "" ||
		in.TotalCoreLength != "" || in.RQDLength != ""
}

// ReconcileInput normalizes either input shape into the canonical
// nested details document. Derived fields are not computed here; the
// caller runs the calculator over the result.
func ReconcileInput(in VersionInput) (*models.BorelogDetails, error) {
	if in.hasCanonical() && in.hasFlat() {
		return nil, ErrReconciliationAmbiguity
	}

	details := &models.BorelogDetails{Layers: []models.StratumLayer{}}
	if in.Metadata != nil {
		details.Metadata = *in.Metadata
	}

	if easting, northing := ParseCoordinate(in.Coordinate); easting != nil {
		details.Metadata.Easting = easting
		details.Metadata.Northing = northing
	}

	if in.TestCounts != "" {
		spt, vs := utils.SplitCombinedCount(in.TestCounts)
		details.Metadata.SPTTestCount = &spt
		details.Metadata.VSTestCount = &vs
	}

	switch {
	case in.hasCanonical():
		// Deep-copy the layer tree. The sample slices must not share
		// backing arrays with the caller's payload: normalization writes
		// derived fields into the result and must never mutate the input.
		details.Layers = make([]models.StratumLayer, len(in.Layers))
		copy(details.Layers, in.Layers)
		for i := range details.Layers {
			if details.Layers[i].ID == "" {
				details.Layers[i].ID = NewLayer().ID
			}
			samples := make([]models.SamplePoint, len(in.Layers[i].Samples))
			copy(samples, in.Layers[i].Samples)
			details.Layers[i].Samples = samples
			for j := range samples {
				if samples[j].ID == "" {
					samples[j].ID = NewSamplePoint().ID
				}
			}
		}

	case in.hasFlat():
		layer := NewLayer()
		layer.Description = in.StratumDescription
		layer.DepthFrom = utils.ParseNumber(in.StratumDepthFrom)
		layer.DepthTo = utils.ParseNumber(in.StratumDepthTo)
		layer.ReturnWaterColor = in.StratumReturnWaterColor
		layer.WaterLoss = in.StratumWaterLoss
		layer.BoreholeDiameter = utils.ParseNumber(in.StratumDiameter)
		layer.Remarks = in.StratumRemarks

		if in.hasFlatSample() {
			sample := NewSamplePoint()
			sample.LegacyFlat = true
			sample.SampleType = in.SampleEventType
			sample.DepthSingle = utils.ParseNumber(in.SampleEventDepth)
			sample.SPT15cm1 = utils.ParseNumber(in.SPTBlows1)
			sample.SPT15cm2 = utils.ParseNumber(in.SPTBlows2)
			sample.SPT15cm3 = utils.ParseNumber(in.SPTBlows3)
			sample.TotalCoreLength = utils.ParseNumber(in.TotalCoreLength)
			sample.RQDLength = utils.ParseNumber(in.RQDLength)
			layer.Samples = append(layer.Samples, sample)
		}

		details.Layers = append(details.Layers, layer)
	}

	return details, nil
}

// ParseCoordinate normalizes the accepted coordinate encodings to an
// (easting, northing) pair. Unrecognized input leaves the pair unset
// rather than failing the whole submission.
func ParseCoordinate(raw json.RawMessage) (easting, northing *float64) {
	if len(raw) == 0 {
		return nil, nil
	}

	// "POINT(x y)" WKT string
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		s := strings.TrimSpace(str)
		if strings.HasPrefix(strings.ToUpper(s), "POINT") {
			s = "POINT" + s[len("POINT"):]
			if point, err := wkt.UnmarshalPoint(s); err == nil {
				return pointPair(point)
			}
		}
		return nil, nil
	}

	// [e, l] pair
	var pair []float64
	if err := json.Unmarshal(raw, &pair); err == nil {
		if len(pair) >= 2 {
			return utils.Float(pair[0]), utils.Float(pair[1])
		}
		return nil, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, nil
	}

	// GeoJSON Point
	if _, hasType := obj["type"]; hasType {
		if geom, err := geojson.UnmarshalGeometry(raw); err == nil {
			if point, ok := geom.Geometry().(orb.Point); ok {
				return pointPair(point)
			}
		}
		return nil, nil
	}

	// {e, l} object, short or spelled-out keys
	e := rawNumber(obj["e"])
	if e == nil {
		e = rawNumber(obj["easting"])
	}
	l := rawNumber(obj["l"])
	if l == nil {
		l = rawNumber(obj["northing"])
	}
	if e != nil && l != nil {
		return e, l
	}
	return nil, nil
}

func pointPair(p orb.Point) (*float64, *float64) {
	return utils.Float(p.X()), utils.Float(p.Y())
}

// rawNumber accepts a JSON number or a numeric string
func rawNumber(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return utils.ParseNumber(s)
	}
	return nil
}
