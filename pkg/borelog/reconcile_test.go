package borelog

import (
	"encoding/json"
	"errors"
	"testing"

	"p9e.in/borelog/models"
	"p9e.in/borelog/utils"
)

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		easting  *float64
		northing *float64
	}{
		{"wkt point", `"POINT(123.45 67.89)"`, utils.Float(123.45), utils.Float(67.89)},
		{"wkt point lowercase", `"point(1 2)"`, utils.Float(1), utils.Float(2)},
		{"geojson point", `{"type":"Point","coordinates":[123.45,67.89]}`, utils.Float(123.45), utils.Float(67.89)},
		{"bare pair", `[123.45,67.89]`, utils.Float(123.45), utils.Float(67.89)},
		{"short key object", `{"e":123.45,"l":67.89}`, utils.Float(123.45), utils.Float(67.89)},
		{"spelled-out key object", `{"easting":"123.45","northing":"67.89"}`, utils.Float(123.45), utils.Float(67.89)},
		{"empty input", ``, nil, nil},
		{"null", `null`, nil, nil},
		{"free text", `"somewhere north of the river"`, nil, nil},
		{"malformed wkt", `"POINT(abc def)"`, nil, nil},
		{"bare number", `42`, nil, nil},
		{"short pair", `[1]`, nil, nil},
		{"geojson linestring", `{"type":"LineString","coordinates":[[0,0],[1,1]]}`, nil, nil},
		{"object with unrelated keys", `{"lat":1,"lng":2}`, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			easting, northing := ParseCoordinate(json.RawMessage(tt.raw))
			if (easting == nil) != (tt.easting == nil) || (northing == nil) != (tt.northing == nil) {
				t.Fatalf("ParseCoordinate(%s) = (%v, %v), expected (%v, %v)",
					tt.raw, easting, northing, tt.easting, tt.northing)
			}
			if easting != nil && (*easting != *tt.easting || *northing != *tt.northing) {
				t.Errorf("ParseCoordinate(%s) = (%v, %v), expected (%v, %v)",
					tt.raw, *easting, *northing, *tt.easting, *tt.northing)
			}
		})
	}
}

func TestReconcileFlatShape(t *testing.T) {
	input := VersionInput{
		StratumDescription: "Brownish grey silty clay",
		StratumDepthFrom:   "1.50",
		StratumDepthTo:     "1.95",
		StratumDiameter:    "150",
		SampleEventType:    "S/D-2",
		SampleEventDepth:   "1.65",
		SPTBlows1:          "8",
		SPTBlows2:          "10",
		SPTBlows3:          "12",
		TestCounts:         "12/3",
	}

	details, err := ReconcileInput(input)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(details.Layers) != 1 {
		t.Fatalf("expected one synthesized layer, got %d", len(details.Layers))
	}

	layer := details.Layers[0]
	if layer.ID == "" {
		t.Error("synthesized layer must get an id")
	}
	if layer.DepthFrom == nil || *layer.DepthFrom != 1.50 {
		t.Errorf("depth_from = %v, expected 1.50", layer.DepthFrom)
	}
	if len(layer.Samples) != 1 {
		t.Fatalf("expected one synthesized sample, got %d", len(layer.Samples))
	}

	sample := layer.Samples[0]
	if !sample.LegacyFlat {
		t.Error("synthesized sample must carry the legacy_flat marker")
	}
	if sample.SampleType != "S/D-2" {
		t.Errorf("sample_type = %q", sample.SampleType)
	}
	if sample.DepthSingle == nil || *sample.DepthSingle != 1.65 {
		t.Errorf("depth_single = %v, expected 1.65", sample.DepthSingle)
	}

	if details.Metadata.SPTTestCount == nil || *details.Metadata.SPTTestCount != 12 {
		t.Errorf("spt_test_count = %v, expected 12", details.Metadata.SPTTestCount)
	}
	if details.Metadata.VSTestCount == nil || *details.Metadata.VSTestCount != 3 {
		t.Errorf("vs_test_count = %v, expected 3", details.Metadata.VSTestCount)
	}

	// Normalization after reconciliation derives everything else
	NormalizeDetails(details)
	layer = details.Layers[0]
	if layer.Thickness == nil || !almostEqual(*layer.Thickness, 0.45) {
		t.Errorf("thickness = %v, expected 0.45", layer.Thickness)
	}
	if n := layer.Samples[0].NValue; n == nil || *n != 30 {
		t.Errorf("n_value = %v, expected 30", n)
	}
}

// The legacy flat formula blocks the N-value sum when any blow count is
// missing; the nested shape would have summed the rest.
func TestReconcileFlatNValueNullPropagation(t *testing.T) {
	input := VersionInput{
		StratumDescription: "Weathered rock",
		SampleEventType:    "S-1",
		SPTBlows1:          "8",
		SPTBlows3:          "12",
	}

	details, err := ReconcileInput(input)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	NormalizeDetails(details)

	if n := details.Layers[0].Samples[0].NValue; n != nil {
		t.Errorf("n_value = %v, expected null for incomplete legacy counts", *n)
	}
}

func TestReconcileFlatWithoutSample(t *testing.T) {
	input := VersionInput{
		StratumDescription: "Medium dense sand",
		StratumDepthFrom:   "0",
		StratumDepthTo:     "3.2",
	}

	details, err := ReconcileInput(input)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(details.Layers) != 1 {
		t.Fatalf("expected one layer, got %d", len(details.Layers))
	}
	if len(details.Layers[0].Samples) != 0 {
		t.Errorf("expected no synthesized sample, got %d", len(details.Layers[0].Samples))
	}
}

func TestReconcileCanonicalShape(t *testing.T) {
	input := VersionInput{
		Metadata: &models.BorelogMetadata{MethodOfBoring: "Rotary drilling"},
		Layers: []models.StratumLayer{
			{
				Description: "Clay",
				DepthFrom:   utils.Float(0),
				DepthTo:     utils.Float(2),
				Samples:     []models.SamplePoint{{SampleType: "U"}},
			},
		},
		Coordinate: json.RawMessage(`"POINT(500123.2 1998443.8)"`),
	}

	details, err := ReconcileInput(input)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if details.Metadata.MethodOfBoring != "Rotary drilling" {
		t.Errorf("method_of_boring = %q", details.Metadata.MethodOfBoring)
	}
	if details.Metadata.Easting == nil || *details.Metadata.Easting != 500123.2 {
		t.Errorf("easting = %v, expected 500123.2", details.Metadata.Easting)
	}
	if details.Layers[0].ID == "" || details.Layers[0].Samples[0].ID == "" {
		t.Error("missing ids must be filled in")
	}
	if details.Layers[0].Samples[0].LegacyFlat {
		t.Error("canonical samples must not carry the legacy marker")
	}
}

func TestReconcileAmbiguousShape(t *testing.T) {
	input := VersionInput{
		Layers:             []models.StratumLayer{{Description: "Clay"}},
		StratumDescription: "Clay again",
	}

	_, err := ReconcileInput(input)
	if !errors.Is(err, ErrReconciliationAmbiguity) {
		t.Fatalf("expected ErrReconciliationAmbiguity, got %v", err)
	}
}

// Unknown payload keys simply do not decode into VersionInput; they can
// never leak into derived output.
func TestUnrecognizedKeysIgnored(t *testing.T) {
	payload := []byte(`{
		"stratum_description": "Silt",
		"stratum_depth_from": "1.0",
		"survey_team": "B",
		"色": "grey",
		"internal_flags": {"x": true}
	}`)

	var input VersionInput
	if err := json.Unmarshal(payload, &input); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	details, err := ReconcileInput(input)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if details.Layers[0].Description != "Silt" {
		t.Errorf("description = %q", details.Layers[0].Description)
	}
}

func TestReconcileDoesNotAliasInputSamples(t *testing.T) {
	input := VersionInput{
		Layers: []models.StratumLayer{
			{
				Description: "Silty sand",
				DepthFrom:   utils.Float(0),
				DepthTo:     utils.Float(2),
				Samples: []models.SamplePoint{
					{
						SampleType: "S-1",
						SPT15cm1:   utils.Float(5),
						SPT15cm2:   utils.Float(7),
						SPT15cm3:   utils.Float(9),
					},
				},
			},
		},
	}

	details, err := ReconcileInput(input)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	NormalizeDetails(details)

	got := details.Layers[0].Samples[0]
	if got.NValue == nil || *got.NValue != 21 {
		t.Fatalf("normalized n_value = %v, expected 21", got.NValue)
	}

	// normalization wrote into the reconciled copy only
	original := input.Layers[0].Samples[0]
	if original.NValue != nil {
		t.Errorf("caller's n_value mutated to %v", *original.NValue)
	}
	if original.DepthMode != "" {
		t.Errorf("caller's depth_mode mutated to %q", original.DepthMode)
	}
	if original.ID != "" {
		t.Errorf("caller's sample id mutated to %q", original.ID)
	}
}

func TestReconcileEmptyInput(t *testing.T) {
	details, err := ReconcileInput(VersionInput{})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(details.Layers) != 0 {
		t.Errorf("expected no layers for empty input, got %d", len(details.Layers))
	}
}
