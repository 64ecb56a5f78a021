package borelog

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"p9e.in/borelog/models"
	"p9e.in/borelog/utils"
)

var borelogSheetHeaders = []string{
	"Layer No.",
	"Description",
	"Depth From (m)",
	"Depth To (m)",
	"Thickness (m)",
	"Sample Type",
	"Sample Depth (m)",
	"Run Length (m)",
	"N-Value",
	"TCR %",
	"RQD %",
	"Remarks",
}

// BuildBorelogWorkbook renders one version's stratum/sample table into
// an Excel workbook. Serving or storing the file is the caller's
// concern.
func BuildBorelogWorkbook(borehole *models.Borehole, version *models.BorelogVersion) (*excelize.File, error) {
	f := excelize.NewFile()
	sheetName := "Borelog"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	// Title block
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
			Size: 16,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "left",
			Vertical:   "center",
		},
	})
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("Borelog %s (version %d, %s)", borehole.Number, version.VersionNo, version.Status))
	f.SetCellStyle(sheetName, "A1", "A1", titleStyle)
	f.SetRowHeight(sheetName, 1, 30)

	meta := version.Details.Metadata
	f.SetCellValue(sheetName, "A2", fmt.Sprintf("Method of boring: %s", meta.MethodOfBoring))
	f.SetCellValue(sheetName, "A3", fmt.Sprintf("Easting: %s  Northing: %s  MSL: %s",
		utils.FormatNumber(meta.Easting), utils.FormatNumber(meta.Northing), utils.FormatNumber(meta.MSL)))

	// Headers (row 5)
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#4472C4"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	for colIdx, header := range borelogSheetHeaders {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, 5)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
		col, _ := excelize.ColumnNumberToName(colIdx + 1)
		f.SetColWidth(sheetName, col, col, 18)
	}

	dataStyle, _ := f.NewStyle(&excelize.Style{
		Border: []excelize.Border{
			{Type: "left", Color: "CCCCCC", Style: 1},
			{Type: "right", Color: "CCCCCC", Style: 1},
			{Type: "top", Color: "CCCCCC", Style: 1},
			{Type: "bottom", Color: "CCCCCC", Style: 1},
		},
	})

	row := 6
	layerNo := 0
	for _, layer := range version.Details.Layers {
		if !layer.IsSubdivision() {
			layerNo++
		}
		rows := sheetRowsForLayer(layer, layerNo)
		for _, values := range rows {
			for colIdx, value := range values {
				cell, _ := excelize.CoordinatesToCellName(colIdx+1, row)
				f.SetCellValue(sheetName, cell, value)
				f.SetCellStyle(sheetName, cell, cell, dataStyle)
			}
			row++
		}
	}

	// Test count summary
	summary := CountTests(version.Details.Layers)
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E7E6E6"},
			Pattern: 1,
		},
	})
	row += 2
	cell, _ := excelize.CoordinatesToCellName(1, row)
	f.SetCellValue(sheetName, cell, "Test Counts")
	f.SetCellStyle(sheetName, cell, cell, summaryStyle)

	counts := []struct {
		label string
		value int
	}{
		{"SPT", summary.SPT},
		{"VS", summary.VS},
		{"Undisturbed", summary.Undisturbed},
		{"Disturbed", summary.Disturbed},
		{"Water", summary.Water},
	}
	for _, c := range counts {
		row++
		keyCell, _ := excelize.CoordinatesToCellName(1, row)
		valueCell, _ := excelize.CoordinatesToCellName(2, row)
		f.SetCellValue(sheetName, keyCell, c.label)
		f.SetCellValue(sheetName, valueCell, c.value)
	}

	return f, nil
}

// sheetRowsForLayer flattens one layer into sheet rows: the layer row
// first, then one row per sample indented under it
func sheetRowsForLayer(layer models.StratumLayer, layerNo int) [][]interface{} {
	label := layer.Description
	numberCell := fmt.Sprintf("%d", layerNo)
	if layer.IsSubdivision() {
		label = fmt.Sprintf("  %d.%d %s", layerNo, layer.SubdivisionNumber, layer.Description)
		numberCell = ""
	}

	rows := [][]interface{}{{
		numberCell,
		label,
		utils.FormatNumber(layer.DepthFrom),
		utils.FormatNumber(layer.DepthTo),
		utils.FormatNumber(layer.Thickness),
		"", "", "", "", "", "",
		layer.Remarks,
	}}

	for _, sample := range layer.Samples {
		depth := utils.FormatNumber(sample.DepthSingle)
		if sample.DepthMode == models.DepthModeRange {
			depth = fmt.Sprintf("%s - %s", utils.FormatNumber(sample.DepthFrom), utils.FormatNumber(sample.DepthTo))
		}
		rows = append(rows, []interface{}{
			"",
			"",
			"", "", "",
			sample.SampleType,
			depth,
			utils.FormatNumber(sample.RunLength),
			utils.FormatNumber(sample.NValue),
			utils.FormatNumber(utils.Float(sample.TCRPercent)),
			utils.FormatNumber(utils.Float(sample.RQDPercent)),
			"",
		})
	}
	return rows
}
