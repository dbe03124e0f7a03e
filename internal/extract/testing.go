package extract

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/anetsop/rosterlab/internal/family"
)

// Fixture describes a result workbook in the optimizer's layout
type Fixture struct {
	ExecutionTime  string
	Params         []float64
	Best           float64
	Worst          float64
	ValidSolutions float64
	TotalSolutions float64
	Jumps          float64
	// SimilarityFraction is written as the optimizer writes it, e.g. 0.8765
	SimilarityFraction float64
}

// WriteFixture writes a workbook with the optimizer's sheet and cell layout
// for f. Tests across packages use it to stand in for real optimizer output.
func WriteFixture(path string, f *family.Family, fx Fixture) error {
	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetName("Sheet1", family.SheetGeneral); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, s := range []string{family.SheetSolution, family.SheetAlgorithm} {
		if _, err := wb.NewSheet(s); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", s, err)
		}
	}

	for _, c := range f.Cells() {
		var v any
		switch c.Field {
		case family.FieldExecutionTime:
			v = fx.ExecutionTime
		case family.FieldParam:
			idx := f.ParamIndex(c.Param)
			if idx >= len(fx.Params) {
				continue
			}
			v = fx.Params[idx]
		case family.FieldBest:
			v = fx.Best
		case family.FieldWorst:
			v = fx.Worst
		case family.FieldValidSolutions:
			v = fx.ValidSolutions
		case family.FieldTotalSolutions:
			v = fx.TotalSolutions
		case family.FieldJumps:
			v = fx.Jumps
		case family.FieldSimilarity:
			v = fx.SimilarityFraction
		}
		if err := wb.SetCellValue(c.Sheet, c.Coord, v); err != nil {
			return fmt.Errorf("failed to set %s!%s: %w", c.Sheet, c.Coord, err)
		}
	}

	if err := wb.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}
