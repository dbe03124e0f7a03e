// Package extract reads the fixed-position statistics out of an optimizer
// result workbook.
package extract

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/anetsop/rosterlab/internal/family"
	"github.com/anetsop/rosterlab/pkg/models"
	"github.com/anetsop/rosterlab/pkg/utils"
)

// ErrMalformedArtifact is wrapped by every extraction failure
var ErrMalformedArtifact = errors.New("malformed artifact")

// MalformedArtifactError pinpoints the cell that could not be read
type MalformedArtifactError struct {
	Path   string
	Sheet  string
	Cell   string
	Reason string
}

func (e *MalformedArtifactError) Error() string {
	if e.Sheet == "" {
		return fmt.Sprintf("malformed artifact %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("malformed artifact %s: %s!%s: %s", e.Path, e.Sheet, e.Cell, e.Reason)
}

func (e *MalformedArtifactError) Is(target error) bool {
	return target == ErrMalformedArtifact
}

// Extract opens the workbook at path and reads one record. It never
// substitutes a default for a missing or non-numeric value.
func Extract(path string, f *family.Family) (models.ResultRecord, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return models.ResultRecord{}, &MalformedArtifactError{Path: path, Reason: "cannot open workbook: " + err.Error()}
	}
	defer wb.Close()

	rec := models.ResultRecord{
		Artifact: path,
		Params:   make([]float64, len(f.Params)),
	}
	for _, c := range f.Cells() {
		raw, err := readCell(wb, c.Sheet, c.Coord)
		if err != nil {
			return models.ResultRecord{}, &MalformedArtifactError{Path: path, Sheet: c.Sheet, Cell: c.Coord, Reason: err.Error()}
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return models.ResultRecord{}, &MalformedArtifactError{Path: path, Sheet: c.Sheet, Cell: c.Coord, Reason: "empty cell"}
		}

		if c.Field == family.FieldExecutionTime {
			rec.ExecutionTime = raw
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.ResultRecord{}, &MalformedArtifactError{Path: path, Sheet: c.Sheet, Cell: c.Coord, Reason: fmt.Sprintf("%q is not a number", raw)}
		}

		switch c.Field {
		case family.FieldParam:
			rec.Params[f.ParamIndex(c.Param)] = v
		case family.FieldBest:
			rec.Best = v
		case family.FieldWorst:
			rec.Worst = v
		case family.FieldValidSolutions:
			rec.ValidSolutions = v
		case family.FieldTotalSolutions:
			rec.TotalSolutions = v
		case family.FieldJumps:
			rec.Jumps = v
		case family.FieldSimilarity:
			// stored as a fraction
			rec.Similarity = utils.Round(v*100, 2)
		}
	}
	return rec, nil
}

// readCell returns string cells as their text and every other cell as its
// stored value, so number formats applied by the optimizer's styling never
// leak into parsed statistics.
func readCell(wb *excelize.File, sheet, coord string) (string, error) {
	typ, err := wb.GetCellType(sheet, coord)
	if err != nil {
		return "", err
	}
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString:
		return wb.GetCellValue(sheet, coord)
	default:
		return wb.GetCellValue(sheet, coord, excelize.Options{RawCellValue: true})
	}
}
