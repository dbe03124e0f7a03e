// Package family describes the two optimizer variants rosterlab drives: the
// command-line selector, parameter names, collection directory and report
// naming, workbook cell layout, and report column order for each of them.
package family

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFamily is returned when a family name matches no known variant
var ErrUnknownFamily = errors.New("unknown family")

// Workbook sheet names written by the optimizer
const (
	SheetGeneral   = "General Information"
	SheetSolution  = "Solution Statistics"
	SheetAlgorithm = "Optimization Algorithm"
)

// Field identifies a statistic read from an artifact
type Field int

const (
	FieldExecutionTime Field = iota
	FieldParam
	FieldBest
	FieldWorst
	FieldValidSolutions
	FieldTotalSolutions
	FieldJumps
	FieldSimilarity
)

// Cell is one fixed workbook coordinate read during extraction
type Cell struct {
	Sheet string
	Coord string
	Field Field
	// Param names the echoed parameter for FieldParam cells
	Param string
}

// Column is one report column: its header and the index into
// models.ResultRecord.Values() it is filled from.
type Column struct {
	Header string
	Source int
}

// Family holds the constants of one optimizer variant
type Family struct {
	// Name is the positional selector passed to the optimizer
	Name string
	// Dir is the per-seed collection sub-directory
	Dir string
	// ReportPrefix starts every report file name, e.g. "CSO_seed_<seed>.xlsx"
	ReportPrefix string
	// Params is the canonical parameter order for flags, file names and records
	Params []string
	// Nesting is the default enumeration order, outer to inner
	Nesting []string
	// Population is the default value for the -p flag
	Population int
}

var (
	AOA = &Family{
		Name:         "AOA",
		Dir:          "AOA",
		ReportPrefix: "AOA",
		Params:       []string{"C1", "C2", "C3", "C4"},
		Nesting:      []string{"C2", "C1", "C3", "C4"},
		Population:   40,
	}

	MultiCSO = &Family{
		Name:         "multiCSO",
		Dir:          "CSO",
		ReportPrefix: "CSO",
		Params:       []string{"FL"},
		Nesting:      []string{"FL"},
		Population:   45,
	}

	all = []*Family{MultiCSO, AOA}
)

// All returns every known family in collection order (CSO first, then AOA)
func All() []*Family {
	out := make([]*Family, len(all))
	copy(out, all)
	return out
}

// Lookup resolves a family by selector, directory or report prefix,
// ignoring case.
func Lookup(name string) (*Family, error) {
	for _, f := range all {
		if strings.EqualFold(name, f.Name) || strings.EqualFold(name, f.Dir) || strings.EqualFold(name, f.ReportPrefix) {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, name)
}

// HasParam reports whether name is one of the family's parameters
func (f *Family) HasParam(name string) bool {
	return f.ParamIndex(name) >= 0
}

// ParamIndex returns the canonical position of a parameter, or -1
func (f *Family) ParamIndex(name string) int {
	for i, p := range f.Params {
		if p == name {
			return i
		}
	}
	return -1
}

// Cells returns the workbook coordinates read for this family, in record
// order. The parameter echo starts at N8 and runs down one row per parameter.
func (f *Family) Cells() []Cell {
	cells := []Cell{{Sheet: SheetGeneral, Coord: "D7", Field: FieldExecutionTime}}
	for i, p := range f.Params {
		cells = append(cells, Cell{Sheet: SheetGeneral, Coord: fmt.Sprintf("N%d", 8+i), Field: FieldParam, Param: p})
	}
	return append(cells,
		Cell{Sheet: SheetSolution, Coord: "D9", Field: FieldBest},
		Cell{Sheet: SheetSolution, Coord: "D10", Field: FieldWorst},
		Cell{Sheet: SheetAlgorithm, Coord: "D5", Field: FieldValidSolutions},
		Cell{Sheet: SheetAlgorithm, Coord: "D7", Field: FieldTotalSolutions},
		Cell{Sheet: SheetAlgorithm, Coord: "D9", Field: FieldJumps},
		Cell{Sheet: SheetAlgorithm, Coord: "D10", Field: FieldSimilarity},
	)
}

// Columns returns the report columns. Similarity is written before Jumps,
// i.e. the last two extracted fields are swapped.
func (f *Family) Columns() []Column {
	n := len(f.Params)
	cols := []Column{{Header: "Execution", Source: 0}}
	for i, p := range f.Params {
		cols = append(cols, Column{Header: p, Source: 1 + i})
	}
	return append(cols,
		Column{Header: "Best", Source: n + 1},
		Column{Header: "Worst", Source: n + 2},
		Column{Header: "Sols", Source: n + 3},
		Column{Header: "Paths", Source: n + 4},
		Column{Header: "Similarity", Source: n + 6},
		Column{Header: "Jumps", Source: n + 5},
	)
}

// Headers returns the report header row
func (f *Family) Headers() []string {
	cols := f.Columns()
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Header
	}
	return out
}

// ReportName returns the report file name for a seed, e.g. "AOA_seed_123.xlsx"
func (f *Family) ReportName(seed string, ext string) string {
	return fmt.Sprintf("%s_seed_%s.%s", f.ReportPrefix, seed, strings.TrimPrefix(ext, "."))
}

func (f *Family) String() string { return f.Name }
