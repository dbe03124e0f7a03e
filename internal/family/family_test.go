package family

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		want *Family
	}{
		{"AOA", AOA},
		{"aoa", AOA},
		{"multiCSO", MultiCSO},
		{"CSO", MultiCSO},
		{"cso", MultiCSO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Lookup(tt.name)
			require.NoError(t, err)
			assert.Same(t, tt.want, f)
		})
	}

	_, err := Lookup("PSO")
	assert.True(t, errors.Is(err, ErrUnknownFamily))
}

func TestColumnsAOA(t *testing.T) {
	assert.Equal(t,
		[]string{"Execution", "C1", "C2", "C3", "C4", "Best", "Worst", "Sols", "Paths", "Similarity", "Jumps"},
		AOA.Headers())

	cols := AOA.Columns()
	assert.Equal(t, 10, cols[9].Source, "Similarity column reads the similarity field")
	assert.Equal(t, 9, cols[10].Source, "Jumps column reads the jumps field")
}

func TestColumnsMultiCSO(t *testing.T) {
	assert.Equal(t,
		[]string{"Execution", "FL", "Best", "Worst", "Sols", "Paths", "Similarity", "Jumps"},
		MultiCSO.Headers())

	sources := make([]int, 0)
	for _, c := range MultiCSO.Columns() {
		sources = append(sources, c.Source)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 7, 6}, sources)
}

func TestCellsMatchColumnWidth(t *testing.T) {
	for _, f := range All() {
		t.Run(f.Name, func(t *testing.T) {
			assert.Len(t, f.Cells(), len(f.Columns()))
			seen := make(map[int]bool)
			for _, c := range f.Columns() {
				assert.False(t, seen[c.Source], "source %d used twice", c.Source)
				seen[c.Source] = true
			}
		})
	}
}

func TestCellsAOA(t *testing.T) {
	cells := AOA.Cells()
	coords := make([]string, len(cells))
	for i, c := range cells {
		coords[i] = c.Sheet + "!" + c.Coord
	}
	assert.Equal(t, []string{
		"General Information!D7",
		"General Information!N8",
		"General Information!N9",
		"General Information!N10",
		"General Information!N11",
		"Solution Statistics!D9",
		"Solution Statistics!D10",
		"Optimization Algorithm!D5",
		"Optimization Algorithm!D7",
		"Optimization Algorithm!D9",
		"Optimization Algorithm!D10",
	}, coords)
	assert.Equal(t, "C4", cells[4].Param)
}

func TestReportName(t *testing.T) {
	assert.Equal(t, "CSO_seed_1528461486438309900.xlsx", MultiCSO.ReportName("1528461486438309900", "xlsx"))
	assert.Equal(t, "AOA_seed_42.xlsx", AOA.ReportName("42", ".xlsx"))
}

func TestParamIndex(t *testing.T) {
	assert.Equal(t, 3, AOA.ParamIndex("C4"))
	assert.Equal(t, -1, AOA.ParamIndex("FL"))
	assert.True(t, MultiCSO.HasParam("FL"))
}
