package mapping

import (
	"strconv"

	"github.com/joseph-ayodele/cim-extractor/constants"
)

// Template geometry of the stock LBO model sheet: one column per period
// starting at E, one row per metric starting under the header row 17.
const (
	modelSheet   = "Model"
	firstCol     = 'E'
	headerRow    = 17
	firstDataRow = 18
)

// DefaultTable builds the mapping for the stock template. Column order
// follows the period vocabulary (actuals, expected, projections); metric rows
// follow the canonical metric order. Custom templates load their own YAML
// table instead.
func DefaultTable() Table {
	t := Table{
		constants.HeaderEarliestActual: {Sheet: modelSheet, Cell: cell('E', headerRow)},
		constants.HeaderLTM:            {Sheet: modelSheet, Cell: cell('H', headerRow)},
	}
	row := firstDataRow
	for _, metric := range constants.MetricPrefixes() {
		col := byte(firstCol)
		for _, period := range constants.AllPeriodKeys {
			t[metric+"_"+period] = CellRef{Sheet: modelSheet, Cell: cell(col, row)}
			col++
		}
		row++
	}
	return t
}

func cell(col byte, row int) string {
	return string(col) + strconv.Itoa(row)
}
