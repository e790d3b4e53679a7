package testutil

import (
	"procurement/pkg/contracts/domain"
)

// ProcurementHeaders is the header row of the sample sheet
var ProcurementHeaders = []string{
	"Part Number", "Supplier", "Material", "Description",
	"Price May 2025", "Price June 2025", "Price evo index June 2025",
}

// ProcurementGrid returns a small sheet with one opportunity of each kind.
// P-100 at Acme sits 20% above the index, P-200 at Beta is the cheaper
// steel alternative and P-300 carries no index so it yields nothing.
func ProcurementGrid() [][]string {
	return [][]string{
		ProcurementHeaders,
		{"P-100", "Acme", "Steel", "Bracket", "10.00", "12.00", "10.00"},
		{"P-200", "Beta", "steel ", "Bracket", "9.00", "9.00", "9.50"},
		{"P-300", "Gamma", "Copper", "Wire", "5.00", "5.10", ""},
	}
}

// ProcurementTable builds a domain.Table from ProcurementGrid
func ProcurementTable() *domain.Table {
	grid := ProcurementGrid()
	table := &domain.Table{Headers: grid[0]}
	for _, cells := range grid[1:] {
		row := make(map[string]string, len(cells))
		for i, h := range grid[0] {
			row[h] = cells[i]
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}
