package cmd

import (
	"io"
	"strconv"

	"inventory-reconciler/core/reconcile"

	"github.com/olekukonko/tablewriter"
)

// printTable writes rows as a borderless, left aligned table.
func printTable(w io.Writer, headers []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	table.AppendBulk(rows)
	table.Render()
}

// summaryRows flattens a report into one row per comparison.
func summaryRows(r *reconcile.Report) [][]string {
	f := r.FilesInCumulus
	c := r.CollectionsInCumulusCmr
	g := r.GranulesInCumulusCmr
	return [][]string{
		{reconcile.ComparisonFiles, string(f.Status), count(f.OKCount), count(f.OnlyInS3Count), count(f.OnlyInDynamoDbCount), f.Error},
		{reconcile.ComparisonCollections, string(c.Status), count(c.OKCollectionCount), count(c.OnlyInCumulusCount), count(c.OnlyInCmrCount), c.Error},
		{reconcile.ComparisonGranules, string(g.Status), count(g.OKGranuleCount), count(g.OnlyInCumulusCount), count(g.OnlyInCmrCount), g.Error},
	}
}

var summaryHeaders = []string{"comparison", "status", "ok", "only left", "only right", "error"}

func count(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}
