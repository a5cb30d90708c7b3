package cmd

import (
	"bytes"
	"testing"

	"inventory-reconciler/core/reconcile"

	"github.com/stretchr/testify/assert"
)

func TestSummaryRows(t *testing.T) {
	ok, left, right := 3, 1, 0
	r := &reconcile.Report{
		FilesInCumulus: reconcile.FilesSection{
			Status:              reconcile.SectionCompleted,
			OKCount:             &ok,
			OnlyInS3Count:       &left,
			OnlyInDynamoDbCount: &right,
		},
		CollectionsInCumulusCmr: reconcile.CollectionsSection{Status: reconcile.SectionFailed, Error: "boom"},
		GranulesInCumulusCmr:    reconcile.GranulesSection{Status: reconcile.SectionSkipped},
	}

	rows := summaryRows(r)
	assert.Equal(t, []string{"files", "completed", "3", "1", "0", ""}, rows[0])
	assert.Equal(t, []string{"collections", "failed", "-", "-", "-", "boom"}, rows[1])
	assert.Equal(t, []string{"granules", "skipped", "-", "-", "-", ""}, rows[2])

	var buf bytes.Buffer
	printTable(&buf, summaryHeaders, rows)
	assert.Contains(t, buf.String(), "COMPARISON")
	assert.Contains(t, buf.String(), "boom")
}
