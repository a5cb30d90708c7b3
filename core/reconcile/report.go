package reconcile

import (
	"time"

	"github.com/google/uuid"
)

// Comparison names.
const (
	ComparisonFiles       = "files"
	ComparisonCollections = "collections"
	ComparisonGranules    = "granules"
)

// Attribute names carried by InventoryRecord payloads.
const (
	AttrBucket       = "bucket"
	AttrObjectKey    = "key"
	AttrGranuleID    = "granuleId"
	AttrCollectionID = "collectionId"
	AttrStatus       = "status"
	AttrShortName    = "shortName"
	AttrVersion      = "version"
)

// SectionStatus tells whether a comparison ran and how it ended.
type SectionStatus string

const (
	// SectionCompleted means every discrepancy is listed.
	SectionCompleted SectionStatus = "completed"
	// SectionPartial means the comparison completed but a sample list was truncated.
	SectionPartial SectionStatus = "partial"
	// SectionFailed means the comparison could not complete; lists and counts are null.
	SectionFailed SectionStatus = "failed"
	// SectionSkipped means the comparison was disabled; lists and counts are null.
	SectionSkipped SectionStatus = "skipped"
)

// ReportStatus summarizes a whole report.
type ReportStatus string

const (
	ReportSuccess ReportStatus = "SUCCESS"
	ReportPartial ReportStatus = "PARTIAL"
	ReportFailed  ReportStatus = "FAILED"
)

// FileEntry is a file registered in the database but missing from the object store.
type FileEntry struct {
	URI       string `json:"uri"`
	GranuleID string `json:"granuleId,omitempty"`
}

// FilesSection compares the object store with the files table.
type FilesSection struct {
	Status              SectionStatus `json:"status"`
	Error               string        `json:"error,omitempty"`
	OKCount             *int          `json:"okCount"`
	OnlyInS3Count       *int          `json:"onlyInS3Count"`
	OnlyInDynamoDbCount *int          `json:"onlyInDynamoDbCount"`
	OnlyInS3            []string      `json:"onlyInS3"`
	OnlyInDynamoDb      []FileEntry   `json:"onlyInDynamoDb"`
}

// CollectionsSection compares the collections table with the catalog.
type CollectionsSection struct {
	Status             SectionStatus `json:"status"`
	Error              string        `json:"error,omitempty"`
	OKCollectionCount  *int          `json:"okCollectionCount"`
	OnlyInCumulusCount *int          `json:"onlyInCumulusCount"`
	OnlyInCmrCount     *int          `json:"onlyInCmrCount"`
	OnlyInCumulus      []string      `json:"onlyInCumulus"`
	OnlyInCmr          []string      `json:"onlyInCmr"`
}

// GranuleEntry is a granule known to the database only.
type GranuleEntry struct {
	GranuleID    string `json:"granuleId"`
	CollectionID string `json:"collectionId,omitempty"`
	Status       string `json:"status,omitempty"`
}

// CmrGranuleEntry is a granule known to the catalog only.
type CmrGranuleEntry struct {
	GranuleUR string `json:"GranuleUR"`
	ShortName string `json:"ShortName,omitempty"`
	Version   string `json:"Version,omitempty"`
}

// GranulesSection compares the granules table with the catalog.
type GranulesSection struct {
	Status             SectionStatus     `json:"status"`
	Error              string            `json:"error,omitempty"`
	OKGranuleCount     *int              `json:"okGranuleCount"`
	OnlyInCumulusCount *int              `json:"onlyInCumulusCount"`
	OnlyInCmrCount     *int              `json:"onlyInCmrCount"`
	OnlyInCumulus      []GranuleEntry    `json:"onlyInCumulus"`
	OnlyInCmr          []CmrGranuleEntry `json:"onlyInCmr"`
}

// Report is the reconciliation report document.
type Report struct {
	ReportID                string             `json:"reportId"`
	Status                  ReportStatus       `json:"status"`
	ReportStartTime         time.Time          `json:"reportStartTime"`
	ReportEndTime           time.Time          `json:"reportEndTime"`
	GeneratedAt             time.Time          `json:"generatedAt"`
	FilesInCumulus          FilesSection       `json:"filesInCumulus"`
	CollectionsInCumulusCmr CollectionsSection `json:"collectionsInCumulusCmr"`
	GranulesInCumulusCmr    GranulesSection    `json:"granulesInCumulusCmr"`
}

// Outcome is the result of one comparison handed to the assembler.
// Left and right follow the report's naming: object store/files table for
// files, database/catalog for collections and granules.
type Outcome struct {
	Comparison string
	Partition  Partition
	Err        error
	Skipped    bool
}

// Assembler builds reports from comparison outcomes.
type Assembler struct {
	// MaxSampleSize caps each "only in" list. Zero means no cap.
	MaxSampleSize int
	// Now and NewID are replaceable for tests.
	Now   func() time.Time
	NewID func() string
}

// NewAssembler returns an Assembler capping lists at maxSample entries.
func NewAssembler(maxSample int) *Assembler {
	return &Assembler{
		MaxSampleSize: maxSample,
		Now:           func() time.Time { return time.Now().UTC() },
		NewID:         func() string { return uuid.NewString() },
	}
}

// Assemble merges the outcomes into a report. Comparisons without an
// outcome are reported as skipped.
func (a *Assembler) Assemble(started time.Time, outcomes []Outcome) *Report {
	now := a.Now()
	report := &Report{
		ReportID:                a.NewID(),
		ReportStartTime:         started.UTC(),
		ReportEndTime:           now,
		GeneratedAt:             now,
		FilesInCumulus:          FilesSection{Status: SectionSkipped},
		CollectionsInCumulusCmr: CollectionsSection{Status: SectionSkipped},
		GranulesInCumulusCmr:    GranulesSection{Status: SectionSkipped},
	}

	ran, failed := 0, 0
	for _, o := range outcomes {
		if o.Skipped {
			continue
		}
		ran++
		if o.Err != nil {
			failed++
		}
		switch o.Comparison {
		case ComparisonFiles:
			report.FilesInCumulus = a.filesSection(o)
		case ComparisonCollections:
			report.CollectionsInCumulusCmr = a.collectionsSection(o)
		case ComparisonGranules:
			report.GranulesInCumulusCmr = a.granulesSection(o)
		}
	}

	switch {
	case failed == 0:
		report.Status = ReportSuccess
	case failed < ran:
		report.Status = ReportPartial
	default:
		report.Status = ReportFailed
	}
	return report
}

func (a *Assembler) filesSection(o Outcome) FilesSection {
	if o.Err != nil {
		return FilesSection{Status: SectionFailed, Error: o.Err.Error()}
	}
	p := o.Partition
	left, lt := a.sample(p.OnlyInLeft)
	right, rt := a.sample(p.OnlyInRight)

	s := FilesSection{
		Status:              sectionStatus(lt || rt),
		OKCount:             intPtr(p.Matched),
		OnlyInS3Count:       intPtr(len(p.OnlyInLeft)),
		OnlyInDynamoDbCount: intPtr(len(p.OnlyInRight)),
		OnlyInS3:            make([]string, 0, len(left)),
		OnlyInDynamoDb:      make([]FileEntry, 0, len(right)),
	}
	for _, rec := range left {
		s.OnlyInS3 = append(s.OnlyInS3, S3URI(rec.Key))
	}
	for _, rec := range right {
		s.OnlyInDynamoDb = append(s.OnlyInDynamoDb, FileEntry{
			URI:       S3URI(rec.Key),
			GranuleID: rec.Attr(AttrGranuleID),
		})
	}
	return s
}

func (a *Assembler) collectionsSection(o Outcome) CollectionsSection {
	if o.Err != nil {
		return CollectionsSection{Status: SectionFailed, Error: o.Err.Error()}
	}
	p := o.Partition
	left, lt := a.sample(p.OnlyInLeft)
	right, rt := a.sample(p.OnlyInRight)

	return CollectionsSection{
		Status:             sectionStatus(lt || rt),
		OKCollectionCount:  intPtr(p.Matched),
		OnlyInCumulusCount: intPtr(len(p.OnlyInLeft)),
		OnlyInCmrCount:     intPtr(len(p.OnlyInRight)),
		OnlyInCumulus:      Keys(left),
		OnlyInCmr:          Keys(right),
	}
}

func (a *Assembler) granulesSection(o Outcome) GranulesSection {
	if o.Err != nil {
		return GranulesSection{Status: SectionFailed, Error: o.Err.Error()}
	}
	p := o.Partition
	left, lt := a.sample(p.OnlyInLeft)
	right, rt := a.sample(p.OnlyInRight)

	s := GranulesSection{
		Status:             sectionStatus(lt || rt),
		OKGranuleCount:     intPtr(p.Matched),
		OnlyInCumulusCount: intPtr(len(p.OnlyInLeft)),
		OnlyInCmrCount:     intPtr(len(p.OnlyInRight)),
		OnlyInCumulus:      make([]GranuleEntry, 0, len(left)),
		OnlyInCmr:          make([]CmrGranuleEntry, 0, len(right)),
	}
	for _, rec := range left {
		s.OnlyInCumulus = append(s.OnlyInCumulus, GranuleEntry{
			GranuleID:    rec.Key,
			CollectionID: rec.Attr(AttrCollectionID),
			Status:       rec.Attr(AttrStatus),
		})
	}
	for _, rec := range right {
		s.OnlyInCmr = append(s.OnlyInCmr, CmrGranuleEntry{
			GranuleUR: rec.Key,
			ShortName: rec.Attr(AttrShortName),
			Version:   rec.Attr(AttrVersion),
		})
	}
	return s
}

// sample returns at most MaxSampleSize records and whether it truncated.
func (a *Assembler) sample(records []InventoryRecord) ([]InventoryRecord, bool) {
	if a.MaxSampleSize <= 0 || len(records) <= a.MaxSampleSize {
		return records, false
	}
	return records[:a.MaxSampleSize], true
}

func sectionStatus(truncated bool) SectionStatus {
	if truncated {
		return SectionPartial
	}
	return SectionCompleted
}

func intPtr(v int) *int {
	return &v
}
