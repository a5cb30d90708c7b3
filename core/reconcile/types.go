package reconcile

import "sort"

// SourceKind tags the backend and inventory type an InventoryRecord came from.
type SourceKind string

const (
	// KindFileObject is an object listed from the object store.
	KindFileObject SourceKind = "file_object"
	// KindDBFile is a row of the files table.
	KindDBFile SourceKind = "db_file"
	// KindDBCollection is a row of the collections table.
	KindDBCollection SourceKind = "db_collection"
	// KindCatalogCollection is a collection returned by the catalog search.
	KindCatalogCollection SourceKind = "catalog_collection"
	// KindDBGranule is a row of the granules table.
	KindDBGranule SourceKind = "db_granule"
	// KindCatalogGranule is a granule returned by the catalog search.
	KindCatalogGranule SourceKind = "catalog_granule"
)

// InventoryRecord is a keyed record produced by a source.
// Records are never mutated after a KeyExtractor builds them.
type InventoryRecord struct {
	// Kind identifies the producing source.
	Kind SourceKind
	// Key is the canonical comparison key.
	Key string
	// Attributes is the lightweight payload kept for the report.
	Attributes map[string]string
}

// Attr returns the named attribute or "".
func (r InventoryRecord) Attr(name string) string {
	if r.Attributes == nil {
		return ""
	}
	return r.Attributes[name]
}

// Partition is the result of reconciling two keyed streams.
//
// Every key seen in exactly one stream appears in exactly one of OnlyInLeft
// and OnlyInRight; every key seen in both is counted once in Matched.
type Partition struct {
	OnlyInLeft  []InventoryRecord
	OnlyInRight []InventoryRecord
	Matched     int
}

// Swap returns the partition with its sides exchanged.
func (p Partition) Swap() Partition {
	return Partition{
		OnlyInLeft:  p.OnlyInRight,
		OnlyInRight: p.OnlyInLeft,
		Matched:     p.Matched,
	}
}

// Keys returns the keys of records in their current order.
func Keys(records []InventoryRecord) []string {
	keys := make([]string, len(records))
	for i, r := range records {
		keys[i] = r.Key
	}
	return keys
}

func sortRecords(records []InventoryRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].Key < records[j].Key
	})
}
