// Package reconcile detects divergence between independently maintained
// inventories: the object store, the register database and the metadata
// catalog.
//
// The package is organized around four pieces:
//
//  1. PaginatedSource: a backend's paged read capability. Stream wraps a source
//     into a lazy, finite, non-restartable sequence and retries every page
//     fetch with a shared retry.Policy.
//
//  2. Key extraction: feature packages map their typed rows to InventoryRecord
//     values keyed by FileKey, CollectionID or the granule identifier.
//
//  3. SetReconciler: a hash build/probe pass computing the presence partition
//     {OnlyInLeft, OnlyInRight, Matched} of two streams. Attribute values are
//     never compared.
//
//  4. Assembler and Engine: the engine runs the files, collections and
//     granules comparisons concurrently, the assembler merges their outcomes
//     into a Report with capped sample lists and per-section status, and the
//     report is written once through a ReportWriter.
//
// # Failure model
//
// Transient fetch errors are retried inside Stream. A comparison whose source
// fails permanently, or runs out of retries, becomes a failed section while
// the other comparisons complete. Configuration errors abort the run before
// it starts; cancellation and write failures produce no report.
//
// # Usage Example
//
//	engine := reconcile.NewEngine(cfg.Reconcile, store, logger, recorder)
//	result, err := engine.Run(ctx, []reconcile.Comparison{
//	    {Name: reconcile.ComparisonFiles, Left: objects, Right: dbFiles, Build: reconcile.BuildRight},
//	    {Name: reconcile.ComparisonCollections, Left: dbCollections, Right: cmrCollections},
//	    {Name: reconcile.ComparisonGranules, Left: dbGranules, Right: cmrGranules},
//	})
package reconcile
