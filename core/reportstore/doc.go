// Package reportstore keeps reconciliation reports in the object store.
//
// Reports are written as indented JSON to
// <stack>/reconciliation-reports/inventoryReport-<yyyyMMddTHHmmssSSS>-<id>.json
// in the system bucket, where <id> is the start of the report id. Keys sort
// chronologically, which Prune relies on to keep the newest reports.
package reportstore
