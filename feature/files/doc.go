// Package files compares the objects stored in the protected buckets with
// the files table.
//
// ObjectSource lists a bucket with StartAfter continuation and DBSource
// scans the files table by id. Both key records as bucket/key so that a file
// matches when the same object key exists in the same bucket; keys are
// compared byte for byte.
package files
