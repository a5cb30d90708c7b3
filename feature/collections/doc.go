// Package collections compares the collections table with the collections
// the catalog lists for the provider. Both sides are keyed name___version.
package collections
