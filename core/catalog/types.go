package catalog

import "encoding/json"

// Collection is a collection as listed by the catalog.
type Collection struct {
	ConceptID string
	ShortName string
	Version   string
}

// Granule is a granule as listed by the catalog.
type Granule struct {
	ConceptID string
	GranuleUR string
	ShortName string
	Version   string
}

// Query selects one page of a search.
type Query struct {
	PageNum     int
	PageSize    int
	SearchAfter string
}

// Result is one page of search results.
type Result[T any] struct {
	Items []T
	// Hits is the total number of matches reported by the catalog.
	Hits int
	// SearchAfter is the continuation header returned with the page, if any.
	SearchAfter string
}

// UMM JSON envelopes.
type ummResponse struct {
	Hits  *int      `json:"hits"`
	Items []ummItem `json:"items"`
}

type ummItem struct {
	Meta struct {
		ConceptID string `json:"concept-id"`
	} `json:"meta"`
	UMM json.RawMessage `json:"umm"`
}

type ummCollection struct {
	ShortName string `json:"ShortName"`
	Version   string `json:"Version"`
}

type ummGranule struct {
	GranuleUR           string `json:"GranuleUR"`
	CollectionReference struct {
		ShortName  string `json:"ShortName"`
		Version    string `json:"Version"`
		EntryTitle string `json:"EntryTitle"`
	} `json:"CollectionReference"`
}
