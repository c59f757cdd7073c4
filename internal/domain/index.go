package domain

// IndexField is one field in a search index schema.
type IndexField struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Key         bool   `json:"key,omitempty"`
	Searchable  *bool  `json:"searchable,omitempty"`
	Filterable  *bool  `json:"filterable,omitempty"`
	Sortable    *bool  `json:"sortable,omitempty"`
	Facetable   *bool  `json:"facetable,omitempty"`
	Retrievable *bool  `json:"retrievable,omitempty"`
}

// Index is a search index definition, as returned by GET /indexes/{name}.
type Index struct {
	Name   string       `json:"name"`
	Fields []IndexField `json:"fields,omitempty"`
	ETag   string       `json:"@odata.etag,omitempty"`
}

// KeyField returns the name of the key field, or "" if none is marked.
func (i *Index) KeyField() string {
	for _, f := range i.Fields {
		if f.Key {
			return f.Name
		}
	}
	return ""
}

// HasField reports whether the index defines a top-level field called name.
func (i *Index) HasField(name string) bool {
	for _, f := range i.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// ListResponse is the service's collection envelope.
type ListResponse[T any] struct {
	Value []T `json:"value"`
}
