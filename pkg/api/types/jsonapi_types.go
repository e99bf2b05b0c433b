package types

// Subset of https://jsonapi.org/format/1.0/ as spoken by the catalog service.

// CollectionDocument is the top-level document returned by filtered reads.
type CollectionDocument struct {
	Data   []Resource `json:"data"`
	Links  *Links     `json:"links,omitempty"`
	Errors []Error    `json:"errors,omitempty"`
}

// SingleDocument wraps exactly one resource. It is used for create and update.
type SingleDocument struct {
	Data   Resource `json:"data"`
	Errors []Error  `json:"errors,omitempty"`
}

// ErrorDocument is returned by the service on non-2xx responses.
type ErrorDocument struct {
	Errors []Error `json:"errors"`
}

type Links struct {
	Next string `json:"next,omitempty"`
}

type Resource struct {
	Type          string                  `json:"type"`
	ID            string                  `json:"id,omitempty"`
	Attributes    map[string]any          `json:"attributes,omitempty"`
	Relationships map[string]Relationship `json:"relationships,omitempty"`
}

// Relationship only models to-many linkage; the catalog has no to-one relationships we consume.
type Relationship struct {
	Data []Identifier `json:"data"`
}

type Identifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type Error struct {
	Status string `json:"status,omitempty"`
	Title  string `json:"title,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// IDs returns the identifiers of the named relationship, or nil when it is absent.
func (r Resource) IDs(relationship string) []string {
	rel, ok := r.Relationships[relationship]
	if !ok || len(rel.Data) == 0 {
		return nil
	}
	ids := make([]string, 0, len(rel.Data))
	for _, d := range rel.Data {
		ids = append(ids, d.ID)
	}
	return ids
}
