// Package schema holds the named, immutable JSON Schema documents used to
// validate inbound requests and the records returned by the query store.
package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// ID identifies a schema document as vendor/name/version.
type ID string

// Self describes a schema document.
type Self struct {
	Vendor  string `json:"vendor" yaml:"vendor"`
	Name    string `json:"name" yaml:"name"`
	Format  string `json:"format,omitempty" yaml:"format,omitempty"`
	Version string `json:"version" yaml:"version"`
}

// ID returns the vendor/name/version identifier.
func (s Self) ID() ID {
	return ID(s.Vendor + "/" + s.Name + "/" + s.Version)
}

// Document is a self-describing schema: identity plus the JSON Schema rules.
type Document struct {
	Self   Self               `json:"self"`
	Schema *jsonschema.Schema `json:"schema"`
}

// ParseDocument decodes a JSON schema document.
func ParseDocument(raw []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if doc.Self.Vendor == "" || doc.Self.Name == "" || doc.Self.Version == "" {
		return Document{}, fmt.Errorf("%w: self must name vendor, name and version", ErrInvalidDocument)
	}
	if doc.Schema == nil {
		return Document{}, fmt.Errorf("%w: %s has no schema", ErrInvalidDocument, doc.Self.ID())
	}
	return doc, nil
}

// Registry maps schema ids to resolved schemas.
//
// Registration happens once during startup. After that the registry is only
// read, so Validate is safe for concurrent use without locking; Register
// must not run concurrently with Validate.
type Registry struct {
	schemas map[ID]*jsonschema.Resolved
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[ID]*jsonschema.Resolved)}
}

// Register resolves doc and stores it under its id.
func (r *Registry) Register(doc Document) (ID, error) {
	id := doc.Self.ID()
	if _, ok := r.schemas[id]; ok {
		return "", fmt.Errorf("%w: %s", ErrDuplicateSchema, id)
	}
	if doc.Schema == nil {
		return "", fmt.Errorf("%w: %s has no schema", ErrInvalidDocument, id)
	}
	resolved, err := doc.Schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInvalidDocument, id, err)
	}
	r.schemas[id] = resolved
	return id, nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id ID) bool {
	_, ok := r.schemas[id]
	return ok
}

// IDs returns the registered ids in lexical order.
func (r *Registry) IDs() []ID {
	ids := make([]ID, 0, len(r.schemas))
	for id := range r.schemas {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Require returns an error naming every id that is not registered.
func (r *Registry) Require(ids ...ID) error {
	var missing []string
	for _, id := range ids {
		if !r.Has(id) {
			missing = append(missing, string(id))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownSchema, strings.Join(missing, ", "))
	}
	return nil
}

// Validate checks value against the schema registered under id. It returns
// false and human-readable error text when the value does not conform.
// The value is normalised through JSON first, so structs, typed slices and
// store records are validated by their serialized shape.
func (r *Registry) Validate(id ID, value any) (bool, string) {
	resolved, ok := r.schemas[id]
	if !ok {
		return false, fmt.Sprintf("%s: %s", ErrUnknownSchema, id)
	}
	instance, err := normalize(value)
	if err != nil {
		return false, err.Error()
	}
	if err := resolved.Validate(instance); err != nil {
		return false, err.Error()
	}
	return true, ""
}

func normalize(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("value is not JSON serializable: %w", err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return nil, fmt.Errorf("value is not JSON serializable: %w", err)
	}
	return instance, nil
}
