package schema

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Identifiers of the built-in schema documents.
const (
	ContributionsRequest ID = "com.retail.winner/contributions-request/1-0-0"
	ContributionItems    ID = "com.retail.winner/contribution-items/1-0-0"
	ScoresRequest        ID = "com.retail.winner/scores-request/1-0-0"
	ScoreItems           ID = "com.retail.winner/score-items/1-0-0"
	PopularityRequest    ID = "com.retail.winner/popularity-request/1-0-0"
	PopularityItems      ID = "com.retail.winner/popularity-items/1-0-0"
)

// Required lists every schema the operation handlers depend on.
var Required = []ID{
	ContributionsRequest, ContributionItems,
	ScoresRequest, ScoreItems,
	PopularityRequest, PopularityItems,
}

//go:embed documents/*.json
var builtinFS embed.FS

// Load builds a registry from the embedded documents. When dir is not empty,
// every .json, .yaml or .yml document in it replaces the embedded document
// with the same id, or adds a new one. The result must contain Required.
func Load(dir string) (*Registry, error) {
	docs := make(map[ID]Document)

	embedded, err := readDocuments(builtinFS, "documents")
	if err != nil {
		return nil, err
	}
	for _, doc := range embedded {
		docs[doc.Self.ID()] = doc
	}

	if strings.TrimSpace(dir) != "" {
		external, err := readDocuments(os.DirFS(dir), ".")
		if err != nil {
			return nil, err
		}
		for _, doc := range external {
			docs[doc.Self.ID()] = doc
		}
	}

	ids := make([]ID, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	r := NewRegistry()
	for _, id := range ids {
		if _, err := r.Register(docs[id]); err != nil {
			return nil, err
		}
	}
	if err := r.Require(Required...); err != nil {
		return nil, err
	}
	return r, nil
}

func readDocuments(fsys fs.FS, dir string) ([]Document, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrInvalidDocument, dir, err)
	}
	var docs []Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(path.Ext(entry.Name()))
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			continue
		}
		raw, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrInvalidDocument, entry.Name(), err)
		}
		if ext != ".json" {
			if raw, err = yamlToJSON(raw); err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrInvalidDocument, entry.Name(), err)
			}
		}
		doc, err := ParseDocument(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// yamlToJSON re-encodes a YAML document as JSON so it can be decoded into
// jsonschema.Schema, which only understands JSON.
func yamlToJSON(raw []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}
