// Package jsonds reads experiment datasets from JSON files and adapts
// them to the container import interface.
package jsonds

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/atlasmap-sc/cellplot/container"
)

type assayFile struct {
	Name     string    `json:"name"`
	Features []string  `json:"features"`
	Values   []float64 `json:"values"`
}

type annotationFile struct {
	Name    string    `json:"name"`
	Kind    string    `json:"kind"`
	Numeric []float64 `json:"numeric,omitempty"`
	Values  []string  `json:"values,omitempty"`
}

type embeddingFile struct {
	Name   string    `json:"name"`
	Key    string    `json:"key"`
	Dims   int       `json:"dims"`
	Coords []float64 `json:"coords"`
}

type datasetFile struct {
	Obs         []string         `json:"obs"`
	Bulk        bool             `json:"bulk"`
	Ident       string           `json:"ident,omitempty"`
	Assays      []assayFile      `json:"assays"`
	Annotations []annotationFile `json:"annotations,omitempty"`
	Embeddings  []embeddingFile  `json:"embeddings,omitempty"`
}

// Reader is a parsed JSON dataset. It implements container.Source.
type Reader struct {
	file datasetFile

	assays      map[string]assayFile
	annotations map[string]annotationFile
	embeddings  map[string]embeddingFile
}

// Load parses a dataset file.
func Load(path string) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	var file datasetFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}
	if len(file.Obs) == 0 {
		return nil, fmt.Errorf("dataset %s has no observations", path)
	}
	if len(file.Assays) == 0 {
		return nil, fmt.Errorf("dataset %s has no assays", path)
	}

	r := &Reader{
		file:        file,
		assays:      make(map[string]assayFile, len(file.Assays)),
		annotations: make(map[string]annotationFile, len(file.Annotations)),
		embeddings:  make(map[string]embeddingFile, len(file.Embeddings)),
	}
	for _, a := range file.Assays {
		r.assays[a.Name] = a
	}
	for _, a := range file.Annotations {
		r.annotations[a.Name] = a
	}
	for _, e := range file.Embeddings {
		r.embeddings[e.Name] = e
	}
	return r, nil
}

// Ident names the dataset's designated identity column, if any.
func (r *Reader) Ident() string {
	return r.file.Ident
}

// ObservationIDs implements container.Source.
func (r *Reader) ObservationIDs() []string {
	return r.file.Obs
}

// AssayNames implements container.Source, file order.
func (r *Reader) AssayNames() []string {
	names := make([]string, len(r.file.Assays))
	for i, a := range r.file.Assays {
		names[i] = a.Name
	}
	return names
}

// Assay implements container.Source.
func (r *Reader) Assay(name string) ([]string, []float64, error) {
	a, ok := r.assays[name]
	if !ok {
		return nil, nil, &container.NotFoundError{Kind: "assay", Name: name}
	}
	return a.Features, a.Values, nil
}

// AnnotationNames implements container.Source, file order.
func (r *Reader) AnnotationNames() []string {
	names := make([]string, len(r.file.Annotations))
	for i, a := range r.file.Annotations {
		names[i] = a.Name
	}
	return names
}

// Annotation implements container.Source.
func (r *Reader) Annotation(name string) (container.Annotation, error) {
	a, ok := r.annotations[name]
	if !ok {
		return container.Annotation{}, &container.NotFoundError{Kind: "metadata column", Name: name}
	}
	if a.Kind == "categorical" {
		return container.Annotation{
			Name:   a.Name,
			Kind:   container.Categorical,
			Values: a.Values,
		}, nil
	}
	return container.Annotation{
		Name:    a.Name,
		Kind:    container.Numeric,
		Numeric: a.Numeric,
	}, nil
}

// EmbeddingNames implements container.Source, file order.
func (r *Reader) EmbeddingNames() []string {
	names := make([]string, len(r.file.Embeddings))
	for i, e := range r.file.Embeddings {
		names[i] = e.Name
	}
	return names
}

// Embedding implements container.Source.
func (r *Reader) Embedding(name string) (string, int, []float64, error) {
	e, ok := r.embeddings[name]
	if !ok {
		return "", 0, nil, &container.NotFoundError{Kind: "embedding", Name: name}
	}
	key := e.Key
	if key == "" {
		key = e.Name
	}
	return key, e.Dims, e.Coords, nil
}

// IsBulk implements container.Source.
func (r *Reader) IsBulk() bool {
	return r.file.Bulk
}
