package container

// Default-assay resolution order: log-normalized first, then otherwise
// normalized, then raw counts, then whatever assay was registered first.
var assayPriority = []string{"logcounts", "normcounts", "counts"}

// DefaultAssay returns the assay name the accessor uses when no explicit
// assay override is supplied.
func (c *Container) DefaultAssay() (string, error) {
	for _, name := range assayPriority {
		if _, ok := c.assays[name]; ok {
			return name, nil
		}
	}
	if len(c.assayOrder) > 0 {
		return c.assayOrder[0], nil
	}
	return "", &NotFoundError{Kind: "assay", Name: "(none registered)"}
}

// AssayNames returns registered assay names in registration order.
func (c *Container) AssayNames() []string {
	out := make([]string, len(c.assayOrder))
	copy(out, c.assayOrder)
	return out
}

// MetadataNames returns the annotation column names in declaration order,
// with the synthetic "ident" alias appended when it is not itself a
// declared column.
func (c *Container) MetadataNames() []string {
	out := make([]string, 0, len(c.annOrder)+1)
	out = append(out, c.annOrder...)
	if _, declared := c.annotations[IdentName]; !declared {
		out = append(out, IdentName)
	}
	return out
}

// HasMetadata reports whether name resolves as a metadata column.
func (c *Container) HasMetadata(name string) bool {
	if _, ok := c.annotations[name]; ok {
		return true
	}
	return name == IdentName
}

// Metadata returns the annotation column for name, aligned to container
// observation order. "ident" resolves to the designated identity column,
// or to a single-level constant column when none is designated.
func (c *Container) Metadata(name string) (Annotation, error) {
	if a, ok := c.annotations[name]; ok {
		return a, nil
	}
	if name == IdentName {
		if c.identColumn != "" {
			if a, ok := c.annotations[c.identColumn]; ok {
				return Annotation{Name: IdentName, Kind: a.Kind, Numeric: a.Numeric, Values: a.Values}, nil
			}
		}
		values := make([]string, c.NObs())
		for i := range values {
			values[i] = "all"
		}
		return Annotation{Name: IdentName, Kind: Categorical, Values: values}, nil
	}
	return Annotation{}, &NotFoundError{Kind: "metadata", Name: name}
}

// FeatureNames returns feature names across all assays, de-duplicated in
// first-seen order (assay registration order, then row order).
func (c *Container) FeatureNames() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, assayName := range c.assayOrder {
		for _, f := range c.assays[assayName].Features {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	return out
}

// HasFeature reports whether any registered assay carries the feature.
// Lookup is case-sensitive.
func (c *Container) HasFeature(name string) bool {
	for _, assayName := range c.assayOrder {
		if _, ok := c.assays[assayName].featureIndex[name]; ok {
			return true
		}
	}
	return false
}

// Feature returns the expression vector of a feature from the selected
// assay, aligned to container observation order. With no assay argument
// the default-assay priority applies. The feature must be present in the
// selected assay specifically.
func (c *Container) Feature(name string, assay ...string) ([]float64, error) {
	assayName, err := c.resolveAssay(assay)
	if err != nil {
		return nil, err
	}
	a := c.assays[assayName]
	i, ok := a.featureIndex[name]
	if !ok {
		return nil, &NotFoundError{Kind: "feature", Name: name + " (assay " + assayName + ")"}
	}
	out := make([]float64, c.NObs())
	copy(out, a.Row(i))
	return out, nil
}

func (c *Container) resolveAssay(assay []string) (string, error) {
	if len(assay) > 0 && assay[0] != "" {
		name := assay[0]
		if _, ok := c.assays[name]; !ok {
			return "", &NotFoundError{Kind: "assay", Name: name}
		}
		return name, nil
	}
	return c.DefaultAssay()
}

// EmbeddingNames returns embedding names in registration order.
func (c *Container) EmbeddingNames() []string {
	out := make([]string, len(c.embOrder))
	copy(out, c.embOrder)
	return out
}

// HasEmbedding reports whether name is a registered embedding.
func (c *Container) HasEmbedding(name string) bool {
	_, ok := c.embeddings[name]
	return ok
}

// Embedding returns the named embedding.
func (c *Container) Embedding(name string) (*Embedding, error) {
	e, ok := c.embeddings[name]
	if !ok {
		return nil, &NotFoundError{Kind: "embedding", Name: name}
	}
	return e, nil
}

// VarKind identifies the namespace a name resolved against.
type VarKind int

const (
	KindMetadata VarKind = iota
	KindFeature
	KindEmbedding
)

func (k VarKind) String() string {
	switch k {
	case KindFeature:
		return "feature"
	case KindEmbedding:
		return "embedding"
	default:
		return "metadata"
	}
}

// Resolution is the result of a unified name lookup. Kind surfaces which
// namespace won, so callers can see the tie-break when a name exists in
// more than one.
type Resolution struct {
	Name string
	Kind VarKind
}

// Resolve looks a name up against metadata columns, feature names, and
// embedding names, in that precedence order (an annotation column shadows
// a feature of the same name). A name found in none of the three fails
// with VariableNotFoundError.
func (c *Container) Resolve(name string) (Resolution, error) {
	if c.HasMetadata(name) {
		return Resolution{Name: name, Kind: KindMetadata}, nil
	}
	if c.HasFeature(name) {
		return Resolution{Name: name, Kind: KindFeature}, nil
	}
	if c.HasEmbedding(name) {
		return Resolution{Name: name, Kind: KindEmbedding}, nil
	}
	return Resolution{}, &VariableNotFoundError{Name: name}
}
