// Package models defines the record types exchanged with the upstream
// extraction and enrichment stages. Field presence is the compatibility
// surface: every field except the paper id may be absent upstream and
// decodes to its zero value.
package models

// Paper is the metadata record produced by the extraction stage, one per
// source document. ID is derived from the source filename and must stay
// stable across pipeline runs.
type Paper struct {
	ID               string   `json:"id" db:"id"`
	Title            string   `json:"title" db:"title"`
	Abstract         string   `json:"abstract" db:"abstract"`
	Acknowledgements string   `json:"acknowledgements" db:"acknowledgements"`
	Authors          []string `json:"authors"`
}

// SimilarityPair is one abstract-similarity edge computed upstream.
// The pair is unordered; the builder materializes both directions.
type SimilarityPair struct {
	Paper1     string  `json:"paper1" db:"paper1"`
	Paper2     string  `json:"paper2" db:"paper2"`
	Similarity float64 `json:"similarity" db:"similarity"`
}

// EntityMention is a person or organization mention from the
// knowledge-base enrichment source. WikidataID is empty when the lookup
// found no match.
type EntityMention struct {
	Name       string `json:"name"`
	WikidataID string `json:"wikidata_id"`
}

// PaperEntities groups the knowledge-base mentions for one paper.
type PaperEntities struct {
	Persons       []EntityMention `json:"persons"`
	Organizations []EntityMention `json:"organizations"`
}

// RegistryMention is an organization mention from the research-organization
// registry source. RegistryID is empty when the lookup found no match.
type RegistryMention struct {
	Name       string `json:"name"`
	RegistryID string `json:"ror_id"`
}

// Artifacts is the complete input set for one build pass. Papers is the
// authoritative paper set and the only required member; every other field
// may be empty when its upstream stage did not run.
type Artifacts struct {
	Papers        map[string]Paper
	Topics        map[string]int
	Similarity    []SimilarityPair
	KnowledgeBase map[string]PaperEntities
	Registry      map[string][]RegistryMention
}

// NewArtifacts returns an Artifacts with all maps initialized.
func NewArtifacts() *Artifacts {
	return &Artifacts{
		Papers:        make(map[string]Paper),
		Topics:        make(map[string]int),
		KnowledgeBase: make(map[string]PaperEntities),
		Registry:      make(map[string][]RegistryMention),
	}
}
