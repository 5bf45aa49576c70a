// Package query exposes read-only projections over a built knowledge
// graph. An Index is built once from a loaded store and is immutable
// afterward, so any number of queries may run concurrently against it.
package query

import (
	"sort"

	"github.com/scholarkg/scholarkg/internal/rdf"
)

// PaperRef identifies a paper in list projections.
type PaperRef struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// PaperDetails is the detail projection for one paper.
type PaperDetails struct {
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
}

// EntityRef identifies a person or organization in roster projections.
type EntityRef struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

// PaperTopic is one row of the papers-by-topic projection. Topic fields
// are nil for papers that clustering excluded; such papers still appear
// exactly once.
type PaperTopic struct {
	Paper    string  `json:"paper"`
	Title    string  `json:"title"`
	TopicURI *string `json:"topic_uri"`
	TopicID  *string `json:"topic_id"`
}

// Index holds adjacency maps keyed by relation, built once after load.
// This preserves the declarative pattern-matching shape of the queries
// without a query-language interpreter.
type Index struct {
	// outgoing[pred][subject] lists object terms in insertion order of
	// the sorted store, so projections are deterministic.
	outgoing map[string]map[string][]rdf.Term
	// incoming[pred][objectIRI] lists subjects.
	incoming map[string]map[string][]string
	types    map[string]map[string]bool
}

// NewIndex builds the query index for a store.
func NewIndex(store *rdf.Store) *Index {
	ix := &Index{
		outgoing: make(map[string]map[string][]rdf.Term),
		incoming: make(map[string]map[string][]string),
		types:    make(map[string]map[string]bool),
	}
	for _, t := range store.Triples() {
		out := ix.outgoing[t.Predicate]
		if out == nil {
			out = make(map[string][]rdf.Term)
			ix.outgoing[t.Predicate] = out
		}
		out[t.Subject] = append(out[t.Subject], t.Object)

		if !t.Object.Literal {
			in := ix.incoming[t.Predicate]
			if in == nil {
				in = make(map[string][]string)
				ix.incoming[t.Predicate] = in
			}
			in[t.Object.Value] = append(in[t.Object.Value], t.Subject)
		}

		if t.Predicate == rdf.PredType {
			classes := ix.types[t.Subject]
			if classes == nil {
				classes = make(map[string]bool)
				ix.types[t.Subject] = classes
			}
			classes[t.Object.Value] = true
		}
	}
	return ix
}

// Load reads a persisted store and builds its index.
func Load(path string) (*Index, error) {
	store, err := rdf.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewIndex(store), nil
}

// AllPapers lists every paper with a title, sorted by title then URI.
func (ix *Index) AllPapers() []PaperRef {
	papers := make([]PaperRef, 0)
	for uri := range ix.types {
		if !ix.types[uri][rdf.ClassPaper] {
			continue
		}
		title, ok := ix.literal(uri, rdf.PredTitle)
		if !ok {
			continue
		}
		papers = append(papers, PaperRef{URI: uri, Title: title})
	}
	sortPaperRefs(papers)
	return papers
}

// PapersByTopic lists every paper with its topic assignment, left-outer:
// papers without a topic appear once with nil topic fields.
func (ix *Index) PapersByTopic() []PaperTopic {
	rows := make([]PaperTopic, 0)
	for _, paper := range ix.AllPapers() {
		row := PaperTopic{Paper: paper.URI, Title: paper.Title}
		for _, obj := range ix.outgoing[rdf.PredTopic][paper.URI] {
			if obj.Literal {
				continue
			}
			topicURI := obj.Value
			row.TopicURI = &topicURI
			if id, ok := ix.literal(topicURI, rdf.PredIdentifier); ok {
				row.TopicID = &id
			}
			break
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch {
		case a.TopicID == nil && b.TopicID != nil:
			return false
		case a.TopicID != nil && b.TopicID == nil:
			return true
		case a.TopicID != nil && b.TopicID != nil && *a.TopicID != *b.TopicID:
			return *a.TopicID < *b.TopicID
		}
		return a.Title < b.Title
	})
	return rows
}

// PaperDetails returns the title and abstract for a paper URI. The second
// return is false when the store has no complete title+abstract pair for
// the URI; an unknown URI is a miss, never an error.
func (ix *Index) PaperDetails(uri string) (PaperDetails, bool) {
	title, okTitle := ix.literal(uri, rdf.PredTitle)
	abstract, okAbstract := ix.literal(uri, rdf.PredAbstract)
	if !okTitle || !okAbstract {
		return PaperDetails{}, false
	}
	return PaperDetails{Title: title, Abstract: abstract}, true
}

// SimilarPapers lists papers related to uri through the similarity
// relation. Both stored directions are consulted, so the result does not
// depend on which direction a pair was recorded in.
func (ix *Index) SimilarPapers(uri string) []PaperRef {
	seen := make(map[string]bool)
	papers := make([]PaperRef, 0)
	add := func(candidate string) {
		if seen[candidate] {
			return
		}
		seen[candidate] = true
		title, ok := ix.literal(candidate, rdf.PredTitle)
		if !ok {
			return // dangling similarity target, nothing to show
		}
		papers = append(papers, PaperRef{URI: candidate, Title: title})
	}
	for _, obj := range ix.outgoing[rdf.PredSimilarTo][uri] {
		if !obj.Literal {
			add(obj.Value)
		}
	}
	for _, subj := range ix.incoming[rdf.PredSimilarTo][uri] {
		add(subj)
	}
	sortPaperRefs(papers)
	return papers
}

// Organizations lists every organization acknowledged by any paper,
// distinct by URI.
func (ix *Index) Organizations() []EntityRef {
	seen := make(map[string]bool)
	orgs := make([]EntityRef, 0)
	for _, targets := range ix.outgoing[rdf.PredAcknowledges] {
		for _, obj := range targets {
			if obj.Literal || seen[obj.Value] {
				continue
			}
			seen[obj.Value] = true
			if ref, ok := ix.entityRef(obj.Value, rdf.ClassOrganization); ok {
				orgs = append(orgs, ref)
			}
		}
	}
	sortEntityRefs(orgs)
	return orgs
}

// OrganizationsForPaper lists organizations acknowledged by one paper.
func (ix *Index) OrganizationsForPaper(uri string) []EntityRef {
	return ix.acknowledged(uri, rdf.ClassOrganization)
}

// PeopleForPaper lists persons acknowledged by one paper.
func (ix *Index) PeopleForPaper(uri string) []EntityRef {
	return ix.acknowledged(uri, rdf.ClassPerson)
}

func (ix *Index) acknowledged(uri, class string) []EntityRef {
	seen := make(map[string]bool)
	refs := make([]EntityRef, 0)
	for _, obj := range ix.outgoing[rdf.PredAcknowledges][uri] {
		if obj.Literal || seen[obj.Value] {
			continue
		}
		seen[obj.Value] = true
		if ref, ok := ix.entityRef(obj.Value, class); ok {
			refs = append(refs, ref)
		}
	}
	sortEntityRefs(refs)
	return refs
}

func (ix *Index) entityRef(uri, class string) (EntityRef, bool) {
	if !ix.types[uri][class] {
		return EntityRef{}, false
	}
	name, ok := ix.literal(uri, rdf.PredName)
	if !ok {
		return EntityRef{}, false
	}
	return EntityRef{URI: uri, Name: name}, true
}

// literal returns the first literal object of (subject, predicate).
func (ix *Index) literal(subject, predicate string) (string, bool) {
	for _, obj := range ix.outgoing[predicate][subject] {
		if obj.Literal {
			return obj.Value, true
		}
	}
	return "", false
}

func sortPaperRefs(papers []PaperRef) {
	sort.Slice(papers, func(i, j int) bool {
		if papers[i].Title != papers[j].Title {
			return papers[i].Title < papers[j].Title
		}
		return papers[i].URI < papers[j].URI
	})
}

func sortEntityRefs(refs []EntityRef) {
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Name != refs[j].Name {
			return refs[i].Name < refs[j].Name
		}
		return refs[i].URI < refs[j].URI
	})
}
