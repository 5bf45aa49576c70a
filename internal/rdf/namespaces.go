package rdf

import "net/url"

// Namespace IRIs used across the graph.
const (
	NSLocal    = "http://example.org/"
	NSWikidata = "http://www.wikidata.org/entity/"
	NSROR      = "https://ror.org/"
	NSDCTerms  = "http://purl.org/dc/terms/"
	NSFOAF     = "http://xmlns.com/foaf/0.1/"
	NSRDF      = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
)

// Predicates.
const (
	PredType         = NSRDF + "type"
	PredTitle        = NSDCTerms + "title"
	PredAbstract     = NSDCTerms + "abstract"
	PredIdentifier   = NSDCTerms + "identifier"
	PredCreator      = NSDCTerms + "creator"
	PredName         = NSFOAF + "name"
	PredTopic        = NSLocal + "belongs_to_topic"
	PredAcknowledges = NSLocal + "acknowledges"
	PredSimilarTo    = NSLocal + "similar_to"
)

// Classes.
const (
	ClassPaper        = NSLocal + "Paper"
	ClassTopic        = NSLocal + "Topic"
	ClassPerson       = NSFOAF + "Person"
	ClassOrganization = NSFOAF + "Organization"
)

// prefixes maps prefix labels to namespace IRIs for Turtle output.
// Order is fixed so serialization stays deterministic.
var prefixes = []struct {
	Label string
	IRI   string
}{
	{"ex", NSLocal},
	{"wd", NSWikidata},
	{"ror", NSROR},
	{"dcterms", NSDCTerms},
	{"foaf", NSFOAF},
	{"rdf", NSRDF},
}

// PaperURI mints the URI for a paper from its stable identifier.
// Percent-encoding keeps the URI valid for any identifier the upstream
// extraction stage produces.
func PaperURI(id string) string {
	return NSLocal + "paper_" + url.PathEscape(id)
}

// TopicURI mints the URI for a topic from its cluster id.
func TopicURI(id string) string {
	return NSLocal + "topic_" + url.PathEscape(id)
}
