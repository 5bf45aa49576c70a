package builder

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarkg/scholarkg/internal/models"
	"github.com/scholarkg/scholarkg/internal/rdf"
)

func newTestBuilder() *Builder {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(logger)
}

func fixtureArtifacts() *models.Artifacts {
	arts := models.NewArtifacts()
	arts.Papers["p1"] = models.Paper{
		ID:       "p1",
		Title:    "A Study of X",
		Abstract: "We study X.",
		Authors:  []string{"J. Doe"},
	}
	arts.Papers["p2"] = models.Paper{
		ID:       "p2",
		Title:    "Another Study",
		Abstract: "We study Y.",
	}
	arts.Topics["p1"] = 0
	arts.Similarity = []models.SimilarityPair{
		{Paper1: "p1", Paper2: "p2", Similarity: 0.82},
	}
	return arts
}

func TestBuildEndToEnd(t *testing.T) {
	store, report, err := newTestBuilder().Build(fixtureArtifacts())
	require.NoError(t, err)

	p1 := rdf.PaperURI("p1")
	p2 := rdf.PaperURI("p2")
	topic := rdf.TopicURI("0")

	// Two paper nodes with full base metadata.
	assert.True(t, store.Contains(rdf.Triple{Subject: p1, Predicate: rdf.PredType, Object: rdf.IRI(rdf.ClassPaper)}))
	assert.True(t, store.Contains(rdf.Triple{Subject: p2, Predicate: rdf.PredType, Object: rdf.IRI(rdf.ClassPaper)}))
	assert.True(t, store.Contains(rdf.Triple{Subject: p1, Predicate: rdf.PredTitle, Object: rdf.Literal("A Study of X")}))
	assert.True(t, store.Contains(rdf.Triple{Subject: p2, Predicate: rdf.PredAbstract, Object: rdf.Literal("We study Y.")}))
	assert.True(t, store.Contains(rdf.Triple{Subject: p1, Predicate: rdf.PredIdentifier, Object: rdf.Literal("p1")}))

	// One topic node, linked only to p1.
	assert.True(t, store.Contains(rdf.Triple{Subject: topic, Predicate: rdf.PredType, Object: rdf.IRI(rdf.ClassTopic)}))
	assert.True(t, store.Contains(rdf.Triple{Subject: topic, Predicate: rdf.PredIdentifier, Object: rdf.Literal("0")}))
	assert.True(t, store.Contains(rdf.Triple{Subject: p1, Predicate: rdf.PredTopic, Object: rdf.IRI(topic)}))
	assert.False(t, store.Contains(rdf.Triple{Subject: p2, Predicate: rdf.PredTopic, Object: rdf.IRI(topic)}))

	// Symmetric similarity edges.
	assert.True(t, store.Contains(rdf.Triple{Subject: p1, Predicate: rdf.PredSimilarTo, Object: rdf.IRI(p2)}))
	assert.True(t, store.Contains(rdf.Triple{Subject: p2, Predicate: rdf.PredSimilarTo, Object: rdf.IRI(p1)}))

	// One creator edge from p1 to a Person node for the author.
	author := "http://example.org/person_J.%20Doe"
	assert.True(t, store.Contains(rdf.Triple{Subject: p1, Predicate: rdf.PredCreator, Object: rdf.IRI(author)}))
	assert.True(t, store.Contains(rdf.Triple{Subject: author, Predicate: rdf.PredType, Object: rdf.IRI(rdf.ClassPerson)}))

	// No acknowledgement edges with empty enrichment.
	assert.Equal(t, 0, report.Stats.AcknowledgementEdges)
	assert.Equal(t, 2, report.Stats.Papers)
	assert.Equal(t, 1, report.Stats.Topics)
	assert.Equal(t, 2, report.Stats.SimilarityEdges)
	assert.Equal(t, store.Len(), report.Stats.Triples)
}

func TestBuildIdempotent(t *testing.T) {
	b := newTestBuilder()
	first, _, err := b.Build(fixtureArtifacts())
	require.NoError(t, err)
	second, _, err := b.Build(fixtureArtifacts())
	require.NoError(t, err)

	assert.True(t, first.Equal(second), "identical inputs must produce identical stores")
}

func TestBuildDeterministicUnderReordering(t *testing.T) {
	reordered := fixtureArtifacts()
	// Reverse the slice inputs; map iteration order varies by itself.
	for i, j := 0, len(reordered.Similarity)-1; i < j; i, j = i+1, j-1 {
		reordered.Similarity[i], reordered.Similarity[j] = reordered.Similarity[j], reordered.Similarity[i]
	}

	first, _, err := newTestBuilder().Build(fixtureArtifacts())
	require.NoError(t, err)
	second, _, err := newTestBuilder().Build(reordered)
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
}

func TestBuildRequiresPaperMetadata(t *testing.T) {
	_, _, err := newTestBuilder().Build(models.NewArtifacts())
	assert.Error(t, err)

	_, _, err = newTestBuilder().Build(nil)
	assert.Error(t, err)
}

func TestBuildGracefulDegradation(t *testing.T) {
	arts := models.NewArtifacts()
	arts.Papers["p1"] = models.Paper{ID: "p1", Title: "Only Paper", Abstract: ""}

	store, report, err := newTestBuilder().Build(arts)
	require.NoError(t, err)

	p1 := rdf.PaperURI("p1")
	assert.True(t, store.Contains(rdf.Triple{Subject: p1, Predicate: rdf.PredType, Object: rdf.IRI(rdf.ClassPaper)}))
	assert.True(t, store.Contains(rdf.Triple{Subject: p1, Predicate: rdf.PredTitle, Object: rdf.Literal("Only Paper")}))
	assert.True(t, store.Contains(rdf.Triple{Subject: p1, Predicate: rdf.PredAbstract, Object: rdf.Literal("")}))

	for _, stage := range report.Stages {
		assert.False(t, stage.Ran, "stage %s should be skipped with no input", stage.Name)
	}
	assert.Equal(t, 0, report.Stats.Topics)
	assert.Equal(t, 0, report.Stats.SimilarityEdges)
	assert.Equal(t, 0, report.Stats.AcknowledgementEdges)
}

func TestBuildSimilaritySymmetryAndDangling(t *testing.T) {
	arts := models.NewArtifacts()
	arts.Papers["p1"] = models.Paper{ID: "p1", Title: "Known"}
	arts.Similarity = []models.SimilarityPair{
		{Paper1: "p1", Paper2: "ghost", Similarity: 0.9},
		{Paper1: "p1", Paper2: "ghost", Similarity: 0.9}, // duplicate collapses
	}

	store, report, err := newTestBuilder().Build(arts)
	require.NoError(t, err)

	p1 := rdf.PaperURI("p1")
	ghost := rdf.PaperURI("ghost")
	assert.True(t, store.Contains(rdf.Triple{Subject: p1, Predicate: rdf.PredSimilarTo, Object: rdf.IRI(ghost)}),
		"pairs referencing unknown papers are still emitted by URI")
	assert.True(t, store.Contains(rdf.Triple{Subject: ghost, Predicate: rdf.PredSimilarTo, Object: rdf.IRI(p1)}))
	assert.Equal(t, 2, report.Stats.SimilarityEdges)

	// Symmetry holds for every stored similar_to triple.
	for _, triple := range store.Triples() {
		if triple.Predicate != rdf.PredSimilarTo {
			continue
		}
		reverse := rdf.Triple{Subject: triple.Object.Value, Predicate: rdf.PredSimilarTo, Object: rdf.IRI(triple.Subject)}
		assert.True(t, store.Contains(reverse))
	}
}

func TestBuildAcknowledgements(t *testing.T) {
	arts := models.NewArtifacts()
	arts.Papers["p1"] = models.Paper{ID: "p1", Title: "Funded Work"}
	arts.KnowledgeBase["p1"] = models.PaperEntities{
		Persons: []models.EntityMention{
			{Name: "A. Einstein", WikidataID: "Q937"},
			{Name: "Unlinked Person"},
		},
		Organizations: []models.EntityMention{
			{Name: "MIT", WikidataID: "Q49108"},
		},
	}
	arts.Registry["p1"] = []models.RegistryMention{
		{Name: "MIT", RegistryID: "042nb2s44"},
	}

	store, report, err := newTestBuilder().Build(arts)
	require.NoError(t, err)

	p1 := rdf.PaperURI("p1")
	assert.True(t, store.Contains(rdf.Triple{Subject: p1, Predicate: rdf.PredAcknowledges, Object: rdf.IRI("http://www.wikidata.org/entity/Q937")}))
	assert.True(t, store.Contains(rdf.Triple{Subject: p1, Predicate: rdf.PredAcknowledges, Object: rdf.IRI("http://example.org/person_Unlinked%20Person")}))

	// The same organization reached through both namespaces yields two
	// edges and two nodes; no cross-namespace merge is attempted.
	assert.True(t, store.Contains(rdf.Triple{Subject: p1, Predicate: rdf.PredAcknowledges, Object: rdf.IRI("http://www.wikidata.org/entity/Q49108")}))
	assert.True(t, store.Contains(rdf.Triple{Subject: p1, Predicate: rdf.PredAcknowledges, Object: rdf.IRI("https://ror.org/042nb2s44")}))

	assert.Equal(t, 4, report.Stats.AcknowledgementEdges)
}

func TestBuildEnrichmentForUnknownPaperIgnored(t *testing.T) {
	arts := models.NewArtifacts()
	arts.Papers["p1"] = models.Paper{ID: "p1", Title: "Known"}
	arts.KnowledgeBase["ghost"] = models.PaperEntities{
		Persons: []models.EntityMention{{Name: "Nobody"}},
	}

	store, report, err := newTestBuilder().Build(arts)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Stats.AcknowledgementEdges,
		"paper metadata is the authoritative paper set")
	for _, triple := range store.Triples() {
		assert.NotEqual(t, rdf.PredAcknowledges, triple.Predicate)
	}
}
