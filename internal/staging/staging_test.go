package staging

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarkg/scholarkg/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	store, err := Open("sqlite3", ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func stagedFixture() *models.Artifacts {
	arts := models.NewArtifacts()
	arts.Papers["p1"] = models.Paper{
		ID:               "p1",
		Title:            "A Study of X",
		Abstract:         "We study X.",
		Acknowledgements: "We thank MIT.",
		Authors:          []string{"J. Doe", "R. Roe"},
	}
	arts.Papers["p2"] = models.Paper{ID: "p2", Title: "Another Study"}
	arts.Topics = map[string]int{"p1": 0}
	arts.Similarity = []models.SimilarityPair{{Paper1: "p1", Paper2: "p2", Similarity: 0.82}}
	arts.KnowledgeBase["p1"] = models.PaperEntities{
		Persons:       []models.EntityMention{{Name: "A. Einstein", WikidataID: "Q937"}},
		Organizations: []models.EntityMention{{Name: "MIT", WikidataID: "Q49108"}},
	}
	arts.Registry["p1"] = []models.RegistryMention{{Name: "MIT", RegistryID: "042nb2s44"}}
	return arts
}

func TestStageAllRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.StageAll(ctx, stagedFixture()))

	loaded, err := store.LoadArtifacts(ctx)
	require.NoError(t, err)

	require.Len(t, loaded.Papers, 2)
	assert.Equal(t, "A Study of X", loaded.Papers["p1"].Title)
	assert.Equal(t, "We thank MIT.", loaded.Papers["p1"].Acknowledgements)
	assert.Equal(t, []string{"J. Doe", "R. Roe"}, loaded.Papers["p1"].Authors)
	assert.Empty(t, loaded.Papers["p2"].Authors)

	assert.Equal(t, map[string]int{"p1": 0}, loaded.Topics)

	require.Len(t, loaded.Similarity, 1)
	assert.Equal(t, models.SimilarityPair{Paper1: "p1", Paper2: "p2", Similarity: 0.82}, loaded.Similarity[0])

	require.Contains(t, loaded.KnowledgeBase, "p1")
	assert.Equal(t, "Q937", loaded.KnowledgeBase["p1"].Persons[0].WikidataID)
	assert.Equal(t, "Q49108", loaded.KnowledgeBase["p1"].Organizations[0].WikidataID)

	require.Contains(t, loaded.Registry, "p1")
	assert.Equal(t, "042nb2s44", loaded.Registry["p1"][0].RegistryID)
}

func TestStagingUpsertIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.StageAll(ctx, stagedFixture()))
	require.NoError(t, store.StageAll(ctx, stagedFixture()))

	loaded, err := store.LoadArtifacts(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded.Papers, 2)
	assert.Len(t, loaded.Similarity, 1)
	assert.Len(t, loaded.KnowledgeBase["p1"].Persons, 1)
	assert.Len(t, loaded.Registry["p1"], 1)
}

func TestStagingUpsertOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.StagePapers(ctx, []models.Paper{{ID: "p1", Title: "Old Title"}}))
	require.NoError(t, store.StagePapers(ctx, []models.Paper{{ID: "p1", Title: "New Title"}}))

	paper, err := store.GetPaper(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "New Title", paper.Title)
}

func TestGetPaperNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetPaper(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadArtifactsDropsOutlierTopics(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.StagePapers(ctx, []models.Paper{{ID: "p1"}, {ID: "p2"}}))
	require.NoError(t, store.StageTopics(ctx, map[string]int{"p1": 3, "p2": -1}))

	loaded, err := store.LoadArtifacts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"p1": 3}, loaded.Topics)
}
