// Package artifacts reads the JSON artifacts produced by the upstream
// pipeline stages. Paper metadata is the only required input; every other
// artifact degrades to empty when its file is missing.
package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/scholarkg/scholarkg/internal/models"
)

// Artifact file names inside the artifacts directory, matching what the
// upstream stages write.
const (
	papersDir         = "papers"
	topicsFile        = "topic_assignments.json"
	similarityFile    = "similar_pairs.json"
	knowledgeBaseFile = "enriched_wikidata.json"
	registryFile      = "enriched_ror.json"
)

// Loader reads one artifacts directory.
type Loader struct {
	dir    string
	logger *logrus.Logger
}

// NewLoader returns a loader rooted at dir.
func NewLoader(dir string, logger *logrus.Logger) *Loader {
	return &Loader{dir: dir, logger: logger}
}

// Load reads all artifacts. The five inputs are independent files, so they
// load concurrently; each goroutine fills a distinct field of the result.
// Missing optional artifacts are logged and left empty. A missing or empty
// paper set is an error: the builder has nothing to build from.
func (l *Loader) Load(ctx context.Context) (*models.Artifacts, error) {
	arts := models.NewArtifacts()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		papers, err := l.loadPapers(ctx)
		if err != nil {
			return err
		}
		arts.Papers = papers
		return nil
	})
	g.Go(func() error {
		arts.Topics = l.loadTopics()
		return nil
	})
	g.Go(func() error {
		arts.Similarity = l.loadSimilarity()
		return nil
	})
	g.Go(func() error {
		arts.KnowledgeBase = l.loadKnowledgeBase()
		return nil
	})
	g.Go(func() error {
		arts.Registry = l.loadRegistry()
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return arts, nil
}

func (l *Loader) loadPapers(ctx context.Context) (map[string]models.Paper, error) {
	dir := filepath.Join(l.dir, papersDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read paper metadata directory %s: %w", dir, err)
	}

	papers := make(map[string]models.Paper)
	for _, entry := range entries {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			l.logger.WithError(err).WithField("file", path).Warn("skipping unreadable paper record")
			continue
		}
		var paper models.Paper
		if err := json.Unmarshal(data, &paper); err != nil {
			l.logger.WithError(err).WithField("file", path).Warn("skipping malformed paper record")
			continue
		}
		if paper.ID == "" {
			// The id is derived from the source filename upstream; fall
			// back to the same derivation when the field is absent.
			paper.ID = strings.TrimSuffix(entry.Name(), ".json")
		}
		papers[paper.ID] = paper
	}

	if len(papers) == 0 {
		return nil, fmt.Errorf("no paper metadata records in %s", dir)
	}
	return papers, nil
}

func (l *Loader) loadTopics() map[string]int {
	raw := make(map[string]int)
	if !l.readOptional(topicsFile, &raw) {
		return map[string]int{}
	}
	topics := make(map[string]int, len(raw))
	for id, topic := range raw {
		if topic < 0 {
			// Negative ids are the clusterer's outlier sentinel: no topic.
			continue
		}
		topics[id] = topic
	}
	return topics
}

func (l *Loader) loadSimilarity() []models.SimilarityPair {
	var pairs []models.SimilarityPair
	if !l.readOptional(similarityFile, &pairs) {
		return nil
	}
	return pairs
}

func (l *Loader) loadKnowledgeBase() map[string]models.PaperEntities {
	out := make(map[string]models.PaperEntities)
	if !l.readOptional(knowledgeBaseFile, &out) {
		return map[string]models.PaperEntities{}
	}
	return out
}

func (l *Loader) loadRegistry() map[string][]models.RegistryMention {
	out := make(map[string][]models.RegistryMention)
	if !l.readOptional(registryFile, &out) {
		return map[string][]models.RegistryMention{}
	}
	return out
}

// readOptional decodes an optional artifact into v, reporting whether the
// artifact was present and well formed. Absence and decode failures both
// degrade to "stage skipped".
func (l *Loader) readOptional(name string, v any) bool {
	path := filepath.Join(l.dir, name)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		l.logger.WithField("artifact", name).Warn("optional artifact missing, stage will be skipped")
		return false
	}
	if err != nil {
		l.logger.WithError(err).WithField("artifact", name).Warn("optional artifact unreadable, stage will be skipped")
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		l.logger.WithError(err).WithField("artifact", name).Warn("optional artifact malformed, stage will be skipped")
		return false
	}
	return true
}
