// Package staging persists upstream JSON artifacts in a relational store
// so a build can run from a single database instead of a directory of
// files. SQLite serves local runs; Postgres serves shared pipelines.
package staging

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/scholarkg/scholarkg/internal/models"
)

// ErrNotFound is returned when a staged record does not exist.
var ErrNotFound = errors.New("not found")

// Mention sources and kinds as stored in entity_mentions.
const (
	sourceKnowledgeBase = "knowledge_base"
	sourceRegistry      = "registry"
	kindPerson          = "person"
	kindOrganization    = "organization"
)

// Store is a staging database for pipeline artifacts.
type Store struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// Open connects to the staging database. driver is "sqlite3" or
// "postgres"; for sqlite the DSN is a file path whose directory is created
// on demand.
func Open(driver, dsn string, logger *logrus.Logger) (*Store, error) {
	if driver == "sqlite3" {
		dir := filepath.Dir(dsn)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create staging directory: %w", err)
			}
		}
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to staging store: %w", err)
	}
	if driver == "sqlite3" {
		db.Exec("PRAGMA foreign_keys = ON")
		db.Exec("PRAGMA journal_mode = WAL")
	}

	store := &Store{db: db, logger: logger}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init staging schema: %w", err)
	}
	return store, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS papers (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		abstract TEXT NOT NULL DEFAULT '',
		acknowledgements TEXT NOT NULL DEFAULT '',
		authors TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS topic_assignments (
		paper_id TEXT PRIMARY KEY,
		topic_id INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS similarity_pairs (
		paper1 TEXT NOT NULL,
		paper2 TEXT NOT NULL,
		similarity REAL NOT NULL,
		PRIMARY KEY (paper1, paper2)
	);

	CREATE TABLE IF NOT EXISTS entity_mentions (
		paper_id TEXT NOT NULL,
		source TEXT NOT NULL,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		external_id TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (paper_id, source, kind, name)
	);

	CREATE INDEX IF NOT EXISTS idx_mentions_paper ON entity_mentions(paper_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// StagePapers upserts paper metadata records.
func (s *Store) StagePapers(ctx context.Context, papers []models.Paper) error {
	if len(papers) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := s.db.Rebind(`
		INSERT INTO papers (id, title, abstract, acknowledgements, authors)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			abstract = excluded.abstract,
			acknowledgements = excluded.acknowledgements,
			authors = excluded.authors
	`)

	for _, paper := range papers {
		authors, err := json.Marshal(paper.Authors)
		if err != nil {
			return fmt.Errorf("encode authors for %s: %w", paper.ID, err)
		}
		if _, err := tx.ExecContext(ctx, query,
			paper.ID, paper.Title, paper.Abstract, paper.Acknowledgements, string(authors)); err != nil {
			return fmt.Errorf("stage paper %s: %w", paper.ID, err)
		}
	}
	return tx.Commit()
}

// StageTopics upserts topic assignments.
func (s *Store) StageTopics(ctx context.Context, topics map[string]int) error {
	if len(topics) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := s.db.Rebind(`
		INSERT INTO topic_assignments (paper_id, topic_id)
		VALUES (?, ?)
		ON CONFLICT (paper_id) DO UPDATE SET topic_id = excluded.topic_id
	`)
	for paperID, topicID := range topics {
		if _, err := tx.ExecContext(ctx, query, paperID, topicID); err != nil {
			return fmt.Errorf("stage topic for %s: %w", paperID, err)
		}
	}
	return tx.Commit()
}

// StageSimilarity upserts similarity pairs.
func (s *Store) StageSimilarity(ctx context.Context, pairs []models.SimilarityPair) error {
	if len(pairs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := s.db.Rebind(`
		INSERT INTO similarity_pairs (paper1, paper2, similarity)
		VALUES (?, ?, ?)
		ON CONFLICT (paper1, paper2) DO UPDATE SET similarity = excluded.similarity
	`)
	for _, pair := range pairs {
		if _, err := tx.ExecContext(ctx, query, pair.Paper1, pair.Paper2, pair.Similarity); err != nil {
			return fmt.Errorf("stage similarity %s/%s: %w", pair.Paper1, pair.Paper2, err)
		}
	}
	return tx.Commit()
}

// StageMentions upserts entity mentions from both enrichment sources.
func (s *Store) StageMentions(ctx context.Context, kb map[string]models.PaperEntities, registry map[string][]models.RegistryMention) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := s.db.Rebind(`
		INSERT INTO entity_mentions (paper_id, source, kind, name, external_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (paper_id, source, kind, name) DO UPDATE SET external_id = excluded.external_id
	`)

	for paperID, ents := range kb {
		for _, m := range ents.Persons {
			if _, err := tx.ExecContext(ctx, query, paperID, sourceKnowledgeBase, kindPerson, m.Name, m.WikidataID); err != nil {
				return fmt.Errorf("stage person mention for %s: %w", paperID, err)
			}
		}
		for _, m := range ents.Organizations {
			if _, err := tx.ExecContext(ctx, query, paperID, sourceKnowledgeBase, kindOrganization, m.Name, m.WikidataID); err != nil {
				return fmt.Errorf("stage organization mention for %s: %w", paperID, err)
			}
		}
	}
	for paperID, mentions := range registry {
		for _, m := range mentions {
			if _, err := tx.ExecContext(ctx, query, paperID, sourceRegistry, kindOrganization, m.Name, m.RegistryID); err != nil {
				return fmt.Errorf("stage registry mention for %s: %w", paperID, err)
			}
		}
	}
	return tx.Commit()
}

// StageAll stages a complete artifact set in one call.
func (s *Store) StageAll(ctx context.Context, arts *models.Artifacts) error {
	papers := make([]models.Paper, 0, len(arts.Papers))
	for _, p := range arts.Papers {
		papers = append(papers, p)
	}
	if err := s.StagePapers(ctx, papers); err != nil {
		return err
	}
	if err := s.StageTopics(ctx, arts.Topics); err != nil {
		return err
	}
	if err := s.StageSimilarity(ctx, arts.Similarity); err != nil {
		return err
	}
	return s.StageMentions(ctx, arts.KnowledgeBase, arts.Registry)
}

// LoadArtifacts reconstructs the artifact set the builder consumes.
func (s *Store) LoadArtifacts(ctx context.Context) (*models.Artifacts, error) {
	arts := models.NewArtifacts()

	type paperRow struct {
		ID               string `db:"id"`
		Title            string `db:"title"`
		Abstract         string `db:"abstract"`
		Acknowledgements string `db:"acknowledgements"`
		Authors          string `db:"authors"`
	}
	var papers []paperRow
	if err := s.db.SelectContext(ctx, &papers, `SELECT id, title, abstract, acknowledgements, authors FROM papers`); err != nil {
		return nil, fmt.Errorf("load staged papers: %w", err)
	}
	for _, row := range papers {
		paper := models.Paper{
			ID:               row.ID,
			Title:            row.Title,
			Abstract:         row.Abstract,
			Acknowledgements: row.Acknowledgements,
		}
		if err := json.Unmarshal([]byte(row.Authors), &paper.Authors); err != nil {
			s.logger.WithError(err).WithField("paper", row.ID).Warn("malformed staged author list, treating as empty")
		}
		arts.Papers[paper.ID] = paper
	}

	type topicRow struct {
		PaperID string `db:"paper_id"`
		TopicID int    `db:"topic_id"`
	}
	var topics []topicRow
	if err := s.db.SelectContext(ctx, &topics, `SELECT paper_id, topic_id FROM topic_assignments`); err != nil {
		return nil, fmt.Errorf("load staged topics: %w", err)
	}
	for _, row := range topics {
		if row.TopicID < 0 {
			continue
		}
		arts.Topics[row.PaperID] = row.TopicID
	}

	if err := s.db.SelectContext(ctx, &arts.Similarity, `SELECT paper1, paper2, similarity FROM similarity_pairs`); err != nil {
		return nil, fmt.Errorf("load staged similarity pairs: %w", err)
	}

	type mentionRow struct {
		PaperID    string `db:"paper_id"`
		Source     string `db:"source"`
		Kind       string `db:"kind"`
		Name       string `db:"name"`
		ExternalID string `db:"external_id"`
	}
	var mentions []mentionRow
	if err := s.db.SelectContext(ctx, &mentions, `SELECT paper_id, source, kind, name, external_id FROM entity_mentions`); err != nil {
		return nil, fmt.Errorf("load staged mentions: %w", err)
	}
	for _, row := range mentions {
		switch row.Source {
		case sourceRegistry:
			arts.Registry[row.PaperID] = append(arts.Registry[row.PaperID],
				models.RegistryMention{Name: row.Name, RegistryID: row.ExternalID})
		case sourceKnowledgeBase:
			ents := arts.KnowledgeBase[row.PaperID]
			mention := models.EntityMention{Name: row.Name, WikidataID: row.ExternalID}
			if row.Kind == kindPerson {
				ents.Persons = append(ents.Persons, mention)
			} else {
				ents.Organizations = append(ents.Organizations, mention)
			}
			arts.KnowledgeBase[row.PaperID] = ents
		}
	}

	return arts, nil
}

// GetPaper returns one staged paper record.
func (s *Store) GetPaper(ctx context.Context, id string) (*models.Paper, error) {
	var row struct {
		ID               string `db:"id"`
		Title            string `db:"title"`
		Abstract         string `db:"abstract"`
		Acknowledgements string `db:"acknowledgements"`
		Authors          string `db:"authors"`
	}
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT id, title, abstract, acknowledgements, authors FROM papers WHERE id = ?`), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	paper := &models.Paper{
		ID:               row.ID,
		Title:            row.Title,
		Abstract:         row.Abstract,
		Acknowledgements: row.Acknowledgements,
	}
	if err := json.Unmarshal([]byte(row.Authors), &paper.Authors); err != nil {
		s.logger.WithError(err).WithField("paper", row.ID).Warn("malformed staged author list, treating as empty")
	}
	return paper, nil
}
