// Package builder assembles the knowledge graph from upstream artifacts.
// One build pass accumulates into a store it owns and returns; nothing is
// deleted once written, and a rebuild always starts from an empty store.
package builder

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/scholarkg/scholarkg/internal/models"
	"github.com/scholarkg/scholarkg/internal/rdf"
	"github.com/scholarkg/scholarkg/internal/resolver"
)

// Stats tracks what a build pass emitted.
type Stats struct {
	Papers               int
	Topics               int
	SimilarityEdges      int
	AcknowledgementEdges int
	Entities             int
	Triples              int
}

// StageStatus records whether an optional stage had input to run on.
type StageStatus struct {
	Name   string
	Ran    bool
	Detail string
}

// Report summarizes one build pass for the caller.
type Report struct {
	RunID  string
	Stats  Stats
	Stages []StageStatus
}

// Builder constructs a triple store from one artifact set.
type Builder struct {
	logger *logrus.Logger
}

// New creates a graph builder.
func New(logger *logrus.Logger) *Builder {
	return &Builder{logger: logger}
}

// Build runs one pass over the artifacts and returns the completed store.
// Paper metadata is authoritative: papers are iterated from it, and every
// other input is looked up per paper. Iteration order never affects the
// result since the store has set semantics.
func (b *Builder) Build(arts *models.Artifacts) (*rdf.Store, *Report, error) {
	if arts == nil || len(arts.Papers) == 0 {
		return nil, nil, fmt.Errorf("no paper metadata: nothing to build from")
	}

	runID := uuid.NewString()
	log := b.logger.WithField("run_id", runID)
	log.WithField("papers", len(arts.Papers)).Info("building knowledge graph")

	store := rdf.NewStore()
	res := resolver.New(store, b.logger)
	report := &Report{RunID: runID}

	b.buildPapers(store, res, arts, &report.Stats)
	log.WithField("papers", report.Stats.Papers).Info("emitted paper metadata")

	b.buildTopics(store, arts, report)
	b.buildSimilarity(store, arts, report)
	b.buildAcknowledgements(store, res, arts, report)

	report.Stats.Entities = res.SeenCount()
	report.Stats.Triples = store.Len()
	log.WithFields(logrus.Fields{
		"triples":  report.Stats.Triples,
		"entities": report.Stats.Entities,
	}).Info("build complete")

	return store, report, nil
}

func (b *Builder) buildPapers(store *rdf.Store, res *resolver.Resolver, arts *models.Artifacts, stats *Stats) {
	for id, paper := range arts.Papers {
		uri := rdf.PaperURI(id)
		store.Add(rdf.Triple{Subject: uri, Predicate: rdf.PredType, Object: rdf.IRI(rdf.ClassPaper)})
		store.Add(rdf.Triple{Subject: uri, Predicate: rdf.PredTitle, Object: rdf.Literal(paper.Title)})
		store.Add(rdf.Triple{Subject: uri, Predicate: rdf.PredAbstract, Object: rdf.Literal(paper.Abstract)})
		store.Add(rdf.Triple{Subject: uri, Predicate: rdf.PredIdentifier, Object: rdf.Literal(id)})

		// Authors are Person mentions with no external id. They are a
		// distinct relation from acknowledged persons and are not unified
		// with enrichment-resolved nodes unless the identity keys coincide.
		for _, author := range paper.Authors {
			personURI := res.Resolve(resolver.KindPerson, resolver.Mention{Name: author})
			store.Add(rdf.Triple{Subject: uri, Predicate: rdf.PredCreator, Object: rdf.IRI(personURI)})
		}
		stats.Papers++
	}
}

func (b *Builder) buildTopics(store *rdf.Store, arts *models.Artifacts, report *Report) {
	status := StageStatus{Name: "topics"}
	if len(arts.Topics) == 0 {
		status.Detail = "no topic assignments"
		b.logger.Warn("topic stage skipped: no assignments")
		report.Stages = append(report.Stages, status)
		return
	}
	status.Ran = true

	topicsSeen := make(map[int]bool)
	for id := range arts.Papers {
		topic, ok := arts.Topics[id]
		if !ok {
			continue // paper excluded by clustering, no topic edge
		}
		label := strconv.Itoa(topic)
		topicURI := rdf.TopicURI(label)
		if !topicsSeen[topic] {
			topicsSeen[topic] = true
			store.Add(rdf.Triple{Subject: topicURI, Predicate: rdf.PredType, Object: rdf.IRI(rdf.ClassTopic)})
			store.Add(rdf.Triple{Subject: topicURI, Predicate: rdf.PredIdentifier, Object: rdf.Literal(label)})
			report.Stats.Topics++
		}
		store.Add(rdf.Triple{Subject: rdf.PaperURI(id), Predicate: rdf.PredTopic, Object: rdf.IRI(topicURI)})
	}

	status.Detail = fmt.Sprintf("%d topics", report.Stats.Topics)
	report.Stages = append(report.Stages, status)
	b.logger.WithField("topics", report.Stats.Topics).Info("emitted topic assignments")
}

func (b *Builder) buildSimilarity(store *rdf.Store, arts *models.Artifacts, report *Report) {
	status := StageStatus{Name: "similarity"}
	if len(arts.Similarity) == 0 {
		status.Detail = "no similarity pairs"
		b.logger.Warn("similarity stage skipped: no pairs")
		report.Stages = append(report.Stages, status)
		return
	}
	status.Ran = true

	for _, pair := range arts.Similarity {
		// Pairs referencing unknown papers are still emitted by URI: the
		// store is pattern-matched, not referentially enforced.
		p1 := rdf.PaperURI(pair.Paper1)
		p2 := rdf.PaperURI(pair.Paper2)
		if store.Add(rdf.Triple{Subject: p1, Predicate: rdf.PredSimilarTo, Object: rdf.IRI(p2)}) {
			report.Stats.SimilarityEdges++
		}
		if store.Add(rdf.Triple{Subject: p2, Predicate: rdf.PredSimilarTo, Object: rdf.IRI(p1)}) {
			report.Stats.SimilarityEdges++
		}
	}

	status.Detail = fmt.Sprintf("%d directed edges", report.Stats.SimilarityEdges)
	report.Stages = append(report.Stages, status)
	b.logger.WithField("edges", report.Stats.SimilarityEdges).Info("emitted similarity relations")
}

func (b *Builder) buildAcknowledgements(store *rdf.Store, res *resolver.Resolver, arts *models.Artifacts, report *Report) {
	kbStatus := StageStatus{Name: "knowledge-base enrichment", Ran: len(arts.KnowledgeBase) > 0}
	regStatus := StageStatus{Name: "registry enrichment", Ran: len(arts.Registry) > 0}
	if !kbStatus.Ran {
		kbStatus.Detail = "no knowledge-base mentions"
		b.logger.Warn("knowledge-base enrichment skipped: no mentions")
	}
	if !regStatus.Ran {
		regStatus.Detail = "no registry mentions"
		b.logger.Warn("registry enrichment skipped: no mentions")
	}

	for id := range arts.Papers {
		paperURI := rdf.PaperURI(id)

		// Track organization surface forms resolved through the
		// knowledge base so a second resolution of the same form through
		// the registry can be surfaced. Both edges are still emitted:
		// cross-namespace merging has no established precedence rule.
		kbOrgNames := make(map[string]bool)

		if ents, ok := arts.KnowledgeBase[id]; ok {
			for _, m := range ents.Persons {
				uri := res.Resolve(resolver.KindPerson, resolver.Mention{Name: m.Name, KnowledgeBaseID: m.WikidataID})
				if store.Add(rdf.Triple{Subject: paperURI, Predicate: rdf.PredAcknowledges, Object: rdf.IRI(uri)}) {
					report.Stats.AcknowledgementEdges++
				}
			}
			for _, m := range ents.Organizations {
				uri := res.Resolve(resolver.KindOrganization, resolver.Mention{Name: m.Name, KnowledgeBaseID: m.WikidataID})
				if store.Add(rdf.Triple{Subject: paperURI, Predicate: rdf.PredAcknowledges, Object: rdf.IRI(uri)}) {
					report.Stats.AcknowledgementEdges++
				}
				if m.WikidataID != "" {
					kbOrgNames[resolver.NormalizeName(m.Name)] = true
				}
			}
		}

		for _, m := range arts.Registry[id] {
			if m.RegistryID != "" && kbOrgNames[resolver.NormalizeName(m.Name)] {
				b.logger.WithFields(logrus.Fields{
					"paper":        id,
					"organization": m.Name,
				}).Warn("organization acknowledged through two identifier namespaces; emitting both nodes")
			}
			uri := res.Resolve(resolver.KindOrganization, resolver.Mention{Name: m.Name, RegistryID: m.RegistryID})
			if store.Add(rdf.Triple{Subject: paperURI, Predicate: rdf.PredAcknowledges, Object: rdf.IRI(uri)}) {
				report.Stats.AcknowledgementEdges++
			}
		}
	}

	if kbStatus.Ran {
		kbStatus.Detail = "mentions resolved"
	}
	if regStatus.Ran {
		regStatus.Detail = "mentions resolved"
	}
	report.Stages = append(report.Stages, kbStatus, regStatus)
	if kbStatus.Ran || regStatus.Ran {
		b.logger.WithField("edges", report.Stats.AcknowledgementEdges).Info("emitted acknowledgement relations")
	}
}
