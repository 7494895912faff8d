package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"ai-interviewer-be/pkg/embedding"
	"ai-interviewer-be/pkg/interview"

	chromem "github.com/philippgille/chromem-go"
)

const (
	WeakTopicThreshold = 0.4
	StrengthThreshold  = 0.5
	DefaultTopK        = 3
)

// Record is one stored interaction. Records are never mutated once appended.
type Record struct {
	Ordinal          int                  `json:"ordinal"`
	SessionID        string               `json:"session_id,omitempty"`
	CandidateID      string               `json:"candidate_id,omitempty"`
	Question         string               `json:"question"`
	Answer           string               `json:"answer"`
	Topic            string               `json:"topic"`
	CorrectnessScore float64              `json:"correctness_score"`
	DepthLevel       interview.DepthLevel `json:"depth_level"`
	Round            int                  `json:"round"`
	Summary          string               `json:"-"`
	Embedding        []float32            `json:"-"`
	CreatedAt        time.Time            `json:"created_at"`
}

// StoreInput describes one interaction to remember.
type StoreInput struct {
	SessionID   string
	CandidateID string
	Question    string
	Answer      string
	Evaluation  interview.Evaluation
	Topic       string
	Round       int
}

// Match is a record returned by a similarity query.
type Match struct {
	Record   Record  `json:"record"`
	Distance float64 `json:"distance"`
}

// Store keeps an ordered record list aligned with a chromem collection.
// Document i in the collection has ID strconv.Itoa(i) and describes records[i].
type Store struct {
	mu         sync.RWMutex
	name       string
	collection *chromem.Collection
	records    []Record
	embedder   embedding.Provider
	dimensions int
}

// NewStore creates an empty store backed by its own collection in db.
func NewStore(db *chromem.DB, name string, embedder embedding.Provider, dimensions int) (*Store, error) {
	col, err := db.CreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create collection %s: %v", interview.ErrMemoryIndex, name, err)
	}
	return &Store{
		name:       name,
		collection: col,
		records:    make([]Record, 0),
		embedder:   embedder,
		dimensions: dimensions,
	}, nil
}

// Summarize renders the text that gets embedded for an interaction.
func Summarize(question, answer string, ev interview.Evaluation) string {
	return fmt.Sprintf("Question: %s\nAnswer: %s\nCorrectness: %v\nDepth: %s",
		question, answer, ev.CorrectnessScore, ev.DepthLevel)
}

// Store embeds the interaction and appends it. On any failure nothing is appended.
func (s *Store) Store(ctx context.Context, in StoreInput) (Record, error) {
	topic := in.Topic
	if topic == "" {
		topic = interview.GeneralTopic
	}
	summary := Summarize(in.Question, in.Answer, in.Evaluation)

	// Embedding runs outside the lock; only the append is exclusive.
	vec, err := s.embed(ctx, summary)
	if err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ordinal := len(s.records)
	rec := Record{
		Ordinal:          ordinal,
		SessionID:        in.SessionID,
		CandidateID:      in.CandidateID,
		Question:         in.Question,
		Answer:           in.Answer,
		Topic:            topic,
		CorrectnessScore: in.Evaluation.CorrectnessScore,
		DepthLevel:       in.Evaluation.DepthLevel,
		Round:            in.Round,
		Summary:          summary,
		Embedding:        vec,
		CreatedAt:        time.Now(),
	}

	doc := chromem.Document{
		ID:        strconv.Itoa(ordinal),
		Content:   summary,
		Embedding: vec,
		Metadata: map[string]string{
			"topic":      topic,
			"round":      strconv.Itoa(in.Round),
			"session_id": in.SessionID,
		},
	}
	if err := s.collection.AddDocument(ctx, doc); err != nil {
		return Record{}, fmt.Errorf("%w: add document: %v", interview.ErrMemoryIndex, err)
	}
	if s.collection.Count() != ordinal+1 {
		// Roll back so the index never holds a vector without metadata.
		_ = s.collection.Delete(ctx, nil, nil, doc.ID)
		return Record{}, fmt.Errorf("%w: index size drifted from record list", interview.ErrMemoryIndex)
	}

	s.records = append(s.records, rec)
	return rec, nil
}

func (s *Store) embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := s.embedder.Generate(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: embed interaction: %v", interview.ErrMemoryIndex, err)
	}
	if len(vec) == 0 || (s.dimensions > 0 && len(vec) != s.dimensions) {
		return nil, fmt.Errorf("%w: embedding has %d dimensions, want %d", interview.ErrMemoryIndex, len(vec), s.dimensions)
	}
	return vec, nil
}

// QuerySimilar returns up to k records nearest to text, nearest first.
// Equal distances keep insertion order.
func (s *Store) QuerySimilar(ctx context.Context, text string, k int) ([]Match, error) {
	if k <= 0 {
		return []Match{}, nil
	}

	s.mu.RLock()
	empty := len(s.records) == 0
	s.mu.RUnlock()
	if empty {
		return []Match{}, nil
	}

	vec, err := s.embed(ctx, text)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// chromem only ranks by similarity, so rank every document and
	// apply the ordinal tie-break here.
	results, err := s.collection.QueryEmbedding(ctx, vec, s.collection.Count(), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: query index: %v", interview.ErrMemoryIndex, err)
	}

	matches := make([]Match, 0, len(results))
	for _, res := range results {
		ordinal, err := strconv.Atoi(res.ID)
		if err != nil || ordinal < 0 || ordinal >= len(s.records) {
			return nil, fmt.Errorf("%w: document %q has no record", interview.ErrMemoryIndex, res.ID)
		}
		matches = append(matches, Match{
			Record:   s.records[ordinal],
			Distance: distanceFromSimilarity(res.Similarity),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Record.Ordinal < matches[j].Record.Ordinal
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// distanceFromSimilarity converts cosine similarity of unit vectors into
// euclidean distance.
func distanceFromSimilarity(sim float32) float64 {
	d := 2 - 2*float64(sim)
	if d < 0 {
		d = 0
	}
	// Round away float noise so equal vectors tie exactly.
	return math.Round(math.Sqrt(d)*1e6) / 1e6
}

type topicStats struct {
	topic string
	sum   float64
	count int
}

func (t topicStats) mean() float64 {
	return t.sum / float64(t.count)
}

// groupByTopic returns per-topic aggregates in first-seen order.
func (s *Store) groupByTopic() []topicStats {
	index := make(map[string]int)
	groups := make([]topicStats, 0)
	for _, r := range s.records {
		i, ok := index[r.Topic]
		if !ok {
			i = len(groups)
			index[r.Topic] = i
			groups = append(groups, topicStats{topic: r.Topic})
		}
		groups[i].sum += r.CorrectnessScore
		groups[i].count++
	}
	return groups
}

// WeakTopics lists topics whose mean correctness is below 0.4.
func (s *Store) WeakTopics() []string {
	return s.Insights().WeakTopics
}

// Profile splits topics into strengths (mean >= 0.5) and weaknesses.
func (s *Store) Profile() interview.Profile {
	return s.Insights().Profile
}

// Insights bundles weak topics and profile from one consistent view.
func (s *Store) Insights() interview.Insights {
	s.mu.RLock()
	defer s.mu.RUnlock()

	in := interview.Insights{
		WeakTopics: make([]string, 0),
		Profile: interview.Profile{
			Strengths:         make([]string, 0),
			Weaknesses:        make([]string, 0),
			TotalInteractions: len(s.records),
		},
	}
	for _, g := range s.groupByTopic() {
		m := g.mean()
		if m < WeakTopicThreshold {
			in.WeakTopics = append(in.WeakTopics, g.topic)
		}
		if m >= StrengthThreshold {
			in.Profile.Strengths = append(in.Profile.Strengths, g.topic)
		} else {
			in.Profile.Weaknesses = append(in.Profile.Weaknesses, g.topic)
		}
	}
	return in
}

// Records returns a copy of the stored records in insertion order.
func (s *Store) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Record(nil), s.records...)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// IndexSize is the number of vectors in the collection.
func (s *Store) IndexSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collection.Count()
}

func (s *Store) Name() string {
	return s.name
}
