package knowledge

import (
	"embed"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed defaults/*.md
var defaultsFS embed.FS

// DefaultTopK is the number of results returned when callers don't ask for
// a specific count.
const DefaultTopK = 3

// relevanceScale normalizes keyword match counts into a relevance score.
// A topic matching more than 5 keywords yields a relevance above 1.0;
// callers must tolerate that.
const relevanceScale = 5

// Result is a single ranked search hit.
type Result struct {
	Topic     string  `json:"topic"`
	Body      string  `json:"body"`
	Relevance float64 `json:"relevance"`
}

// keywordTable maps each topic to the query keywords that select it.
// Order matters: Search breaks score ties by this enumeration order.
var keywordTable = []struct {
	topic    string
	keywords []string
}{
	{"pricing_strategies", []string{"price", "pricing", "margin", "cost", "discount", "expensive", "cheap"}},
	{"ecommerce_best_practices", []string{"store", "shop", "customer", "checkout", "trust", "experience"}},
	{"product_selection", []string{"product", "sell", "demand", "category", "inventory", "stock"}},
	{"marketing_tips", []string{"marketing", "advertise", "social", "promote", "traffic", "sales"}},
}

// Store holds the loaded document set. Read-only after New returns.
type Store struct {
	docs   map[string]string
	logger *slog.Logger
}

// New creates a Store. When dir contains markdown files they become the
// document set (topic = file name without extension); otherwise the embedded
// defaults are loaded. Loading never fails: unreadable files are logged and
// skipped, and an empty or missing directory falls back to the defaults.
func New(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		docs:   make(map[string]string),
		logger: logger,
	}

	if dir != "" {
		s.loadDir(dir)
	}
	if len(s.docs) == 0 {
		s.loadDefaults()
	}

	s.logger.Debug("knowledge base loaded", "documents", len(s.docs))
	return s
}

func (s *Store) loadDir(dir string) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		s.logger.Warn("scanning knowledge directory", "dir", dir, "error", err)
		return
	}

	for _, path := range paths {
		body, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("reading knowledge document", "path", path, "error", err)
			continue
		}
		topic := strings.TrimSuffix(filepath.Base(path), ".md")
		s.docs[topic] = string(body)
	}
}

func (s *Store) loadDefaults() {
	entries, err := defaultsFS.ReadDir("defaults")
	if err != nil {
		// Embedded FS cannot fail at runtime unless the build is broken.
		panic("knowledge: embedded defaults missing: " + err.Error())
	}

	for _, entry := range entries {
		body, err := defaultsFS.ReadFile("defaults/" + entry.Name())
		if err != nil {
			panic("knowledge: reading embedded default: " + err.Error())
		}
		topic := strings.TrimSuffix(entry.Name(), ".md")
		s.docs[topic] = string(body)
	}
}

// Len returns the number of loaded documents.
func (s *Store) Len() int {
	return len(s.docs)
}

// Search ranks topics against a free-text query by counting keyword
// substring matches, discards zero-match topics, and returns at most topK
// results ordered by match count descending. Ties keep keyword table order.
// An unknown query yields an empty (non-nil is not guaranteed) slice,
// never an error.
func (s *Store) Search(query string, topK int) []Result {
	queryLower := strings.ToLower(query)

	type match struct {
		topic string
		count int
	}
	var matches []match

	for _, tk := range keywordTable {
		count := 0
		for _, kw := range tk.keywords {
			// Substring containment, not word-boundary matching: "priceless"
			// matches "price". Intentional looseness.
			if strings.Contains(queryLower, kw) {
				count++
			}
		}
		if count > 0 {
			matches = append(matches, match{topic: tk.topic, count: count})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].count > matches[j].count
	})

	if topK >= 0 && len(matches) > topK {
		matches = matches[:topK]
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, Result{
			Topic:     m.topic,
			Body:      s.docs[m.topic],
			Relevance: float64(m.count) / relevanceScale,
		})
	}
	return results
}

// ContextForQuery concatenates the top search results into a single context
// text: each document under a "## Topic Title" heading, entries separated by
// a blank line. Returns "" when nothing matches.
func (s *Store) ContextForQuery(query string) string {
	results := s.Search(query, DefaultTopK)
	if len(results) == 0 {
		return ""
	}

	titleCaser := cases.Title(language.English)

	parts := make([]string, 0, len(results))
	for _, r := range results {
		title := titleCaser.String(strings.ReplaceAll(r.Topic, "_", " "))
		parts = append(parts, "## "+title+"\n"+r.Body)
	}
	return strings.Join(parts, "\n\n")
}
