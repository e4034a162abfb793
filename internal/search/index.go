// Package search provides a simple, deterministic, concurrency-safe
// in-memory retrieval index over the HR policy documents. It is the
// grounding source for the assistant's file_search tool: policy files are
// split into passages at load time and queried lexically at chat time.
//
//   - No logging in the library (callers decide how/what to log)
//   - Unicode-aware tokenization with optional stop-word removal
//   - Immutable, read-only index after construction (safe for concurrent use)
//   - Deterministic scoring and sorting (stable order for ties)
//   - Each passage keeps the source document it came from, so answers can
//     cite where a policy statement lives
//
// Scoring uses Jaccard similarity between the query token set and each
// passage's token set: score = |Q ∩ P| / |Q ∪ P|.
package search

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Result is a ranked policy passage with its similarity score and the
// document it was extracted from.
type Result struct {
	Snippet string
	Source  string
	Score   float64
}

// Index is the minimal interface implemented by all policy indices.
type Index interface {
	TopK(query string, k int) []Result
}

// Document is one policy file's content, identified by a source label.
type Document struct {
	Source string
	Text   string
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	minPassageRunes int
	stopwords       map[string]struct{}
	maxPassages     int
}

func defaultConfig() config {
	return config{
		minPassageRunes: 40,
		stopwords:       nil,
		maxPassages:     0,
	}
}

// WithMinPassageRunes drops passages shorter than n runes (headers, noise).
func WithMinPassageRunes(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.minPassageRunes = n
		}
	}
}

// WithStopwords removes the given words from both passages and queries.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithMaxPassages caps the total number of indexed passages.
func WithMaxPassages(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxPassages = n
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

type passage struct {
	text   string
	source string
	tokens map[string]struct{}
	tLen   int
}

type index struct {
	cfg      config
	passages []passage
}

// NewIndexFromFiles builds an Index from the given policy files (markdown
// or plain text). Each file's base name becomes the source label on its
// passages. Markdown tables are flattened into standalone facts first.
func NewIndexFromFiles(paths []string, opts ...Option) (Index, error) {
	docs := make([]Document, 0, len(paths))
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{
			Source: filepath.Base(p),
			Text:   string(FlattenTables(b)),
		})
	}
	return NewIndexFromDocuments(docs, opts...), nil
}

// NewIndexFromDocuments builds an Index directly from in-memory documents.
func NewIndexFromDocuments(docs []Document, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	var passages []passage
	count := 0
outer:
	for _, d := range docs {
		for _, raw := range splitPassages(d.Text) {
			t := strings.TrimSpace(normalizeWhitespace(raw))
			if t == "" {
				continue
			}
			if cfg.minPassageRunes > 0 && utf8.RuneCountInString(t) < cfg.minPassageRunes {
				continue
			}
			toks := tokenize(t, cfg.stopwords)
			if len(toks) == 0 {
				continue
			}
			passages = append(passages, passage{text: t, source: d.Source, tokens: toks, tLen: len(toks)})
			count++
			if cfg.maxPassages > 0 && count >= cfg.maxPassages {
				break outer
			}
		}
	}
	return &index{cfg: cfg, passages: passages}
}

// TopK returns up to k best-matching passages by Jaccard similarity.
func (i *index) TopK(q string, k int) []Result {
	if len(i.passages) == 0 || strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = 3
	}
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}
	qLen := len(qTokens)

	type scored struct {
		passage  *passage
		score    float64
		lenRunes int
	}

	buf := make([]scored, 0, len(i.passages))
	for idx := range i.passages {
		p := &i.passages[idx]
		over := overlap(qTokens, p.tokens)
		if over == 0 {
			continue
		}
		union := float64(qLen + p.tLen - over)
		if union <= 0 {
			continue
		}
		score := float64(over) / union
		if score <= 0 {
			continue
		}
		buf = append(buf, scored{
			passage:  p,
			score:    score,
			lenRunes: utf8.RuneCountInString(p.text),
		})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].score != buf[b].score {
			return buf[a].score > buf[b].score
		}
		if buf[a].lenRunes != buf[b].lenRunes {
			return buf[a].lenRunes < buf[b].lenRunes
		}
		return buf[a].passage.text < buf[b].passage.text
	})

	if k > len(buf) {
		k = len(buf)
	}
	out := make([]Result, k)
	for j := 0; j < k; j++ {
		out[j] = Result{
			Snippet: buf[j].passage.text,
			Source:  buf[j].passage.source,
			Score:   buf[j].score,
		}
	}
	return out
}

// ----------------------------------------------------------------------------
// Helpers

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	s = strings.ToLower(s)
	words := wordRE.FindAllString(s, -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for w := range a {
		if _, ok := b[w]; ok {
			n++
		}
	}
	return n
}

// splitPassages breaks a document into paragraphs on blank lines.
func splitPassages(text string) []string {
	norm := strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", "\n"), "\r", "\n")
	return strings.Split(norm, "\n\n")
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
