// Package splitter provides a recursive character text splitter.
package splitter

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultChunkSize is the default maximum number of characters per chunk.
const DefaultChunkSize = 100

// DefaultChunkOverlap is the default number of trailing characters carried into the next chunk.
const DefaultChunkOverlap = 10

// DefaultSeparators are tried in order: paragraphs, lines, words, characters.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// ErrInvalidOptions signals an unusable size/overlap combination.
var ErrInvalidOptions = errors.New("invalid splitter options")

// Splitter splits text on the coarsest separator present and recurses into pieces
// that are still too long, then merges neighbours back up to the chunk size.
type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

// Option configures the splitter.
type Option func(*Splitter)

// WithChunkSize sets the maximum chunk size in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) { s.chunkSize = size }
}

// WithChunkOverlap sets the overlap between consecutive chunks in characters.
func WithChunkOverlap(overlap int) Option {
	return func(s *Splitter) { s.overlap = overlap }
}

// WithSeparators replaces the separator list.
func WithSeparators(seps ...string) Option {
	return func(s *Splitter) {
		if len(seps) > 0 {
			s.separators = append([]string(nil), seps...)
		}
	}
}

// New creates a splitter. Size must be positive and overlap in [0, size).
func New(opts ...Option) (*Splitter, error) {
	s := &Splitter{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: DefaultSeparators,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size %d must be positive: %w", s.chunkSize, ErrInvalidOptions)
	}
	if s.overlap < 0 || s.overlap >= s.chunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be in [0, %d): %w", s.overlap, s.chunkSize, ErrInvalidOptions)
	}
	return s, nil
}

// ChunkSize returns the configured chunk size.
func (s *Splitter) ChunkSize() int { return s.chunkSize }

// Overlap returns the configured overlap.
func (s *Splitter) Overlap() int { return s.overlap }

// Split returns trimmed, non-empty chunks in document order. Blank input yields no chunks.
func (s *Splitter) Split(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	raw := s.split(text, s.separators)
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Splitter) split(text string, separators []string) []string {
	separator := ""
	var rest []string
	for i, sep := range separators {
		if sep == "" {
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	var chunks, pending []string
	for _, piece := range splitOn(text, separator) {
		if piece == "" {
			continue
		}
		if length(piece) < s.chunkSize {
			pending = append(pending, piece)
			continue
		}
		if len(pending) > 0 {
			chunks = append(chunks, s.merge(pending, separator)...)
			pending = nil
		}
		if len(rest) == 0 {
			chunks = append(chunks, piece)
		} else {
			chunks = append(chunks, s.split(piece, rest)...)
		}
	}
	if len(pending) > 0 {
		chunks = append(chunks, s.merge(pending, separator)...)
	}
	return chunks
}

// merge packs pieces into chunks of at most chunkSize, keeping up to overlap characters
// of the previous chunk at the start of the next one.
func (s *Splitter) merge(pieces []string, separator string) []string {
	sepLen := length(separator)
	joinCost := func(n int) int {
		if n > 0 {
			return sepLen
		}
		return 0
	}

	var out, current []string
	total := 0
	for _, p := range pieces {
		l := length(p)
		if total+l+joinCost(len(current)) > s.chunkSize && len(current) > 0 {
			if doc := strings.TrimSpace(strings.Join(current, separator)); doc != "" {
				out = append(out, doc)
			}
			for total > s.overlap || (total > 0 && total+l+joinCost(len(current)) > s.chunkSize) {
				total -= length(current[0]) + joinCost(len(current)-1)
				current = current[1:]
			}
		}
		current = append(current, p)
		total += l + joinCost(len(current)-1)
	}
	if doc := strings.TrimSpace(strings.Join(current, separator)); doc != "" {
		out = append(out, doc)
	}
	return out
}

func splitOn(text, separator string) []string {
	if separator != "" {
		return strings.Split(text, separator)
	}
	out := make([]string, 0, len(text))
	for _, r := range text {
		out = append(out, string(r))
	}
	return out
}

func length(s string) int { return utf8.RuneCountInString(s) }
