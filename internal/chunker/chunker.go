// Package chunker splits document text into overlapping, token-bounded
// segments. Paragraphs are the unit of accumulation so segment
// boundaries stay semantically coherent; overlap is measured in tokens
// so it is reproducible for a fixed tokenizer.
package chunker

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/custodia-labs/docsearch-cli/internal/core/domain"
	"github.com/custodia-labs/docsearch-cli/internal/core/ports/driven"
)

// DefaultMaxTokens is the default segment size limit in tokens.
const DefaultMaxTokens = 400

// DefaultOverlapTokens is the default number of tokens shared between
// adjacent segments.
const DefaultOverlapTokens = 50

// paragraphSep matches blank-line paragraph boundaries.
var paragraphSep = regexp.MustCompile(`\n[ \t\r]*\n`)

// Chunker splits text into overlapping token-bounded segments.
type Chunker struct {
	tokenizer driven.Tokenizer
	maxTokens int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxTokens sets the segment size limit in tokens.
func WithMaxTokens(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithOverlapTokens sets the overlap between segments in tokens.
func WithOverlapTokens(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlap = n
		}
	}
}

// New creates a chunker using the given tokenizer.
func New(tokenizer driven.Tokenizer, opts ...Option) *Chunker {
	c := &Chunker{
		tokenizer: tokenizer,
		maxTokens: DefaultMaxTokens,
		overlap:   DefaultOverlapTokens,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap leaves room for new content
	if c.overlap >= c.maxTokens {
		c.overlap = c.maxTokens / 4
	}

	return c
}

// paragraph is a trimmed paragraph with its span in the original text.
type paragraph struct {
	text  string
	start int
	end   int
}

// Chunk splits text into segment drafts. Empty or whitespace-only
// input yields zero drafts; this is not an error. Every draft
// satisfies 0 < TokenCount <= the configured maximum.
func (c *Chunker) Chunk(text string) []domain.SegmentDraft {
	paras := splitParagraphs(text)
	if len(paras) == 0 {
		return nil
	}

	var drafts []domain.SegmentDraft
	var seed []int // trailing tokens of the previous segment
	var own []paragraph

	flush := func() {
		if len(own) == 0 {
			return
		}
		draft, nextSeed := c.emit(seed, own)
		drafts = append(drafts, draft)
		seed = nextSeed
		own = nil
	}

	for _, p := range paras {
		if c.tokenizer.Count(p.text) > c.maxTokens {
			// A single paragraph that exceeds the limit is split at
			// token boundaries.
			flush()
			var windows []domain.SegmentDraft
			windows, seed = c.hardSplit(p, seed)
			drafts = append(drafts, windows...)
			continue
		}

		if len(own) > 0 && c.tokenizer.Count(c.buildText(seed, append(own[:len(own):len(own)], p))) > c.maxTokens {
			flush()
		}
		if len(own) == 0 {
			// Shrink the seed until it leaves room for the paragraph.
			for len(seed) > 0 && c.tokenizer.Count(c.buildText(seed, []paragraph{p})) > c.maxTokens {
				seed = seed[1:]
			}
		}
		own = append(own, p)
	}
	flush()

	return drafts
}

// emit builds a draft from the seed and accumulated paragraphs and
// returns the trailing tokens that seed the next segment.
func (c *Chunker) emit(seed []int, own []paragraph) (domain.SegmentDraft, []int) {
	text := c.buildText(seed, own)
	tokens := c.tokenizer.Encode(text)

	draft := domain.SegmentDraft{
		Text:       text,
		TokenCount: len(tokens),
		CharStart:  own[0].start,
		CharEnd:    own[len(own)-1].end,
	}
	return draft, tail(tokens, c.overlap)
}

// hardSplit emits token windows of at most maxTokens for an oversized
// paragraph. Consecutive windows share the overlap via the window step.
func (c *Chunker) hardSplit(p paragraph, seed []int) ([]domain.SegmentDraft, []int) {
	tokens := c.tokenizer.Encode(p.text)

	step := c.maxTokens - c.overlap
	if step <= 0 {
		step = c.maxTokens
	}

	var drafts []domain.SegmentDraft
	for start := 0; start < len(tokens); start += step {
		end := start + c.maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}

		windowText := c.tokenizer.Decode(tokens[start:end])
		text := windowText
		if start == 0 && len(seed) > 0 {
			// Carry the previous segment's overlap into the first
			// window, shrinking it if the window is already full.
			carry := seed
			for len(carry) > 0 {
				text = strings.TrimSpace(c.tokenizer.Decode(carry)) + "\n" + windowText
				if c.tokenizer.Count(text) <= c.maxTokens {
					break
				}
				carry = carry[1:]
			}
			if len(carry) == 0 {
				text = windowText
			}
		}

		// Token prefixes decode to text prefixes, so prefix length
		// gives the character offset inside the paragraph.
		drafts = append(drafts, domain.SegmentDraft{
			Text:       text,
			TokenCount: c.tokenizer.Count(text),
			CharStart:  p.start + len(c.tokenizer.Decode(tokens[:start])),
			CharEnd:    p.start + len(c.tokenizer.Decode(tokens[:end])),
		})

		if end == len(tokens) {
			break
		}
	}

	return drafts, tail(tokens, c.overlap)
}

// buildText joins the seed text and paragraphs with newlines.
func (c *Chunker) buildText(seed []int, own []paragraph) string {
	parts := make([]string, 0, len(own)+1)
	if len(seed) > 0 {
		if s := strings.TrimSpace(c.tokenizer.Decode(seed)); s != "" {
			parts = append(parts, s)
		}
	}
	for _, p := range own {
		parts = append(parts, p.text)
	}
	return strings.Join(parts, "\n")
}

// tail returns the last n tokens.
func tail(tokens []int, n int) []int {
	if len(tokens) <= n {
		return tokens
	}
	return tokens[len(tokens)-n:]
}

// splitParagraphs splits text at blank lines, tracking each paragraph's
// span in the original input. Whitespace-only paragraphs are dropped.
func splitParagraphs(text string) []paragraph {
	var paras []paragraph

	pos := 0
	bounds := paragraphSep.FindAllStringIndex(text, -1)
	for _, b := range bounds {
		if p, ok := trimSpan(text, pos, b[0]); ok {
			paras = append(paras, p)
		}
		pos = b[1]
	}
	if p, ok := trimSpan(text, pos, len(text)); ok {
		paras = append(paras, p)
	}

	return paras
}

// trimSpan trims whitespace from text[start:end], adjusting offsets.
func trimSpan(text string, start, end int) (paragraph, bool) {
	for start < end && unicode.IsSpace(rune(text[start])) {
		start++
	}
	for end > start && unicode.IsSpace(rune(text[end-1])) {
		end--
	}
	if start >= end {
		return paragraph{}, false
	}
	return paragraph{text: text[start:end], start: start, end: end}, true
}
