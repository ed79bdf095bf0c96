package service

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cloo-solutions/panelsearch/internal/domain"
)

const minSentenceChars = 10

// sentenceEnd matches sentence-final punctuation, including the formal
// "다." ending, followed by whitespace. Group 1 is the punctuation.
var sentenceEnd = regexp.MustCompile(`([.!?]|다\.)\s+`)

// ChunkConfig controls overlap chunking of response text. Lengths are in
// characters (runes), not bytes.
type ChunkConfig struct {
	MaxChars int
	Overlap  int
}

// DefaultChunkConfig provides the defaults used for response indexing.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChars: 800,
		Overlap:  160,
	}
}

// Validate rejects windows that cannot make progress.
func (c ChunkConfig) Validate() error {
	if c.MaxChars <= 0 || c.Overlap < 0 || c.Overlap >= c.MaxChars {
		return domain.ErrInvalidChunkConfig
	}
	return nil
}

// sentence is a trimmed segment of the source text. start and end are rune
// offsets into the source, lo and hi the matching byte offsets.
type sentence struct {
	text       string
	start, end int
	lo, hi     int
}

func (s sentence) length() int {
	return s.end - s.start
}

// splitSentences segments text at sentence boundaries and merges fragments
// shorter than minSentenceChars forward into the following sentence. A short
// trailing fragment joins the sentence before it.
func splitSentences(text string) []sentence {
	raw := rawSentences(text)
	if len(raw) == 0 {
		return nil
	}

	out := make([]sentence, 0, len(raw))
	var pending *sentence
	for _, s := range raw {
		if pending != nil {
			s = joinSentences(text, *pending, s)
			pending = nil
		}
		if s.length() < minSentenceChars {
			p := s
			pending = &p
			continue
		}
		out = append(out, s)
	}

	if pending != nil {
		if n := len(out); n > 0 {
			out[n-1] = joinSentences(text, out[n-1], *pending)
		} else {
			out = append(out, *pending)
		}
	}
	return out
}

func rawSentences(text string) []sentence {
	var out []sentence
	locator := newRuneLocator(text)

	emit := func(from, to int) {
		piece := text[from:to]
		lead := len(piece) - len(strings.TrimLeftFunc(piece, unicode.IsSpace))
		trimmed := strings.TrimSpace(piece)
		if trimmed == "" {
			return
		}
		lo := from + lead
		start := locator.offset(lo)
		out = append(out, sentence{
			text:  trimmed,
			start: start,
			end:   start + utf8.RuneCountInString(trimmed),
			lo:    lo,
			hi:    lo + len(trimmed),
		})
	}

	prev := 0
	for _, m := range sentenceEnd.FindAllStringSubmatchIndex(text, -1) {
		emit(prev, m[3])
		prev = m[1]
	}
	emit(prev, len(text))
	return out
}

// joinSentences merges two adjacent sentences, keeping the source text
// between them.
func joinSentences(text string, a, b sentence) sentence {
	return sentence{
		text:  text[a.lo:b.hi],
		start: a.start,
		end:   b.end,
		lo:    a.lo,
		hi:    b.hi,
	}
}

// runeLocator converts increasing byte offsets into rune offsets without
// rescanning from the start of the text.
type runeLocator struct {
	text  string
	bytes int
	runes int
}

func newRuneLocator(text string) *runeLocator {
	return &runeLocator{text: text}
}

func (l *runeLocator) offset(byteOff int) int {
	if byteOff < l.bytes {
		return utf8.RuneCountInString(l.text[:byteOff])
	}
	l.runes += utf8.RuneCountInString(l.text[l.bytes:byteOff])
	l.bytes = byteOff
	return l.runes
}

// window is one chunk before identifiers are assigned.
type window struct {
	text string
	span domain.Span
}

// chunkWindows greedily packs sentences into windows of at most MaxChars
// characters, joined by single spaces. A sentence longer than MaxChars
// becomes a window of its own. Consecutive windows share the trailing
// sentences that start within Overlap characters of the previous window's
// end, and every window ends at least one sentence later than the last.
func chunkWindows(text string, cfg ChunkConfig) []window {
	sents := splitSentences(text)
	n := len(sents)
	if n == 0 {
		return nil
	}

	joinedLen := func(from, to int) int {
		total := 0
		for k := from; k <= to; k++ {
			total += utf8.RuneCountInString(sents[k].text)
		}
		return total + (to - from)
	}

	var out []window
	i := 0
	for i < n {
		j := i
		length := utf8.RuneCountInString(sents[i].text)
		for j+1 < n {
			next := utf8.RuneCountInString(sents[j+1].text)
			if length+1+next > cfg.MaxChars {
				break
			}
			j++
			length += 1 + next
		}

		parts := make([]string, 0, j-i+1)
		for k := i; k <= j; k++ {
			parts = append(parts, sents[k].text)
		}
		out = append(out, window{
			text: strings.Join(parts, " "),
			span: domain.Span{StartChar: sents[i].start, EndChar: sents[j].end},
		})

		if j == n-1 {
			break
		}

		cursor := max(0, sents[j].end-cfg.Overlap)
		k := j + 1
		for c := i + 1; c <= j; c++ {
			if sents[c].start >= cursor {
				k = c
				break
			}
		}
		for k <= j && joinedLen(k, j+1) > cfg.MaxChars {
			k++
		}
		i = k
	}
	return out
}

// Chunker splits response text into overlapping chunk records.
type Chunker struct {
	cfg     ChunkConfig
	uuidGen UUIDGenerator
}

// NewChunker validates cfg and returns a chunker that draws vector UUIDs
// from uuidGen.
func NewChunker(cfg ChunkConfig, uuidGen UUIDGenerator) (*Chunker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if uuidGen == nil {
		uuidGen = &DefaultUUIDGenerator{}
	}
	return &Chunker{cfg: cfg, uuidGen: uuidGen}, nil
}

// Config returns the window configuration.
func (c *Chunker) Config() ChunkConfig {
	return c.cfg
}

// Chunk splits the answer text of rec. Empty or whitespace-only text yields
// no chunks. Spans are non-decreasing in emission order.
func (c *Chunker) Chunk(rec domain.ResponseRecord, sourceFile string) []domain.ChunkRecord {
	windows := chunkWindows(rec.AnswerText, c.cfg)
	if len(windows) == 0 {
		return nil
	}

	out := make([]domain.ChunkRecord, 0, len(windows))
	for idx, w := range windows {
		out = append(out, domain.ChunkRecord{
			PanelUUID:    rec.PanelUUID,
			ResponseUUID: rec.ResponseUUID,
			ChunkType:    domain.ChunkTypeOverlap,
			ChunkID:      domain.ChunkSequenceKey(rec.ResponseUUID.String(), idx+1),
			VectorUUID:   c.uuidGen.NewString(),
			ChunkText:    w.text,
			Section:      domain.ChunkSectionAnswer,
			Span:         w.span,
			Labels:       []string{},
			Confidence:   domain.DefaultChunkConfidence,
			Meta: domain.ChunkMeta{
				Window:     domain.ChunkWindow{MaxChars: c.cfg.MaxChars, Overlap: c.cfg.Overlap},
				SourceFile: sourceFile,
			},
		})
	}
	return out
}
