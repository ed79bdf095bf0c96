package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	ChunkTypeOverlap       = "overlap"
	ChunkSectionAnswer     = "answer_text_full"
	DefaultChunkConfidence = 0.85

	// NoResponsePrefix keeps chunk IDs well-formed when a record has no response UUID.
	NoResponsePrefix = "NORESP"
)

var jsonNull = []byte("null")

// RecordID is an identifier copied from an input record without
// interpretation. It keeps the raw JSON value, so a numeric ID is written
// back as a number and a missing or null ID as null.
type RecordID struct {
	raw json.RawMessage
}

// TextID wraps a string identifier. The empty string is the null ID.
func TextID(s string) RecordID {
	if s == "" {
		return RecordID{}
	}
	raw, _ := json.Marshal(s)
	return RecordID{raw: raw}
}

// IsZero reports whether the ID is missing or null.
func (id RecordID) IsZero() bool {
	return len(id.raw) == 0 || bytes.Equal(id.raw, jsonNull)
}

// String returns a string ID unquoted, any other JSON value as its compact
// text, and "" for the null ID.
func (id RecordID) String() string {
	if id.IsZero() {
		return ""
	}
	var s string
	if err := json.Unmarshal(id.raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, id.raw); err != nil {
		return string(id.raw)
	}
	return buf.String()
}

func (id RecordID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return jsonNull, nil
	}
	return id.raw, nil
}

func (id *RecordID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, jsonNull) {
		*id = RecordID{}
		return nil
	}
	id.raw = append(json.RawMessage(nil), data...)
	return nil
}

// ResponseRecord is one stored survey answer fed to the chunker.
type ResponseRecord struct {
	PanelUUID    RecordID `json:"panel_uuid"`
	ResponseUUID RecordID `json:"response_uuid"`
	AnswerText   string   `json:"answer_text"`
}

// Span is a half-open [StartChar, EndChar) interval of character offsets.
type Span struct {
	StartChar int `json:"start_char"`
	EndChar   int `json:"end_char"`
}

// Len returns the number of characters covered.
func (s Span) Len() int {
	return s.EndChar - s.StartChar
}

// ChunkWindow records the window parameters a chunk was produced with.
type ChunkWindow struct {
	MaxChars int `json:"max_chars"`
	Overlap  int `json:"overlap"`
}

// ChunkMeta is fixed provenance metadata attached to every chunk.
type ChunkMeta struct {
	Window     ChunkWindow `json:"window"`
	SourceFile string      `json:"source_file,omitempty"`
}

// ChunkRecord is one bounded segment of a response, ready for embedding.
type ChunkRecord struct {
	PanelUUID    RecordID  `json:"panel_uuid"`
	ResponseUUID RecordID  `json:"response_uuid"`
	ChunkType    string    `json:"chunk_type"`
	ChunkID      string    `json:"chunk_id"`
	VectorUUID   string    `json:"vector_uuid"`
	ChunkText    string    `json:"chunk_text"`
	Section      string    `json:"section"`
	Span         Span      `json:"span"`
	Labels       []string  `json:"labels"`
	Confidence   float64   `json:"confidence"`
	Meta         ChunkMeta `json:"meta"`
	Embedding    []float32 `json:"-"`
}

// ChunkSequenceKey builds the human-readable key for the ordinal-th chunk
// (1-based) of a response, e.g. "R123#OV#0004".
func ChunkSequenceKey(responseUUID string, ordinal int) string {
	prefix := responseUUID
	if prefix == "" {
		prefix = NoResponsePrefix
	}
	return fmt.Sprintf("%s#OV#%04d", prefix, ordinal)
}
