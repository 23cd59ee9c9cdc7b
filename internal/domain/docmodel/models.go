package docmodel

type DocType string

var (
	PDF  DocType = "pdf"
	DOCX DocType = "docx"
	ERR  DocType = "error"
)

// DocumentMeta describes one ingested file. It is built once during
// extraction and never mutated afterwards. Title and Year stay zero when
// neither the embedded metadata nor the filename carry a signal.
type DocumentMeta struct {
	Filename   string  `json:"filename"`
	SourcePath string  `json:"source_path"`
	Title      string  `json:"title,omitempty"`
	Year       int     `json:"year,omitempty"`
	PagesTotal int     `json:"pages_total"`
	Filetype   DocType `json:"filetype"`
}

// PageText is one physical page of extracted raw text. DOCX files produce
// a single synthetic page numbered 1.
type PageText struct {
	Number int    `json:"number"`
	Raw    string `json:"raw"`
}

// ChunkRecord is the unit stored, embedded and retrieved: a bounded span
// of normalized text plus the document fields it came from. The record at
// metadata position i describes the same chunk as vector-index slot i.
type ChunkRecord struct {
	Text       string  `json:"text"`
	Filename   string  `json:"filename"`
	Source     string  `json:"source"`
	Title      string  `json:"title,omitempty"`
	Year       int     `json:"year,omitempty"`
	Page       int     `json:"page"`
	PagesTotal int     `json:"pages_total"`
	Filetype   DocType `json:"filetype"`
}

// RetrievedPassage is a chunk record with its inner-product similarity
// against the query, in [-1, 1] (practically [0, 1]).
type RetrievedPassage struct {
	ChunkRecord
	Score float32 `json:"score"`
}
