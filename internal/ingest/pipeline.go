package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/dmendez/archivista/internal/config"
	"github.com/dmendez/archivista/internal/domain/docmodel"
	"github.com/dmendez/archivista/internal/rag/embedding"
	"github.com/dmendez/archivista/internal/textproc"
	"github.com/dmendez/archivista/internal/vectorindex"
	"github.com/dmendez/archivista/pkg/logger_i"
)

// FileFailure records one file the batch skipped and why.
type FileFailure struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// Report summarizes an ingestion run.
type Report struct {
	FilesFound int
	FilesOK    int
	Chunks     int
	Failures   []FileFailure
}

// Pipeline turns a directory of PDF/DOCX files into an embedded vector
// index and the ordered chunk records matching it position by position.
type Pipeline struct {
	chunker    *textproc.Chunker
	embedder   embedding.Embedder
	index      vectorindex.Index
	extractors map[docmodel.DocType]Extractor
	batchSize  int
	logger     *logger_i.Logger
}

func NewPipeline(chunker *textproc.Chunker, embedder embedding.Embedder, index vectorindex.Index) *Pipeline {
	return &Pipeline{
		chunker:  chunker,
		embedder: embedder,
		index:    index,
		extractors: map[docmodel.DocType]Extractor{
			docmodel.PDF:  NewPDFExtractor(),
			docmodel.DOCX: NewDocxExtractor(),
		},
		batchSize: config.EmbedBatchSize,
		logger:    logger_i.NewLogger("Ingest Pipeline"),
	}
}

// SetExtractor swaps the adapter for a file type.
func (p *Pipeline) SetExtractor(t docmodel.DocType, e Extractor) {
	p.extractors[t] = e
}

// Run processes every PDF/DOCX file under dataDir. A single file failing
// to extract is recorded and skipped; an empty directory, an empty
// aggregate chunk list or an embedding failure aborts the run. On
// success the returned records line up with the populated index slot by
// slot.
func (p *Pipeline) Run(ctx context.Context, dataDir string) ([]docmodel.ChunkRecord, *Report, error) {
	pdfs, _ := filepath.Glob(filepath.Join(dataDir, "*.pdf"))
	docx, _ := filepath.Glob(filepath.Join(dataDir, "*.docx"))
	files := append(pdfs, docx...)
	sort.Strings(files)
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no PDF or DOCX files found in %s", dataDir)
	}

	report := &Report{FilesFound: len(files)}
	var records []docmodel.ChunkRecord
	for _, path := range files {
		recs, err := p.processFile(path)
		if err != nil {
			p.logger.Error("extraction failed", "file", path, "error", err)
			report.Failures = append(report.Failures, FileFailure{File: path, Error: err.Error()})
			continue
		}
		p.logger.Debug("file processed", "file", path, "chunks", len(recs))
		report.FilesOK++
		records = append(records, recs...)
	}

	if len(records) == 0 {
		return nil, report, errors.New("no chunks were produced; check the source documents")
	}
	report.Chunks = len(records)

	if err := p.embedAndIndex(ctx, records); err != nil {
		return nil, report, err
	}
	return records, report, nil
}

func (p *Pipeline) processFile(path string) ([]docmodel.ChunkRecord, error) {
	t := DocTypeOf(path)
	extractor, ok := p.extractors[t]
	if !ok {
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}

	meta, pages, err := extractor.Extract(path)
	if err != nil {
		return nil, err
	}

	var recs []docmodel.ChunkRecord
	for _, page := range pages {
		cleaned := textproc.Normalize(page.Raw)
		if cleaned == "" {
			continue
		}
		for _, chunk := range p.chunker.Chunk(cleaned) {
			recs = append(recs, docmodel.ChunkRecord{
				Text:       chunk,
				Filename:   meta.Filename,
				Source:     meta.SourcePath,
				Title:      meta.Title,
				Year:       meta.Year,
				Page:       page.Number,
				PagesTotal: meta.PagesTotal,
				Filetype:   meta.Filetype,
			})
		}
	}
	return recs, nil
}

// embedAndIndex requests embeddings in fixed-size batches and inserts
// each batch in record order, preserving the positional alignment with
// the metadata. A failed batch aborts: recovering silently would shift
// every later position.
func (p *Pipeline) embedAndIndex(ctx context.Context, records []docmodel.ChunkRecord) error {
	for start := 0; start < len(records); start += p.batchSize {
		end := min(start+p.batchSize, len(records))

		texts := make([]string, 0, end-start)
		for _, r := range records[start:end] {
			texts = append(texts, r.Text)
		}

		vectors, err := p.embedder.BatchEmbedding(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding batch %d-%d failed: %w", start, end, err)
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("embedding batch %d-%d returned %d vectors for %d texts", start, end, len(vectors), len(texts))
		}

		vectorindex.NormalizeAll(vectors)
		if err := p.index.Add(ctx, vectors); err != nil {
			return fmt.Errorf("index insert failed: %w", err)
		}
		p.logger.Debug("batch indexed", "from", start, "to", end)
	}
	return nil
}
