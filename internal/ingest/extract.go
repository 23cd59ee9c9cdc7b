package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"

	"github.com/dmendez/archivista/internal/domain/docmodel"
	"github.com/dmendez/archivista/pkg/logger_i"
)

// Extractor reads one file into its document metadata and raw page texts.
type Extractor interface {
	Extract(path string) (docmodel.DocumentMeta, []docmodel.PageText, error)
}

func DocTypeOf(path string) docmodel.DocType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return docmodel.PDF
	case ".docx":
		return docmodel.DOCX
	default:
		return docmodel.ERR
	}
}

type PDFExtractor struct {
	logger *logger_i.Logger
}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{logger: logger_i.NewLogger("PDF Extractor")}
}

func (e *PDFExtractor) Extract(path string) (docmodel.DocumentMeta, []docmodel.PageText, error) {
	var meta docmodel.DocumentMeta

	r, err := pdf.Open(path)
	if err != nil {
		return meta, nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	numPages := r.NumPage()
	pages := make([]docmodel.PageText, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, docmodel.PageText{Number: i})
			continue
		}
		content, err := protectExtract(page)
		if err != nil {
			// One unreadable page keeps its slot so pages_total stays
			// truthful; its text just stays empty.
			e.logger.Warn("page extraction failed", "file", path, "page", i, "error", err)
			content = ""
		}
		pages = append(pages, docmodel.PageText{Number: i, Raw: content})
	}

	title, year := e.embeddedTitleYear(r)
	fallbackTitle, fallbackYear := GuessTitleYear(path)
	if title == "" {
		title = fallbackTitle
	}
	if year == 0 {
		year = fallbackYear
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	meta = docmodel.DocumentMeta{
		Filename:   filepath.Base(path),
		SourcePath: abs,
		Title:      title,
		Year:       year,
		PagesTotal: len(pages),
		Filetype:   docmodel.PDF,
	}
	return meta, pages, nil
}

// embeddedTitleYear reads the PDF Info dictionary. The library panics on
// some malformed documents, and missing metadata is never an error, so
// the whole read is best-effort.
func (e *PDFExtractor) embeddedTitleYear(r *pdf.Reader) (title string, year int) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Warn("unreadable pdf metadata", "panic", rec)
			title, year = "", 0
		}
	}()

	info := r.Trailer().Key("Info")
	if info.IsNull() {
		return "", 0
	}
	title = strings.TrimSpace(info.Key("Title").Text())
	year = yearFromDate(info.Key("CreationDate").Text())
	return title, year
}

// protectExtract runs the page text extraction in a goroutine with a
// timeout; the pdf library can hang on pathological content streams.
func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				resChan <- result{"", fmt.Errorf("page extraction panicked: %v", rec)}
			}
		}()
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()

	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(10 * time.Second):
		return "", errors.New("page extraction timed out")
	}
}

// DocxExtractor reads a .docx (also .odt/.rtf/plaintext) into a single
// synthetic page, since the format has no physical page boundaries.
type DocxExtractor struct{}

func NewDocxExtractor() *DocxExtractor {
	return &DocxExtractor{}
}

func (e *DocxExtractor) Extract(path string) (docmodel.DocumentMeta, []docmodel.PageText, error) {
	var meta docmodel.DocumentMeta

	text, err := cat.File(path)
	if err != nil {
		return meta, nil, fmt.Errorf("failed to extract docx: %w", err)
	}

	title, year := GuessTitleYear(path)
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	meta = docmodel.DocumentMeta{
		Filename:   filepath.Base(path),
		SourcePath: abs,
		Title:      title,
		Year:       year,
		PagesTotal: 1,
		Filetype:   docmodel.DOCX,
	}
	return meta, []docmodel.PageText{{Number: 1, Raw: text}}, nil
}
