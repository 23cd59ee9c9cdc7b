package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmendez/archivista/internal/api"
	"github.com/dmendez/archivista/internal/config"
	"github.com/dmendez/archivista/internal/domain/docmodel"
	"github.com/dmendez/archivista/pkg/logger_i"
)

type mockService struct {
	OnAnswer    func(ctx context.Context, query string, k int) (string, []docmodel.RetrievedPassage, error)
	OnFragments func() int
}

func (m *mockService) Answer(ctx context.Context, query string, k int) (string, []docmodel.RetrievedPassage, error) {
	return m.OnAnswer(ctx, query, k)
}

func (m *mockService) Fragments() int {
	if m.OnFragments != nil {
		return m.OnFragments()
	}
	return 0
}

func TestHealthReportsModelAndFragments(t *testing.T) {
	logger_i.Init()
	h := New(&mockService{OnFragments: func() int { return 42 }}, "gpt-4o-mini")

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp api.HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Status != "ok" || resp.Model != "gpt-4o-mini" || resp.Fragments != 42 {
		t.Fatalf("unexpected health response: %+v", resp)
	}
}

func TestChatRejectsEmptyQuery(t *testing.T) {
	logger_i.Init()
	h := New(&mockService{}, "gpt-4o-mini")

	body := bytes.NewBufferString(`{"query": "   "}`)
	rec := httptest.NewRecorder()
	h.Chat(rec, httptest.NewRequest(http.MethodPost, "/chat", body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestChatRejectsMalformedBody(t *testing.T) {
	logger_i.Init()
	h := New(&mockService{}, "gpt-4o-mini")

	rec := httptest.NewRecorder()
	h.Chat(rec, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("{not json")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestChatMapsServiceErrorToBadGateway(t *testing.T) {
	logger_i.Init()
	svc := &mockService{
		OnAnswer: func(ctx context.Context, query string, k int) (string, []docmodel.RetrievedPassage, error) {
			return "", nil, errors.New("embedding service down")
		},
	}
	h := New(svc, "gpt-4o-mini")

	body := bytes.NewBufferString(`{"query": "who signed the treaty?"}`)
	rec := httptest.NewRecorder()
	h.Chat(rec, httptest.NewRequest(http.MethodPost, "/chat", body))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestChatTruncatesSourceText(t *testing.T) {
	logger_i.Init()
	long := strings.Repeat("á", config.MaxSourceChars+100)
	svc := &mockService{
		OnAnswer: func(ctx context.Context, query string, k int) (string, []docmodel.RetrievedPassage, error) {
			if k != 3 {
				t.Fatalf("expected k=3 forwarded, got %d", k)
			}
			return "the answer", []docmodel.RetrievedPassage{
				{
					ChunkRecord: docmodel.ChunkRecord{Text: long, Filename: "a.pdf", Page: 2},
					Score:       0.9,
				},
			}, nil
		},
	}
	h := New(svc, "gpt-4o-mini")

	body := bytes.NewBufferString(`{"query": "what happened in 1492?", "k": 3}`)
	rec := httptest.NewRecorder()
	h.Chat(rec, httptest.NewRequest(http.MethodPost, "/chat", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp api.ChatResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Answer != "the answer" {
		t.Fatalf("unexpected answer %q", resp.Answer)
	}
	if len(resp.Sources) != 1 {
		t.Fatalf("expected one source, got %d", len(resp.Sources))
	}
	if got := len([]rune(resp.Sources[0].Text)); got != config.MaxSourceChars {
		t.Fatalf("expected source truncated to %d runes, got %d", config.MaxSourceChars, got)
	}
	if resp.Sources[0].Filename != "a.pdf" || resp.Sources[0].Page != 2 {
		t.Fatalf("unexpected source metadata: %+v", resp.Sources[0])
	}
}
