package textproc

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter counts text in the same subword tokens the embedding
// service counts in. The chunk budgets exist to respect that service's
// input limits, so the counts have to agree.
type TokenCounter interface {
	Count(text string) int
	// Truncate keeps at most maxTokens tokens of text. Used only for the
	// degraded fallback chunk of an oversized unit.
	Truncate(text string, maxTokens int) string
}

// TiktokenCounter counts with a tiktoken BPE encoding (cl100k_base for
// the OpenAI embedding models).
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("loading tiktoken encoding %q: %w", encoding, err)
	}
	return &TiktokenCounter{enc: enc}, nil
}

func (t *TiktokenCounter) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

func (t *TiktokenCounter) Truncate(text string, maxTokens int) string {
	toks := t.enc.Encode(text, nil, nil)
	if len(toks) <= maxTokens {
		return text
	}
	return t.enc.Decode(toks[:maxTokens])
}
