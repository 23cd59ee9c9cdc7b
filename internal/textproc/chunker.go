package textproc

import (
	"strings"
)

// Chunker packs sentence-like units into token-bounded chunks with a
// trailing-sentence overlap between consecutive chunks.
type Chunker struct {
	counter   TokenCounter
	segmenter Segmenter

	chunkTokens   int
	overlapTokens int
}

func NewChunker(counter TokenCounter, segmenter Segmenter, chunkTokens, overlapTokens int) *Chunker {
	if segmenter == nil {
		segmenter = RegexSegmenter{}
	}
	return &Chunker{
		counter:       counter,
		segmenter:     segmenter,
		chunkTokens:   chunkTokens,
		overlapTokens: overlapTokens,
	}
}

// units segments normalized text, then paragraph-splits any unit larger
// than 1.5x the chunk budget so a wall of unpunctuated text still packs.
func (c *Chunker) units(text string) []string {
	text = Normalize(text)
	var out []string
	for _, part := range c.segmenter.Split(text) {
		if c.counter.Count(part) > c.chunkTokens*3/2 {
			for _, para := range strings.Split(part, "\n\n") {
				if strings.TrimSpace(para) != "" {
					out = append(out, para)
				}
			}
			continue
		}
		if strings.TrimSpace(part) != "" {
			out = append(out, part)
		}
	}
	return out
}

// Chunk splits text into ordered non-empty chunks. Every chunk stays at
// or under the chunk budget, except when a single unit alone exceeds it:
// that unit is truncated to exactly the budget as a degraded fallback so
// no content is silently discarded. Consecutive chunks share roughly the
// overlap budget in trailing sentences.
func (c *Chunker) Chunk(text string) []string {
	sents := c.units(text)
	n := len(sents)
	if n == 0 {
		return nil
	}

	toks := make([]int, n)
	for i, s := range sents {
		toks[i] = c.counter.Count(s)
	}

	var chunks []string
	i := 0
	for i < n {
		cur := 0
		j := i
		for j < n && cur+toks[j] <= c.chunkTokens {
			cur += toks[j]
			j++
		}

		if j == i {
			// Not even one unit fits: truncate it rather than drop it.
			slice := strings.TrimSpace(c.counter.Truncate(sents[i], c.chunkTokens))
			if slice != "" {
				chunks = append(chunks, slice)
			}
			i++
			continue
		}

		chunk := strings.TrimSpace(strings.Join(sents[i:j], " "))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if j >= n {
			break
		}

		// Walk back from the end of the emitted chunk until the overlap
		// budget is reached; those units open the next chunk.
		back := 0
		k := j - 1
		for k >= i && back < c.overlapTokens {
			back += toks[k]
			k--
		}
		// Monotonic progress: the next start must exceed the old one or
		// the loop never terminates.
		next := k + 1
		if next <= i {
			next = i + 1
		}
		i = next
	}

	return chunks
}
