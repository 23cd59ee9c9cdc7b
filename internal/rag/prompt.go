package rag

import (
	"fmt"
	"strings"

	"github.com/dmendez/archivista/internal/domain/docmodel"
	"github.com/dmendez/archivista/internal/rag/llm"
)

// BuildPrompt assembles the two-role instruction for a generation call:
// the persona as the system message, and a user message carrying the
// query, the retrieved passages labeled with their source file and page,
// and the answering directive. Deterministic for identical inputs.
func BuildPrompt(persona string, query string, passages []docmodel.RetrievedPassage) []llm.Message {
	lines := make([]string, 0, len(passages))
	for _, p := range passages {
		lines = append(lines, fmt.Sprintf("[%s · p.%d]\n%s", p.Filename, p.Page, p.Text))
	}

	user := fmt.Sprintf(
		"Question: %s\n\nRetrieved context:\n%s\n\n"+
			"Answer in your persona, in a didactic tone. "+
			"Include a section titled 'Sources' at the end with the citations.",
		query, strings.Join(lines, "\n\n"))

	return []llm.Message{
		{Role: llm.RoleSystem, Content: persona},
		{Role: llm.RoleUser, Content: user},
	}
}
