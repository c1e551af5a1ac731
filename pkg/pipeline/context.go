package pipeline

import (
	"fmt"
	"strings"

	"github.com/m-mizutani/sarthi/pkg/model"
	"github.com/m-mizutani/sarthi/pkg/usecase/retrieval"
)

// buildContext concatenates documents, retrieved memory and correlated
// history into one prompt section, newest material first within each group.
// The budget is enforced incrementally so earlier groups win when space runs
// out.
func buildContext(docs, memHits []*retrieval.Item, correlated []*model.Memory, budget int) string {
	var parts []string

	for i, doc := range docs {
		parts = append(parts, fmt.Sprintf("Document %d: %s", i+1, doc.Text))
	}
	for i, hit := range memHits {
		parts = append(parts, fmt.Sprintf("Memory %d: %s", i+1, hit.Text))
	}
	for i, mem := range correlated {
		parts = append(parts, fmt.Sprintf("History %d: %s", i+1, mem.Content))
	}

	var sb strings.Builder
	for _, part := range parts {
		remaining := budget - sb.Len()
		if remaining <= 0 {
			break
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
			remaining--
			if remaining <= 0 {
				break
			}
		}
		if len(part) > remaining {
			part = part[:remaining]
		}
		sb.WriteString(part)
	}

	return sb.String()
}
