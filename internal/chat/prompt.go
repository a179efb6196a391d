package chat

import (
	"fmt"
	"strings"

	"lawchat-backend/internal/database"

	"github.com/tmc/langchaingo/prompts"
)

// OutOfDomainMarker is the fixed sentence the model is instructed to open
// with when the question is not a legal one. Post-processing keys off this
// substring to skip keyword aggregation and derive the title from the user
// message instead of the reply.
const OutOfDomainMarker = "법률과 관련된 질문이 아닙니다"

// ApologyMessage is the degraded response delivered when generation fails.
const ApologyMessage = "죄송합니다. 답변을 생성하는 중 문제가 발생했습니다. 잠시 후 다시 시도해 주세요."

const systemPromptTemplate = `당신은 법률 상담을 도와주는 AI 어시스턴트입니다.
아래에 제공된 판례와 법령을 근거로, 사용자의 질문에 정확하고 이해하기 쉽게 답변하세요.
근거로 사용한 판례와 법령은 답변에서 명시하세요.
질문이 법률과 관련이 없다면 답변을 "{{.out_of_domain_marker}}" 문장으로 시작하세요.

[참고 판례]
{{.case_context}}

[참고 법령]
{{.law_context}}`

type Prompt struct {
	System string
	User   string
}

// BuildPrompt merges the retrieved context and the memory window into a
// model-ready prompt. The model sees the whole rolling window, not just the
// latest message; that is what gives the system multi-turn coherence.
// BuildPrompt performs no I/O.
func BuildPrompt(caseContext, lawContext string, memory []database.MemoryEntry) (Prompt, error) {
	template := prompts.PromptTemplate{
		Template:       systemPromptTemplate,
		InputVariables: []string{"case_context", "law_context", "out_of_domain_marker"},
		TemplateFormat: prompts.TemplateFormatGoTemplate,
	}

	system, err := template.Format(map[string]any{
		"case_context":         caseContext,
		"law_context":          lawContext,
		"out_of_domain_marker": OutOfDomainMarker,
	})
	if err != nil {
		return Prompt{}, fmt.Errorf("could not format system prompt: %w", err)
	}

	var user strings.Builder
	for _, entry := range memory {
		fmt.Fprintf(&user, "%s: %s\n", entry.Role, entry.Content)
	}

	return Prompt{System: system, User: user.String()}, nil
}

// FormatDocuments serializes retrieval hits into a context blob for the
// system prompt, preserving the similarity ranking.
func FormatDocuments(docs []Document) string {
	if len(docs) == 0 {
		return "없음"
	}

	var b strings.Builder
	for i, doc := range docs {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		b.WriteString(doc.Content)
	}
	return b.String()
}
