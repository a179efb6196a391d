package chat

import (
	"testing"

	"lawchat-backend/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrompt(t *testing.T) {
	memory := []database.MemoryEntry{
		{Role: database.TurnRoleUser, Content: "전세 계약이 만료되면 보증금은 언제 받나요?"},
		{Role: database.TurnRoleAssistant, Content: "임대차 종료 시 반환 의무가 발생합니다."},
		{Role: database.TurnRoleUser, Content: "집주인이 거부하면요?"},
	}

	prompt, err := BuildPrompt("판례 본문", "법령 본문", memory)
	require.NoError(t, err)

	expectedSystem := `당신은 법률 상담을 도와주는 AI 어시스턴트입니다.
아래에 제공된 판례와 법령을 근거로, 사용자의 질문에 정확하고 이해하기 쉽게 답변하세요.
근거로 사용한 판례와 법령은 답변에서 명시하세요.
질문이 법률과 관련이 없다면 답변을 "` + OutOfDomainMarker + `" 문장으로 시작하세요.

[참고 판례]
판례 본문

[참고 법령]
법령 본문`
	assert.Equal(t, expectedSystem, prompt.System)

	expectedUser := "USER: 전세 계약이 만료되면 보증금은 언제 받나요?\n" +
		"ASSISTANT: 임대차 종료 시 반환 의무가 발생합니다.\n" +
		"USER: 집주인이 거부하면요?\n"
	assert.Equal(t, expectedUser, prompt.User)
}

func TestBuildPromptEmptyMemory(t *testing.T) {
	prompt, err := BuildPrompt("없음", "없음", nil)
	require.NoError(t, err)
	assert.Empty(t, prompt.User)
}

func TestFormatDocuments(t *testing.T) {
	assert.Equal(t, "없음", FormatDocuments(nil))

	docs := []Document{
		{Content: "첫 번째 판례"},
		{Content: "두 번째 판례"},
	}
	assert.Equal(t, "첫 번째 판례\n---\n두 번째 판례", FormatDocuments(docs))
}
