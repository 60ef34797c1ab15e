package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/lunarspired/portfolio-chat/models"
	"github.com/stretchr/testify/assert"
)

func turn(role models.MessageRole, content string) models.HistoryMessage {
	return models.HistoryMessage{Role: role, Content: content, CreatedAt: time.Now()}
}

func TestBuildRetrievalQuery(t *testing.T) {
	tests := []struct {
		name     string
		question string
		history  []models.HistoryMessage
		want     string
	}{
		{
			name:     "no history returns question unchanged",
			question: "What tools does Erin use?",
			want:     "What tools does Erin use?",
		},
		{
			name:     "only ai turns in history",
			question: "Q",
			history:  []models.HistoryMessage{turn(models.MessageRoleAI, "hello")},
			want:     "Q",
		},
		{
			name:     "last three user turns in order with question last",
			question: "Q",
			history: []models.HistoryMessage{
				turn(models.MessageRoleUser, "a"),
				turn(models.MessageRoleAI, "b"),
				turn(models.MessageRoleUser, "c"),
				turn(models.MessageRoleUser, "d"),
			},
			want: "a c d Q",
		},
		{
			name:     "older user turns dropped",
			question: "Q",
			history: []models.HistoryMessage{
				turn(models.MessageRoleUser, "1"),
				turn(models.MessageRoleUser, "2"),
				turn(models.MessageRoleAI, "x"),
				turn(models.MessageRoleUser, "3"),
				turn(models.MessageRoleUser, "4"),
			},
			want: "2 3 4 Q",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildRetrievalQuery(tt.question, tt.history))
		})
	}
}

func TestBuildPrompt_WithoutHistory(t *testing.T) {
	matches := []models.ChunkMatch{{Text: "first passage"}, {Text: "second passage"}}

	got := BuildPrompt("  What did Erin build?", matches, nil)

	assert.True(t, strings.HasPrefix(got, SystemPrompt))
	assert.NotContains(t, got, "Previous Conversation:")
	assert.Contains(t, got, "Retrieved Context:\n[1] first passage\n\n---\n\n[2] second passage\n\nCurrent User Question:   What did Erin build?\n\n")
	assert.True(t, strings.HasSuffix(got, "Write naturally without citing specific source numbers."))
}

func TestBuildPrompt_HistoryKeepsLastEight(t *testing.T) {
	var history []models.HistoryMessage
	for i := 0; i < 10; i++ {
		role := models.MessageRoleUser
		if i%2 == 1 {
			role = models.MessageRoleAI
		}
		history = append(history, turn(role, string(rune('a'+i))))
	}

	got := BuildPrompt("Q", []models.ChunkMatch{{Text: "p"}}, history)

	assert.Contains(t, got, "Previous Conversation:\nUSER: c\nAI: d\nUSER: e\nAI: f\nUSER: g\nAI: h\nUSER: i\nAI: j\n\nRetrieved Context:")
	assert.NotContains(t, got, "USER: a\n")
	assert.NotContains(t, got, "AI: b\n")
}

func TestBuildPrompt_SectionOrder(t *testing.T) {
	got := BuildPrompt("Q", []models.ChunkMatch{{Text: "p"}}, []models.HistoryMessage{turn(models.MessageRoleUser, "earlier")})

	persona := strings.Index(got, "You are Erin Scott's AI assistant")
	prev := strings.Index(got, "Previous Conversation:")
	ctx := strings.Index(got, "Retrieved Context:")
	question := strings.Index(got, "Current User Question: Q")
	closing := strings.Index(got, "Please answer the current question")

	assert.True(t, persona < prev && prev < ctx && ctx < question && question < closing)
}

func TestFallbackReply(t *testing.T) {
	assert.Equal(t, "I don't know. You can contact Erin at lunarspired@gmail.com.", FallbackReply)
}
