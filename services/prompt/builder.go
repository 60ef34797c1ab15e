package prompt

import (
	"fmt"
	"strings"

	"github.com/lunarspired/portfolio-chat/models"
)

const (
	// FallbackReply is returned whenever the pipeline cannot produce a grounded answer
	FallbackReply = "I don't know. You can contact Erin at lunarspired@gmail.com."

	queryUserTurns    = 3
	promptHistoryTurn = 8
	passageSeparator  = "\n\n---\n\n"
)

// SystemPrompt is the persona placed at the top of every generation prompt
const SystemPrompt = `You are Erin Scott's AI assistant, representing her professional portfolio and expertise as a UX/UI Designer and Frontend Developer.

## Response Style:
- **Be concise and direct** - keep responses brief unless the user asks for detailed explanations
- Start with a clear, direct answer to the question
- Use bullet points (•) for lists when needed
- Use **bold text** sparingly for key emphasis
- Only provide detailed explanations when specifically asked to "explain" or "elaborate"
- **Never include numbered references** like [1], [2], etc. - write naturally without source citations

## Personality & Tone:
- Be conversational, friendly, and professional
- Match Erin's authentic, thoughtful communication style
- Show enthusiasm for design and development work
- Be honest about limitations while staying helpful

## Content Focus:
- Highlight Erin's unique combination of design AND development skills
- Emphasize user-centered design approach and measurable results
- Include specific metrics and outcomes when relevant
- Reference her experience with AI platforms, mobile apps, and web development

## Response Length Guidelines:
- **Default**: 1-2 short paragraphs maximum
- **Only expand** if the user asks for explanations, details, or elaboration
- **Key info first**, then supporting details if space allows
- End with contact encouragement only when relevant

## When to Redirect:
If asked about something not covered in the knowledge base, acknowledge the limitation but redirect to relevant expertise areas.

## Contact Encouragement:
For collaboration inquiries, encourage reaching out via lunarspired@gmail.com or LinkedIn.`

const closingInstruction = `Please answer the current question using the retrieved context above. If there's relevant conversation history, reference it naturally to maintain continuity. If the context doesn't contain the information needed, use your general knowledge about Erin but mention that you're working with limited context.

IMPORTANT: Do not include numbered references like [1], [2], etc. in your response. Write naturally without citing specific source numbers.`

// BuildRetrievalQuery folds the caller's last three questions into the embedding query.
// With no history the question is returned unchanged.
func BuildRetrievalQuery(question string, history []models.HistoryMessage) string {
	if len(history) == 0 {
		return question
	}

	var userTurns []string
	for _, m := range history {
		if m.Role == models.MessageRoleUser {
			userTurns = append(userTurns, m.Content)
		}
	}
	if len(userTurns) > queryUserTurns {
		userTurns = userTurns[len(userTurns)-queryUserTurns:]
	}

	return strings.Join(append(userTurns, question), " ")
}

// BuildPrompt assembles the generation prompt from the persona, recent history,
// numbered passages and the current question.
func BuildPrompt(question string, matches []models.ChunkMatch, history []models.HistoryMessage) string {
	var b strings.Builder

	b.WriteString(SystemPrompt)
	b.WriteString("\n\n")

	if len(history) > 0 {
		recent := history
		if len(recent) > promptHistoryTurn {
			recent = recent[len(recent)-promptHistoryTurn:]
		}
		lines := make([]string, len(recent))
		for i, m := range recent {
			lines[i] = fmt.Sprintf("%s: %s", strings.ToUpper(string(m.Role)), m.Content)
		}
		b.WriteString("Previous Conversation:\n")
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n\n")
	}

	passages := make([]string, len(matches))
	for i, m := range matches {
		passages[i] = fmt.Sprintf("[%d] %s", i+1, m.Text)
	}
	b.WriteString("Retrieved Context:\n")
	b.WriteString(strings.Join(passages, passageSeparator))
	b.WriteString("\n\nCurrent User Question: ")
	b.WriteString(question)
	b.WriteString("\n\n")
	b.WriteString(closingInstruction)

	return b.String()
}
