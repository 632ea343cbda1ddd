package service

import (
	"fmt"
	"strings"

	"persona-profiler/internal/domain"
)

// SystemPromptInterviewer fija el comportamiento del entrevistador en cada turno.
const SystemPromptInterviewer = `You are a professional personality-profiling interviewer.
Your goal is to uncover the user's personality traits, values, motivations and behavioral tendencies through an in-depth conversation.
Follow these rules:
1. Ask exactly one question at a time.
2. Follow up on the user's previous answer; avoid abrupt changes of topic.
3. Stay neutral, curious and respectful.
4. Do not write long summaries; keep the conversation flowing.
5. Make questions specific and open, e.g. about concrete experiences, feelings at the time, or reasons behind decisions.`

// SystemPromptAnalyzer fija el rol del analista para el informe final.
const SystemPromptAnalyzer = `You are a senior personality-profile analyst. Base the analysis only on what the user actually said; do not guess at anything not mentioned.
Use professional but accessible language, stay objective and constructive, and avoid negative labels.`

// ReportHeadings son las secciones del informe, en el orden en que deben aparecer.
var ReportHeadings = []string{
	"Core Personality Traits",
	"Value System",
	"Inner Motivations",
	"Behavior Patterns and Decision Style",
	"Emotional and Stress Response",
	"Interpersonal Style",
	"Strengths",
	"Potential Risks",
	"Personalized Recommendations (Work / Life / Growth)",
}

const profileSchemaBlock = "```json\n" + `{
  "personality_traits": ["trait1", "trait2", "trait3", "trait4", "trait5"],
  "motivations": ["motivation1", "motivation2", "motivation3"],
  "values": ["value1", "value2", "value3"],
  "behavioral_tendencies": ["tendency1", "tendency2", "tendency3"],
  "summary": "one-sentence summary (at most 50 characters)"
}` + "\n```"

// PromptBuilder arma los dos prompts del flujo. No tiene estado: la misma
// transcripción produce siempre el mismo texto.
type PromptBuilder struct{}

// BuildNextQuestionPrompt pide exactamente una pregunta abierta que continúe la última respuesta.
func (PromptBuilder) BuildNextQuestionPrompt(transcript []domain.Message) string {
	var sb strings.Builder
	sb.WriteString("You are a personality-profiling interviewer. Based on the conversation so far, ask one more in-depth question.\n")
	sb.WriteString("The question must be open, specific, and able to reveal values and motivations. Continue from the user's last answer.\n\n")
	sb.WriteString("Conversation so far:\n")
	writeTranscript(&sb, transcript)
	sb.WriteString("\nOutput only the next question. No summary, no prefix.\n")
	return sb.String()
}

// BuildReportPrompt pide la narrativa de 9 secciones seguida del bloque JSON.
func (PromptBuilder) BuildReportPrompt(transcript []domain.Message) string {
	var sb strings.Builder
	sb.WriteString("Generate a complete personality-profile report from the whole conversation below.\n\n")
	sb.WriteString("Conversation:\n")
	writeTranscript(&sb, transcript)
	sb.WriteString("\nOutput format:\n")
	sb.WriteString("Part one: a Markdown report titled \"# Personality Profile Report\" with exactly these sections, in this order:\n")
	for i, heading := range ReportHeadings {
		fmt.Fprintf(&sb, "## %d. %s\n", i+1, heading)
	}
	sb.WriteString("\nPart two: after the report, summarize the key points in a fenced JSON block with this exact schema:\n")
	sb.WriteString(profileSchemaBlock)
	sb.WriteString("\n\nRules for the JSON block:\n")
	sb.WriteString("- personality_traits: 5 core traits\n")
	sb.WriteString("- motivations: 3 main motivations\n")
	sb.WriteString("- values: 3 core values\n")
	sb.WriteString("- behavioral_tendencies: 3 behavioral tendencies\n")
	sb.WriteString("- summary: one sentence, at most 50 characters\n")
	sb.WriteString("- every label short and concrete, 1-3 words\n")
	return sb.String()
}

// TranscriptFromAnswers convierte los pares pregunta/respuesta en transcripción,
// respetando el orden recibido.
func TranscriptFromAnswers(answers []domain.QuestionAnswer) []domain.Message {
	out := make([]domain.Message, 0, len(answers)*2)
	for _, qa := range answers {
		if q := strings.TrimSpace(qa.Question); q != "" {
			out = append(out, domain.Message{Role: domain.RoleAssistant, Content: q})
		}
		out = append(out, domain.Message{Role: domain.RoleUser, Content: strings.TrimSpace(qa.Answer)})
	}
	return out
}

func writeTranscript(sb *strings.Builder, transcript []domain.Message) {
	for _, m := range transcript {
		sb.WriteString(roleLabel(m.Role))
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
}

func roleLabel(role string) string {
	switch role {
	case domain.RoleUser:
		return "User"
	case domain.RoleSystem:
		return "System"
	default:
		return "Interviewer"
	}
}
