package llm

import (
	"context"
	"encoding/json"
	"strings"

	"persona-profiler/internal/domain"
)

// MockNarrative es el informe ilustrativo del modo sin red. Declara explícitamente
// que no es un análisis real.
const MockNarrative = `# Personality Profile Report

> NOTE: this is an illustrative sample generated without a language model. It is NOT a real analysis of your answers. Configure an API key to get a real profile.

## 1. Core Personality Traits
You come across as reflective and deliberate, preferring to reason problems through while staying attentive to your inner world.

## 2. Value System
Sincerity, growth and harmony sit at the center of how you judge what matters.

## 3. Inner Motivations
Your drive comes mainly from self-actualization and the wish to create something of value.

## 4. Behavior Patterns and Decision Style
You weigh options carefully and rarely commit before you understand the trade-offs.

## 5. Emotional and Stress Response
Under pressure you tend to withdraw briefly to think, then return with a plan.

## 6. Interpersonal Style
You prefer a few deep connections over a wide social circle.

## 7. Strengths
Independent thinking and a strong capacity for self-reflection.

## 8. Potential Risks
Over-analysis can delay decisions that would benefit from quicker action.

## 9. Personalized Recommendations (Work / Life / Growth)
Keep your reflective habits, and practice sharing unfinished ideas with trusted people earlier.
`

// MockClient devuelve una respuesta fija sin tocar la red. Si Response está vacío
// usa MockNarrative seguido del bloque estructurado por defecto.
type MockClient struct {
	Response string
	Err      error
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Send(ctx context.Context, history []Message) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	if m.Response != "" {
		return m.Response, nil
	}
	if !asksForReport(history) {
		return mockQuestion(history), nil
	}
	return MockReport(), nil
}

var mockQuestions = []string{
	"Can you describe a recent decision you found hard to make, and what finally tipped it?",
	"When you think about that moment, what were you feeling right before you acted?",
	"Who did you talk to about it, if anyone, and why them?",
	"What would you do differently if the same situation came up tomorrow?",
	"Which part of your daily work gives you the most energy, and which drains it?",
	"Tell me about a time you disagreed with someone you respect. How did it go?",
	"What do you usually do in the first hour after a stressful event?",
	"If a close friend described you in three words, which would they choose and why?",
}

// asksForReport distingue el prompt de informe (lleva el esquema JSON) del de pregunta.
func asksForReport(history []Message) bool {
	for _, m := range history {
		if strings.Contains(m.Content, `"personality_traits"`) {
			return true
		}
	}
	return false
}

func mockQuestion(history []Message) string {
	answers := 0
	if len(history) > 0 {
		for _, line := range strings.Split(history[len(history)-1].Content, "\n") {
			if strings.HasPrefix(line, "User:") {
				answers++
			}
		}
	}
	return mockQuestions[answers%len(mockQuestions)]
}

// MockReport arma la narrativa de ejemplo con el bloque JSON por defecto.
func MockReport() string {
	block, _ := json.MarshalIndent(domain.DefaultProfileData(), "", "  ")
	var sb strings.Builder
	sb.WriteString(MockNarrative)
	sb.WriteString("\n```json\n")
	sb.Write(block)
	sb.WriteString("\n```\n")
	return sb.String()
}
