package main

import "persona-profiler/internal/domain"

var scenarios = []Scenario{
	{
		Name:     "Analítica reservada",
		Expected: "Introvertida, metódica, valora la autonomía y la precisión; evita el conflicto abierto",
		Answers: []domain.QuestionAnswer{
			{QuestionID: 1, Question: "How do you usually spend a free weekend?", Answer: "Reading, fixing small things around the flat, maybe a long walk alone."},
			{QuestionID: 2, Question: "How do you make important decisions?", Answer: "I write down the options and the risks. I hate deciding on a gut feeling."},
			{QuestionID: 3, Question: "What do you do when a colleague disagrees with you?", Answer: "I ask for their data. If they are right I change my mind, but I don't argue in meetings."},
			{QuestionID: 4, Question: "What stresses you the most?", Answer: "Vague requirements and people changing plans at the last minute."},
			{QuestionID: 5, Question: "What are you proud of?", Answer: "Rebuilding our billing system without a single outage."},
		},
	},
	{
		Name:     "Social impulsiva",
		Expected: "Extrovertida, busca novedad y reconocimiento, decide rápido, sensible al rechazo",
		Answers: []domain.QuestionAnswer{
			{QuestionID: 1, Question: "How do you usually spend a free weekend?", Answer: "Out with friends, festivals, anything new. Staying home makes me restless."},
			{QuestionID: 2, Question: "How do you make important decisions?", Answer: "Honestly I just go for it and fix things later."},
			{QuestionID: 3, Question: "What do you do when a colleague disagrees with you?", Answer: "I get heated, then I usually apologise and we grab a coffee."},
			{QuestionID: 4, Question: "What stresses you the most?", Answer: "Feeling ignored or left out of plans."},
			{QuestionID: 5, Question: "What are you proud of?", Answer: "I organised a charity concert that raised more than we expected."},
		},
	},
	{
		Name:     "Respuestas mínimas",
		Expected: "Poca información; el informe debería reconocer la incertidumbre sin inventar detalles",
		Answers: []domain.QuestionAnswer{
			{QuestionID: 1, Question: "How do you usually spend a free weekend?", Answer: "Depends."},
			{QuestionID: 2, Question: "How do you make important decisions?", Answer: "Normally."},
			{QuestionID: 3, Question: "What stresses you the most?", Answer: "Work I guess."},
		},
	},
}
