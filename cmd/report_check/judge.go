package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"persona-profiler/internal/domain"
	"persona-profiler/internal/llm"
	"persona-profiler/internal/service"
)

const (
	wantTraits     = 5
	wantMotivation = 3
	wantValues     = 3
	wantTendencies = 3
)

// reportCheck es el resultado de las verificaciones deterministas sobre un informe.
type reportCheck struct {
	MissingHeadings []string
	OutOfOrder      bool
	Structured      bool
	CountsOK        bool
	SummaryOK       bool
}

func (r reportCheck) Passed() bool {
	return len(r.MissingHeadings) == 0 && !r.OutOfOrder && r.Structured && r.CountsOK && r.SummaryOK
}

// checkReport revisa encabezados, bloque estructurado y cardinalidades.
func checkReport(analysis string) reportCheck {
	var res reportCheck
	lower := strings.ToLower(analysis)
	last := -1
	for _, heading := range service.ReportHeadings {
		idx := strings.Index(lower, strings.ToLower(heading))
		if idx == -1 {
			res.MissingHeadings = append(res.MissingHeadings, heading)
			continue
		}
		if idx < last {
			res.OutOfOrder = true
		}
		last = idx
	}

	data, ok := service.ExtractStructuredData(analysis)
	res.Structured = ok
	res.CountsOK = ok && countsMatch(data)
	res.SummaryOK = ok && strings.TrimSpace(data.Summary) != ""
	return res
}

func countsMatch(d domain.ProfileData) bool {
	return len(d.PersonalityTraits) == wantTraits &&
		len(d.Motivations) == wantMotivation &&
		len(d.Values) == wantValues &&
		len(d.BehavioralTendencies) == wantTendencies
}

// judgeResponse representa la respuesta estructurada del juez evaluador en formato JSON.
type judgeResponse struct {
	Reasoning         string `json:"reasoning"`
	GroundednessScore int    `json:"groundedness_score"`
	SpecificityScore  int    `json:"specificity_score"`
	ConsistencyScore  int    `json:"consistency_score"`
}

func evaluateReport(ctx context.Context, judge llm.Provider, sc Scenario, analysis string) (judgeResponse, error) {
	prompt := buildJudgePrompt(sc, analysis)

	raw, err := judge.Send(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		return judgeResponse{}, err
	}

	jsonStr, ok := service.FirstJSONObject(raw)
	if !ok {
		return judgeResponse{}, fmt.Errorf("judge returned no json: %q", raw)
	}

	var jr judgeResponse
	if err := json.Unmarshal([]byte(jsonStr), &jr); err != nil {
		return judgeResponse{}, fmt.Errorf("parse judge json: %w (raw=%q)", err, jsonStr)
	}

	// el juez a veces usa 0/10
	jr.GroundednessScore = clamp1to5(jr.GroundednessScore)
	jr.SpecificityScore = clamp1to5(jr.SpecificityScore)
	jr.ConsistencyScore = clamp1to5(jr.ConsistencyScore)
	return jr, nil
}

func buildJudgePrompt(sc Scenario, analysis string) string {
	var transcript strings.Builder
	for i, qa := range sc.Answers {
		fmt.Fprintf(&transcript, "Q%d: %s\nA%d: %s\n", i+1, qa.Question, i+1, qa.Answer)
	}

	return fmt.Sprintf(`Act as an expert psychologist reviewing an automatically generated personality report.

Interview transcript:
%s
Expected profile: %s

Generated report:
%s

Score three dimensions (scale 1-5):
1. Groundedness: does every claim trace back to something the person actually said? (1=invented, 5=fully grounded)
2. Specificity: is the report about this person or generic filler? (1=horoscope, 5=clearly this person)
3. Consistency: do the narrative and the JSON block agree with each other? (1=contradictory, 5=aligned)

MANDATORY JSON OUTPUT:
{
  "reasoning": "short explanation",
  "groundedness_score": <int 1-5>,
  "specificity_score": <int 1-5>,
  "consistency_score": <int 1-5>
}`, transcript.String(), sc.Expected, analysis)
}

func clamp1to5(v int) int {
	if v < 1 {
		return 1
	}
	if v > 5 {
		return 5
	}
	return v
}
