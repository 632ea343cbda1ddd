package service

import (
	"encoding/json"
	"reflect"
	"testing"

	"persona-profiler/internal/domain"
)

func TestExtractStructuredDataRoundTrip(t *testing.T) {
	content := "# Personality Profile Report\n\nNarrative text.\n\n```json\n" + `{
  "personality_traits": ["Calm", "Curious", "Direct", "Loyal", "Patient"],
  "motivations": ["Mastery", "Autonomy", "Belonging"],
  "values": ["Honesty", "Craft", "Family"],
  "behavioral_tendencies": ["Plans ahead", "Listens first", "Finishes work"],
  "summary": "A steady, curious builder"
}` + "\n```\nTrailing text."

	got, ok := ExtractStructuredData(content)
	if !ok {
		t.Fatalf("expected extraction to succeed")
	}
	want := domain.ProfileData{
		PersonalityTraits:    []string{"Calm", "Curious", "Direct", "Loyal", "Patient"},
		Motivations:          []string{"Mastery", "Autonomy", "Belonging"},
		Values:               []string{"Honesty", "Craft", "Family"},
		BehavioralTendencies: []string{"Plans ahead", "Listens first", "Finishes work"},
		Summary:              "A steady, curious builder",
	}
	if !reflect.DeepEqual(typedView(got), want) {
		t.Fatalf("unexpected data:\n got %+v\nwant %+v", got, want)
	}
}

func typedView(d domain.ProfileData) domain.ProfileData {
	return domain.ProfileData{
		PersonalityTraits:    d.PersonalityTraits,
		Motivations:          d.Motivations,
		Values:               d.Values,
		BehavioralTendencies: d.BehavioralTendencies,
		Summary:              d.Summary,
	}
}

func TestExtractStructuredDataKeepsMistypedFieldsAndExtraKeys(t *testing.T) {
	content := "Report.\n```json\n" + `{
  "personality_traits": "calm, curious",
  "motivations": ["Mastery", "Autonomy", "Belonging"],
  "values": ["Honesty", "Craft", "Family"],
  "summary": "A steady builder",
  "confidence": 0.8
}` + "\n```"

	got, ok := ExtractStructuredData(content)
	if !ok {
		t.Fatalf("a parseable block must not be replaced by the default")
	}
	if len(got.PersonalityTraits) != 1 || got.PersonalityTraits[0] != "calm, curious" {
		t.Fatalf("expected string traits kept as one item, got %v", got.PersonalityTraits)
	}
	if got.Motivations[0] != "Mastery" || got.Summary != "A steady builder" {
		t.Fatalf("expected model values, got %+v", got)
	}

	encoded, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(encoded, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back["confidence"] != 0.8 {
		t.Fatalf("expected extra key preserved, got %s", encoded)
	}
	if back["personality_traits"] != "calm, curious" {
		t.Fatalf("expected original string value preserved, got %s", encoded)
	}
	if _, present := back["behavioral_tendencies"]; present {
		t.Fatalf("missing fields must stay missing, got %s", encoded)
	}
}

func TestExtractStructuredDataOnlyUnknownKeys(t *testing.T) {
	got, ok := ExtractStructuredData("```json\n{\"confidence\": 0.4}\n```")
	if !ok {
		t.Fatalf("non-empty object should be accepted as-is")
	}
	if string(got.Raw()) != `{"confidence":0.4}` {
		t.Fatalf("unexpected raw block %s", got.Raw())
	}
}

func TestExtractStructuredDataFallsBackToDefault(t *testing.T) {
	cases := map[string]string{
		"no block":     "Just a narrative without any structured section.",
		"malformed":    "```json\n{\"personality_traits\": [\"a\",\n```",
		"empty object": "```json\n{}\n```",
		"not object":   "```json\n[1, 2, 3]\n```",
		"null":         "```json\nnull\n```",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			got, ok := ExtractStructuredData(content)
			if ok {
				t.Fatalf("expected degraded extraction")
			}
			if !reflect.DeepEqual(got, domain.DefaultProfileData()) {
				t.Fatalf("expected default block, got %+v", got)
			}
		})
	}
}

func TestExtractStructuredDataPartialBlock(t *testing.T) {
	got, ok := ExtractStructuredData("```json\n{\"summary\": \"Only a summary\"}\n```")
	if !ok {
		t.Fatalf("partial block should still be accepted")
	}
	if got.Summary != "Only a summary" || len(got.PersonalityTraits) != 0 {
		t.Fatalf("unexpected data %+v", got)
	}
}

func TestExtractStructuredDataBareFence(t *testing.T) {
	got, ok := ExtractStructuredData("text\n```\n{\"values\": [\"Courage\"], \"summary\": \"x {y}\"}\n```")
	if !ok {
		t.Fatalf("expected bare fence with object to be accepted")
	}
	if len(got.Values) != 1 || got.Values[0] != "Courage" || got.Summary != "x {y}" {
		t.Fatalf("unexpected data %+v", got)
	}
}

func TestResponseExtractorCountsDegraded(t *testing.T) {
	e := NewResponseExtractor(nil)
	e.Extract("s1", "nothing here")
	e.Extract("s2", "```json\n{\"summary\": \"ok\"}\n```")
	e.Extract("s3", "```json\nbroken\n```")
	if got := e.DegradedCount(); got != 2 {
		t.Fatalf("expected 2 degraded extractions, got %d", got)
	}
}
