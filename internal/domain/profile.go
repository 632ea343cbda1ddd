package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Profile es el resultado generado para una sesión: narrativa + bloque estructurado.
// Hay como máximo uno por SessionID.
type Profile struct {
	ID             string      `json:"id"`
	SessionID      string      `json:"session_id"`
	OwnerID        string      `json:"owner_id,omitempty"`
	Analysis       string      `json:"ai_analysis"`
	StructuredData ProfileData `json:"structured_data"`
	CreatedAt      time.Time   `json:"created_at"`
}

// ProfileData es el bloque estructurado 5/3/3/3/1.
//
// Un bloque decodificado desde JSON conserva el objeto original: se vuelve a
// serializar tal cual, con claves extra y tipos inesperados incluidos. Los campos
// tipados son una vista tolerante de ese objeto.
type ProfileData struct {
	PersonalityTraits    []string `json:"personality_traits"`
	Motivations          []string `json:"motivations"`
	Values               []string `json:"values"`
	BehavioralTendencies []string `json:"behavioral_tendencies"`
	Summary              string   `json:"summary"`

	raw json.RawMessage
}

// Raw devuelve el objeto JSON tal como se decodificó, o nil si el bloque se armó en código.
func (d ProfileData) Raw() json.RawMessage {
	return d.raw
}

// IsEmpty indica si el bloque no trae ningún campo.
func (d ProfileData) IsEmpty() bool {
	if len(d.raw) > 0 && !bytes.Equal(d.raw, []byte("{}")) {
		return false
	}
	return len(d.PersonalityTraits) == 0 &&
		len(d.Motivations) == 0 &&
		len(d.Values) == 0 &&
		len(d.BehavioralTendencies) == 0 &&
		d.Summary == ""
}

type plainProfileData ProfileData

func (d ProfileData) MarshalJSON() ([]byte, error) {
	if len(d.raw) > 0 {
		return d.raw, nil
	}
	return json.Marshal(plainProfileData(d))
}

// UnmarshalJSON acepta cualquier objeto JSON. Las listas que llegan como string
// quedan como un único elemento; los valores que no son texto se guardan con su
// representación JSON.
func (d *ProfileData) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("profile data: expected object, got null")
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, b); err != nil {
		return err
	}

	*d = ProfileData{
		PersonalityTraits:    stringList(fields["personality_traits"]),
		Motivations:          stringList(fields["motivations"]),
		Values:               stringList(fields["values"]),
		BehavioralTendencies: stringList(fields["behavioral_tendencies"]),
		Summary:              stringValue(fields["summary"]),
		raw:                  compact.Bytes(),
	}
	return nil
}

func stringList(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		if s := stringValue(raw); s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := stringValue(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func stringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// ProfilePage es una página del listado de perfiles.
type ProfilePage struct {
	List     []Profile `json:"list"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}

// RateLimitDecision es el resultado de un check-and-increment del limitador.
type RateLimitDecision struct {
	Allowed    bool          `json:"allowed"`
	Limit      int           `json:"limit"`
	Remaining  int           `json:"remaining"`
	ResetAt    time.Time     `json:"reset_at"`
	RetryAfter time.Duration `json:"-"`
}

// DefaultProfileData es el bloque documentado que se usa cuando la salida del
// modelo no trae un bloque estructurado legible. También lo devuelve el proveedor mock.
func DefaultProfileData() ProfileData {
	return ProfileData{
		PersonalityTraits:    []string{"Thoughtful", "Insightful", "Independent", "Growth-seeking", "Emotionally rich"},
		Motivations:          []string{"Self-actualization", "Recognition", "Creating value"},
		Values:               []string{"Sincerity", "Growth", "Harmony"},
		BehavioralTendencies: []string{"Rational analysis", "Careful decisions", "Pursuit of excellence"},
		Summary:              "A unique individual full of potential and growth",
	}
}
