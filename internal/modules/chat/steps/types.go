package steps

import (
	"strings"

	types "github.com/yungbote/heartthread-backend/internal/domain"
)

const (
	DefaultTonalite     = "douce"
	DefaultIntensite    = "moderee"
	DefaultLongueur     = "moyenne"
	DefaultPersonnalite = "voix intérieure"
	DefaultHumeur       = "calme"
)

// Preferences are the free-form emotional settings chosen in the client UI.
type Preferences struct {
	Tonalite     string `json:"tonalite"`
	Intensite    string `json:"intensite"`
	Longueur     string `json:"longueur"`
	Personnalite string `json:"personnalite"`
	Humeur       string `json:"humeur"`
}

// WithDefaults fills blank fields.
func (p Preferences) WithDefaults() Preferences {
	p.Tonalite = orDefault(p.Tonalite, DefaultTonalite)
	p.Intensite = orDefault(p.Intensite, DefaultIntensite)
	p.Longueur = orDefault(p.Longueur, DefaultLongueur)
	p.Personnalite = orDefault(p.Personnalite, DefaultPersonnalite)
	p.Humeur = orDefault(p.Humeur, DefaultHumeur)
	return p
}

func orDefault(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}

// Facts is the emotional-memory payload, shared by storage, extraction and prompting.
type Facts struct {
	LovedOneName       string `json:"loved_one_name"`
	RelationshipStatus string `json:"relationship_status"`
	Intent             string `json:"intent"`
	RelationalStyle    string `json:"relational_style"`
	EmotionalState     string `json:"emotional_state"`
}

func (f Facts) IsZero() bool { return f == Facts{} }

func FactsFromMemory(m *types.EmotionalMemory) Facts {
	if m == nil {
		return Facts{}
	}
	return Facts{
		LovedOneName:       m.LovedOneName,
		RelationshipStatus: m.RelationshipStatus,
		Intent:             m.Intent,
		RelationalStyle:    m.RelationalStyle,
		EmotionalState:     m.EmotionalState,
	}
}

func (f Facts) ApplyTo(m *types.EmotionalMemory) {
	if m == nil {
		return
	}
	m.LovedOneName = f.LovedOneName
	m.RelationshipStatus = f.RelationshipStatus
	m.Intent = f.Intent
	m.RelationalStyle = f.RelationalStyle
	m.EmotionalState = f.EmotionalState
}

// Profile is the behavioral reading of a single message.
type Profile struct {
	EstimatedAge  string `json:"estimated_age"`
	LanguageLevel string `json:"language_level"`
	Tone          string `json:"tone"`
	Style         string `json:"style"`
	Need          string `json:"need"`
	Tendency      string `json:"tendency"`
}
