package steps

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestKeywordExtractor(t *testing.T) {
	cases := []struct {
		message string
		want    Facts
	}{
		{
			message: "Elle s’appelle Sarah, elle m'a quitté et je veux qu'elle revienne. Je suis triste.",
			want: Facts{
				LovedOneName:       "Sarah",
				RelationshipStatus: "séparés",
				Intent:             "reconquérir",
				EmotionalState:     "triste",
			},
		},
		{
			message: "Mon mari Julien est tellement distant, je ne comprends pas",
			want: Facts{
				LovedOneName:       "Julien",
				RelationshipStatus: "en couple",
				Intent:             "comprendre",
				RelationalStyle:    "distant",
			},
		},
		{
			message: "bonjour",
			want:    Facts{},
		},
		{
			message: "Je suis déprimée depuis qu'on s'est séparés",
			want: Facts{
				RelationshipStatus: "séparés",
				EmotionalState:     "triste",
			},
		},
		// Rules match whole words only.
		{message: "Merci pour ton courage", want: Facts{}},
		{message: "Je voulais seulement te dire bonjour", want: Facts{}},
		{message: "J'ai raté mon examen", want: Facts{}},
		{message: "C'est un separateur de pages", want: Facts{}},
	}
	for _, tc := range cases {
		got, err := KeywordExtractor{}.Extract(context.Background(), tc.message, Facts{})
		if err != nil {
			t.Fatalf("Extract(%q): %v", tc.message, err)
		}
		if got != tc.want {
			t.Fatalf("Extract(%q)\n got=%+v\nwant=%+v", tc.message, got, tc.want)
		}
	}
}

func TestValidateFacts(t *testing.T) {
	good := map[string]any{
		"loved_one_name":      "  Sarah ",
		"relationship_status": "séparés",
		"intent":              "unknown",
		"relational_style":    "",
		"emotional_state":     strings.Repeat("x", 300),
	}
	f, err := ValidateFacts(good)
	if err != nil {
		t.Fatalf("ValidateFacts: %v", err)
	}
	if f.LovedOneName != "Sarah" || f.Intent != "" || len([]rune(f.EmotionalState)) != maxFactRunes {
		t.Fatalf("unexpected facts: %+v", f)
	}

	bad := []map[string]any{
		nil,
		{"loved_one_name": "Sarah"},
		{"loved_one_name": "", "relationship_status": "", "intent": "", "relational_style": "", "emotional_state": "", "mood": "x"},
		{"loved_one_name": 3, "relationship_status": "", "intent": "", "relational_style": "", "emotional_state": ""},
		{"loved_one_name": nil, "relationship_status": "", "intent": "", "relational_style": "", "emotional_state": ""},
	}
	for i, obj := range bad {
		if _, err := ValidateFacts(obj); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

type scriptedJSON struct {
	outputs []map[string]any
	errs    []error
	calls   int
}

func (s *scriptedJSON) GenerateJSON(ctx context.Context, system, user string) (map[string]any, error) {
	i := s.calls
	s.calls++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if err != nil {
		return nil, err
	}
	if i < len(s.outputs) {
		return s.outputs[i], nil
	}
	return nil, errors.New("exhausted")
}

func validOutput(name string) map[string]any {
	return map[string]any{
		"loved_one_name":      name,
		"relationship_status": "",
		"intent":              "",
		"relational_style":    "",
		"emotional_state":     "",
	}
}

func TestModelExtractorRetriesInvalidOutput(t *testing.T) {
	ai := &scriptedJSON{outputs: []map[string]any{
		{"name": "Sarah"},
		validOutput("Sarah"),
	}}
	e := ModelExtractor{AI: ai, Fallback: KeywordExtractor{}, MaxRetries: 2}

	got, err := e.Extract(context.Background(), "je pense à elle", Facts{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got.LovedOneName != "Sarah" || ai.calls != 2 {
		t.Fatalf("got=%+v calls=%d", got, ai.calls)
	}
}

func TestModelExtractorFallsBack(t *testing.T) {
	boom := errors.New("boom")
	ai := &scriptedJSON{errs: []error{boom, boom, boom}}
	e := ModelExtractor{AI: ai, Fallback: KeywordExtractor{}, MaxRetries: 2}

	got, err := e.Extract(context.Background(), "Elle s'appelle Léa", Facts{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if ai.calls != 3 {
		t.Fatalf("calls=%d want 3", ai.calls)
	}
	if got.LovedOneName != "Léa" {
		t.Fatalf("fallback not used: %+v", got)
	}
}

func TestModelExtractorWithoutFallback(t *testing.T) {
	ai := &scriptedJSON{errs: []error{errors.New("down")}}
	e := ModelExtractor{AI: ai}
	if _, err := e.Extract(context.Background(), "x", Facts{}); err == nil {
		t.Fatalf("expected error without fallback")
	}
}
