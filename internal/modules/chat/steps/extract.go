package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/yungbote/heartthread-backend/internal/platform/logger"
)

const (
	ExtractionKeyword = "keyword"
	ExtractionModel   = "model"

	maxFactRunes = 120
)

// Extractor returns the facts newly observed in message. Fields it cannot infer stay empty.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, message string, current Facts) (Facts, error)
}

type rule struct {
	value   string
	needles []string
}

// firstRule returns the value of the first rule with a needle present as whole words.
func firstRule(words []string, rules []rule) string {
	for _, r := range rules {
		if containsAny(words, r.needles...) {
			return r.value
		}
	}
	return ""
}

var (
	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:[Ee]lle|[Ii]l) s'appelle ([\p{Lu}][\p{L}\-]+)`),
		regexp.MustCompile(`[Ss]on (?:prénom|nom) (?:c'est|est) ([\p{Lu}][\p{L}\-]+)`),
		regexp.MustCompile(`(?:[Mm]on ex|[Mm]a copine|[Mm]on copain|[Mm]a femme|[Mm]on mari|[Mm]a chérie|[Mm]on chéri|[Mm]a compagne|[Mm]on compagnon)\s*,?\s+([\p{Lu}][\p{L}\-]+)`),
		regexp.MustCompile(`(?:[Hh]er|[Hh]is) name is ([\p{Lu}][\p{L}\-]+)`),
	}

	relationshipRules = []rule{
		{"deuil", []string{"decede", "decedee", "deces", "est mort", "est morte", "nous a quittes", "nous a quittee"}},
		{"divorcés", []string{"divorce", "divorcee", "divorces", "divorcer", "divorced"}},
		{"séparés", []string{"rupture", "rompu", "m'a quitte", "m'a quittee", "l'ai quitte", "l'ai quittee", "separes", "separe", "separee", "separees", "separation", "mon ex", "broke up", "breakup"}},
		{"en couple", []string{"en couple", "ensemble depuis", "ma copine", "mon copain", "ma femme", "mon mari", "ma compagne", "mon compagnon"}},
		{"ambigu", []string{"c'est complique", "plan cul", "situationship", "on se voit sans"}},
	}

	intentRules = []rule{
		{"reconquérir", []string{"reconquerir", "recuperer", "qu'elle revienne", "qu'il revienne", "la recuperer", "le recuperer", "get her back", "get him back"}},
		{"tourner la page", []string{"oublier", "tourner la page", "passer a autre chose", "move on", "faire mon deuil"}},
		{"comprendre", []string{"comprendre", "pourquoi", "comprends pas", "why"}},
		{"se reconstruire", []string{"me reconstruire", "confiance en moi", "m'aimer moi"}},
	}

	styleRules = []rule{
		{"jaloux", []string{"jaloux", "jalouse", "jalousie"}},
		{"dépendant", []string{"besoin d'elle", "besoin de lui", "sans elle", "sans lui", "accroche", "accrochee", "dependant", "dependante"}},
		{"distant", []string{"distant", "distante", "froid", "froide", "m'ignore", "ne repond plus"}},
		{"fusionnel", []string{"fusionnel", "fusionnelle", "tout le temps ensemble", "inseparables"}},
		{"conflictuel", []string{"dispute", "on se crie", "on se prend la tete", "toujours en conflit"}},
	}

	emotionRules = []rule{
		{"triste", []string{"triste", "tristes", "pleure", "pleurer", "pleurs", "chagrin", "deprime", "deprimee"}},
		{"en colère", []string{"colere", "enerve", "enervee", "rage", "marre"}},
		{"anxieux", []string{"angoisse", "angoissee", "anxieux", "anxieuse", "peur", "stress", "stresse", "stressee"}},
		{"perdu", []string{"perdu", "perdue", "sais plus", "sais pas quoi faire"}},
		{"seul", []string{"seul", "seule", "isole", "isolee"}},
		{"apaisé", []string{"mieux", "soulage", "soulagee", "apaise", "apaisee"}},
	}
)

// KeywordExtractor infers facts with fixed French and English keyword rules.
type KeywordExtractor struct{}

func (KeywordExtractor) Name() string { return ExtractionKeyword }

func (KeywordExtractor) Extract(_ context.Context, message string, _ Facts) (Facts, error) {
	raw := strings.NewReplacer("’", "'", "‘", "'").Replace(message)
	words := tokenize(raw)

	var out Facts
	for _, re := range namePatterns {
		if m := re.FindStringSubmatch(raw); len(m) == 2 {
			out.LovedOneName = strings.Trim(m[1], "-")
			break
		}
	}
	out.RelationshipStatus = firstRule(words, relationshipRules)
	out.Intent = firstRule(words, intentRules)
	out.RelationalStyle = firstRule(words, styleRules)
	out.EmotionalState = firstRule(words, emotionRules)
	return out, nil
}

// JSONGenerator is the model call the ModelExtractor depends on.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, system, user string) (map[string]any, error)
}

// ModelExtractor asks a model for the fixed fact shape, validates it, retries on
// invalid output and finally falls back.
type ModelExtractor struct {
	AI         JSONGenerator
	Fallback   Extractor
	MaxRetries int
	Log        *logger.Logger
}

func (ModelExtractor) Name() string { return ExtractionModel }

const extractSystemPrompt = `Tu extrais des faits relationnels d'un message en français ou en anglais.
Réponds uniquement avec un objet JSON contenant exactement ces clés, toutes des chaînes :
"loved_one_name", "relationship_status", "intent", "relational_style", "emotional_state".
Utilise une chaîne vide quand le message ne permet pas de savoir. N'invente rien.`

func (e ModelExtractor) Extract(ctx context.Context, message string, current Facts) (Facts, error) {
	if e.AI == nil {
		return e.fallback(ctx, message, current, fmt.Errorf("no model configured"))
	}
	known, _ := json.Marshal(current)
	user := "Faits déjà connus : " + string(known) + "\n\nMessage :\n" + message

	var lastErr error
	for attempt := 0; attempt <= e.MaxRetries; attempt++ {
		obj, err := e.AI.GenerateJSON(ctx, extractSystemPrompt, user)
		if err == nil {
			facts, verr := ValidateFacts(obj)
			if verr == nil {
				return facts, nil
			}
			err = verr
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if e.Log != nil {
			e.Log.Warn("Memory extraction attempt rejected", "attempt", attempt+1, "error", err)
		}
	}
	return e.fallback(ctx, message, current, lastErr)
}

func (e ModelExtractor) fallback(ctx context.Context, message string, current Facts, cause error) (Facts, error) {
	if e.Fallback == nil {
		return Facts{}, fmt.Errorf("model extraction failed: %w", cause)
	}
	if e.Log != nil {
		e.Log.Warn("Memory extraction falling back", "fallback", e.Fallback.Name(), "error", cause)
	}
	return e.Fallback.Extract(ctx, message, current)
}

var factKeys = []string{"loved_one_name", "relationship_status", "intent", "relational_style", "emotional_state"}

// ValidateFacts enforces the exact five-key string shape. Values are trimmed, capped,
// and placeholder answers ("unknown", "null"...) become empty.
func ValidateFacts(obj map[string]any) (Facts, error) {
	if obj == nil {
		return Facts{}, fmt.Errorf("empty extraction output")
	}
	var unknown []string
	for k := range obj {
		if !isFactKey(k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Facts{}, fmt.Errorf("unexpected keys: %s", strings.Join(unknown, ", "))
	}
	vals := make(map[string]string, len(factKeys))
	for _, k := range factKeys {
		v, ok := obj[k]
		if !ok {
			return Facts{}, fmt.Errorf("missing key %q", k)
		}
		s, ok := v.(string)
		if !ok {
			return Facts{}, fmt.Errorf("key %q is %T, want string", k, v)
		}
		vals[k] = cleanFact(s)
	}
	return Facts{
		LovedOneName:       vals["loved_one_name"],
		RelationshipStatus: vals["relationship_status"],
		Intent:             vals["intent"],
		RelationalStyle:    vals["relational_style"],
		EmotionalState:     vals["emotional_state"],
	}, nil
}

func isFactKey(k string) bool {
	for _, fk := range factKeys {
		if k == fk {
			return true
		}
	}
	return false
}

func cleanFact(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "unknown", "inconnu", "inconnue", "null", "none", "n/a", "na", "-", "aucun", "aucune":
		return ""
	}
	if utf8.RuneCountInString(s) > maxFactRunes {
		s = strings.TrimSpace(string([]rune(s)[:maxFactRunes]))
	}
	return s
}
