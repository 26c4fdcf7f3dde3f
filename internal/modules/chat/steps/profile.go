package steps

import (
	"strings"
	"unicode"
)

var (
	teenMarkers    = []string{"mdr", "ptdr", "wsh", "jsp", "tkt", "frero", "lycee", "college", "le bac", "mes parents"}
	studentMarkers = []string{"la fac", "etudiant", "etudiante", "partiel", "coloc", "master", "licence"}
	adultMarkers   = []string{"mes enfants", "mon mari", "ma femme", "divorce", "mon boulot", "au travail", "mon travail", "nos enfants"}

	slangMarkers = []string{"mdr", "ptdr", "wsh", "jsp", "tkt", "stp", "svp", "pk", "pq", "bcp", "jsuis", "chui", "g", "c", "grave", "trop chelou"}

	sadMarkers     = []string{"triste", "pleure", "pleurer", "pleurs", "mal", "manque", "seul", "seule", "vide", "deprime", "deprimee", "chagrin", "souffre"}
	angerMarkers   = []string{"colere", "enerve", "enervee", "marre", "deteste", "trahi", "trahie", "rage", "injuste"}
	anxietyMarkers = []string{"peur", "angoisse", "stress", "inquiet", "inquiete", "perdu", "perdue", "panique", "doute"}
	hopeMarkers    = []string{"espoir", "heureux", "heureuse", "content", "contente", "mieux", "envie", "confiance", "merci"}
)

// AnalyzeProfile reads age range, register, tone, preferred reply style, implicit need
// and overall tendency from a single message using keyword heuristics.
func AnalyzeProfile(message string) Profile {
	words := tokenize(message)
	tone := detectTone(words)
	return Profile{
		EstimatedAge:  estimateAge(words),
		LanguageLevel: languageLevel(message, words),
		Tone:          tone,
		Style:         styleForTone(tone),
		Need:          detectNeed(words),
		Tendency:      tendency(words),
	}
}

func estimateAge(words []string) string {
	switch {
	case containsAny(words, teenMarkers...):
		return "15-20 ans"
	case containsAny(words, studentMarkers...):
		return "18-25 ans"
	case containsAny(words, adultMarkers...):
		return "30 ans et plus"
	default:
		return "indéterminé"
	}
}

func languageLevel(raw string, words []string) string {
	if countAny(words, slangMarkers...) > 0 {
		return "familier"
	}
	plain := strings.FieldsFunc(raw, func(r rune) bool { return !unicode.IsLetter(r) })
	if len(plain) == 0 {
		return "courant"
	}
	letters := 0
	for _, w := range plain {
		letters += len([]rune(w))
	}
	avg := float64(letters) / float64(len(plain))
	hasPunct := strings.ContainsAny(raw, ".,;:")
	if avg >= 5.5 && hasPunct && len(plain) >= 8 {
		return "soutenu"
	}
	return "courant"
}

func detectTone(words []string) string {
	scores := []struct {
		tone string
		n    int
	}{
		{"tristesse", countAny(words, sadMarkers...)},
		{"colère", countAny(words, angerMarkers...)},
		{"anxiété", countAny(words, anxietyMarkers...)},
		{"espoir", countAny(words, hopeMarkers...)},
	}
	best, bestN := "neutre", 0
	for _, s := range scores {
		if s.n > bestN {
			best, bestN = s.tone, s.n
		}
	}
	return best
}

func styleForTone(tone string) string {
	switch tone {
	case "tristesse":
		return "doux et réconfortant"
	case "colère":
		return "calme et validant"
	case "anxiété":
		return "rassurant et structuré"
	case "espoir":
		return "encourageant et chaleureux"
	default:
		return "bienveillant et curieux"
	}
}

func detectNeed(words []string) string {
	switch {
	case containsAny(words, "reconquerir", "recuperer", "qu'elle revienne", "qu'il revienne", "la recuperer", "le recuperer", "get her back", "get him back"):
		return "reconquérir"
	case containsAny(words, "oublier", "tourner la page", "passer a autre chose", "move on"):
		return "tourner la page"
	case containsAny(words, "pourquoi", "comprendre", "comprends pas", "why"):
		return "comprendre"
	case containsAny(words, "conseil", "que faire", "quoi faire", "je fais comment", "what should i"):
		return "être guidé"
	default:
		return "être écouté"
	}
}

func tendency(words []string) string {
	neg := countAny(words, sadMarkers...) + countAny(words, angerMarkers...) + countAny(words, anxietyMarkers...)
	pos := countAny(words, hopeMarkers...)
	switch {
	case neg > pos:
		return "plutôt négative"
	case pos > neg:
		return "plutôt positive"
	default:
		return "mitigée"
	}
}
