package steps

import "strings"

// BuildInstructions renders the per-run instructions from preferences, the detected
// profile and known memory facts. Empty facts are left out.
func BuildInstructions(prefs Preferences, profile Profile, facts Facts) string {
	prefs = prefs.WithDefaults()
	var b strings.Builder

	b.WriteString("Préférences utilisateur :\n")
	line(&b, "Tonalité", prefs.Tonalite)
	line(&b, "Intensité émotionnelle", prefs.Intensite)
	line(&b, "Longueur des réponses", prefs.Longueur)
	line(&b, "Personnalité IA", prefs.Personnalite)
	line(&b, "Humeur", prefs.Humeur)

	b.WriteString("\nProfil comportemental détecté :\n")
	line(&b, "Âge estimé", profile.EstimatedAge)
	line(&b, "Niveau de langage", profile.LanguageLevel)
	line(&b, "Ton émotionnel", profile.Tone)
	line(&b, "Style IA recommandé", profile.Style)
	line(&b, "Besoin implicite", profile.Need)
	line(&b, "Tendance émotionnelle globale", profile.Tendency)

	if !facts.IsZero() {
		b.WriteString("\nMémoire émotionnelle (faits déjà connus) :\n")
		line(&b, "Personne aimée", facts.LovedOneName)
		line(&b, "Statut de la relation", facts.RelationshipStatus)
		line(&b, "Intention", facts.Intent)
		line(&b, "Style relationnel", facts.RelationalStyle)
		line(&b, "État émotionnel", facts.EmotionalState)
	}

	b.WriteString("\nCes éléments doivent être utilisés pour personnaliser chaque mot de la réponse.")
	return b.String()
}

func line(b *strings.Builder, label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	b.WriteString("- ")
	b.WriteString(label)
	b.WriteString(" : ")
	b.WriteString(value)
	b.WriteString("\n")
}
