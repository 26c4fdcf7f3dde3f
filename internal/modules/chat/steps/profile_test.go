package steps

import "testing"

func TestAnalyzeProfile(t *testing.T) {
	cases := []struct {
		name    string
		message string
		want    Profile
	}{
		{
			name:    "sad adult",
			message: "Depuis le divorce je me sens seule et je pleure tous les soirs, pourquoi ?",
			want: Profile{
				EstimatedAge:  "30 ans et plus",
				LanguageLevel: "courant",
				Tone:          "tristesse",
				Style:         "doux et réconfortant",
				Need:          "comprendre",
				Tendency:      "plutôt négative",
			},
		},
		{
			name:    "teen slang wants her back",
			message: "wsh jsp comment faire pour qu'elle revienne mdr",
			want: Profile{
				EstimatedAge:  "15-20 ans",
				LanguageLevel: "familier",
				Tone:          "neutre",
				Style:         "bienveillant et curieux",
				Need:          "reconquérir",
				Tendency:      "mitigée",
			},
		},
		{
			name:    "hopeful",
			message: "Je vais mieux, merci",
			want: Profile{
				EstimatedAge:  "indéterminé",
				LanguageLevel: "courant",
				Tone:          "espoir",
				Style:         "encourageant et chaleureux",
				Need:          "être écouté",
				Tendency:      "plutôt positive",
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AnalyzeProfile(tc.message); got != tc.want {
				t.Fatalf("AnalyzeProfile(%q)\n got=%+v\nwant=%+v", tc.message, got, tc.want)
			}
		})
	}
}

func TestLanguageLevelSoutenu(t *testing.T) {
	msg := "Je demeure profondément bouleversé, incapable d'appréhender cette séparation soudaine."
	if got := AnalyzeProfile(msg).LanguageLevel; got != "soutenu" {
		t.Fatalf("LanguageLevel=%q", got)
	}
}

func TestAnalyzeProfileMatchesWholeWords(t *testing.T) {
	cases := map[string]string{
		"Merci pour ton courage":               "espoir",
		"Tout est normal chez moi":             "neutre",
		"Je voulais seulement te dire bonjour": "neutre",
		"J'ai mal depuis qu'elle est partie":   "tristesse",
	}
	for msg, want := range cases {
		if got := AnalyzeProfile(msg).Tone; got != want {
			t.Fatalf("AnalyzeProfile(%q).Tone=%q want %q", msg, got, want)
		}
	}
	if got := AnalyzeProfile("c'est dur").LanguageLevel; got != "courant" {
		t.Fatalf("c'est should not read as slang, got %q", got)
	}
	if got := AnalyzeProfile("c trop dur").LanguageLevel; got != "familier" {
		t.Fatalf("LanguageLevel=%q want familier", got)
	}
}

func TestTokenize(t *testing.T) {
	got := tokenize("Il m’a quitté, c'est 'fini' !")
	want := []string{"il", "m'a", "quitte", "c'est", "fini"}
	if len(got) != len(want) {
		t.Fatalf("tokenize=%q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tokenize=%q want %q", got, want)
		}
	}
	if n := countPhrase(got, "m'a quitte"); n != 1 {
		t.Fatalf("countPhrase=%d", n)
	}
}
