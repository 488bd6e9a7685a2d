package model

import "testing"

func TestParseArtifactKind_AcceptsAliases(t *testing.T) {
	cases := map[string]ArtifactKind{
		"flashcards":    KindFlashcards,
		" Quiz ":        KindQuiz,
		"mind-map":      KindMindMap,
		"mindmap":       KindMindMap,
		"path":          KindLearningPath,
		"learning-path": KindLearningPath,
		"notes":         KindNotes,
	}
	for raw, want := range cases {
		got, err := ParseArtifactKind(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got != want {
			t.Fatalf("parse %q: got %q want %q", raw, got, want)
		}
	}
	if _, err := ParseArtifactKind("podcast"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}

func TestArtifactKind_SubjectScopes(t *testing.T) {
	for _, k := range []ArtifactKind{KindFlashcards, KindQuiz, KindMindMap, KindExplanation, KindSummary} {
		if !k.RequiresSubject() || k.SubjectKey() != SubjectKeyDocument {
			t.Fatalf("%s should be document-scoped", k)
		}
	}
	if KindLearningPath.RequiresSubject() {
		t.Fatalf("learning path generation must not need a subject")
	}
	if KindLearningPath.SubjectKey() != SubjectKeyLearningPath {
		t.Fatalf("unexpected learning path key %q", KindLearningPath.SubjectKey())
	}
	if KindNotes.RequiresSubject() || KindNotes.SubjectKey() != "" {
		t.Fatalf("notes should be unscoped")
	}
}
