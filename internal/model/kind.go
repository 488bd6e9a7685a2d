package model

import (
	"fmt"
	"strings"
)

type ArtifactKind string

const (
	KindFlashcards   ArtifactKind = "flashcards"
	KindQuiz         ArtifactKind = "quiz"
	KindMindMap      ArtifactKind = "mindmap"
	KindLearningPath ArtifactKind = "learning_path"
	KindNotes        ArtifactKind = "notes"
	KindExplanation  ArtifactKind = "explanation"
	KindSummary      ArtifactKind = "summary"
)

// Persisted client-state keys that identify the subject of an artifact.
const (
	SubjectKeyDocument     = "documentId"
	SubjectKeyLearningPath = "currentLearningPathId"
)

var allKinds = []ArtifactKind{
	KindFlashcards,
	KindQuiz,
	KindMindMap,
	KindLearningPath,
	KindNotes,
	KindExplanation,
	KindSummary,
}

func ParseArtifactKind(raw string) (ArtifactKind, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	v = strings.ReplaceAll(v, "-", "_")
	switch v {
	case "mind_map":
		v = string(KindMindMap)
	case "path":
		v = string(KindLearningPath)
	}
	for _, k := range allKinds {
		if string(k) == v {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown artifact kind %q", raw)
}

// SubjectKey names the persisted key holding this kind's subject id, or ""
// for kinds that are not tied to a stored subject.
func (k ArtifactKind) SubjectKey() string {
	switch k {
	case KindFlashcards, KindQuiz, KindMindMap, KindExplanation, KindSummary:
		return SubjectKeyDocument
	case KindLearningPath:
		return SubjectKeyLearningPath
	default:
		return ""
	}
}

// RequiresSubject reports whether generating this kind needs a subject id.
// A learning path is generated from a goal; its key only matters when an
// existing path is viewed or updated.
func (k ArtifactKind) RequiresSubject() bool {
	switch k {
	case KindFlashcards, KindQuiz, KindMindMap, KindExplanation, KindSummary:
		return true
	default:
		return false
	}
}

func (k ArtifactKind) String() string {
	return string(k)
}
