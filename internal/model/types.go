package model

// Flashcard is one question/answer pair.
type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// QuizQuestion is a multiple-choice question; CorrectAnswer is one of Options.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

type MindMapNode struct {
	ID   string          `json:"id"`
	Data MindMapNodeData `json:"data"`
}

type MindMapNodeData struct {
	Label string `json:"label"`
}

type MindMapEdge struct {
	ID     string `json:"id,omitempty" yaml:"id,omitempty"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

type MindMap struct {
	Nodes []MindMapNode `json:"nodes"`
	Edges []MindMapEdge `json:"edges"`
}

type Explanation struct {
	Explanation string `json:"explanation"`
}

type ImprovedNotes struct {
	ImprovedNotes string `json:"improved_notes"`
}

// StudySet is the combined response of the generate-all endpoint.
type StudySet struct {
	Summary    string         `json:"summary"`
	Flashcards []Flashcard    `json:"flashcards"`
	Questions  []QuizQuestion `json:"questions"`
}

type RoadmapDay struct {
	Day         int    `json:"day"`
	Topic       string `json:"topic"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

type Roadmap struct {
	Days []RoadmapDay `json:"days"`
}

// LearningPath is the stored path row. Generation wraps it as
// {status, path_id, data}; reads return the row directly.
type LearningPath struct {
	ID            string  `json:"id"`
	Goal          string  `json:"goal"`
	TimeframeDays int     `json:"timeframe_days,omitempty"`
	Roadmap       Roadmap `json:"roadmap"`
}

type PathGenerated struct {
	Status string       `json:"status"`
	PathID string       `json:"path_id"`
	Data   LearningPath `json:"data"`
}

type QuizAttempt struct {
	DocumentID       string         `json:"document_id"`
	Difficulty       string         `json:"difficulty"`
	Score            int            `json:"score"`
	TotalQuestions   int            `json:"total_questions"`
	Percentage       int            `json:"percentage"`
	TimeTakenSeconds int            `json:"time_taken_seconds"`
	WrongAnswers     []QuizQuestion `json:"wrong_answers"`
	CreatedAt        string         `json:"created_at,omitempty"`
}

type AnalyticsStats struct {
	TotalQuizzes   int     `json:"total_quizzes"`
	AverageScore   float64 `json:"average_score"`
	TotalStudyTime int     `json:"total_study_time"`
}

type Analytics struct {
	Stats          AnalyticsStats `json:"stats"`
	RecentAttempts []QuizAttempt  `json:"recent_attempts"`
}

type LibraryDocument struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	SourceType string   `json:"source_type"`
	FolderName string   `json:"folder_name,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	CreatedAt  string   `json:"created_at"`
}

type Library struct {
	Documents []LibraryDocument `json:"documents"`
}

type Credits struct {
	Credits int `json:"credits"`
}

type UploadResult struct {
	DocumentID string `json:"document_id"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
