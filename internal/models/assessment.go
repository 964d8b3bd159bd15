package models

type Question struct {
	ID      int      `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

type Answer struct {
	QuestionID int    `json:"question_id"`
	Answer     string `json:"answer"`
}

type SelectRequest struct {
	Option string `json:"option"`
}

// AssessmentSnapshot is a read-only view of an assessment flow.
type AssessmentSnapshot struct {
	State       string    `json:"state"`
	Index       int       `json:"index"`
	Total       int       `json:"total"`
	Question    *Question `json:"question,omitempty"`
	Selected    string    `json:"selected,omitempty"`
	CanAdvance  bool      `json:"can_advance"`
	Answers     []Answer  `json:"answers"`
	Quote       string    `json:"quote,omitempty"`
	Response    string    `json:"response,omitempty"`
	Suggestions []string  `json:"suggestions,omitempty"`
	Error       string    `json:"error,omitempty"`
}
