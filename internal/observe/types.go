package observe

// Request is the metrics snapshot sent to POST /observe. Field names follow
// the analysis service's wire contract.
type Request struct {
	UserID                string             `json:"userId"`
	MissionID             string             `json:"missionId"`
	IdleTime              int                `json:"idleTime"`
	EditsPerMinute        float64            `json:"editsPerMinute"`
	ConsecutiveFailedRuns int                `json:"consecutiveFailedRuns"`
	TotalAttempts         int                `json:"totalAttempts"`
	CodeSimilarity        float64            `json:"codeSimilarity"`
	SameErrorCount        int                `json:"sameErrorCount"`
	LastErrorType         string             `json:"lastErrorType,omitempty"`
	LastErrorMessage      string             `json:"lastErrorMessage,omitempty"`
	CursorMovements       int                `json:"cursorMovements"`
	HintDismissCount      int                `json:"hintDismissCount"`
	TimeOnCurrentStep     int                `json:"timeOnCurrentStep"`
	CurrentCode           string             `json:"currentCode"`
	PreviousCode          string             `json:"previousCode"`
	WeakConcepts          []string           `json:"weakConcepts"`
	StrongConcepts        []string           `json:"strongConcepts"`
	MasterySnapshot       map[string]float64 `json:"masterySnapshot,omitempty"`
	LastActivity          string             `json:"lastActivity"`
}

// Response is the analysis service's judgment on whether to intervene.
type Response struct {
	Intervention      bool           `json:"intervention"`
	Message           string         `json:"message,omitempty"`
	InterventionType  string         `json:"interventionType,omitempty"`
	Severity          string         `json:"severity,omitempty"`
	HintTrigger       string         `json:"hintTrigger,omitempty"`
	DetailedAnalysis  map[string]any `json:"detailedAnalysis,omitempty"`
	ContextForChatbot map[string]any `json:"contextForChatbot,omitempty"`
}

// Feedback is the body for POST /intervention-feedback, reporting how the
// learner resolved a hint.
type Feedback struct {
	UserID           string `json:"userId"`
	MissionID        string `json:"missionId"`
	InterventionType string `json:"interventionType"`
	Accepted         bool   `json:"accepted"`
	HintTrigger      string `json:"hintTrigger,omitempty"`
}
