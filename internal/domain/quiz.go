package domain

import "time"

// QuizResult is the scored answer to one question
type QuizResult struct {
	QuestionID    string `json:"question_id"`
	Selected      int    `json:"selected"`
	Correct       bool   `json:"correct"`
	CorrectOption int    `json:"correct_option"`
	Explanation   string `json:"explanation"`
	PointsAwarded int64  `json:"points_awarded"`
}

// ScoreAnswer scores a single answer. A nil selection is rejected before
// scoring. There is no partial credit.
func ScoreAnswer(q QuizQuestion, selected *int) (QuizResult, error) {
	if selected == nil {
		return QuizResult{}, ErrNoSelectionMade
	}
	if *selected < 0 || *selected >= len(q.Options) {
		return QuizResult{}, ErrInvalidOption
	}

	res := QuizResult{
		QuestionID:    q.ID,
		Selected:      *selected,
		Correct:       *selected == q.Correct,
		CorrectOption: q.Correct,
		Explanation:   q.Explanation,
	}
	if res.Correct {
		res.PointsAwarded = q.Points
	}
	return res, nil
}

// QuizAttempt is the audit record of an answered question. PointsCredited
// is zero when the question already credited the user before.
type QuizAttempt struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	QuestionID     string    `json:"question_id"`
	Selected       int       `json:"selected"`
	Correct        bool      `json:"correct"`
	PointsAwarded  int64     `json:"points_awarded"`
	PointsCredited int64     `json:"points_credited"`
	CreatedAt      time.Time `json:"created_at"`
}

// QuizAnswerResult is returned to the caller after answering
type QuizAnswerResult struct {
	Result         QuizResult `json:"result"`
	PointsCredited int64      `json:"points_credited"`
	User           *User      `json:"user"`
	NewBadges      []Badge    `json:"new_badges"`
}
