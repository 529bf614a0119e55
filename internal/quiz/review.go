package quiz

// NoAnswerText is shown in a review for a question closed by the countdown.
const NoAnswerText = "Time's up! (No answer)"

// ReviewItem is one answered question as shown on the result page.
type ReviewItem struct {
	Number        int    `json:"number"`
	Category      string `json:"category"`
	Difficulty    string `json:"difficulty"`
	Prompt        string `json:"prompt"`
	CorrectAnswer string `json:"correctAnswer"`
	YourAnswer    string `json:"yourAnswer"`
	Correct       bool   `json:"correct"`
	TimedOut      bool   `json:"timedOut"`
	TimeTaken     int    `json:"timeTaken"`
}

// Summary is the full result view: score plus per-question review.
type Summary struct {
	Score              Score         `json:"score"`
	SecondsPerQuestion int           `json:"timePerQuestion"`
	StartedAt          int64         `json:"startTime"`
	Configuration      Configuration `json:"settings"`
	Review             []ReviewItem  `json:"review"`
}

// Review lists answers in question order, numbered from 1.
func (r *Result) Review() []ReviewItem {
	items := make([]ReviewItem, 0, len(r.Answers))
	for i, a := range r.Answers {
		your := NoAnswerText
		if a.UserAnswer != nil {
			your = *a.UserAnswer
		}
		items = append(items, ReviewItem{
			Number:        i + 1,
			Category:      a.Question.Category,
			Difficulty:    a.Question.Difficulty,
			Prompt:        a.Question.Prompt,
			CorrectAnswer: a.Question.CorrectAnswer,
			YourAnswer:    your,
			Correct:       a.Correct(),
			TimedOut:      a.TimedOut(),
			TimeTaken:     a.SecondsTaken,
		})
	}
	return items
}

// Summarize builds the result view.
func (r *Result) Summarize() Summary {
	return Summary{
		Score:              r.Score(),
		SecondsPerQuestion: r.SecondsPerQuestion,
		StartedAt:          r.StartedAt,
		Configuration:      r.Configuration,
		Review:             r.Review(),
	}
}
