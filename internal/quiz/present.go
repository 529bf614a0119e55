package quiz

import (
	"math/rand/v2"
)

// Shuffler permutes n elements in place through swap. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

type globalShuffler struct{}

func (globalShuffler) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// PresentCurrentQuestion projects the current question for display. Boolean
// questions always offer "True" then "False"; multiple-choice answers are
// uniformly permuted on every call. A nil shuffler uses the global source.
func PresentCurrentQuestion(session *Session, shuffler Shuffler) (Presentation, bool) {
	if session == nil {
		return Presentation{}, false
	}
	q, ok := session.Current()
	if !ok {
		return Presentation{}, false
	}
	return Presentation{
		Index:              session.CurrentIndex,
		Total:              len(session.Questions),
		Category:           q.Category,
		Type:               q.Type,
		Difficulty:         q.Difficulty,
		Prompt:             q.Prompt,
		Choices:            Choices(q, shuffler),
		SecondsPerQuestion: session.SecondsPerQuestion,
	}, true
}

// Choices returns the answer options for q in display order.
func Choices(q Question, shuffler Shuffler) []string {
	if q.Type == TypeBoolean {
		return []string{"True", "False"}
	}
	choices := make([]string, 0, len(q.IncorrectAnswers)+1)
	choices = append(choices, q.IncorrectAnswers...)
	choices = append(choices, q.CorrectAnswer)
	if shuffler == nil {
		shuffler = globalShuffler{}
	}
	shuffler.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})
	return choices
}
