// Package terminal plays quizzes on a text terminal.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gokatarajesh/trivia-quiz/internal/quiz"
)

// ErrQuit is returned when the player leaves before the last question. The
// session stays stored and can be resumed.
var ErrQuit = errors.New("quiz left unfinished")

// Game drives one Player from line input and a tick source.
type Game struct {
	out   io.Writer
	lines <-chan string
	ticks <-chan time.Time
}

// NewGame reads answers from in, one per line, and checks the countdown on
// every value from ticks.
func NewGame(in io.Reader, out io.Writer, ticks <-chan time.Time) *Game {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return &Game{out: out, lines: lines, ticks: ticks}
}

// Confirm asks a yes/no question; an empty answer means yes.
func (g *Game) Confirm(ctx context.Context, prompt string) bool {
	fmt.Fprintf(g.out, "%s [Y/n] ", prompt)
	select {
	case <-ctx.Done():
		return false
	case line, ok := <-g.lines:
		if !ok {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "" || answer == "y" || answer == "yes"
	}
}

// Play runs the question loop until the quiz completes or the player quits.
func (g *Game) Play(ctx context.Context, p *quiz.Player) (*quiz.Result, error) {
	shown, lastRemaining := -1, -1
	for {
		if p.Complete() {
			return p.Result(), nil
		}
		view, ok := p.View()
		if !ok {
			return p.Result(), nil
		}
		if view.Index != shown {
			g.printQuestion(view)
			shown, lastRemaining = view.Index, view.SecondsRemaining
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-g.ticks:
			out, err := p.Expire(ctx)
			if err != nil {
				return nil, err
			}
			if out.TimedOut > 0 {
				fmt.Fprintln(g.out, "Time's up!")
				continue
			}
			if r := p.Remaining(); r != lastRemaining {
				lastRemaining = r
				if r <= 5 || r%5 == 0 {
					fmt.Fprintf(g.out, "  %ds left\n", r)
				}
			}

		case line, ok := <-g.lines:
			if !ok {
				return nil, ErrQuit
			}
			line = strings.TrimSpace(line)
			if strings.EqualFold(line, "q") {
				return nil, ErrQuit
			}
			n, err := strconv.Atoi(line)
			if err != nil || n < 1 || n > len(view.Choices) {
				fmt.Fprintf(g.out, "Enter a number between 1 and %d, or q to quit.\n", len(view.Choices))
				continue
			}
			out, err := p.Answer(ctx, view.Choices[n-1])
			if errors.Is(err, quiz.ErrSessionComplete) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if !out.Accepted {
				fmt.Fprintln(g.out, "Too late, time ran out.")
			}
		}
	}
}

func (g *Game) printQuestion(v quiz.View) {
	fmt.Fprintf(g.out, "\nQuestion %d/%d  [%s, %s]  %ds\n", v.Index+1, v.Total, html.UnescapeString(v.Category), v.Difficulty, v.SecondsRemaining)
	fmt.Fprintln(g.out, html.UnescapeString(v.Prompt))
	for i, c := range v.Choices {
		fmt.Fprintf(g.out, "  %d) %s\n", i+1, html.UnescapeString(c))
	}
	fmt.Fprint(g.out, "> ")
}

// PrintSummary writes the score and per-question review. Question text comes
// HTML-escaped from the source and is unescaped for display only.
func PrintSummary(w io.Writer, s quiz.Summary) {
	pct := 0
	if s.Score.Total > 0 {
		pct = s.Score.Correct * 100 / s.Score.Total
	}
	fmt.Fprintf(w, "\nScore: %d/%d (%d%%)\n", s.Score.Correct, s.Score.Total, pct)
	for _, item := range s.Review {
		mark := "✗"
		if item.Correct {
			mark = "✓"
		}
		fmt.Fprintf(w, "\n%s %d. %s\n", mark, item.Number, html.UnescapeString(item.Prompt))
		fmt.Fprintf(w, "   Your answer:    %s\n", html.UnescapeString(item.YourAnswer))
		if !item.Correct {
			fmt.Fprintf(w, "   Correct answer: %s\n", html.UnescapeString(item.CorrectAnswer))
		}
		fmt.Fprintf(w, "   Time: %ds  (%s, %s)\n", item.TimeTaken, html.UnescapeString(item.Category), item.Difficulty)
	}
}
