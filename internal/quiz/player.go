package quiz

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrInvalidChoice is returned when an answer is not one of the presented choices.
	ErrInvalidChoice = errors.New("answer is not one of the presented choices")
	// ErrPlayerRetired is returned by a Player that was replaced by a newer one.
	ErrPlayerRetired = errors.New("quiz player retired")
)

// View is a presentation plus the countdown value at the time it was built.
type View struct {
	Presentation
	SecondsRemaining int `json:"seconds_remaining"`
}

// Outcome describes what a Player call changed.
type Outcome struct {
	// Accepted is true when the caller's answer was recorded.
	Accepted bool
	// TimedOut counts questions closed by the countdown during the call.
	TimedOut int
	Complete bool
	Session  *Session
	Result   *Result
}

// Player is the session-local UI state for one in-progress quiz: the choice
// order for the current question and its countdown. Choices are shuffled once
// per question index; the countdown is armed to the full length whenever the
// index changes and when the player is created. Building a Player for a resumed
// session therefore grants a fresh countdown regardless of time spent away.
//
// A Player is safe for use by a read loop and a ticker at the same time.
// Once retired it no longer writes to the store.
type Player struct {
	mu        sync.Mutex
	retired   bool
	lc        *Lifecycle
	session   *Session
	result    *Result
	choicesAt int
	shown     Presentation
	armedAt   time.Time
}

// NewPlayer wraps an in-progress session and arms the countdown.
func (l *Lifecycle) NewPlayer(session *Session) *Player {
	return &Player{
		lc:        l,
		session:   session,
		choicesAt: -1,
		armedAt:   l.now(),
	}
}

// Retire stops the player from writing. It waits for an in-flight write to
// finish, so nothing the player does lands in the store after Retire returns.
func (p *Player) Retire() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.retired = true
}

// Retired reports whether Retire has been called.
func (p *Player) Retired() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.retired
}

// Session returns the latest session state.
func (p *Player) Session() *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// Result returns the result once the quiz has completed.
func (p *Player) Result() *Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result
}

// Complete reports whether the last question has been closed.
func (p *Player) Complete() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session.Complete()
}

// View renders the current question. The second return is false once complete.
func (p *Player) View() (View, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewLocked()
}

// Remaining returns whole seconds left on the current question's countdown.
func (p *Player) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.remainingLocked()
}

// Answer submits a choice for the current question. If the countdown has
// already run out the expired questions are closed as timeouts and the answer
// is discarded (Outcome.Accepted is false).
func (p *Player) Answer(ctx context.Context, answer string) (Outcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out, err := p.expireLocked(ctx)
	if err != nil || out.TimedOut > 0 {
		return out, err
	}
	if p.session.Complete() {
		return out, ErrSessionComplete
	}
	if !p.offered(answer) {
		return out, ErrInvalidChoice
	}

	remaining := p.remainingLocked()
	next, complete, err := p.lc.SubmitAnswer(ctx, p.session, &answer, remaining)
	if err != nil {
		return out, err
	}
	p.advance(next, complete)
	out.Accepted = true
	out.Complete = complete
	out.Session = p.session
	out.Result = p.result
	return out, nil
}

// Forfeit closes the current question with no answer before its countdown
// ends, as when a client runs its own timer. Time taken is the time elapsed.
func (p *Player) Forfeit(ctx context.Context) (Outcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out, err := p.expireLocked(ctx)
	if err != nil || out.TimedOut > 0 {
		return out, err
	}
	if p.session.Complete() {
		return out, ErrSessionComplete
	}

	next, complete, err := p.lc.SubmitAnswer(ctx, p.session, nil, p.remainingLocked())
	if err != nil {
		return out, err
	}
	p.advance(next, complete)
	out.TimedOut = 1
	out.Complete = complete
	out.Session = p.session
	out.Result = p.result
	return out, nil
}

// Expire closes every question whose countdown has reached zero. Each closed
// question re-arms the next one from the moment the previous hit zero.
func (p *Player) Expire(ctx context.Context) (Outcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.expireLocked(ctx)
}

func (p *Player) expireLocked(ctx context.Context) (Outcome, error) {
	if p.retired {
		return Outcome{Session: p.session}, ErrPlayerRetired
	}
	out := Outcome{Session: p.session, Result: p.result, Complete: p.session.Complete()}
	length := time.Duration(p.session.SecondsPerQuestion) * time.Second
	for !p.session.Complete() && p.remainingLocked() == 0 {
		deadline := p.armedAt.Add(length)
		next, complete, err := p.lc.SubmitAnswer(ctx, p.session, nil, 0)
		if err != nil {
			return out, err
		}
		p.advance(next, complete)
		p.armedAt = deadline
		out.TimedOut++
		out.Complete = complete
		out.Session = p.session
		out.Result = p.result
	}
	return out, nil
}

func (p *Player) advance(next *Session, complete bool) {
	p.session = next
	p.armedAt = p.lc.now()
	if complete {
		p.result = &Result{Session: *next}
	}
}

func (p *Player) remainingLocked() int {
	elapsed := int(p.lc.now().Sub(p.armedAt) / time.Second)
	remaining := p.session.SecondsPerQuestion - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (p *Player) viewLocked() (View, bool) {
	if p.session.Complete() {
		return View{}, false
	}
	if p.choicesAt != p.session.CurrentIndex {
		pres, ok := p.lc.Present(p.session)
		if !ok {
			return View{}, false
		}
		p.shown = pres
		p.choicesAt = pres.Index
	}
	pres := p.shown
	pres.Choices = make([]string, len(p.shown.Choices))
	copy(pres.Choices, p.shown.Choices)
	return View{Presentation: pres, SecondsRemaining: p.remainingLocked()}, true
}

func (p *Player) offered(answer string) bool {
	q, ok := p.session.Current()
	if !ok {
		return false
	}
	if q.Type == TypeBoolean {
		return answer == "True" || answer == "False"
	}
	if answer == q.CorrectAnswer {
		return true
	}
	for _, a := range q.IncorrectAnswers {
		if a == answer {
			return true
		}
	}
	return false
}
