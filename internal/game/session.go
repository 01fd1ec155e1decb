// Package game runs a campaign: the turn state machine that decides when a new
// issue may be generated and how it is merged into the session, plus the
// manager that creates, saves and restores sessions.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/talgya/daily-decree/internal/llm"
	"github.com/talgya/daily-decree/internal/newspaper"
)

// Generator runs one logical generation request (usually an *llm.Chain).
type Generator interface {
	Generate(ctx context.Context, req llm.Request) (*llm.Result, error)
}

// Illustrator produces the front-page photo (usually an *llm.Illustrator).
type Illustrator interface {
	Illustrate(ctx context.Context, visualPrompt string) (string, error)
}

// Progress receives status updates while a new game is being generated.
type Progress func(status string, percent int)

// Deps are the collaborators a session calls out to. Illustrator may be nil.
type Deps struct {
	Generator   Generator
	Illustrator Illustrator
}

// Session is one campaign. All methods are safe for concurrent use; the
// mutex is never held across a provider call.
type Session struct {
	ID      string
	Country newspaper.Country
	deps    Deps

	mu      sync.Mutex
	state   State
	closed  bool
	turn    int
	issue   *newspaper.Issue
	history []newspaper.TurnRecord
	advice  []newspaper.AdvisorOpinion
}

// View is a point-in-time copy of a session for rendering.
type View struct {
	ID      string                     `json:"id"`
	Country newspaper.Country          `json:"country"`
	State   string                     `json:"state"`
	Turn    int                        `json:"turn"`
	Issue   *newspaper.Issue           `json:"issue"`
	History []newspaper.TurnRecord     `json:"history"`
	Advice  []newspaper.AdvisorOpinion `json:"advice"`
}

// Start generates the first issue for a new campaign. leader may be empty,
// in which case the model invents one.
func Start(ctx context.Context, deps Deps, country newspaper.Country, leader string, progress Progress) (*Session, error) {
	if !country.Valid() {
		return nil, fmt.Errorf("start game: unknown country %q", country)
	}
	if progress == nil {
		progress = func(string, int) {}
	}

	s := &Session{
		ID:      uuid.NewString(),
		Country: country,
		deps:    deps,
		state:   StatePlaying,
		history: []newspaper.TurnRecord{},
	}

	progress("Drafting Front Page...", 10)
	req := llm.Request{
		Prompt:            buildInitPrompt(country, strings.TrimSpace(leader)),
		SystemInstruction: initSystem,
		Schema:            newspaper.IssueSchema(),
		Marker:            "headline",
		Accept:            newspaper.CheckIssue,
		Progress: func(label string) {
			progress(fmt.Sprintf("Drafting Front Page (%s)...", label), 10)
		},
	}
	issue, err := s.generateIssue(ctx, req, func() { progress("Developing Photos...", 90) })
	if err != nil {
		return nil, fmt.Errorf("start game: %w", err)
	}
	s.issue = issue
	progress("Ready", 100)

	slog.Info("new game started", "session", s.ID, "country", country, "model", issue.AIModel)
	return s, nil
}

// generateIssue runs an issue request and illustrates the result. A failed
// illustration leaves ImageURL empty.
func (s *Session) generateIssue(ctx context.Context, req llm.Request, beforeImage func()) (*newspaper.Issue, error) {
	res, err := s.deps.Generator.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	issue, err := newspaper.ParseIssue(res.Text, s.Country, res.Model)
	if err != nil {
		return nil, err
	}

	if s.deps.Illustrator != nil && issue.MainStory.VisualPrompt != "" {
		if beforeImage != nil {
			beforeImage()
		}
		url, err := s.deps.Illustrator.Illustrate(ctx, issue.MainStory.VisualPrompt)
		if err != nil {
			slog.Warn("image generation failed", "session", s.ID, "error", err)
		} else {
			issue.ImageURL = url
		}
	}
	return issue, nil
}

// SubmitAction plays one turn. It is only accepted while PLAYING; on failure
// the session is left exactly as it was, back in PLAYING.
func (s *Session) SubmitAction(ctx context.Context, action string) (*newspaper.Issue, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return nil, ErrEmptyAction
	}

	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return nil, ErrSessionClosed
	case s.state == StateLoading:
		s.mu.Unlock()
		turnsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrTurnInProgress
	case s.state == StateGameOver:
		s.mu.Unlock()
		turnsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrGameOver
	}
	s.state = StateLoading
	s.advice = nil
	in := turnInput{
		country: s.Country,
		cast:    append([]newspaper.Character{}, s.issue.Characters...),
		stats:   s.issue.Stats,
		turn:    s.turn,
		history: append([]newspaper.TurnRecord{}, s.history...),
		action:  action,
	}
	s.mu.Unlock()

	issue, err := s.generateIssue(ctx, llm.Request{
		Prompt:            buildTurnPrompt(in),
		SystemInstruction: turnSystem,
		Schema:            newspaper.IssueSchema(),
		Marker:            "headline",
		Accept:            newspaper.CheckIssue,
	}, nil)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	if err != nil {
		s.state = StatePlaying
		turnsTotal.WithLabelValues("failed").Inc()
		slog.Warn("turn failed", "session", s.ID, "turn", s.turn+1, "error", err)
		return nil, fmt.Errorf("process turn: %w", err)
	}

	// Merge against the map as it is now so lookups made during the turn survive.
	issue.Diplomacy = newspaper.MergeDiplomacy(s.issue.Diplomacy, issue.Diplomacy)
	s.turn++
	s.history = append(s.history, newspaper.TurnRecord{
		TurnNumber:    s.turn,
		PlayerAction:  action,
		ResultSummary: issue.MainStory.Headline,
	})
	s.issue = issue

	if issue.GameOver {
		s.state = StateGameOver
		turnsTotal.WithLabelValues("game_over").Inc()
		slog.Info("game over", "session", s.ID, "turn", s.turn, "reason", issue.GameOverReason)
	} else {
		s.state = StatePlaying
		turnsTotal.WithLabelValues("ok").Inc()
	}
	return issue.Clone(), nil
}

// ConsultAdvisors asks the cabinet a question. It never fails because of the
// provider: any generation error yields the fallback opinion instead.
func (s *Session) ConsultAdvisors(ctx context.Context, question string) ([]newspaper.AdvisorOpinion, error) {
	question = strings.TrimSpace(question)

	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return nil, ErrSessionClosed
	case s.state == StateGameOver:
		s.mu.Unlock()
		return nil, ErrGameOver
	}
	if question == "" {
		s.mu.Unlock()
		return nil, nil
	}
	cast := append([]newspaper.Character{}, s.issue.Characters...)
	turn := s.turn
	s.mu.Unlock()

	opinions := s.askCabinet(ctx, question, cast)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed && s.turn == turn && s.state != StateLoading {
		s.advice = opinions
	}
	return append([]newspaper.AdvisorOpinion{}, opinions...), nil
}

func (s *Session) askCabinet(ctx context.Context, question string, cast []newspaper.Character) []newspaper.AdvisorOpinion {
	res, err := s.deps.Generator.Generate(ctx, llm.Request{
		Prompt:            buildAdvisorPrompt(question, cast),
		SystemInstruction: advisorSystem,
		Schema:            newspaper.AdvisorSchema(),
		Marker:            "advice",
		Accept:            newspaper.CheckAdvisors,
	})
	if err == nil {
		var ops []newspaper.AdvisorOpinion
		if ops, err = newspaper.ParseAdvisors(res.Text); err == nil {
			return ops
		}
	}
	slog.Warn("advisor consultation failed", "session", s.ID, "error", err)
	return append([]newspaper.AdvisorOpinion{}, newspaper.FallbackAdvice...)
}

// LookupCountry returns the intelligence record for a foreign country,
// generating and caching it on first request. Cached records are returned
// without contacting any provider.
func (s *Session) LookupCountry(ctx context.Context, name string) (newspaper.DiplomacyRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return newspaper.DiplomacyRecord{}, ErrEmptyCountry
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return newspaper.DiplomacyRecord{}, ErrSessionClosed
	}
	if rec, ok := s.issue.Diplomacy[name]; ok {
		s.mu.Unlock()
		return rec, nil
	}
	prompt := buildDiplomacyPrompt(name, s.Country, s.issue)
	s.mu.Unlock()

	res, err := s.deps.Generator.Generate(ctx, llm.Request{
		Prompt:            prompt,
		SystemInstruction: diplomacySystem,
		Schema:            newspaper.CountrySchema(),
		Marker:            "leaderName",
		Accept:            newspaper.CheckCountry,
	})
	if err != nil {
		return newspaper.DiplomacyRecord{}, fmt.Errorf("lookup %s: %w", name, err)
	}
	rec, err := newspaper.ParseDiplomacy(res.Text, name)
	if err != nil {
		return newspaper.DiplomacyRecord{}, fmt.Errorf("lookup %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return newspaper.DiplomacyRecord{}, ErrSessionClosed
	}
	s.issue.Diplomacy = newspaper.MergeDiplomacy(s.issue.Diplomacy, map[string]newspaper.DiplomacyRecord{name: rec})
	return rec, nil
}

// Close ends the session. Every later call returns ErrSessionClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.advice = nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Turn returns the number of turns played.
func (s *Session) Turn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn
}

// View returns a copy of the session for rendering.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		ID:      s.ID,
		Country: s.Country,
		State:   s.state.String(),
		Turn:    s.turn,
		Issue:   s.issue.Clone(),
		History: append([]newspaper.TurnRecord{}, s.history...),
		Advice:  append([]newspaper.AdvisorOpinion{}, s.advice...),
	}
}
