package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Banjo7331/compezze-app-frontend-sub000/internal/invite"
	"github.com/Banjo7331/compezze-app-frontend-sub000/internal/models"
	"github.com/Banjo7331/compezze-app-frontend-sub000/internal/rest"
	"github.com/Banjo7331/compezze-app-frontend-sub000/internal/rooms"
)

// consoleNotifier prints notifications to stderr so they interleave
// with, but never corrupt, the room feed on stdout.
type consoleNotifier struct{}

func (consoleNotifier) Notify(n models.Notification) {
	if n.Link != "" {
		fmt.Fprintf(os.Stderr, "[%s] %s: %s (%s)\n", n.Type, n.Title, n.Message, n.Link)
		return
	}
	fmt.Fprintf(os.Stderr, "[%s] %s: %s\n", n.Type, n.Title, n.Message)
}

// countdownTicker keeps the displayed remaining time moving between
// events: each tracked deadline runs a Countdown.Watch sampler until it
// hits zero, is replaced by a new deadline, or the room unmounts.
type countdownTicker struct {
	render func(remaining time.Duration)

	mu     sync.Mutex
	cancel context.CancelFunc
	endsAt time.Time
}

func newCountdownTicker(render func(remaining time.Duration)) *countdownTicker {
	return &countdownTicker{render: render}
}

// track follows endsAt. Re-tracking the same deadline is a no-op; a zero
// deadline just stops the current sampler.
func (c *countdownTicker) track(endsAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.endsAt.Equal(endsAt) {
		return
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.endsAt = endsAt
	if endsAt.IsZero() {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go rooms.Countdown{EndsAt: endsAt}.Watch(ctx, c.render)
}

func (c *countdownTicker) stop() {
	c.track(time.Time{})
}

func printRemaining(remaining time.Duration) {
	fmt.Printf("\r%s left   ", remaining.Round(time.Second))
	if remaining == 0 {
		fmt.Println()
	}
}

func newWatchCmd(app func() (*appContext, error)) *cobra.Command {
	watch := &cobra.Command{
		Use:   "watch",
		Short: "Follow a live room until interrupted",
	}
	watch.AddCommand(
		newWatchQuizCmd(app),
		newWatchSurveyCmd(app),
		newWatchContestCmd(app),
	)
	return watch
}

// awaitInterrupt blocks until SIGINT/SIGTERM.
func awaitInterrupt() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}

// bindInbox attaches the invitation listener for the authenticated user
// on the given registry. Returns a release func; no credential means no
// inbox, which is fine.
func bindInbox(a *appContext, subs invite.Subscriber) func() {
	id := a.whoAmI()
	if id == nil {
		return func() {}
	}
	l := invite.NewListener(subs, consoleNotifier{})
	l.SetIdentity(id.UserID)
	return l.ClearIdentity
}

func newWatchQuizCmd(app func() (*appContext, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "quiz <room-id>",
		Short: "Follow a quiz room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app()
			if err != nil {
				return err
			}
			reg := a.quizRegistry()
			defer bindInbox(a, reg)()

			ticker := newCountdownTicker(printRemaining)
			defer ticker.stop()

			svc := rest.NewQuizService(a.restClient)
			room := rooms.NewQuizRoom(svc, reg, consoleNotifier{}, args[0], func(v models.QuizViewState) {
				renderQuiz(v)
				if q := v.CurrentQuestion; q != nil && v.Status == models.QuizQuestionActive {
					ticker.track(q.EndsAt())
				} else {
					ticker.stop()
				}
			})
			room.Open()
			defer room.Close()

			awaitInterrupt()
			return nil
		},
	}
}

func newWatchSurveyCmd(app func() (*appContext, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "survey <room-id>",
		Short: "Follow a survey room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app()
			if err != nil {
				return err
			}
			reg := a.surveyRegistry()
			defer bindInbox(a, reg)()

			svc := rest.NewSurveyService(a.restClient)
			room := rooms.NewSurveyRoom(svc, reg, consoleNotifier{}, args[0], renderSurvey)
			room.Open()
			defer room.Close()

			awaitInterrupt()
			return nil
		},
	}
}

func newWatchContestCmd(app func() (*appContext, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "contest <room-id>",
		Short: "Follow a contest room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app()
			if err != nil {
				return err
			}
			reg := a.contestRegistry()
			defer bindInbox(a, reg)()

			ticker := newCountdownTicker(printRemaining)
			defer ticker.stop()

			svc := rest.NewContestService(a.restClient)
			room := rooms.NewContestRoom(svc, reg, consoleNotifier{}, args[0], func(v models.ContestViewState) {
				renderContest(v)
				if s := v.CurrentStage; s != nil && !v.Status.Terminal() {
					ticker.track(s.EndsAt())
				} else {
					ticker.stop()
				}
			})
			room.Open()
			defer room.Close()

			awaitInterrupt()
			return nil
		},
	}
}

func renderQuiz(v models.QuizViewState) {
	switch {
	case v.Loading:
		fmt.Println("loading...")
		return
	case v.Err != nil:
		fmt.Printf("error: %v\n", v.Err)
		return
	}

	fmt.Printf("== %s [%s] %d participants\n", v.Title, v.Status, v.ParticipantsCount)
	if q := v.CurrentQuestion; q != nil {
		remaining := rooms.QuestionCountdown(q.StartTime, q.TimeLimitSeconds).Remaining(time.Now())
		fmt.Printf("Q%d: %s (%s left)\n", q.Index, q.Text, remaining.Round(time.Second))
		for _, opt := range q.Options {
			marker := " "
			if v.CorrectOptionID == opt.ID {
				marker = "*"
			}
			fmt.Printf("  %s [%s] %s\n", marker, opt.ID, opt.Text)
		}
		if v.AnswerSubmitted {
			fmt.Println("  (answer submitted)")
		}
	}
	renderLeaderboard(v.Leaderboard)
	if v.FinalResults != nil {
		fmt.Println("-- final results --")
		renderLeaderboard(v.FinalResults.Leaderboard)
	}
}

func renderSurvey(v models.SurveyViewState) {
	switch {
	case v.Loading:
		fmt.Println("loading...")
		return
	case v.Err != nil:
		fmt.Printf("error: %v\n", v.Err)
		return
	}

	fmt.Printf("== %s [%s] %d participants\n", v.Title, v.Status, v.ParticipantsCount)
	for _, q := range v.Questions {
		fmt.Printf("Q: %s\n", q.Text)
		for _, opt := range q.Options {
			fmt.Printf("    [%s] %s\n", opt.ID, opt.Text)
		}
	}
	if v.CanViewResults() && v.Aggregate != nil {
		fmt.Printf("-- %d submissions --\n", v.Aggregate.SubmissionsCount)
		for _, qa := range v.Aggregate.Questions {
			fmt.Printf("  %s:", qa.QuestionID)
			for opt, n := range qa.Counts {
				fmt.Printf(" %s=%d", opt, n)
			}
			fmt.Println()
		}
	}
}

func renderContest(v models.ContestViewState) {
	switch {
	case v.Loading:
		fmt.Println("loading...")
		return
	case v.Err != nil:
		fmt.Printf("error: %v\n", v.Err)
		return
	}

	fmt.Printf("== %s [%s] stage %d/%d, %d participants\n",
		v.Title, v.Status, v.StagePosition, len(v.Stages), v.ParticipantsCount)
	if s := v.CurrentStage; s != nil {
		fmt.Printf("stage: %s (%s)\n", s.Title, s.Kind)
		if !s.EndsAt().IsZero() {
			remaining := rooms.Countdown{EndsAt: s.EndsAt()}.Remaining(time.Now())
			fmt.Printf("  %s left\n", remaining.Round(time.Second))
		}
	}
	if sub := v.Submission; sub != nil {
		fmt.Printf("now presenting: %q by %s [%s]\n", sub.Title, sub.Author, sub.ID)
	}
	renderLeaderboard(v.Leaderboard)
	if v.FinalResults != nil {
		fmt.Println("-- final results --")
		if v.FinalResults.WinnerID != "" {
			fmt.Printf("winner: %s\n", v.FinalResults.WinnerID)
		}
		renderLeaderboard(v.FinalResults.Leaderboard)
	}
	for _, msg := range v.Chat {
		fmt.Printf("<%s> %s\n", msg.Author, msg.Text)
	}
}

func renderLeaderboard(entries []models.LeaderboardEntry) {
	for _, e := range entries {
		fmt.Printf("  %2d. %-20s %d\n", e.Rank, e.Name, e.Score)
	}
}
