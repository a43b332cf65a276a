package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Banjo7331/compezze-app-frontend-sub000/internal/config"
	"github.com/Banjo7331/compezze-app-frontend-sub000/internal/rest"
)

func actionContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), config.RequestTimeout)
}

func newJoinCmd(app func() (*appContext, error)) *cobra.Command {
	var name string

	join := &cobra.Command{
		Use:   "join (quiz|survey|contest) <room-id>",
		Short: "Join a room as a participant",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app()
			if err != nil {
				return err
			}
			if name == "" {
				if id := a.whoAmI(); id != nil {
					name = id.Name
				}
			}

			ctx, cancel := actionContext()
			defer cancel()

			var res *rest.JoinResult
			switch args[0] {
			case "quiz":
				res, err = rest.NewQuizService(a.restClient).Join(ctx, args[1], name)
			case "survey":
				res, err = rest.NewSurveyService(a.restClient).Join(ctx, args[1], name)
			case "contest":
				res, err = rest.NewContestService(a.restClient).Join(ctx, args[1], name)
			default:
				return fmt.Errorf("unknown room kind %q", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Printf("joined %s as participant %s\n", res.RoomID, res.ParticipantID)
			return nil
		},
	}
	join.Flags().StringVar(&name, "name", "", "display name (defaults to the token's name claim)")
	return join
}

func newAnswerCmd(app func() (*appContext, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "answer <room-id> <question-id> <option-id>",
		Short: "Answer the active quiz question",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app()
			if err != nil {
				return err
			}
			ctx, cancel := actionContext()
			defer cancel()

			if err := rest.NewQuizService(a.restClient).SubmitAnswer(ctx, args[0], args[1], args[2]); err != nil {
				return err
			}
			fmt.Println("answer recorded")
			return nil
		},
	}
}

// parseSurveyAnswers turns "q1=o1,o2" pairs into submission entries.
func parseSurveyAnswers(args []string) ([]rest.SurveyAnswer, error) {
	answers := make([]rest.SurveyAnswer, 0, len(args))
	for _, arg := range args {
		questionID, opts, ok := strings.Cut(arg, "=")
		if !ok || questionID == "" || opts == "" {
			return nil, fmt.Errorf("invalid answer %q, expected question-id=option-id[,option-id...]", arg)
		}
		answers = append(answers, rest.SurveyAnswer{
			QuestionID: questionID,
			OptionIDs:  strings.Split(opts, ","),
		})
	}
	return answers, nil
}

func newSubmitCmd(app func() (*appContext, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <room-id> <question-id=option-id[,option-id...]>...",
		Short: "Submit survey answers",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app()
			if err != nil {
				return err
			}
			answers, err := parseSurveyAnswers(args[1:])
			if err != nil {
				return err
			}

			ctx, cancel := actionContext()
			defer cancel()

			if err := rest.NewSurveyService(a.restClient).SubmitAnswers(ctx, args[0], answers); err != nil {
				return err
			}
			fmt.Println("answers submitted")
			return nil
		},
	}
}

func newVoteCmd(app func() (*appContext, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "vote <room-id> <stage-id> <entry-id> <score>",
		Short: "Score a presented contest entry",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app()
			if err != nil {
				return err
			}
			score, err := strconv.Atoi(args[3])
			if err != nil {
				return fmt.Errorf("invalid score %q", args[3])
			}

			ctx, cancel := actionContext()
			defer cancel()

			if err := rest.NewContestService(a.restClient).Vote(ctx, args[0], args[1], args[2], score); err != nil {
				return err
			}
			fmt.Println("vote recorded")
			return nil
		},
	}
}

func newHostCmd(app func() (*appContext, error)) *cobra.Command {
	host := &cobra.Command{
		Use:   "host",
		Short: "Host-only room transitions",
	}

	quizActions := map[string]func(*rest.QuizService, context.Context, string) error{
		"start":  (*rest.QuizService).Start,
		"next":   (*rest.QuizService).NextQuestion,
		"finish": (*rest.QuizService).FinishQuestion,
		"close":  (*rest.QuizService).Close,
	}
	host.AddCommand(&cobra.Command{
		Use:       "quiz <room-id> (start|next|finish|close)",
		Short:     "Drive a quiz room",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"start", "next", "finish", "close"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app()
			if err != nil {
				return err
			}
			action, ok := quizActions[args[1]]
			if !ok {
				return fmt.Errorf("unknown quiz action %q", args[1])
			}
			ctx, cancel := actionContext()
			defer cancel()
			return action(rest.NewQuizService(a.restClient), ctx, args[0])
		},
	})

	host.AddCommand(&cobra.Command{
		Use:   "survey <room-id> close",
		Short: "Close a survey room",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app()
			if err != nil {
				return err
			}
			if args[1] != "close" {
				return fmt.Errorf("unknown survey action %q", args[1])
			}
			ctx, cancel := actionContext()
			defer cancel()
			return rest.NewSurveyService(a.restClient).Close(ctx, args[0])
		},
	})

	contestActions := map[string]func(*rest.ContestService, context.Context, string) error{
		"start":   (*rest.ContestService).Start,
		"advance": (*rest.ContestService).AdvanceStage,
		"finish":  (*rest.ContestService).Finish,
	}
	host.AddCommand(&cobra.Command{
		Use:       "contest <room-id> (start|advance|finish)",
		Short:     "Drive a contest room",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"start", "advance", "finish"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app()
			if err != nil {
				return err
			}
			action, ok := contestActions[args[1]]
			if !ok {
				return fmt.Errorf("unknown contest action %q", args[1])
			}
			ctx, cancel := actionContext()
			defer cancel()
			return action(rest.NewContestService(a.restClient), ctx, args[0])
		},
	})

	return host
}
