package models

// View states are the reconcilers' render-ready output. Each mounted room
// owns exactly one; consumers receive defensive copies and never mutate
// shared slices. Exactly one of {Loading, Err != nil, ready-with-status}
// holds at any time.

// QuizViewState is the render-ready quiz room view.
type QuizViewState struct {
	Loading bool
	Err     error

	RoomID            string
	Title             string
	Status            QuizStatus
	HostID            string
	ParticipantsCount int
	CurrentQuestion   *Question
	CorrectOptionID   string
	Leaderboard       []LeaderboardEntry
	FinalResults      *FinalResults
	Chat              []ChatMessage

	// Local affordance only: set when this client submitted an answer for
	// the current question. Cleared on NEW_QUESTION. Never derived from
	// action responses beyond "the call succeeded".
	AnswerSubmitted bool
}

// Ready reports whether room content may be rendered.
func (v *QuizViewState) Ready() bool { return !v.Loading && v.Err == nil }

// Clone returns a copy safe to hand to a consumer.
func (v *QuizViewState) Clone() QuizViewState {
	out := *v
	out.Leaderboard = cloneLeaderboard(v.Leaderboard)
	out.Chat = append([]ChatMessage(nil), v.Chat...)
	if v.CurrentQuestion != nil {
		q := *v.CurrentQuestion
		q.Options = append([]Option(nil), v.CurrentQuestion.Options...)
		out.CurrentQuestion = &q
	}
	out.FinalResults = cloneFinalResults(v.FinalResults)
	return out
}

// SurveyViewState is the render-ready survey room view.
type SurveyViewState struct {
	Loading bool
	Err     error

	RoomID            string
	Title             string
	Status            SurveyStatus
	HostID            string
	ParticipantsCount int
	Questions         []SurveyQuestion
	Aggregate         *SurveyAggregate
	FinalResults      *FinalResults

	// Set from the snapshot or after a successful local submit.
	Submitted bool
}

func (v *SurveyViewState) Ready() bool { return !v.Loading && v.Err == nil }

// CanViewResults is the client-side rendering gate: aggregates are shown
// only after the caller's own submission is recorded, unless the room is
// already closed.
func (v *SurveyViewState) CanViewResults() bool {
	return v.Submitted || v.Status == SurveyClosed
}

func (v *SurveyViewState) Clone() SurveyViewState {
	out := *v
	out.Questions = append([]SurveyQuestion(nil), v.Questions...)
	out.Aggregate = cloneAggregate(v.Aggregate)
	out.FinalResults = cloneFinalResults(v.FinalResults)
	return out
}

// ContestViewState is the render-ready contest room view.
type ContestViewState struct {
	Loading bool
	Err     error

	RoomID            string
	Title             string
	Status            ContestStatus
	HostID            string
	ParticipantsCount int
	Stages            []Stage
	StagePosition     int
	CurrentStage      *Stage
	Submission        *Submission
	Leaderboard       []LeaderboardEntry
	FinalResults      *FinalResults
	Chat              []ChatMessage
}

func (v *ContestViewState) Ready() bool { return !v.Loading && v.Err == nil }

func (v *ContestViewState) Clone() ContestViewState {
	out := *v
	out.Stages = append([]Stage(nil), v.Stages...)
	out.Leaderboard = cloneLeaderboard(v.Leaderboard)
	out.Chat = append([]ChatMessage(nil), v.Chat...)
	if v.CurrentStage != nil {
		s := *v.CurrentStage
		out.CurrentStage = &s
	}
	if v.Submission != nil {
		s := *v.Submission
		out.Submission = &s
	}
	out.FinalResults = cloneFinalResults(v.FinalResults)
	return out
}

func cloneLeaderboard(in []LeaderboardEntry) []LeaderboardEntry {
	return append([]LeaderboardEntry(nil), in...)
}

func cloneAggregate(in *SurveyAggregate) *SurveyAggregate {
	if in == nil {
		return nil
	}
	out := *in
	out.Questions = append([]QuestionAggregate(nil), in.Questions...)
	return &out
}

func cloneFinalResults(in *FinalResults) *FinalResults {
	if in == nil {
		return nil
	}
	out := *in
	out.Leaderboard = cloneLeaderboard(in.Leaderboard)
	out.Aggregate = cloneAggregate(in.Aggregate)
	return &out
}
