package models

import (
	"encoding/json"
	"time"
)

// EventKind tags a pushed room update.
type EventKind string

// Kinds pushed over room topics. The reconcilers switch on these
// exhaustively per domain; unknown kinds are ignored, never fatal.
const (
	EventUserJoined          EventKind = "USER_JOINED"
	EventNewQuestion         EventKind = "NEW_QUESTION"
	EventQuestionFinished    EventKind = "QUESTION_FINISHED"
	EventLeaderboardUpdate   EventKind = "LEADERBOARD_UPDATE"
	EventRoomClosed          EventKind = "ROOM_CLOSED"
	EventChatMessage         EventKind = "CHAT_MESSAGE"
	EventVoteRecorded        EventKind = "VOTE_RECORDED"
	EventStageChanged        EventKind = "STAGE_CHANGED"
	EventSubmissionPresented EventKind = "SUBMISSION_PRESENTED"
	EventContestFinished     EventKind = "CONTEST_FINISHED"
)

// RoomEvent is the wire shape of one pushed update: an `event` tag plus
// kind-specific fields. Fields not belonging to the tagged kind are left
// at their zero value; consumers must tolerate absent optional fields.
type RoomEvent struct {
	Event EventKind `json:"event"`

	// USER_JOINED
	UserID            string `json:"userId,omitempty"`
	UserName          string `json:"userName,omitempty"`
	ParticipantsCount *int   `json:"participantsCount,omitempty"`

	// NEW_QUESTION
	Question *Question `json:"question,omitempty"`

	// QUESTION_FINISHED
	QuestionID      string `json:"questionId,omitempty"`
	CorrectOptionID string `json:"correctOptionId,omitempty"`

	// LEADERBOARD_UPDATE
	Leaderboard []LeaderboardEntry `json:"leaderboard,omitempty"`

	// VOTE_RECORDED
	Aggregate        *SurveyAggregate `json:"aggregate,omitempty"`
	SubmissionsCount *int             `json:"submissionsCount,omitempty"`

	// STAGE_CHANGED
	Stage         *Stage `json:"stage,omitempty"`
	StagePosition *int   `json:"stagePosition,omitempty"`

	// SUBMISSION_PRESENTED
	Submission *Submission `json:"submission,omitempty"`

	// ROOM_CLOSED / CONTEST_FINISHED
	FinalResults *FinalResults `json:"finalResults,omitempty"`

	// CHAT_MESSAGE
	Chat *ChatMessage `json:"chat,omitempty"`
}

// ParseRoomEvent decodes a pushed payload. An empty event tag is reported
// as an unknown kind by the caller, not an error here.
func ParseRoomEvent(data []byte) (*RoomEvent, error) {
	var ev RoomEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// Question is the current quiz question descriptor. Replaced wholesale on
// NEW_QUESTION; never field-merged.
type Question struct {
	ID               string    `json:"id"`
	Index            int       `json:"index"`
	Text             string    `json:"text"`
	Options          []Option  `json:"options,omitempty"`
	StartTime        time.Time `json:"startTime"`
	TimeLimitSeconds int       `json:"timeLimitSeconds"`
}

// EndsAt returns the server-anchored deadline for answering.
func (q *Question) EndsAt() time.Time {
	return q.StartTime.Add(time.Duration(q.TimeLimitSeconds) * time.Second)
}

type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// StageKind discriminates the heterogeneous contest stages.
type StageKind string

const (
	StageQuiz       StageKind = "QUIZ"
	StageSurvey     StageKind = "SURVEY"
	StageJuryVote   StageKind = "JURY_VOTE"
	StagePublicVote StageKind = "PUBLIC_VOTE"
	StagePause      StageKind = "PAUSE"
)

// Stage describes one contest stage. Position 0 is the lobby.
type Stage struct {
	ID              string    `json:"id"`
	Kind            StageKind `json:"kind"`
	Title           string    `json:"title"`
	Position        int       `json:"position"`
	StartTime       time.Time `json:"startTime,omitempty"`
	DurationSeconds int       `json:"durationSeconds,omitempty"`
	// Room embedded by QUIZ / SURVEY stages
	EmbeddedRoomID string `json:"embeddedRoomId,omitempty"`
}

// EndsAt returns the stage deadline, or the zero time for untimed stages.
func (s *Stage) EndsAt() time.Time {
	if s.DurationSeconds <= 0 {
		return time.Time{}
	}
	return s.StartTime.Add(time.Duration(s.DurationSeconds) * time.Second)
}

// LeaderboardEntry is one server-ranked row. Ranks are never re-derived
// client-side; ties are whatever the server decided.
type LeaderboardEntry struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Rank   int    `json:"rank"`
}

// Submission is an entry presented for jury/public voting in a contest.
type Submission struct {
	ID       string `json:"id"`
	AuthorID string `json:"authorId"`
	Author   string `json:"author"`
	Title    string `json:"title"`
	Content  string `json:"content,omitempty"`
}

// SurveyAggregate is the server-computed tally of survey submissions.
type SurveyAggregate struct {
	SubmissionsCount int                 `json:"submissionsCount"`
	Questions        []QuestionAggregate `json:"questions,omitempty"`
}

type QuestionAggregate struct {
	QuestionID string         `json:"questionId"`
	Counts     map[string]int `json:"counts,omitempty"`
	Total      int            `json:"total"`
}

// FinalResults is produced by terminal events (ROOM_CLOSED,
// CONTEST_FINISHED) and frozen for the rest of the room's lifetime.
type FinalResults struct {
	Leaderboard []LeaderboardEntry `json:"leaderboard,omitempty"`
	Aggregate   *SurveyAggregate   `json:"aggregate,omitempty"`
	WinnerID    string             `json:"winnerId,omitempty"`
}

type ChatMessage struct {
	ID     string    `json:"id"`
	UserID string    `json:"userId"`
	Author string    `json:"author"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sentAt"`
}
