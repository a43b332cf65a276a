package models

// Snapshots are the REST-sourced point-in-time truth for a room, fetched
// once per mount (and again on explicit refresh). They are superseded by,
// but not structurally identical to, streamed events: the reconcilers map
// both into the same view state.

// QuizStatus is the quiz room lifecycle enum.
type QuizStatus string

const (
	QuizLobby            QuizStatus = "LOBBY"
	QuizQuestionActive   QuizStatus = "QUESTION_ACTIVE"
	QuizQuestionFinished QuizStatus = "QUESTION_FINISHED"
	QuizLeaderboard      QuizStatus = "LEADERBOARD"
	QuizFinished         QuizStatus = "FINISHED"
)

// Terminal reports whether the room can never transition again.
func (s QuizStatus) Terminal() bool { return s == QuizFinished }

// SurveyStatus is the survey room lifecycle enum.
type SurveyStatus string

const (
	SurveyOpen   SurveyStatus = "OPEN"
	SurveyClosed SurveyStatus = "CLOSED"
)

func (s SurveyStatus) Terminal() bool { return s == SurveyClosed }

// ContestStatus is the contest room lifecycle enum. While ACTIVE the
// stage position carries the fine-grained progress.
type ContestStatus string

const (
	ContestLobby    ContestStatus = "LOBBY"
	ContestActive   ContestStatus = "ACTIVE"
	ContestFinished ContestStatus = "FINISHED"
)

func (s ContestStatus) Terminal() bool { return s == ContestFinished }

// QuizRoomSnapshot mirrors GET /quiz/rooms/{id}.
type QuizRoomSnapshot struct {
	RoomID            string             `json:"roomId"`
	Title             string             `json:"title"`
	Status            QuizStatus         `json:"status"`
	HostID            string             `json:"hostId"`
	ParticipantsCount int                `json:"participantsCount"`
	CurrentQuestion   *Question          `json:"currentQuestion,omitempty"`
	CorrectOptionID   string             `json:"correctOptionId,omitempty"`
	Leaderboard       []LeaderboardEntry `json:"leaderboard,omitempty"`
	FinalResults      *FinalResults      `json:"finalResults,omitempty"`
}

// SurveyQuestion is a survey form question (authoring is out of scope;
// the client only renders and submits).
type SurveyQuestion struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Options  []Option `json:"options,omitempty"`
	Multiple bool     `json:"multiple"`
}

// SurveyRoomSnapshot mirrors GET /survey/rooms/{id}.
type SurveyRoomSnapshot struct {
	RoomID            string           `json:"roomId"`
	Title             string           `json:"title"`
	Status            SurveyStatus     `json:"status"`
	HostID            string           `json:"hostId"`
	ParticipantsCount int              `json:"participantsCount"`
	Questions         []SurveyQuestion `json:"questions,omitempty"`
	Aggregate         *SurveyAggregate `json:"aggregate,omitempty"`
	// Whether the calling identity already submitted (gates aggregates)
	HasSubmitted bool `json:"hasSubmitted"`
}

// ContestRoomSnapshot mirrors GET /contest/rooms/{id}.
type ContestRoomSnapshot struct {
	RoomID            string             `json:"roomId"`
	Title             string             `json:"title"`
	Status            ContestStatus      `json:"status"`
	HostID            string             `json:"hostId"`
	ParticipantsCount int                `json:"participantsCount"`
	Stages            []Stage            `json:"stages,omitempty"`
	StagePosition     int                `json:"stagePosition"`
	CurrentStage      *Stage             `json:"currentStage,omitempty"`
	Leaderboard       []LeaderboardEntry `json:"leaderboard,omitempty"`
	FinalResults      *FinalResults      `json:"finalResults,omitempty"`
}
