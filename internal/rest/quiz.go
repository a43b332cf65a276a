package rest

import (
	"context"
	"fmt"

	"github.com/Banjo7331/compezze-app-frontend-sub000/internal/models"
)

// JoinResult acknowledges a join. The server assigns the participant id;
// the client never invents one.
type JoinResult struct {
	ParticipantID string `json:"participantId"`
	RoomID        string `json:"roomId"`
}

// QuizService exposes the quiz-domain REST surface. GetRoomDetails is an
// idempotent read; everything else is a write acknowledged (or rejected)
// by the server, never folded into local state directly.
type QuizService struct {
	c *Client
}

func NewQuizService(c *Client) *QuizService {
	return &QuizService{c: c}
}

func (s *QuizService) GetRoomDetails(ctx context.Context, roomID string) (*models.QuizRoomSnapshot, error) {
	var snap models.QuizRoomSnapshot
	if err := s.c.getJSON(ctx, "/api/quiz/rooms/"+roomID, &snap); err != nil {
		return nil, fmt.Errorf("get quiz room %s: %w", roomID, err)
	}
	return &snap, nil
}

func (s *QuizService) Join(ctx context.Context, roomID, displayName string) (*JoinResult, error) {
	var res JoinResult
	payload := map[string]string{"displayName": displayName}
	if err := s.c.postJSON(ctx, "/api/quiz/rooms/"+roomID+"/join", payload, &res); err != nil {
		return nil, fmt.Errorf("join quiz room %s: %w", roomID, err)
	}
	return &res, nil
}

// SubmitAnswer sends one answer for the given question. A second attempt
// for the same question is rejected server-side; the client does not
// re-send.
func (s *QuizService) SubmitAnswer(ctx context.Context, roomID, questionID, optionID string) error {
	payload := map[string]string{
		"questionId": questionID,
		"optionId":   optionID,
	}
	if err := s.c.postJSON(ctx, "/api/quiz/rooms/"+roomID+"/answer", payload, nil); err != nil {
		return fmt.Errorf("submit answer: %w", err)
	}
	return nil
}

// Host-only transitions. Authorization is enforced server-side; the
// client only forwards.

func (s *QuizService) Start(ctx context.Context, roomID string) error {
	return s.hostAction(ctx, roomID, "start")
}

func (s *QuizService) NextQuestion(ctx context.Context, roomID string) error {
	return s.hostAction(ctx, roomID, "next")
}

func (s *QuizService) FinishQuestion(ctx context.Context, roomID string) error {
	return s.hostAction(ctx, roomID, "finish")
}

func (s *QuizService) Close(ctx context.Context, roomID string) error {
	return s.hostAction(ctx, roomID, "close")
}

func (s *QuizService) hostAction(ctx context.Context, roomID, action string) error {
	if err := s.c.postJSON(ctx, "/api/quiz/rooms/"+roomID+"/"+action, nil, nil); err != nil {
		return fmt.Errorf("quiz %s: %w", action, err)
	}
	return nil
}
