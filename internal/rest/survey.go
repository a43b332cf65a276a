package rest

import (
	"context"
	"fmt"

	"github.com/Banjo7331/compezze-app-frontend-sub000/internal/models"
)

// SurveyAnswer is one answered form question. Multi-select questions
// carry several option ids.
type SurveyAnswer struct {
	QuestionID string   `json:"questionId"`
	OptionIDs  []string `json:"optionIds"`
}

// SurveyService exposes the survey-domain REST surface.
type SurveyService struct {
	c *Client
}

func NewSurveyService(c *Client) *SurveyService {
	return &SurveyService{c: c}
}

func (s *SurveyService) GetRoomDetails(ctx context.Context, roomID string) (*models.SurveyRoomSnapshot, error) {
	var snap models.SurveyRoomSnapshot
	if err := s.c.getJSON(ctx, "/api/survey/rooms/"+roomID, &snap); err != nil {
		return nil, fmt.Errorf("get survey room %s: %w", roomID, err)
	}
	return &snap, nil
}

func (s *SurveyService) Join(ctx context.Context, roomID, displayName string) (*JoinResult, error) {
	var res JoinResult
	payload := map[string]string{"displayName": displayName}
	if err := s.c.postJSON(ctx, "/api/survey/rooms/"+roomID+"/join", payload, &res); err != nil {
		return nil, fmt.Errorf("join survey room %s: %w", roomID, err)
	}
	return &res, nil
}

// SubmitAnswers submits the whole form at once. One submission per
// participant; repeats are rejected server-side.
func (s *SurveyService) SubmitAnswers(ctx context.Context, roomID string, answers []SurveyAnswer) error {
	payload := map[string]any{"answers": answers}
	if err := s.c.postJSON(ctx, "/api/survey/rooms/"+roomID+"/submit", payload, nil); err != nil {
		return fmt.Errorf("submit survey answers: %w", err)
	}
	return nil
}

// Close is host-only and freezes the final aggregate.
func (s *SurveyService) Close(ctx context.Context, roomID string) error {
	if err := s.c.postJSON(ctx, "/api/survey/rooms/"+roomID+"/close", nil, nil); err != nil {
		return fmt.Errorf("survey close: %w", err)
	}
	return nil
}
