package rest

import (
	"context"
	"fmt"

	"github.com/Banjo7331/compezze-app-frontend-sub000/internal/models"
)

// ContestService exposes the contest-domain REST surface. Stage advance
// is authoritative here: the reconciler only displays whatever the
// following STAGE_CHANGED event (or an explicit refresh) reports.
type ContestService struct {
	c *Client
}

func NewContestService(c *Client) *ContestService {
	return &ContestService{c: c}
}

func (s *ContestService) GetRoomDetails(ctx context.Context, roomID string) (*models.ContestRoomSnapshot, error) {
	var snap models.ContestRoomSnapshot
	if err := s.c.getJSON(ctx, "/api/contest/rooms/"+roomID, &snap); err != nil {
		return nil, fmt.Errorf("get contest room %s: %w", roomID, err)
	}
	return &snap, nil
}

func (s *ContestService) Join(ctx context.Context, roomID, displayName string) (*JoinResult, error) {
	var res JoinResult
	payload := map[string]string{"displayName": displayName}
	if err := s.c.postJSON(ctx, "/api/contest/rooms/"+roomID+"/join", payload, &res); err != nil {
		return nil, fmt.Errorf("join contest room %s: %w", roomID, err)
	}
	return &res, nil
}

// Vote scores one presented entry during a jury or public vote stage.
func (s *ContestService) Vote(ctx context.Context, roomID, stageID, entryID string, score int) error {
	payload := map[string]any{
		"stageId": stageID,
		"entryId": entryID,
		"score":   score,
	}
	if err := s.c.postJSON(ctx, "/api/contest/rooms/"+roomID+"/vote", payload, nil); err != nil {
		return fmt.Errorf("contest vote: %w", err)
	}
	return nil
}

func (s *ContestService) Start(ctx context.Context, roomID string) error {
	return s.hostAction(ctx, roomID, "start")
}

func (s *ContestService) AdvanceStage(ctx context.Context, roomID string) error {
	return s.hostAction(ctx, roomID, "advance")
}

func (s *ContestService) Finish(ctx context.Context, roomID string) error {
	return s.hostAction(ctx, roomID, "finish")
}

func (s *ContestService) hostAction(ctx context.Context, roomID, action string) error {
	if err := s.c.postJSON(ctx, "/api/contest/rooms/"+roomID+"/"+action, nil, nil); err != nil {
		return fmt.Errorf("contest %s: %w", action, err)
	}
	return nil
}
