package rooms

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Banjo7331/compezze-app-frontend-sub000/internal/config"
	"github.com/Banjo7331/compezze-app-frontend-sub000/internal/models"
	"github.com/Banjo7331/compezze-app-frontend-sub000/internal/rest"
	"github.com/Banjo7331/compezze-app-frontend-sub000/internal/transport"
)

// ContestAPI is the contest REST surface the room consumes. Implemented
// by *rest.ContestService.
type ContestAPI interface {
	GetRoomDetails(ctx context.Context, roomID string) (*models.ContestRoomSnapshot, error)
	Join(ctx context.Context, roomID, displayName string) (*rest.JoinResult, error)
	Vote(ctx context.Context, roomID, stageID, entryID string, score int) error
	Start(ctx context.Context, roomID string) error
	AdvanceStage(ctx context.Context, roomID string) error
	Finish(ctx context.Context, roomID string) error
}

// ContestRoom tracks an ordered sequence of heterogeneous stages.
// Position 0 is the lobby. Stage advance is a host-side REST call; the
// reconciler here is display only and follows STAGE_CHANGED events or
// an explicit Refresh.
type ContestRoom struct {
	roomID   string
	api      ContestAPI
	subs     Subscriber
	notifier Notifier
	onChange func(models.ContestViewState)
	log      *logrus.Entry

	mu     sync.Mutex
	view   models.ContestViewState
	closed bool
	handle transport.Handle
}

func NewContestRoom(api ContestAPI, subs Subscriber, notifier Notifier, roomID string, onChange func(models.ContestViewState)) *ContestRoom {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if onChange == nil {
		onChange = func(models.ContestViewState) {}
	}
	return &ContestRoom{
		roomID:   roomID,
		api:      api,
		subs:     subs,
		notifier: notifier,
		onChange: onChange,
		log:      logrus.WithFields(logrus.Fields{"room": roomID, "kind": "contest"}),
		view:     models.ContestViewState{Loading: true, RoomID: roomID},
	}
}

func (r *ContestRoom) Open() {
	r.emit(func(v *models.ContestViewState) {
		v.Loading = true
		v.Err = nil
	})
	r.mu.Lock()
	r.handle = r.subs.Subscribe(RoomTopic(r.roomID), r.handleEvent)
	r.mu.Unlock()
	go r.fetchSnapshot()
}

func (r *ContestRoom) Refresh() {
	r.emit(func(v *models.ContestViewState) {
		v.Loading = true
		v.Err = nil
	})
	go r.fetchSnapshot()
}

func (r *ContestRoom) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	h := r.handle
	r.mu.Unlock()

	r.subs.Unsubscribe(h)
}

func (r *ContestRoom) View() models.ContestViewState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view.Clone()
}

func (r *ContestRoom) fetchSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), config.RequestTimeout)
	defer cancel()

	snap, err := r.api.GetRoomDetails(ctx, r.roomID)
	if err != nil {
		r.log.WithError(err).Warn("snapshot fetch failed")
		r.emit(func(v *models.ContestViewState) {
			v.Loading = false
			v.Err = err
		})
		return
	}
	r.emit(func(v *models.ContestViewState) {
		applyContestSnapshot(v, snap)
	})
}

func applyContestSnapshot(v *models.ContestViewState, snap *models.ContestRoomSnapshot) {
	v.Loading = false
	v.Err = nil
	v.RoomID = snap.RoomID
	v.Title = snap.Title
	v.HostID = snap.HostID
	v.ParticipantsCount = mergeParticipants(v.ParticipantsCount, snap.ParticipantsCount)
	v.Stages = snap.Stages

	if !v.Status.Terminal() {
		v.Status = snap.Status
		v.StagePosition = snap.StagePosition
		v.CurrentStage = snap.CurrentStage
		v.Leaderboard = snap.Leaderboard
	}
	if snap.FinalResults != nil {
		v.FinalResults = snap.FinalResults
	}
	if snap.Status.Terminal() {
		v.Status = models.ContestFinished
	}
}

func (r *ContestRoom) handleEvent(payload json.RawMessage) {
	ev := decodeEvent(payload)
	if ev == nil {
		r.log.Warn("malformed event dropped")
		return
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	if r.view.Status.Terminal() && ev.Event != models.EventContestFinished {
		// The terminal event itself still lands: it may carry final
		// results the snapshot lacked.
		r.mu.Unlock()
		return
	}
	changed := r.applyEventLocked(ev)
	view := r.view.Clone()
	r.mu.Unlock()

	if changed {
		r.onChange(view)
	}
}

func (r *ContestRoom) applyEventLocked(ev *models.RoomEvent) bool {
	v := &r.view
	switch ev.Event {
	case models.EventUserJoined:
		if ev.ParticipantsCount != nil {
			v.ParticipantsCount = mergeParticipants(v.ParticipantsCount, *ev.ParticipantsCount)
		} else {
			v.ParticipantsCount++
		}
		v.Leaderboard = placeholderEntry(v.Leaderboard, ev.UserID, ev.UserName)

	case models.EventStageChanged:
		// Atomic descriptor replace; the deadline is recomputed from
		// the server-issued start time and duration on render.
		if ev.Stage != nil {
			v.CurrentStage = ev.Stage
			v.StagePosition = ev.Stage.Position
		}
		if ev.StagePosition != nil {
			v.StagePosition = *ev.StagePosition
		}
		v.Submission = nil
		if v.StagePosition > 0 {
			v.Status = models.ContestActive
		} else {
			v.Status = models.ContestLobby
		}

	case models.EventSubmissionPresented:
		if ev.Submission == nil {
			return false
		}
		v.Submission = ev.Submission

	case models.EventLeaderboardUpdate:
		v.Leaderboard = ev.Leaderboard

	case models.EventContestFinished:
		v.Status = models.ContestFinished
		if ev.FinalResults != nil {
			v.FinalResults = ev.FinalResults
		} else if v.FinalResults == nil {
			v.FinalResults = &models.FinalResults{Leaderboard: v.Leaderboard}
		}

	case models.EventChatMessage:
		if ev.Chat == nil {
			return false
		}
		v.Chat = appendChat(v.Chat, *ev.Chat, config.MaxChatMessages)

	default:
		r.log.WithField("event", string(ev.Event)).Debug("ignoring unknown event kind")
		return false
	}
	return true
}

func (r *ContestRoom) emit(fn func(v *models.ContestViewState)) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	fn(&r.view)
	view := r.view.Clone()
	r.mu.Unlock()

	r.onChange(view)
}

func (r *ContestRoom) Join(ctx context.Context, displayName string) (*rest.JoinResult, error) {
	res, err := r.api.Join(ctx, r.roomID, displayName)
	if err != nil {
		r.notifyError("Could not join the contest", err)
		return nil, err
	}
	return res, nil
}

// Vote scores the currently presented entry in the current stage.
func (r *ContestRoom) Vote(ctx context.Context, entryID string, score int) error {
	r.mu.Lock()
	stage := r.view.CurrentStage
	r.mu.Unlock()
	if stage == nil {
		r.notifier.Notify(models.Notification{
			Type:    models.NotificationInfo,
			Title:   "No active stage",
			Message: "Voting is not open right now.",
		})
		return nil
	}

	if err := r.api.Vote(ctx, r.roomID, stage.ID, entryID, score); err != nil {
		r.notifyError("Vote not recorded", err)
		return err
	}
	return nil
}

// Host-only transitions. AdvanceStage relies on the following
// STAGE_CHANGED event for display; callers wanting immediate certainty
// may Refresh afterwards.

func (r *ContestRoom) Start(ctx context.Context) error {
	return r.hostAction(ctx, "Could not start the contest", r.api.Start)
}

func (r *ContestRoom) AdvanceStage(ctx context.Context) error {
	return r.hostAction(ctx, "Could not advance the stage", r.api.AdvanceStage)
}

func (r *ContestRoom) Finish(ctx context.Context) error {
	return r.hostAction(ctx, "Could not finish the contest", r.api.Finish)
}

func (r *ContestRoom) hostAction(ctx context.Context, title string, fn func(context.Context, string) error) error {
	if err := fn(ctx, r.roomID); err != nil {
		r.notifyError(title, err)
		return err
	}
	return nil
}

func (r *ContestRoom) notifyError(title string, err error) {
	r.notifier.Notify(models.Notification{
		Type:    models.NotificationInfo,
		Title:   title,
		Message: err.Error(),
	})
}
