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

// SurveyAPI is the survey REST surface the room consumes. Implemented
// by *rest.SurveyService.
type SurveyAPI interface {
	GetRoomDetails(ctx context.Context, roomID string) (*models.SurveyRoomSnapshot, error)
	Join(ctx context.Context, roomID, displayName string) (*rest.JoinResult, error)
	SubmitAnswers(ctx context.Context, roomID string, answers []rest.SurveyAnswer) error
	Close(ctx context.Context, roomID string) error
}

// SurveyRoom is the survey collection state machine: OPEN -> CLOSED.
// Aggregate results are visible to a participant only after their own
// submission is recorded, unless the room already closed; that gate
// lives on the view (CanViewResults), enforced at render time rather
// than assumed from absent data.
type SurveyRoom struct {
	roomID   string
	api      SurveyAPI
	subs     Subscriber
	notifier Notifier
	onChange func(models.SurveyViewState)
	log      *logrus.Entry

	mu     sync.Mutex
	view   models.SurveyViewState
	closed bool
	handle transport.Handle
}

func NewSurveyRoom(api SurveyAPI, subs Subscriber, notifier Notifier, roomID string, onChange func(models.SurveyViewState)) *SurveyRoom {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if onChange == nil {
		onChange = func(models.SurveyViewState) {}
	}
	return &SurveyRoom{
		roomID:   roomID,
		api:      api,
		subs:     subs,
		notifier: notifier,
		onChange: onChange,
		log:      logrus.WithFields(logrus.Fields{"room": roomID, "kind": "survey"}),
		view:     models.SurveyViewState{Loading: true, RoomID: roomID},
	}
}

func (r *SurveyRoom) Open() {
	r.emit(func(v *models.SurveyViewState) {
		v.Loading = true
		v.Err = nil
	})
	r.mu.Lock()
	r.handle = r.subs.Subscribe(RoomTopic(r.roomID), r.handleEvent)
	r.mu.Unlock()
	go r.fetchSnapshot()
}

func (r *SurveyRoom) Refresh() {
	r.emit(func(v *models.SurveyViewState) {
		v.Loading = true
		v.Err = nil
	})
	go r.fetchSnapshot()
}

func (r *SurveyRoom) Close() {
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

func (r *SurveyRoom) View() models.SurveyViewState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view.Clone()
}

func (r *SurveyRoom) fetchSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), config.RequestTimeout)
	defer cancel()

	snap, err := r.api.GetRoomDetails(ctx, r.roomID)
	if err != nil {
		r.log.WithError(err).Warn("snapshot fetch failed")
		r.emit(func(v *models.SurveyViewState) {
			v.Loading = false
			v.Err = err
		})
		return
	}
	r.emit(func(v *models.SurveyViewState) {
		applySurveySnapshot(v, snap)
	})
}

func applySurveySnapshot(v *models.SurveyViewState, snap *models.SurveyRoomSnapshot) {
	v.Loading = false
	v.Err = nil
	v.RoomID = snap.RoomID
	v.Title = snap.Title
	v.HostID = snap.HostID
	v.ParticipantsCount = mergeParticipants(v.ParticipantsCount, snap.ParticipantsCount)
	v.Questions = snap.Questions
	if snap.HasSubmitted {
		// The local submit affordance is never un-set by a stale read.
		v.Submitted = true
	}
	if snap.Aggregate != nil {
		v.Aggregate = snap.Aggregate
	}
	if !v.Status.Terminal() {
		v.Status = snap.Status
	}
}

func (r *SurveyRoom) handleEvent(payload json.RawMessage) {
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
	if r.view.Status.Terminal() && ev.Event != models.EventRoomClosed {
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

func (r *SurveyRoom) applyEventLocked(ev *models.RoomEvent) bool {
	v := &r.view
	switch ev.Event {
	case models.EventUserJoined:
		if ev.ParticipantsCount != nil {
			v.ParticipantsCount = mergeParticipants(v.ParticipantsCount, *ev.ParticipantsCount)
		} else {
			v.ParticipantsCount++
		}

	case models.EventVoteRecorded:
		// Server-computed aggregate, replaced wholesale. Nothing is
		// re-tallied client-side.
		if ev.Aggregate != nil {
			v.Aggregate = ev.Aggregate
		} else if ev.SubmissionsCount != nil && v.Aggregate != nil {
			agg := *v.Aggregate
			agg.SubmissionsCount = *ev.SubmissionsCount
			v.Aggregate = &agg
		}

	case models.EventRoomClosed:
		v.Status = models.SurveyClosed
		if ev.FinalResults != nil {
			v.FinalResults = ev.FinalResults
		} else if v.FinalResults == nil {
			v.FinalResults = &models.FinalResults{Aggregate: v.Aggregate}
		}

	default:
		r.log.WithField("event", string(ev.Event)).Debug("ignoring unknown event kind")
		return false
	}
	return true
}

func (r *SurveyRoom) emit(fn func(v *models.SurveyViewState)) {
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

func (r *SurveyRoom) Join(ctx context.Context, displayName string) (*rest.JoinResult, error) {
	res, err := r.api.Join(ctx, r.roomID, displayName)
	if err != nil {
		r.notifyError("Could not join the survey", err)
		return nil, err
	}
	return res, nil
}

// SubmitAnswers submits the whole form. Success flips the local
// Submitted affordance, which also opens the results gate.
func (r *SurveyRoom) SubmitAnswers(ctx context.Context, answers []rest.SurveyAnswer) error {
	if err := r.api.SubmitAnswers(ctx, r.roomID, answers); err != nil {
		r.notifyError("Submission not recorded", err)
		return err
	}
	r.emit(func(v *models.SurveyViewState) {
		v.Submitted = true
	})
	return nil
}

// CloseRoom is host-only and freezes the final aggregate.
func (r *SurveyRoom) CloseRoom(ctx context.Context) error {
	if err := r.api.Close(ctx, r.roomID); err != nil {
		r.notifyError("Could not close the survey", err)
		return err
	}
	return nil
}

func (r *SurveyRoom) notifyError(title string, err error) {
	r.notifier.Notify(models.Notification{
		Type:    models.NotificationInfo,
		Title:   title,
		Message: err.Error(),
	})
}
