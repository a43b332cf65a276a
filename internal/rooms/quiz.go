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

// QuizAPI is the quiz REST surface the room consumes. Implemented by
// *rest.QuizService.
type QuizAPI interface {
	GetRoomDetails(ctx context.Context, roomID string) (*models.QuizRoomSnapshot, error)
	Join(ctx context.Context, roomID, displayName string) (*rest.JoinResult, error)
	SubmitAnswer(ctx context.Context, roomID, questionID, optionID string) error
	Start(ctx context.Context, roomID string) error
	NextQuestion(ctx context.Context, roomID string) error
	FinishQuestion(ctx context.Context, roomID string) error
	Close(ctx context.Context, roomID string) error
}

// QuizRoom is the quiz gameplay state machine:
// LOBBY -> QUESTION_ACTIVE -> QUESTION_FINISHED -> LEADERBOARD -> ... -> FINISHED.
// It merges the mount-time snapshot with pushed events into one view,
// emitting an immutable copy to onChange after every applied mutation.
type QuizRoom struct {
	roomID   string
	api      QuizAPI
	subs     Subscriber
	notifier Notifier
	onChange func(models.QuizViewState)
	log      *logrus.Entry

	mu     sync.Mutex
	view   models.QuizViewState
	closed bool
	handle transport.Handle
}

// NewQuizRoom builds an unmounted room. onChange may be nil.
func NewQuizRoom(api QuizAPI, subs Subscriber, notifier Notifier, roomID string, onChange func(models.QuizViewState)) *QuizRoom {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if onChange == nil {
		onChange = func(models.QuizViewState) {}
	}
	return &QuizRoom{
		roomID:   roomID,
		api:      api,
		subs:     subs,
		notifier: notifier,
		onChange: onChange,
		log:      logrus.WithFields(logrus.Fields{"room": roomID, "kind": "quiz"}),
		view:     models.QuizViewState{Loading: true, RoomID: roomID},
	}
}

// Open mounts the room: the snapshot fetch and the topic subscription
// start concurrently, with no ordering assumed between them.
func (r *QuizRoom) Open() {
	r.emit(func(v *models.QuizViewState) {
		v.Loading = true
		v.Err = nil
	})
	r.mu.Lock()
	r.handle = r.subs.Subscribe(RoomTopic(r.roomID), r.handleEvent)
	r.mu.Unlock()
	go r.fetchSnapshot()
}

// Refresh re-runs the authoritative read. Used by the caller to retry
// after a snapshot error; safe to call repeatedly.
func (r *QuizRoom) Refresh() {
	r.emit(func(v *models.QuizViewState) {
		v.Loading = true
		v.Err = nil
	})
	go r.fetchSnapshot()
}

// Close unmounts the room, releasing exactly the subscription this
// mount created. Late async completions check the liveness flag and are
// silently discarded.
func (r *QuizRoom) Close() {
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

// View returns a copy of the current view state.
func (r *QuizRoom) View() models.QuizViewState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view.Clone()
}

func (r *QuizRoom) fetchSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), config.RequestTimeout)
	defer cancel()

	snap, err := r.api.GetRoomDetails(ctx, r.roomID)
	if err != nil {
		r.log.WithError(err).Warn("snapshot fetch failed")
		r.emit(func(v *models.QuizViewState) {
			v.Loading = false
			v.Err = err
		})
		return
	}
	r.emit(func(v *models.QuizViewState) {
		applyQuizSnapshot(v, snap)
	})
}

// applyQuizSnapshot writes the authoritative read into the view. The
// overwrite is wholesale except where a live event may have raced ahead:
// the participant count is monotonic, a terminal status is never
// regressed, non-nil final results are never erased, and the chat
// transcript (client-accumulated, absent from snapshots) is kept.
func applyQuizSnapshot(v *models.QuizViewState, snap *models.QuizRoomSnapshot) {
	v.Loading = false
	v.Err = nil
	v.RoomID = snap.RoomID
	v.Title = snap.Title
	v.HostID = snap.HostID
	v.ParticipantsCount = mergeParticipants(v.ParticipantsCount, snap.ParticipantsCount)

	if !v.Status.Terminal() {
		v.Status = snap.Status
		v.CurrentQuestion = snap.CurrentQuestion
		v.CorrectOptionID = snap.CorrectOptionID
		v.Leaderboard = snap.Leaderboard
	}
	if snap.FinalResults != nil {
		// A nil snapshot result never erases results an event supplied.
		v.FinalResults = snap.FinalResults
	}
	if snap.Status.Terminal() {
		v.Status = models.QuizFinished
	}
}

func (r *QuizRoom) handleEvent(payload json.RawMessage) {
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
		// A closed room cannot reopen. The terminal event itself still
		// lands: it may carry final results the snapshot lacked.
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

func (r *QuizRoom) applyEventLocked(ev *models.RoomEvent) bool {
	v := &r.view
	switch ev.Event {
	case models.EventUserJoined:
		if ev.ParticipantsCount != nil {
			v.ParticipantsCount = mergeParticipants(v.ParticipantsCount, *ev.ParticipantsCount)
		} else {
			v.ParticipantsCount++
		}
		v.Leaderboard = placeholderEntry(v.Leaderboard, ev.UserID, ev.UserName)

	case models.EventNewQuestion:
		if ev.Question == nil {
			return false
		}
		// Atomic descriptor: replaced wholesale, never field-merged.
		v.CurrentQuestion = ev.Question
		v.CorrectOptionID = ""
		v.AnswerSubmitted = false
		v.Status = models.QuizQuestionActive

	case models.EventQuestionFinished:
		// The question descriptor stays: the UI still shows what was
		// asked. Mismatched question ids are accepted, the server is
		// authoritative.
		v.CorrectOptionID = ev.CorrectOptionID
		v.Status = models.QuizQuestionFinished

	case models.EventLeaderboardUpdate:
		v.Leaderboard = ev.Leaderboard
		if v.Status == models.QuizQuestionFinished {
			v.Status = models.QuizLeaderboard
		}

	case models.EventRoomClosed:
		v.Status = models.QuizFinished
		if ev.FinalResults != nil {
			v.FinalResults = ev.FinalResults
		} else if v.FinalResults == nil {
			// The terminal event is the real producer of final tallies;
			// freeze whatever ranking we already hold.
			v.FinalResults = &models.FinalResults{Leaderboard: v.Leaderboard}
		}

	case models.EventChatMessage:
		if ev.Chat == nil {
			return false
		}
		v.Chat = appendChat(v.Chat, *ev.Chat, config.MaxChatMessages)

	default:
		// Unknown kinds are a no-op branch, not an error.
		r.log.WithField("event", string(ev.Event)).Debug("ignoring unknown event kind")
		return false
	}
	return true
}

// emit applies fn under the lock and forwards a copy to onChange,
// unless the room was already closed (late completions are discarded,
// not logged as errors).
func (r *QuizRoom) emit(fn func(v *models.QuizViewState)) {
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

// Join enters the room as a participant. Failures notify and return;
// the view only changes through the resulting USER_JOINED event.
func (r *QuizRoom) Join(ctx context.Context, displayName string) (*rest.JoinResult, error) {
	res, err := r.api.Join(ctx, r.roomID, displayName)
	if err != nil {
		r.notifyError("Could not join the quiz", err)
		return nil, err
	}
	return res, nil
}

// SubmitAnswer submits one answer for the current question. On success
// only the local "already submitted" affordance flips; scores arrive by
// event.
func (r *QuizRoom) SubmitAnswer(ctx context.Context, optionID string) error {
	r.mu.Lock()
	q := r.view.CurrentQuestion
	r.mu.Unlock()
	if q == nil {
		r.notifier.Notify(models.Notification{
			Type:    models.NotificationInfo,
			Title:   "No active question",
			Message: "There is nothing to answer right now.",
		})
		return nil
	}

	if err := r.api.SubmitAnswer(ctx, r.roomID, q.ID, optionID); err != nil {
		r.notifyError("Answer not recorded", err)
		return err
	}
	r.emit(func(v *models.QuizViewState) {
		v.AnswerSubmitted = true
	})
	return nil
}

// Host-only transitions. The server enforces authorization; a rejection
// surfaces like any other action failure.

func (r *QuizRoom) Start(ctx context.Context) error {
	return r.hostAction(ctx, "Could not start the quiz", r.api.Start)
}

func (r *QuizRoom) NextQuestion(ctx context.Context) error {
	return r.hostAction(ctx, "Could not advance to the next question", r.api.NextQuestion)
}

func (r *QuizRoom) FinishQuestion(ctx context.Context) error {
	return r.hostAction(ctx, "Could not finish the question", r.api.FinishQuestion)
}

func (r *QuizRoom) CloseRoom(ctx context.Context) error {
	return r.hostAction(ctx, "Could not close the quiz", r.api.Close)
}

func (r *QuizRoom) hostAction(ctx context.Context, title string, fn func(context.Context, string) error) error {
	if err := fn(ctx, r.roomID); err != nil {
		r.notifyError(title, err)
		return err
	}
	return nil
}

func (r *QuizRoom) notifyError(title string, err error) {
	r.notifier.Notify(models.Notification{
		Type:    models.NotificationInfo,
		Title:   title,
		Message: err.Error(),
	})
}
