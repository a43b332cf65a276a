package rooms

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Banjo7331/compezze-app-frontend-sub000/internal/models"
	"github.com/Banjo7331/compezze-app-frontend-sub000/internal/rest"
	"github.com/Banjo7331/compezze-app-frontend-sub000/internal/transport"
)

// fakeSubscriber delivers pushed payloads synchronously, so tests see
// deterministic ordering.
type fakeSubscriber struct {
	mu     sync.Mutex
	nextID int
	subs   map[transport.Handle]struct {
		topic string
		cb    transport.Callback
	}
	released []transport.Handle
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{
		subs: make(map[transport.Handle]struct {
			topic string
			cb    transport.Callback
		}),
	}
}

func (f *fakeSubscriber) Subscribe(topic string, cb transport.Callback) transport.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	h := transport.Handle(fmt.Sprintf("h-%d", f.nextID))
	f.subs[h] = struct {
		topic string
		cb    transport.Callback
	}{topic, cb}
	return h
}

func (f *fakeSubscriber) Unsubscribe(h transport.Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs, h)
	f.released = append(f.released, h)
}

func (f *fakeSubscriber) Push(topic, payload string) {
	f.mu.Lock()
	var cbs []transport.Callback
	for _, sub := range f.subs {
		if sub.topic == topic {
			cbs = append(cbs, sub.cb)
		}
	}
	f.mu.Unlock()
	for _, cb := range cbs {
		cb(json.RawMessage(payload))
	}
}

func (f *fakeSubscriber) activeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *fakeSubscriber) releasedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.released)
}

// fakeNotifier records forwarded notifications.
type fakeNotifier struct {
	mu    sync.Mutex
	notes []models.Notification
}

func (f *fakeNotifier) Notify(n models.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, n)
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notes)
}

func (f *fakeNotifier) last() models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.notes) == 0 {
		return models.Notification{}
	}
	return f.notes[len(f.notes)-1]
}

// fakeQuizAPI scripts the quiz REST collaborator. A non-nil gate blocks
// GetRoomDetails until released, for snapshot/event race tests.
type fakeQuizAPI struct {
	mu        sync.Mutex
	snapshot  *models.QuizRoomSnapshot
	fetchErr  error
	actionErr error
	gate      chan struct{}
	calls     []string
}

func (f *fakeQuizAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeQuizAPI) callCount(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeQuizAPI) GetRoomDetails(ctx context.Context, roomID string) (*models.QuizRoomSnapshot, error) {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.record("get")

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	snap := *f.snapshot
	return &snap, nil
}

func (f *fakeQuizAPI) Join(ctx context.Context, roomID, displayName string) (*rest.JoinResult, error) {
	f.record("join")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.actionErr != nil {
		return nil, f.actionErr
	}
	return &rest.JoinResult{ParticipantID: "p-1", RoomID: roomID}, nil
}

func (f *fakeQuizAPI) SubmitAnswer(ctx context.Context, roomID, questionID, optionID string) error {
	f.record("answer:" + questionID + ":" + optionID)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.actionErr
}

func (f *fakeQuizAPI) Start(ctx context.Context, roomID string) error {
	f.record("start")
	return f.err()
}

func (f *fakeQuizAPI) NextQuestion(ctx context.Context, roomID string) error {
	f.record("next")
	return f.err()
}

func (f *fakeQuizAPI) FinishQuestion(ctx context.Context, roomID string) error {
	f.record("finish")
	return f.err()
}

func (f *fakeQuizAPI) Close(ctx context.Context, roomID string) error {
	f.record("close")
	return f.err()
}

func (f *fakeQuizAPI) err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.actionErr
}

// fakeSurveyAPI scripts the survey REST collaborator.
type fakeSurveyAPI struct {
	mu        sync.Mutex
	snapshot  *models.SurveyRoomSnapshot
	fetchErr  error
	actionErr error
	submitted [][]rest.SurveyAnswer
}

func (f *fakeSurveyAPI) GetRoomDetails(ctx context.Context, roomID string) (*models.SurveyRoomSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	snap := *f.snapshot
	return &snap, nil
}

func (f *fakeSurveyAPI) Join(ctx context.Context, roomID, displayName string) (*rest.JoinResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.actionErr != nil {
		return nil, f.actionErr
	}
	return &rest.JoinResult{ParticipantID: "p-1", RoomID: roomID}, nil
}

func (f *fakeSurveyAPI) SubmitAnswers(ctx context.Context, roomID string, answers []rest.SurveyAnswer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.actionErr != nil {
		return f.actionErr
	}
	f.submitted = append(f.submitted, answers)
	return nil
}

func (f *fakeSurveyAPI) Close(ctx context.Context, roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.actionErr
}

// fakeContestAPI scripts the contest REST collaborator.
type fakeContestAPI struct {
	mu        sync.Mutex
	snapshot  *models.ContestRoomSnapshot
	fetchErr  error
	actionErr error
	votes     []string
	calls     []string
}

func (f *fakeContestAPI) GetRoomDetails(ctx context.Context, roomID string) (*models.ContestRoomSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	snap := *f.snapshot
	return &snap, nil
}

func (f *fakeContestAPI) Join(ctx context.Context, roomID, displayName string) (*rest.JoinResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.actionErr != nil {
		return nil, f.actionErr
	}
	return &rest.JoinResult{ParticipantID: "p-1", RoomID: roomID}, nil
}

func (f *fakeContestAPI) Vote(ctx context.Context, roomID, stageID, entryID string, score int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.actionErr != nil {
		return f.actionErr
	}
	f.votes = append(f.votes, fmt.Sprintf("%s:%s:%d", stageID, entryID, score))
	return nil
}

func (f *fakeContestAPI) Start(ctx context.Context, roomID string) error {
	return f.action("start")
}

func (f *fakeContestAPI) AdvanceStage(ctx context.Context, roomID string) error {
	return f.action("advance")
}

func (f *fakeContestAPI) Finish(ctx context.Context, roomID string) error {
	return f.action("finish")
}

func (f *fakeContestAPI) action(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return f.actionErr
}

// waitView receives updates until pred matches or the deadline passes.
func waitView[T any](t *testing.T, ch <-chan T, pred func(T) bool) T {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case v := <-ch:
			if pred(v) {
				return v
			}
		case <-deadline:
			t.Fatal("timed out waiting for view update")
			var zero T
			return zero
		}
	}
}

// assertNoUpdate asserts nothing arrives on ch for a short window.
func assertNoUpdate[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case <-ch:
		t.Fatal("unexpected view update")
	case <-time.After(50 * time.Millisecond):
	}
}
