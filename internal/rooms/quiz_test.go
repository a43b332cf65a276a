package rooms

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Banjo7331/compezze-app-frontend-sub000/internal/models"
)

func lobbySnapshot() *models.QuizRoomSnapshot {
	return &models.QuizRoomSnapshot{
		RoomID:            "q1",
		Title:             "Friday Quiz",
		Status:            models.QuizLobby,
		HostID:            "host-1",
		ParticipantsCount: 3,
	}
}

func openQuizRoom(t *testing.T, api *fakeQuizAPI) (*QuizRoom, *fakeSubscriber, *fakeNotifier, chan models.QuizViewState) {
	t.Helper()
	subs := newFakeSubscriber()
	notifier := &fakeNotifier{}
	updates := make(chan models.QuizViewState, 64)
	room := NewQuizRoom(api, subs, notifier, "q1", func(v models.QuizViewState) {
		updates <- v
	})
	room.Open()
	return room, subs, notifier, updates
}

func TestQuizRoom_SnapshotProducesReadyView(t *testing.T) {
	api := &fakeQuizAPI{snapshot: lobbySnapshot()}
	room, subs, _, updates := openQuizRoom(t, api)
	defer room.Close()

	v := waitView(t, updates, func(v models.QuizViewState) bool { return v.Ready() })
	assert.Equal(t, models.QuizLobby, v.Status)
	assert.Equal(t, "Friday Quiz", v.Title)
	assert.Equal(t, 3, v.ParticipantsCount)
	assert.Equal(t, 1, subs.activeCount())
}

func TestQuizRoom_StatusFollowsLastEvent(t *testing.T) {
	api := &fakeQuizAPI{snapshot: lobbySnapshot()}
	room, subs, _, updates := openQuizRoom(t, api)
	defer room.Close()
	waitView(t, updates, func(v models.QuizViewState) bool { return v.Ready() })

	subs.Push("rooms/q1", `{"event":"NEW_QUESTION","question":{"id":"qq1","index":1,"text":"2+2?","options":[{"id":"a","text":"4"},{"id":"b","text":"5"}],"startTime":"2026-08-30T10:00:00Z","timeLimitSeconds":30}}`)
	v := waitView(t, updates, func(v models.QuizViewState) bool { return v.Status == models.QuizQuestionActive })
	require.NotNil(t, v.CurrentQuestion)
	assert.Equal(t, "qq1", v.CurrentQuestion.ID)

	subs.Push("rooms/q1", `{"event":"QUESTION_FINISHED","questionId":"qq1","correctOptionId":"a"}`)
	v = waitView(t, updates, func(v models.QuizViewState) bool { return v.Status == models.QuizQuestionFinished })
	assert.Equal(t, "a", v.CorrectOptionID)
	assert.NotNil(t, v.CurrentQuestion, "question stays visible after finishing")

	subs.Push("rooms/q1", `{"event":"LEADERBOARD_UPDATE","leaderboard":[{"userId":"u1","name":"Ada","score":10,"rank":1}]}`)
	v = waitView(t, updates, func(v models.QuizViewState) bool { return v.Status == models.QuizLeaderboard })
	require.Len(t, v.Leaderboard, 1)

	subs.Push("rooms/q1", `{"event":"ROOM_CLOSED"}`)
	v = waitView(t, updates, func(v models.QuizViewState) bool { return v.Status == models.QuizFinished })
	require.NotNil(t, v.FinalResults)
	assert.Equal(t, "u1", v.FinalResults.Leaderboard[0].UserID)
}

func TestQuizRoom_LeaderboardUpdateIsIdempotent(t *testing.T) {
	api := &fakeQuizAPI{snapshot: lobbySnapshot()}
	room, subs, _, updates := openQuizRoom(t, api)
	defer room.Close()
	waitView(t, updates, func(v models.QuizViewState) bool { return v.Ready() })

	board := `{"event":"LEADERBOARD_UPDATE","leaderboard":[{"userId":"u1","name":"Ada","score":10,"rank":1},{"userId":"u2","name":"Bob","score":7,"rank":2}]}`
	subs.Push("rooms/q1", board)
	first := room.View().Leaderboard
	subs.Push("rooms/q1", board)
	second := room.View().Leaderboard

	assert.Equal(t, first, second)
	require.Len(t, second, 2)
	assert.Equal(t, 1, second[0].Rank)
}

func TestQuizRoom_TerminalStateAbsorbsLaterEvents(t *testing.T) {
	api := &fakeQuizAPI{snapshot: lobbySnapshot()}
	room, subs, _, updates := openQuizRoom(t, api)
	defer room.Close()
	waitView(t, updates, func(v models.QuizViewState) bool { return v.Ready() })

	subs.Push("rooms/q1", `{"event":"ROOM_CLOSED"}`)
	waitView(t, updates, func(v models.QuizViewState) bool { return v.Status == models.QuizFinished })

	subs.Push("rooms/q1", `{"event":"NEW_QUESTION","question":{"id":"late","startTime":"2026-08-30T10:00:00Z","timeLimitSeconds":30}}`)
	subs.Push("rooms/q1", `{"event":"USER_JOINED","participantsCount":99}`)
	assertNoUpdate(t, updates)

	v := room.View()
	assert.Equal(t, models.QuizFinished, v.Status)
	assert.Nil(t, v.CurrentQuestion)
	assert.NotEqual(t, 99, v.ParticipantsCount)
}

func TestQuizRoom_TerminalEventDeliversResultsAfterFinishedSnapshot(t *testing.T) {
	// The snapshot may already report FINISHED with no results; the
	// ROOM_CLOSED event carrying the tallies arrives afterwards and must
	// not be absorbed by the terminal state.
	snap := lobbySnapshot()
	snap.Status = models.QuizFinished
	api := &fakeQuizAPI{snapshot: snap}
	room, subs, _, updates := openQuizRoom(t, api)
	defer room.Close()

	v := waitView(t, updates, func(v models.QuizViewState) bool { return v.Ready() })
	assert.Equal(t, models.QuizFinished, v.Status)
	assert.Nil(t, v.FinalResults)

	subs.Push("rooms/q1", `{"event":"ROOM_CLOSED","finalResults":{"leaderboard":[{"userId":"u1","name":"Ada","score":10,"rank":1}],"winnerId":"u1"}}`)
	v = waitView(t, updates, func(v models.QuizViewState) bool { return v.FinalResults != nil })
	assert.Equal(t, "u1", v.FinalResults.WinnerID)
	require.Len(t, v.FinalResults.Leaderboard, 1)
	assert.Equal(t, models.QuizFinished, v.Status)
}

func TestQuizRoom_SnapshotNeverLowersParticipantCount(t *testing.T) {
	// Snapshot resolves after a USER_JOINED already advanced the count:
	// the stale snapshot's lower figure must not win.
	gate := make(chan struct{})
	api := &fakeQuizAPI{snapshot: lobbySnapshot(), gate: gate}
	room, subs, _, updates := openQuizRoom(t, api)
	defer room.Close()

	subs.Push("rooms/q1", `{"event":"USER_JOINED","userId":"u4","userName":"Dee","participantsCount":4}`)
	waitView(t, updates, func(v models.QuizViewState) bool { return v.ParticipantsCount == 4 })

	close(gate)
	v := waitView(t, updates, func(v models.QuizViewState) bool { return v.Ready() })
	assert.Equal(t, 4, v.ParticipantsCount, "snapshot count of 3 must not overwrite fresher event count")
	assert.Equal(t, models.QuizLobby, v.Status)
}

func TestQuizRoom_CloseDiscardsLateSnapshot(t *testing.T) {
	gate := make(chan struct{})
	api := &fakeQuizAPI{snapshot: lobbySnapshot(), gate: gate}
	room, subs, _, updates := openQuizRoom(t, api)
	waitView(t, updates, func(v models.QuizViewState) bool { return v.Loading })

	// Unmount before the snapshot resolves.
	room.Close()
	close(gate)

	assertNoUpdate(t, updates)
	v := room.View()
	assert.True(t, v.Loading, "resolved snapshot must not mutate state after unmount")
	assert.NoError(t, v.Err)
	assert.Equal(t, 1, subs.releasedCount())
}

func TestQuizRoom_UserJoinedAddsPlaceholderEntry(t *testing.T) {
	api := &fakeQuizAPI{snapshot: lobbySnapshot()}
	room, subs, _, updates := openQuizRoom(t, api)
	defer room.Close()
	waitView(t, updates, func(v models.QuizViewState) bool { return v.Ready() })

	subs.Push("rooms/q1", `{"event":"USER_JOINED","userId":"u9","userName":"Zoe","participantsCount":4}`)
	v := waitView(t, updates, func(v models.QuizViewState) bool { return v.ParticipantsCount == 4 })
	require.Len(t, v.Leaderboard, 1)
	assert.Equal(t, "u9", v.Leaderboard[0].UserID)
	assert.Zero(t, v.Leaderboard[0].Score)

	// Same identity joining again must not duplicate the row.
	subs.Push("rooms/q1", `{"event":"USER_JOINED","userId":"u9","userName":"Zoe","participantsCount":5}`)
	v = waitView(t, updates, func(v models.QuizViewState) bool { return v.ParticipantsCount == 5 })
	assert.Len(t, v.Leaderboard, 1)
}

func TestQuizRoom_ToleratesSparseAndUnknownEvents(t *testing.T) {
	api := &fakeQuizAPI{snapshot: lobbySnapshot()}
	room, subs, _, updates := openQuizRoom(t, api)
	defer room.Close()
	waitView(t, updates, func(v models.QuizViewState) bool { return v.Ready() })

	// Missing option list, missing correct answer, unknown kind,
	// malformed JSON: none of these may crash or corrupt the view.
	subs.Push("rooms/q1", `{"event":"NEW_QUESTION","question":{"id":"bare","startTime":"2026-08-30T10:00:00Z","timeLimitSeconds":10}}`)
	subs.Push("rooms/q1", `{"event":"QUESTION_FINISHED"}`)
	subs.Push("rooms/q1", `{"event":"SOMETHING_NEW","payload":123}`)
	subs.Push("rooms/q1", `this is not json`)

	v := room.View()
	assert.Equal(t, models.QuizQuestionFinished, v.Status)
	require.NotNil(t, v.CurrentQuestion)
	assert.Empty(t, v.CurrentQuestion.Options)
	assert.Empty(t, v.CorrectOptionID)
}

func TestQuizRoom_SubmitAnswer(t *testing.T) {
	api := &fakeQuizAPI{snapshot: lobbySnapshot()}
	room, subs, notifier, updates := openQuizRoom(t, api)
	defer room.Close()
	waitView(t, updates, func(v models.QuizViewState) bool { return v.Ready() })

	t.Run("without active question notifies and skips the call", func(t *testing.T) {
		require.NoError(t, room.SubmitAnswer(context.Background(), "a"))
		assert.Equal(t, 1, notifier.count())
		assert.Zero(t, api.callCount("answer:qq1:a"))
	})

	subs.Push("rooms/q1", `{"event":"NEW_QUESTION","question":{"id":"qq1","startTime":"2026-08-30T10:00:00Z","timeLimitSeconds":30,"options":[{"id":"a","text":"4"}]}}`)
	waitView(t, updates, func(v models.QuizViewState) bool { return v.Status == models.QuizQuestionActive })

	t.Run("success flips the local affordance only", func(t *testing.T) {
		require.NoError(t, room.SubmitAnswer(context.Background(), "a"))
		assert.Equal(t, 1, api.callCount("answer:qq1:a"))
		v := waitView(t, updates, func(v models.QuizViewState) bool { return v.AnswerSubmitted })
		assert.Equal(t, models.QuizQuestionActive, v.Status, "no optimistic state change beyond the flag")
	})

	t.Run("next question clears the affordance", func(t *testing.T) {
		subs.Push("rooms/q1", `{"event":"NEW_QUESTION","question":{"id":"qq2","startTime":"2026-08-30T10:01:00Z","timeLimitSeconds":30}}`)
		v := waitView(t, updates, func(v models.QuizViewState) bool { return v.CurrentQuestion != nil && v.CurrentQuestion.ID == "qq2" })
		assert.False(t, v.AnswerSubmitted)
	})

	t.Run("failure notifies and leaves state alone", func(t *testing.T) {
		api.mu.Lock()
		api.actionErr = errors.New("already answered")
		api.mu.Unlock()

		before := room.View()
		err := room.SubmitAnswer(context.Background(), "a")
		require.Error(t, err)
		assert.Equal(t, "Answer not recorded", notifier.last().Title)
		assert.Equal(t, before.AnswerSubmitted, room.View().AnswerSubmitted)
	})
}

func TestQuizRoom_SnapshotErrorThenRefresh(t *testing.T) {
	api := &fakeQuizAPI{snapshot: lobbySnapshot(), fetchErr: errors.New("boom")}
	room, _, _, updates := openQuizRoom(t, api)
	defer room.Close()

	v := waitView(t, updates, func(v models.QuizViewState) bool { return v.Err != nil })
	assert.False(t, v.Loading)
	assert.False(t, v.Ready())

	api.mu.Lock()
	api.fetchErr = nil
	api.mu.Unlock()

	room.Refresh()
	v = waitView(t, updates, func(v models.QuizViewState) bool { return v.Ready() })
	assert.Equal(t, models.QuizLobby, v.Status)
	assert.NoError(t, v.Err)
}

func TestQuizRoom_HostActionFailureNotifies(t *testing.T) {
	api := &fakeQuizAPI{snapshot: lobbySnapshot(), actionErr: errors.New("not the host")}
	room, _, notifier, updates := openQuizRoom(t, api)
	defer room.Close()
	waitView(t, updates, func(v models.QuizViewState) bool { return v.Ready() })

	require.Error(t, room.Start(context.Background()))
	assert.Equal(t, 1, notifier.count())

	// Event-driven state is untouched by the failed action.
	assert.Equal(t, models.QuizLobby, room.View().Status)
}

func TestQuizRoom_QuestionDeadlineFromServerClock(t *testing.T) {
	start := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	q := models.Question{ID: "qq1", StartTime: start, TimeLimitSeconds: 30}

	assert.Equal(t, start.Add(30*time.Second), q.EndsAt())

	cd := QuestionCountdown(q.StartTime, q.TimeLimitSeconds)
	assert.Equal(t, time.Duration(0), cd.Remaining(start.Add(31*time.Second)), "never negative")
	assert.Equal(t, 20*time.Second, cd.Remaining(start.Add(10*time.Second)))
}
