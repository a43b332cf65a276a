// Package rooms holds the reconcilers that merge one REST snapshot with
// an unbounded stream of pushed events into a coherent, render-ready
// view per mounted room.
//
// Concurrency model: the snapshot fetch resolves on its own goroutine
// and events arrive on the transport read goroutine; both funnel through
// the room mutex, so applying state is serialized while arrival order
// stays arbitrary. No ordering is assumed between the snapshot and the
// first live event.
package rooms

import (
	"encoding/json"

	"github.com/Banjo7331/compezze-app-frontend-sub000/internal/models"
	"github.com/Banjo7331/compezze-app-frontend-sub000/internal/transport"
)

// Subscriber is the slice of the topic registry the rooms need.
// Implemented by *transport.Registry.
type Subscriber interface {
	Subscribe(topic string, cb transport.Callback) transport.Handle
	Unsubscribe(h transport.Handle)
}

// Notifier receives transient, dismissible notifications (action
// failures, reconnect hints). Display is a collaborator concern.
type Notifier interface {
	Notify(n models.Notification)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(models.Notification) {}

// RoomTopic is the push topic carrying updates for one room.
func RoomTopic(roomID string) string {
	return "rooms/" + roomID
}

// mergeParticipants applies the monotonic participant-count policy: a
// count already advanced by a live event is never lowered by a stale
// snapshot (or a stale event) racing in behind it.
func mergeParticipants(current int, reported int) int {
	if reported > current {
		return reported
	}
	return current
}

// placeholderEntry appends a zero-score row for a joiner not yet ranked
// by the server, so the roster never lags the participant count. The
// server's next LEADERBOARD_UPDATE replaces it wholesale.
func placeholderEntry(board []models.LeaderboardEntry, userID, name string) []models.LeaderboardEntry {
	if userID == "" {
		return board
	}
	for _, e := range board {
		if e.UserID == userID {
			return board
		}
	}
	return append(board, models.LeaderboardEntry{
		UserID: userID,
		Name:   name,
		Score:  0,
		Rank:   len(board) + 1,
	})
}

// appendChat keeps a bounded transcript.
func appendChat(chat []models.ChatMessage, msg models.ChatMessage, limit int) []models.ChatMessage {
	chat = append(chat, msg)
	if len(chat) > limit {
		chat = chat[len(chat)-limit:]
	}
	return chat
}

// decodeEvent parses a pushed payload, tolerating malformed input.
// Returns nil when the payload should be dropped.
func decodeEvent(payload json.RawMessage) *models.RoomEvent {
	ev, err := models.ParseRoomEvent(payload)
	if err != nil {
		return nil
	}
	return ev
}
