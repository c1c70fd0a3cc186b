package registry

import (
	"crypto/subtle"
	"time"

	"github.com/a2aregistry/backend/internal/models"
)

// OnlineThreshold is the window after the last heartbeat within which
// an agent counts as online.
const OnlineThreshold = 5 * time.Minute

// IsOnline derives the online flag from the last heartbeat. It is never
// stored: an agent with no heartbeat yet is offline, and the stored
// Status field is an independent axis that staleness does not touch.
func IsOnline(rec *models.AgentRecord, now time.Time) bool {
	return rec.LastSeen != nil && now.Sub(*rec.LastSeen) <= OnlineThreshold
}

// HeartbeatUpdate carries the optional fields of a heartbeat. Nil
// pointers mean "leave the last known value unchanged"; an absent
// Status defaults the record to online.
type HeartbeatUpdate struct {
	Status  string
	Load    *float64
	Message *string
}

// applyHeartbeat is the store mutator for a heartbeat. The token is
// compared byte-for-byte in constant time; on mismatch nothing is
// mutated. LastSeen never moves backward even if the wall clock does.
func applyHeartbeat(rec *models.AgentRecord, token string, upd HeartbeatUpdate, now time.Time) error {
	if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(rec.HeartbeatToken)) != 1 {
		return ErrUnauthorized
	}
	if rec.LastSeen == nil || now.After(*rec.LastSeen) {
		ts := now
		rec.LastSeen = &ts
	}
	if upd.Status != "" {
		rec.Status = upd.Status
	} else {
		rec.Status = models.AgentStatusOnline
	}
	if upd.Load != nil {
		l := *upd.Load
		rec.Load = &l
	}
	if upd.Message != nil {
		rec.StatusMessage = *upd.Message
	}
	return nil
}
