package registry

import (
	"strings"
	"time"

	"github.com/a2aregistry/backend/internal/models"
)

// Predicate is a single search criterion evaluated against one record.
// Predicates are composed conjunctively; an empty predicate list
// matches everything.
type Predicate func(rec *models.AgentRecord, now time.Time) bool

// bySkill matches when any skill's id or name contains q
// (case-insensitive substring).
func bySkill(q string) Predicate {
	q = strings.ToLower(q)
	return func(rec *models.AgentRecord, _ time.Time) bool {
		for _, s := range rec.Card.Skills {
			if strings.Contains(strings.ToLower(s.ID), q) || strings.Contains(strings.ToLower(s.Name), q) {
				return true
			}
		}
		return false
	}
}

// byTag matches when any tag of any skill contains q
// (case-insensitive substring).
func byTag(q string) Predicate {
	q = strings.ToLower(q)
	return func(rec *models.AgentRecord, _ time.Time) bool {
		for _, s := range rec.Card.Skills {
			for _, t := range s.Tags {
				if strings.Contains(strings.ToLower(t), q) {
					return true
				}
			}
		}
		return false
	}
}

// byText matches against the card's name and description only. Skill
// text is deliberately not searched here; use the skill predicate for
// that.
func byText(q string) Predicate {
	q = strings.ToLower(q)
	return func(rec *models.AgentRecord, _ time.Time) bool {
		return strings.Contains(strings.ToLower(rec.Card.Name), q) ||
			strings.Contains(strings.ToLower(rec.Card.Description), q)
	}
}

// byCapability matches when the named flag is present and true. A card
// with no capabilities object never matches.
func byCapability(name string) Predicate {
	return func(rec *models.AgentRecord, _ time.Time) bool {
		return rec.Card.Capabilities[name]
	}
}

// byStatus matches the stored status exactly.
func byStatus(status string) Predicate {
	return func(rec *models.AgentRecord, _ time.Time) bool {
		return rec.Status == status
	}
}

// byOnline selects records by derived liveness. want=false selects the
// complement, including records that have never sent a heartbeat.
func byOnline(want bool) Predicate {
	return func(rec *models.AgentRecord, now time.Time) bool {
		return IsOnline(rec, now) == want
	}
}

func matchAll(rec *models.AgentRecord, now time.Time, preds []Predicate) bool {
	for _, p := range preds {
		if !p(rec, now) {
			return false
		}
	}
	return true
}
