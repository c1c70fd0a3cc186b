package models

import (
	"encoding/json"
	"time"
)

// Agent status values reported via heartbeats. Staleness never rewrites
// Status; the derived online flag is a separate axis.
const (
	AgentStatusOnline  = "online"
	AgentStatusOffline = "offline"
	AgentStatusBusy    = "busy"
)

// AgentSkill is a single skill entry on an agent card.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Examples    []string `json:"examples,omitempty"`
}

// AgentCard is the self-description an agent publishes for discovery.
// JSON field names follow the A2A card format (camelCase).
//
// Capabilities is a bag of named boolean flags (streaming,
// pushNotifications, ...). A nil map means the card carried no
// capabilities object at all, which is distinct from an empty one
// for capability filtering.
type AgentCard struct {
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	URL                string          `json:"url"`
	Version            string          `json:"version,omitempty"`
	DefaultInputModes  []string        `json:"defaultInputModes,omitempty"`
	DefaultOutputModes []string        `json:"defaultOutputModes,omitempty"`
	Capabilities       map[string]bool `json:"capabilities,omitempty"`
	Skills             []AgentSkill    `json:"skills,omitempty"`

	// Optional card metadata carried through verbatim.
	Provider      json.RawMessage `json:"provider,omitempty"`
	Documentation string          `json:"documentation,omitempty"`
	Contacts      json.RawMessage `json:"contacts,omitempty"`
}

// AgentRecord is the stored registry entity. The heartbeat token is
// issued once at registration and never serialized back out.
type AgentRecord struct {
	ID             string     `json:"id"`
	Card           AgentCard  `json:"card"`
	RegisteredAt   time.Time  `json:"registered_at"`
	HeartbeatToken string     `json:"-"`
	Status         string     `json:"status"`
	Load           *float64   `json:"load,omitempty"`
	StatusMessage  string     `json:"status_message,omitempty"`
	LastSeen       *time.Time `json:"last_seen,omitempty"`
	Verified       bool       `json:"verified"`
}

// Clone returns a copy that does not alias the stored record's pointer
// fields, so store callers can hand out records safely.
func (r *AgentRecord) Clone() *AgentRecord {
	cp := *r
	if r.Load != nil {
		l := *r.Load
		cp.Load = &l
	}
	if r.LastSeen != nil {
		t := *r.LastSeen
		cp.LastSeen = &t
	}
	return &cp
}
