// Package registry implements the agent directory core: registration
// with slug identity assignment, token-authenticated heartbeats,
// derived liveness, and conjunctive multi-predicate search.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/a2aregistry/backend/internal/models"
	"github.com/a2aregistry/backend/internal/store"
	"github.com/a2aregistry/backend/internal/validation"
)

// maxPutRetries bounds how many identity-collision races a single
// registration absorbs before giving up.
const maxPutRetries = 5

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// Agent is a stored record annotated with its derived liveness.
type Agent struct {
	models.AgentRecord
	Online bool `json:"online"`
}

// Registration is the outcome of a successful Register call. The
// heartbeat token is returned exactly once, here.
type Registration struct {
	ID             string
	HeartbeatToken string
	Warnings       []string
}

// HeartbeatAck reports the record state a heartbeat produced.
type HeartbeatAck struct {
	LastSeen time.Time
	Status   string
}

// ListOptions filters and paginates List. A nil Online imposes no
// liveness constraint; an empty Status imposes no status constraint.
type ListOptions struct {
	Limit  int
	Offset int
	Online *bool
	Status string
}

// SearchQuery holds the optional search predicates. Empty string and
// nil fields impose no constraint.
type SearchQuery struct {
	Skill      string
	Tag        string
	Text       string
	Capability string
	Status     string
	Online     *bool
}

// VerifyFunc enqueues an endpoint verification for a freshly
// registered agent. May be nil when verification is not wired.
type VerifyFunc func(ctx context.Context, agentID, url string) error

type Service interface {
	Register(ctx context.Context, card models.AgentCard) (*Registration, error)
	Heartbeat(ctx context.Context, id, token string, upd HeartbeatUpdate) (*HeartbeatAck, error)
	List(ctx context.Context, opts ListOptions) ([]*Agent, int, error)
	Search(ctx context.Context, q SearchQuery) ([]*Agent, error)
	Get(ctx context.Context, id string) (*Agent, error)
	Delete(ctx context.Context, id string) error
	Validate(card models.AgentCard) validation.Result
}

type service struct {
	store  store.Store
	verify VerifyFunc
	log    *slog.Logger

	now      func() time.Time
	newToken func() string
}

func NewService(st store.Store, verify VerifyFunc, log *slog.Logger) *service {
	if log == nil {
		log = slog.Default()
	}
	return &service{
		store:    st,
		verify:   verify,
		log:      log,
		now:      time.Now,
		newToken: uuid.NewString,
	}
}

var _ Service = (*service)(nil)

func (s *service) Register(ctx context.Context, card models.AgentCard) (*Registration, error) {
	res := validation.ValidateCard(card)
	if !res.Valid {
		return nil, &InvalidCardError{Errors: res.Errors, Warnings: res.Warnings}
	}
	card = *res.Card

	for attempt := 0; attempt < maxPutRetries; attempt++ {
		id, err := s.nextID(ctx, card.Name)
		if err != nil {
			return nil, err
		}
		rec := &models.AgentRecord{
			ID:             id,
			Card:           card,
			RegisteredAt:   s.now().UTC(),
			HeartbeatToken: s.newToken(),
			Status:         models.AgentStatusOffline,
		}
		err = s.store.Put(ctx, rec)
		if errors.Is(err, store.ErrDuplicateID) {
			// Lost an identity race; probe again from the base slug.
			continue
		}
		if err != nil {
			return nil, err
		}
		if s.verify != nil {
			if err := s.verify(ctx, id, card.URL); err != nil {
				s.log.Warn("endpoint verification enqueue failed", "agent_id", id, "error", err)
			}
		}
		return &Registration{ID: id, HeartbeatToken: rec.HeartbeatToken, Warnings: res.Warnings}, nil
	}
	return nil, fmt.Errorf("registering %q: %w", card.Name, ErrConflict)
}

// nextID probes the store for the first free identifier for name.
func (s *service) nextID(ctx context.Context, name string) (string, error) {
	var infraErr error
	id, err := assignID(name, func(candidate string) bool {
		if infraErr != nil {
			return false
		}
		_, getErr := s.store.Get(ctx, candidate)
		if errors.Is(getErr, store.ErrNotFound) {
			return false
		}
		if getErr != nil {
			infraErr = getErr
			return false
		}
		return true
	})
	if infraErr != nil {
		return "", infraErr
	}
	return id, err
}

func (s *service) Heartbeat(ctx context.Context, id, token string, upd HeartbeatUpdate) (*HeartbeatAck, error) {
	now := s.now().UTC()
	rec, err := s.store.Update(ctx, id, func(r *models.AgentRecord) error {
		return applyHeartbeat(r, token, upd, now)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &HeartbeatAck{LastSeen: *rec.LastSeen, Status: rec.Status}, nil
}

func (s *service) List(ctx context.Context, opts ListOptions) ([]*Agent, int, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultListLimit
	}
	if opts.Limit > maxListLimit {
		opts.Limit = maxListLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	var preds []Predicate
	if opts.Status != "" {
		preds = append(preds, byStatus(opts.Status))
	}
	if opts.Online != nil {
		preds = append(preds, byOnline(*opts.Online))
	}

	matched, now, err := s.filtered(ctx, preds)
	if err != nil {
		return nil, 0, err
	}
	total := len(matched)

	start := opts.Offset
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}
	return annotate(matched[start:end], now), total, nil
}

func (s *service) Search(ctx context.Context, q SearchQuery) ([]*Agent, error) {
	var preds []Predicate
	if q.Skill != "" {
		preds = append(preds, bySkill(q.Skill))
	}
	if q.Tag != "" {
		preds = append(preds, byTag(q.Tag))
	}
	if q.Text != "" {
		preds = append(preds, byText(q.Text))
	}
	if q.Capability != "" {
		preds = append(preds, byCapability(q.Capability))
	}
	if q.Status != "" {
		preds = append(preds, byStatus(q.Status))
	}
	if q.Online != nil {
		preds = append(preds, byOnline(*q.Online))
	}

	matched, now, err := s.filtered(ctx, preds)
	if err != nil {
		return nil, err
	}
	return annotate(matched, now), nil
}

// filtered scans the store and keeps records satisfying every
// predicate, evaluating liveness against a single call-time instant.
func (s *service) filtered(ctx context.Context, preds []Predicate) ([]*models.AgentRecord, time.Time, error) {
	now := s.now().UTC()
	records, err := s.store.Scan(ctx)
	if err != nil {
		return nil, now, err
	}
	matched := records[:0]
	for _, rec := range records {
		if matchAll(rec, now, preds) {
			matched = append(matched, rec)
		}
	}
	return matched, now, nil
}

func (s *service) Get(ctx context.Context, id string) (*Agent, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &Agent{AgentRecord: *rec, Online: IsOnline(rec, s.now().UTC())}, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	existed, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !existed {
		return ErrNotFound
	}
	return nil
}

func (s *service) Validate(card models.AgentCard) validation.Result {
	return validation.ValidateCard(card)
}

func annotate(records []*models.AgentRecord, now time.Time) []*Agent {
	out := make([]*Agent, 0, len(records))
	for _, rec := range records {
		out = append(out, &Agent{AgentRecord: *rec, Online: IsOnline(rec, now)})
	}
	return out
}
