// Package probe verifies a registered agent's endpoint by fetching its
// well-known agent card and checking it against a JSON Schema. It runs
// as a background job so registration never blocks on the network.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/riverqueue/river"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/a2aregistry/backend/internal/models"
	"github.com/a2aregistry/backend/internal/store"
)

// WellKnownPath is where A2A agents publish their card.
const WellKnownPath = "/.well-known/agent-card.json"

const fetchTimeout = 10 * time.Second

type VerifyEndpointArgs struct {
	AgentID string `json:"agent_id"`
	URL     string `json:"url"`
}

func (VerifyEndpointArgs) Kind() string { return "verify_endpoint" }

type VerifyEndpointWorker struct {
	river.WorkerDefaults[VerifyEndpointArgs]
	store      store.Store
	schema     *jsonschema.Schema
	httpClient *http.Client
	log        *slog.Logger
}

func NewVerifyEndpointWorker(st store.Store, log *slog.Logger) (*VerifyEndpointWorker, error) {
	schema, err := compileCardSchema()
	if err != nil {
		return nil, fmt.Errorf("compile agent card schema: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &VerifyEndpointWorker{
		store:      st,
		schema:     schema,
		httpClient: &http.Client{Timeout: fetchTimeout},
		log:        log,
	}, nil
}

func (w *VerifyEndpointWorker) Work(ctx context.Context, job *river.Job[VerifyEndpointArgs]) error {
	args := job.Args

	card, err := FetchCard(ctx, w.httpClient, args.URL)
	if err != nil {
		// Network failures are worth retrying; River backs off.
		return fmt.Errorf("fetch well-known card for %s: %w", args.AgentID, err)
	}
	if err := w.validate(card); err != nil {
		// A reachable endpoint serving a bad card is not retryable.
		w.log.Info("endpoint card failed verification", "agent_id", args.AgentID, "error", err)
		return nil
	}

	_, err = w.store.Update(ctx, args.AgentID, func(rec *models.AgentRecord) error {
		rec.Verified = true
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Deleted while the probe was in flight.
			return nil
		}
		return fmt.Errorf("mark %s verified: %w", args.AgentID, err)
	}
	w.log.Info("agent endpoint verified", "agent_id", args.AgentID)
	return nil
}

func (w *VerifyEndpointWorker) validate(card json.RawMessage) error {
	var doc any
	if err := json.Unmarshal(card, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return w.schema.Validate(doc)
}

// FetchCard retrieves the agent card from baseURL's well-known path.
// Shared with the registryctl check command.
func FetchCard(ctx context.Context, client *http.Client, baseURL string) (json.RawMessage, error) {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	url := strings.TrimRight(baseURL, "/") + WellKnownPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("well-known endpoint returned %d", resp.StatusCode)
	}
	var card json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, fmt.Errorf("invalid JSON at well-known endpoint: %w", err)
	}
	return card, nil
}
