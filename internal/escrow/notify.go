package escrow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/twliu-dorian/zk-agreement-example/internal/util"
)

// Notification endpoints.
const (
	PathCommitments   = "/commitments"
	PathVerifications = "/verifications"
)

// maxResponseBody caps how much of a notification response is read.
const maxResponseBody = 1 << 20

// Notifier announces protocol events to an external system.
type Notifier interface {
	Notify(ctx context.Context, path, method string, payload any) ([]byte, error)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, string, any) ([]byte, error) { return nil, nil }

// HTTPDoer is the interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// HTTPNotifier sends notifications as JSON requests to BaseURL+path.
type HTTPNotifier struct {
	BaseURL string
	Client  HTTPDoer      // defaults to http.DefaultClient
	Timeout time.Duration // per request; 0 means no extra timeout
}

func (n *HTTPNotifier) Notify(ctx context.Context, path, method string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal notification: %w", err)
	}
	if n.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.Timeout)
		defer cancel()
	}

	endpoint := strings.TrimRight(n.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return raw, fmt.Errorf("notification %s %s: HTTP %d", method, path, resp.StatusCode)
	}
	return raw, nil
}

// CommitmentPublished is posted to PathCommitments.
type CommitmentPublished struct {
	SubjectID      string     `json:"subject_id"`
	ArtifactID     string     `json:"artifact_id"`
	Commitment     Commitment `json:"commitment"`
	CommitmentAlgo string     `json:"commitment_algo"`
}

// VerificationSucceeded is posted to PathVerifications.
type VerificationSucceeded struct {
	SubjectID  string `json:"subject_id"`
	ArtifactID string `json:"artifact_id"`
	ContractID string `json:"contract_id"`
}

// Publisher makes a commitment public. A nil error acknowledges publication.
type Publisher interface {
	Publish(ctx context.Context, c Commitment) error
}

// FilePublisher publishes a commitment by writing its hex form to Path.
type FilePublisher struct {
	Path string
}

func (p FilePublisher) Publish(ctx context.Context, c Commitment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.Path == "" {
		return fmt.Errorf("%w: publish path is empty", util.ErrInvalidRequest)
	}
	return util.WriteFileAtomic(p.Path, []byte(c.String()+"\n"), 0o644)
}
