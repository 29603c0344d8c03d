// Package discourse is a minimal client for the Discourse topic-creation API.
package discourse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"topicherd/internal/credential"
	"topicherd/internal/topics"
	logx "topicherd/pkg/logx"
)

// ErrorKind classifies a failed submission.
type ErrorKind string

const (
	KindNetwork     ErrorKind = "network"
	KindAuth        ErrorKind = "auth"
	KindValidation  ErrorKind = "validation"
	KindRateLimited ErrorKind = "rate_limited"
	KindServer      ErrorKind = "server"
)

// SubmissionError is a failed topic creation. Status is 0 for transport
// failures that never produced a response.
type SubmissionError struct {
	Kind   ErrorKind
	Status int
	Body   string
	cause  error
}

func (e *SubmissionError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("submission failed (%s): %v", e.Kind, e.cause)
	}
	return fmt.Sprintf("submission failed (%s): discourse returned status %d", e.Kind, e.Status)
}

func (e *SubmissionError) Unwrap() error { return e.cause }

// CreatedPost is the part of the Discourse response we care about.
type CreatedPost struct {
	ID         int `json:"id"`
	TopicID    int `json:"topic_id"`
	PostNumber int `json:"post_number"`
}

type Config struct {
	BaseURL string
	Timeout time.Duration
	// RatePerSec paces outgoing requests across all credentials. Discourse
	// rate-limits per instance, not per key, so one limiter is shared.
	RatePerSec int
}

type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	log     logx.Logger
}

func New(cfg Config, log logx.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		log:     log,
	}
}

// CreateTopic issues one authenticated POST to /posts.json. It waits on the
// shared rate limiter first, honoring ctx cancellation. There are no automatic
// retries: a failure is reported once and the caller moves on.
func (c *Client) CreateTopic(ctx context.Context, cred credential.Credential, t topics.Topic) (*CreatedPost, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &SubmissionError{Kind: KindNetwork, cause: err}
	}

	payload, err := json.Marshal(buildPayload(t))
	if err != nil {
		return nil, &SubmissionError{Kind: KindValidation, cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/posts.json", bytes.NewReader(payload))
	if err != nil {
		return nil, &SubmissionError{Kind: KindNetwork, cause: err}
	}
	req.Header.Set("Api-Key", cred.APIKey)
	req.Header.Set("Api-Username", cred.Username)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &SubmissionError{Kind: KindNetwork, cause: err}
	}
	defer resp.Body.Close()

	// Cap the error body we keep around; Discourse HTML error pages can be large.
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &SubmissionError{
			Kind:   classifyStatus(resp.StatusCode),
			Status: resp.StatusCode,
			Body:   string(body),
		}
	}

	var created CreatedPost
	if err := json.Unmarshal(body, &created); err != nil {
		// 2xx with an undecodable body still counts as created; log and move on.
		c.log.Warn("created topic but response body was not decodable",
			logx.String("title", t.Title), logx.Err(err))
		return &CreatedPost{}, nil
	}
	return &created, nil
}

func classifyStatus(status int) ErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status >= 400 && status < 500:
		return KindValidation
	default:
		return KindServer
	}
}

// Kind extracts the ErrorKind from any error returned by CreateTopic.
func Kind(err error) ErrorKind {
	var se *SubmissionError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindNetwork
}
