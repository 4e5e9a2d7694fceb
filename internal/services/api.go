// Recommendation service client for the POST /dj endpoint
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
	"golang.org/x/time/rate"
)

const DefaultEndpoint = "http://127.0.0.1:62515/dj"

var _ Recommender = (*RecommendationService)(nil)

// RecommendationService posts prompts to the recommendation endpoint.
type RecommendationService struct {
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// RecommendationOpts configures a [RecommendationService].
type RecommendationOpts struct {
	Endpoint   string       // Full endpoint URL (default: [DefaultEndpoint])
	HTTPClient *http.Client // Defaults to [http.DefaultClient]
	RateLimit  float64      // Requests per second, 0 disables throttling
	Logger     *log.Logger
}

// NewRecommendationService creates a client for the recommendation endpoint.
func NewRecommendationService(opts RecommendationOpts) *RecommendationService {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	return &RecommendationService{
		endpoint:   opts.Endpoint,
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     opts.Logger,
	}
}

// NewFromConfig builds the service described by the [service] section of config.
func NewFromConfig(config *shared.Config, logger *log.Logger) *RecommendationService {
	return NewRecommendationService(RecommendationOpts{
		Endpoint:   config.Service.Endpoint,
		HTTPClient: &http.Client{Timeout: config.Service.Timeout.Duration},
		RateLimit:  config.Service.RateLimit,
		Logger:     logger,
	})
}

// Endpoint returns the configured endpoint URL.
func (s *RecommendationService) Endpoint() string {
	return s.endpoint
}

// rawResponse is the status and body of a completed request.
type rawResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// errorBody covers both the service's {"error": ...} and FastAPI's {"detail": ...} failure shapes.
type errorBody struct {
	Error  string `json:"error"`
	Detail any    `json:"detail"`
}

// Recommend implements [Recommender].
func (s *RecommendationService) Recommend(ctx context.Context, prompt string) (*models.Recommendation, error) {
	req, err := models.NewRequest(prompt)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, &TransportError{Op: "encode request", Err: err}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{Op: "wait for rate limiter", Err: err}
	}

	requestID := shared.GenerateID()
	started := time.Now()
	resp, err := s.post(ctx, payload, requestID)
	if err != nil {
		s.logger.Warn("recommendation request failed", "request_id", requestID, "error", err)
		return nil, err
	}
	s.logger.Debug("recommendation response",
		"request_id", requestID,
		"status", resp.StatusCode,
		"bytes", len(resp.Body),
		"elapsed", time.Since(started),
	)

	return decodeRecommendation(resp)
}

// post performs the POST request and returns the raw response.
func (s *RecommendationService) post(ctx context.Context, data []byte, requestID string) (*rawResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, &TransportError{Op: "create request", Err: err}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "send request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read response", Err: err}
	}

	return &rawResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}, nil
}

// decodeRecommendation classifies a raw response.
//
// Non-2xx statuses are service errors whatever the body holds; a 2xx body must decode and report success.
func decodeRecommendation(resp *rawResponse) (*models.Recommendation, error) {
	if !isSuccessStatus(resp.StatusCode) {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	var rec models.Recommendation
	if err := json.Unmarshal(resp.Body, &rec); err != nil {
		return nil, &TransportError{Op: "decode response", Err: err}
	}

	if !rec.Success {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Message: rec.Error}
	}
	return &rec, nil
}

// errorMessage extracts a human readable message from a failure body, or "" when there is none.
func errorMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	if eb.Error != "" {
		return eb.Error
	}
	if detail, ok := eb.Detail.(string); ok {
		return detail
	}
	if eb.Detail != nil {
		if b, err := json.Marshal(eb.Detail); err == nil {
			return string(b)
		}
	}
	return ""
}
