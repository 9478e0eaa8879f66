package predict

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/metal-lca/internal/resilience"
	"github.com/sells-group/metal-lca/internal/stage"
	"github.com/sells-group/metal-lca/pkg/anthropic"
)

const systemPrompt = `You are a metallurgical process engineer estimating life cycle inventory data
for metal production. Given a life cycle stage, the project context and the
measurements already known, estimate each requested field.

Rules:
- Answer with a single JSON object and nothing else.
- Use exactly this shape: {"predictions": {"<FieldName>": {"value": <number>, "confidence": <0-100>}}}
- Only include the requested field names.
- Every value must be a plain number in the stated unit and inside the stated range.
- confidence is your confidence in the estimate as a percentage.
- Omit a field entirely if you cannot estimate it.`

// Config controls the Anthropic-backed predictor.
type Config struct {
	Model           string
	MaxTokens       int64
	RatePerSec      float64
	Burst           int
	MaxAttempts     int
	BreakerFailures int
	BreakerReset    time.Duration
}

// AnthropicPredictor batches all missing fields of a stage into one message.
// Calls are rate limited, retried a bounded number of times on transient
// failures and short-circuited while the service keeps failing.
type AnthropicPredictor struct {
	client  anthropic.Client
	cfg     Config
	limiter *rate.Limiter
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
}

// NewAnthropicPredictor creates a predictor over the given client.
func NewAnthropicPredictor(client anthropic.Client, cfg Config) *AnthropicPredictor {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &AnthropicPredictor{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:             "anthropic",
			FailureThreshold: cfg.BreakerFailures,
			ResetTimeout:     cfg.BreakerReset,
		}),
		retry: resilience.RetryConfig{
			Name:           "predict_fields",
			MaxAttempts:    cfg.MaxAttempts,
			InitialBackoff: 250 * time.Millisecond,
			MaxBackoff:     2 * time.Second,
			JitterFraction: 0.2,
			ShouldRetry:    shouldRetry,
		},
	}
}

// PredictFields asks the model for every missing field of req in one call.
func (p *AnthropicPredictor) PredictFields(ctx context.Context, req Request) (*Result, error) {
	if len(req.Missing) == 0 {
		return &Result{Success: true, Predictions: map[string]Prediction{}}, nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "predict: rate limit wait")
	}

	msgReq := anthropic.MessageRequest{
		Model:     p.cfg.Model,
		MaxTokens: p.cfg.MaxTokens,
		System:    anthropic.CachedSystemBlocks(systemPrompt, "5m"),
		Messages:  []anthropic.Message{{Role: "user", Content: buildPrompt(req)}},
	}

	resp, err := resilience.Call(ctx, p.breaker, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return resilience.Retry(ctx, p.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
			resp, err := p.client.CreateMessage(ctx, msgReq)
			return resp, markTransient(err)
		})
	})
	if err != nil {
		return nil, eris.Wrapf(err, "predict: stage %s", req.Stage)
	}
	resp.Usage.LogCost(p.cfg.Model, string(req.Stage))

	preds, err := parsePredictions(resp.Text(), req.MissingNames())
	if err != nil {
		return &Result{Success: false, Error: err.Error()}, nil
	}

	zap.L().Debug("fields predicted",
		zap.String("stage", string(req.Stage)),
		zap.Int("requested", len(req.Missing)),
		zap.Int("predicted", len(preds)),
	)
	return &Result{Success: true, Predictions: preds}, nil
}

// markTransient wraps API errors whose status is worth retrying.
func markTransient(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) && resilience.IsTransientHTTPStatus(apiErr.StatusCode) {
		return resilience.NewTransientError(err, apiErr.StatusCode)
	}
	return err
}

// shouldRetry refuses API errors that markTransient left unwrapped, such as
// 400 or 401, even when their message looks transient.
func shouldRetry(err error) bool {
	var te *resilience.TransientError
	if errors.As(err, &te) {
		return true
	}
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return false
	}
	return resilience.IsTransient(err)
}

func buildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Stage: %s\n", req.Stage)
	fmt.Fprintf(&b, "Metal: %s\n", req.Project.MetalType)
	fmt.Fprintf(&b, "Processing mode: %s\n", req.Project.ProcessingMode)
	fmt.Fprintf(&b, "Functional unit: %g tonnes\n", req.Project.FunctionalUnitMassTonnes)

	if len(req.Provided) > 0 {
		b.WriteString("\nKnown measurements:\n")
		names := make([]string, 0, len(req.Provided))
		for name := range req.Provided {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "- %s = %g\n", name, req.Provided[name])
		}
	}

	b.WriteString("\nEstimate these fields:\n")
	for _, f := range req.Missing {
		fmt.Fprintf(&b, "- %s (%s, range %g to %g)\n", f.Name, f.Unit, f.Min, f.Max)
	}
	return b.String()
}

// parsePredictions decodes the model's answer, keeping only requested fields.
// Each entry may be {"value": n, "confidence": n} or a bare value.
func parsePredictions(text string, requested []string) (map[string]Prediction, error) {
	var envelope struct {
		Predictions map[string]json.RawMessage `json:"predictions"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(text)), &envelope); err != nil {
		return nil, eris.Wrap(err, "predict: parse response")
	}
	if envelope.Predictions == nil {
		return nil, eris.New("predict: response has no predictions object")
	}

	out := make(map[string]Prediction, len(requested))
	for _, name := range requested {
		raw, ok := envelope.Predictions[name]
		if !ok {
			continue
		}
		var entry struct {
			Value      any `json:"value"`
			Confidence any `json:"confidence"`
		}
		if err := json.Unmarshal(raw, &entry); err == nil && entry.Value != nil {
			// An unusable confidence leaves the default to the resolver.
			pred := Prediction{Value: entry.Value}
			if c, ok := stage.ToFloat(entry.Confidence); ok {
				pred.ConfidencePercent = &c
			}
			out[name] = pred
			continue
		}
		var bare any
		if err := json.Unmarshal(raw, &bare); err != nil {
			continue
		}
		if _, isObj := bare.(map[string]any); isObj || bare == nil {
			continue
		}
		out[name] = Prediction{Value: bare}
	}
	return out, nil
}

// cleanJSON extracts a JSON object from text that may contain markdown code
// fences or surrounding prose.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}
