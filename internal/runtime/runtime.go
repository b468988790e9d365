// Package runtime adapts the webhook handler to its transports: net/http and AWS Lambda.
package runtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/isometry/clerk-user-sync/internal/handler"
	"github.com/isometry/clerk-user-sync/internal/handler/processor"
	"github.com/isometry/clerk-user-sync/internal/helpers"
	"github.com/isometry/clerk-user-sync/internal/models"
)

// Lambda payload types.
const (
	PayloadAPIGatewayV1 = "api-gateway-v1"
	PayloadAPIGatewayV2 = "api-gateway-v2"
	PayloadLambdaURL    = "lambda-url"
)

// DefaultMaxBodyBytes caps HTTP request bodies read before verification.
const DefaultMaxBodyBytes int64 = 1 << 20

// Option is a functional option for the Runtime.
type Option func(*Runtime)

// WithLogger sets the runtime logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithMaxBodyBytes sets the largest HTTP request body accepted. Non-positive values keep the default.
func WithMaxBodyBytes(n int64) Option {
	return func(r *Runtime) {
		if n > 0 {
			r.maxBodyBytes = n
		}
	}
}

// Runtime serves the Handler over HTTP or Lambda.
type Runtime struct {
	*handler.Handler
	logger       *slog.Logger
	maxBodyBytes int64
}

// NewRuntime creates a new runtime instance
func NewRuntime(handler *handler.Handler, opts ...Option) *Runtime {
	_inst := &Runtime{Handler: handler, maxBodyBytes: DefaultMaxBodyBytes}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	return _inst
}

// Lambda is the Lambda handler for the runtime. The payload is decoded according to the
// handler's lambda payload type. Handled failures are reported through the status code only:
// returning an error would make the gateway answer 502.
func (r *Runtime) Lambda(ctx context.Context, payload json.RawMessage) (any, error) {
	payloadType := r.Handler.GetLambdaPayloadType()
	var (
		req       models.Request
		base64Enc bool
		requestID string
	)
	switch payloadType {
	case PayloadAPIGatewayV1:
		var e events.APIGatewayProxyRequest
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", payloadType, err)
		}
		req, base64Enc, requestID = models.Request{Body: e.Body, Headers: helpers.LowerHeaders(e.Headers)}, e.IsBase64Encoded, e.RequestContext.RequestID
	case PayloadAPIGatewayV2:
		var e events.APIGatewayV2HTTPRequest
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", payloadType, err)
		}
		req, base64Enc, requestID = models.Request{Body: e.Body, Headers: helpers.LowerHeaders(e.Headers)}, e.IsBase64Encoded, e.RequestContext.RequestID
	case PayloadLambdaURL:
		var e events.LambdaFunctionURLRequest
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", payloadType, err)
		}
		req, base64Enc, requestID = models.Request{Body: e.Body, Headers: helpers.LowerHeaders(e.Headers)}, e.IsBase64Encoded, e.RequestContext.RequestID
	default:
		return nil, fmt.Errorf("unsupported lambda payload type: %s", payloadType)
	}

	logger := r.logger.With(slog.String("requestID", orNewID(requestID)))
	logger.Info("received API Gateway request", slog.String("payloadType", payloadType))

	body := []byte(req.Body)
	if base64Enc {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			logger.Error("failed to decode base64 body", slog.Any("error", err))
			return lambdaResponse(payloadType, models.NewTextResponse(http.StatusBadRequest, "invalid base64 body")), nil
		}
		body = decoded
	}

	bus, err := r.Handler.Process(ctx, body, req.Headers)
	r.logOutcome(logger, bus.Response, err)
	return lambdaResponse(payloadType, bus.Response), nil
}

func lambdaResponse(payloadType string, resp models.Response) any {
	switch payloadType {
	case PayloadAPIGatewayV1:
		return events.APIGatewayProxyResponse{Body: resp.Body, Headers: resp.Headers, StatusCode: resp.StatusCode}
	case PayloadLambdaURL:
		return events.LambdaFunctionURLResponse{Body: resp.Body, Headers: resp.Headers, StatusCode: resp.StatusCode}
	default:
		return events.APIGatewayV2HTTPResponse{Body: resp.Body, Headers: resp.Headers, StatusCode: resp.StatusCode}
	}
}

// ServeHTTP is the HTTP handler for the runtime
func (r *Runtime) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	logger := r.logger.With(slog.String("requestID", orNewID(middleware.GetReqID(req.Context()))))

	if req.Method != http.MethodPost {
		logger.Debug("rejecting HTTP request...", slog.Any("requestor", req.RemoteAddr), "reason", "method not allowed", slog.Any("method", req.Method))
		resp.Header().Set("Allow", http.MethodPost)
		helpers.RespondHTTP(models.NewTextResponse(http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed)), resp)
		return
	}

	logger.Debug("received HTTP request...", slog.Any("requestor", req.RemoteAddr), slog.Any("path", req.URL.Path))
	body, err := io.ReadAll(http.MaxBytesReader(resp, req.Body, r.maxBodyBytes))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		logger.Warn("rejecting HTTP request...", slog.Any("requestor", req.RemoteAddr), "reason", "body too large", slog.Int64("limit", tooLarge.Limit))
		helpers.RespondHTTP(models.NewTextResponse(http.StatusRequestEntityTooLarge, http.StatusText(http.StatusRequestEntityTooLarge)), resp)
		return
	}
	if err != nil {
		logger.Error("failed to read request body", slog.Any("error", err))
		helpers.RespondHTTP(models.NewTextResponse(http.StatusInternalServerError, processor.MsgHandlingFailed), resp)
		return
	}

	bus, err := r.Handler.Process(req.Context(), body, helpers.LowerHeaders(req.Header))
	r.logOutcome(logger, bus.Response, err)
	helpers.RespondHTTP(bus.Response, resp)
}

func (r *Runtime) logOutcome(logger *slog.Logger, resp models.Response, err error) {
	attrs := []any{slog.Int("status", resp.StatusCode)}
	var internal *processor.InternalError
	switch {
	case err == nil:
		logger.Info("handled webhook", attrs...)
	case errors.As(err, &internal):
		logger.Error("failed to handle webhook", append(attrs, slog.Any("error", err))...)
	default:
		logger.Warn("rejected webhook", append(attrs, slog.Any("error", err))...)
	}
}

func orNewID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}
