package processor

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/isometry/clerk-user-sync/internal/helpers"
	"github.com/isometry/clerk-user-sync/internal/models"
	"github.com/isometry/clerk-user-sync/internal/validation"
	"github.com/pkg/errors"
)

type authValidatorProcessor struct {
	logger   *slog.Logger
	secret   string
	verifier validation.Verifier
	logBody  bool
}

// NewAuthValidatorProcessor returns the Processor that checks the delivery headers and signature.
// When logBody is set the verified raw body is logged at debug level.
func NewAuthValidatorProcessor(secret string, verifier validation.Verifier, logBody bool, opts ...Option) Processor {
	_inst := &authValidatorProcessor{secret: secret, verifier: verifier, logBody: logBody, logger: helpers.NewNoopLogger()}
	applyOpts(_inst, opts...)
	return _inst
}

func (p *authValidatorProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("pre-processor:validator")
}

func (p *authValidatorProcessor) Process(_ context.Context, req any) (*Bus, error) {
	authRequest, ok := req.(*AuthRequest)
	if !ok {
		return nil, NewInternalError("invalid request type. expected *AuthRequest got %T", req)
	}
	body, headers := authRequest.Body, authRequest.Headers

	bus := &Bus{Body: body, Headers: headers}

	svixHeaders, err := validation.ExtractHeaders(headers)
	if err != nil {
		p.logger.Warn("missing delivery headers", slog.Any("error", err))
		bus.Response = models.NewTextResponse(http.StatusBadRequest, MsgMissingHeaders)
		return bus, NewRejectedError(err)
	}
	bus.DeliveryID = svixHeaders.ID
	logger := p.logger.With(slog.String("deliveryID", svixHeaders.ID))

	event, err := p.verifier.Verify(p.secret, body, svixHeaders)
	if err != nil {
		logger.Warn("error verifying webhook", slog.Any("error", err))
		bus.Response = models.NewTextResponse(http.StatusBadRequest, MsgVerificationFailed)
		return bus, NewRejectedError(errors.Wrap(err, "webhook verification failed"))
	}
	bus.Event = event

	logger.Info("webhook received", slog.String("id", event.DataID()), slog.String("type", event.Type))
	if p.logBody {
		logger.Debug("webhook body", slog.String("body", string(body)))
	}
	return bus, nil
}
