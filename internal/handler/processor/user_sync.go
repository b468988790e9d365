package processor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/isometry/clerk-user-sync/internal/helpers"
	"github.com/isometry/clerk-user-sync/internal/models"
	"github.com/isometry/clerk-user-sync/internal/users"
	"github.com/pkg/errors"
)

type userSyncProcessor struct {
	logger *slog.Logger
	store  users.Store
}

// NewUserSyncProcessor returns the Processor forwarding user lifecycle events to store.
func NewUserSyncProcessor(store users.Store, opts ...Option) Processor {
	_inst := &userSyncProcessor{store: store, logger: helpers.NewNoopLogger()}
	applyOpts(_inst, opts...)
	return _inst
}

func (p *userSyncProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("processor:user-sync")
}

func (p *userSyncProcessor) Process(ctx context.Context, req any) (*Bus, error) {
	bus, err := busFrom(req)
	if err != nil {
		return nil, err
	}
	if bus.Event == nil {
		bus.Response = models.NewTextResponse(http.StatusInternalServerError, MsgHandlingFailed)
		return bus, NewInternalError("unverified delivery reached user sync")
	}

	logger := p.logger.With(slog.String("id", bus.Event.DataID()), slog.String("type", bus.Event.Type))

	switch bus.Event.Type {
	case models.EventUserCreated, models.EventUserUpdated:
		data, err := bus.Event.UserData()
		if err != nil {
			logger.Error("error handling event", slog.Any("error", err))
			bus.Response = models.NewTextResponse(http.StatusInternalServerError, MsgHandlingFailed)
			return bus, &InternalError{Cause: errors.Wrap(err, "failed to decode user data")}
		}
		err = p.store.UpsertUser(ctx, data.ID, data.FirstName, data.LastName, data.ImageURL, data.Emails(), data.Username)
		if err != nil {
			logger.Error("error handling event", slog.Any("error", err))
			bus.Response = models.NewTextResponse(http.StatusInternalServerError, MsgHandlingFailed)
			return bus, &InternalError{Cause: errors.Wrap(err, "failed to create or update user")}
		}
		logger.Info("user created or updated")
		bus.Response = models.NewTextResponse(http.StatusOK, MsgUserUpserted)

	case models.EventUserDeleted:
		if err = p.store.DeleteUser(ctx, bus.Event.DataID()); err != nil {
			logger.Error("error handling event", slog.Any("error", err))
			bus.Response = models.NewTextResponse(http.StatusInternalServerError, MsgHandlingFailed)
			return bus, &InternalError{Cause: errors.Wrap(err, "failed to delete user")}
		}
		logger.Info("user deleted")
		bus.Response = models.NewTextResponse(http.StatusOK, MsgUserDeleted)

	default:
		logger.Warn("rejecting unhandled event type...")
		bus.Response = models.NewTextResponse(http.StatusBadRequest, MsgEventNotHandled)
		return bus, NewRejectedError(fmt.Errorf("unhandled event type: %s", bus.Event.Type))
	}
	return bus, nil
}
