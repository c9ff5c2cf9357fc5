package push

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bryancris/tasqi-sub001/internal/client"
	"github.com/bryancris/tasqi-sub001/internal/model"
)

// Dispatcher routes a system-level notification attempt: direct web
// push to stored subscriptions first, then the remote push-notification
// function for device-token platforms. Either half may be absent.
type Dispatcher struct {
	webPush  *WebPushSender
	function *client.PushFunctionClient
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher; either sender may be nil.
func NewDispatcher(webPush *WebPushSender, function *client.PushFunctionClient, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		webPush:  webPush,
		function: function,
		logger:   logger,
	}
}

// Send attempts delivery through every configured channel and reports
// the combined success count. It fails only when no channel delivered.
func (d *Dispatcher) Send(ctx context.Context, payload model.PushPayload) (*model.PushResult, error) {
	total := 0

	if d.webPush != nil && d.webPush.Configured() {
		sent, err := d.webPush.Send(ctx, payload)
		if err != nil {
			d.logger.Debug("Web push channel failed", zap.Error(err))
		}
		total += sent
	}

	if total == 0 && d.function != nil {
		result, err := d.function.Send(ctx, payload)
		if err != nil {
			d.logger.Debug("Push function channel failed", zap.Error(err))
		} else {
			total += result.SuccessCount
		}
	}

	if total == 0 {
		return nil, fmt.Errorf("no push channel delivered for user %s", payload.UserID)
	}
	return &model.PushResult{SuccessCount: total}, nil
}
