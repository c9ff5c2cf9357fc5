package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bryancris/tasqi-sub001/internal/kvstore"
	"github.com/bryancris/tasqi-sub001/internal/platform"
)

// StoreFactory returns the device-local store for a user.
type StoreFactory func(userID string) kvstore.Store

// Interaction stamps every authenticated request into the device state:
// the interaction timestamp feeds audio-unlock eligibility and the
// reported time zone feeds reminder scheduling.
func Interaction(stores StoreFactory, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := c.Get("userID")
		uid, _ := userID.(string)

		store := stores(uid)
		ctx := c.Request.Context()

		millis := strconv.FormatInt(time.Now().UnixMilli(), 10)
		if err := store.Set(ctx, kvstore.KeyLastInteractionTime, millis); err != nil {
			logger.Debug("failed to stamp interaction time", zap.Error(err))
		}

		if zone := c.GetHeader(platform.HeaderTimeZone); zone != "" {
			if err := store.Set(ctx, kvstore.KeyDetectedTimeZone, zone); err != nil {
				logger.Debug("failed to stamp time zone", zap.Error(err))
			}
		}

		c.Next()
	}
}
