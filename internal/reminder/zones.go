package reminder

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/bryancris/tasqi-sub001/internal/kvstore"
)

// KVZoneResolver reads the zone the client last reported into its
// device store, falling back to UTC.
type KVZoneResolver struct {
	stores func(userID string) kvstore.Store
	logger *zap.Logger
}

// NewKVZoneResolver creates a resolver over per-user device stores.
func NewKVZoneResolver(stores func(userID string) kvstore.Store, logger *zap.Logger) *KVZoneResolver {
	return &KVZoneResolver{
		stores: stores,
		logger: logger,
	}
}

// Zone resolves the user's detected IANA zone.
func (r *KVZoneResolver) Zone(ctx context.Context, userID string) *time.Location {
	name, ok, err := r.stores(userID).Get(ctx, kvstore.KeyDetectedTimeZone)
	if err != nil || !ok {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		r.logger.Debug("unknown time zone, using UTC", zap.String("zone", name))
		return time.UTC
	}
	return loc
}
