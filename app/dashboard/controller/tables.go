package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/velastools/velastools/app/dashboard/types"
	"github.com/velastools/velastools/pkg/cluster"
	"github.com/velastools/velastools/pkg/db/models"
	"github.com/velastools/velastools/pkg/readmodel"
	"github.com/velastools/velastools/pkg/redis"
)

// windowParam reads ?window=N, falling back to def when absent.
func windowParam(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("window")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > readmodel.MaxWindow {
		return 0, fmt.Errorf("%w: %q", readmodel.ErrInvalidWindow, raw)
	}
	return n, nil
}

func (c *Controller) credits(ctx context.Context, cl cluster.Cluster, window int) (readmodel.Table[int64], error) {
	return cachedTable(ctx, c.App, models.Credits, cl, window, func() (readmodel.Table[int64], error) {
		return readmodel.Credits(ctx, c.App.Store, cl, window)
	})
}

func (c *Controller) rewards(ctx context.Context, cl cluster.Cluster, window int) (readmodel.Table[float64], error) {
	return cachedTable(ctx, c.App, models.Rewards, cl, window, func() (readmodel.Table[float64], error) {
		return readmodel.Rewards(ctx, c.App.Store, cl, window)
	})
}

// cachedTable serves from the cache when it can. Cache failures are logged and bypassed.
func cachedTable[T readmodel.Value](ctx context.Context, app *types.App, kind models.RecordKind, cl cluster.Cluster, window int, build func() (readmodel.Table[T], error)) (readmodel.Table[T], error) {
	if app.Cache == nil {
		return build()
	}

	key := redis.TableKey(kind, cl, window)
	var cached readmodel.Table[T]
	err := app.Cache.GetJSON(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, redis.ErrCacheMiss) {
		app.Logger.Warn("Dashboard cache read failed", zap.String("key", key), zap.Error(err))
	}

	table, err := build()
	if err != nil {
		return table, err
	}
	if err := app.Cache.SetJSON(ctx, key, table); err != nil {
		app.Logger.Warn("Dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
	return table, nil
}
