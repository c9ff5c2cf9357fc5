package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bryancris/tasqi-sub001/internal/alerts"
	"github.com/bryancris/tasqi-sub001/internal/config"
	"github.com/bryancris/tasqi-sub001/internal/kvstore"
	"github.com/bryancris/tasqi-sub001/internal/model"
	"github.com/bryancris/tasqi-sub001/internal/platform"
	"github.com/bryancris/tasqi-sub001/internal/push"
	"github.com/bryancris/tasqi-sub001/internal/queue"
	"github.com/bryancris/tasqi-sub001/internal/service"
)

type silentPlayer struct{}

func (silentPlayer) Play(ctx context.Context, env platform.Env) bool { return true }

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	stores := kvstore.NewMemoryFactory()
	events := push.NewEventPublisher(nil, logger)

	cfg := config.NotificationConfig{
		MaxVisible:       4,
		DismissTimeout:   time.Hour,
		SweepInterval:    time.Hour,
		MaxAge:           48 * time.Hour,
		MaxPersistentAge: 168 * time.Hour,
		MaxReadAge:       24 * time.Hour,
	}

	var queueMu sync.Mutex
	queues := make(map[string]*queue.DeliveryQueue)
	queueFor := func(ctx context.Context, userID string) *queue.DeliveryQueue {
		queueMu.Lock()
		defer queueMu.Unlock()
		if q, ok := queues[userID]; ok {
			return q
		}
		q := queue.NewDeliveryQueue(stores(userID), 3, time.Millisecond, logger)
		q.Load(ctx)
		queues[userID] = q
		return q
	}

	registry := alerts.NewRegistry(func(userID string) *alerts.Manager {
		return alerts.NewManager(userID, stores(userID), silentPlayer{}, queueFor(context.Background(), userID), nil, events, cfg, logger)
	})
	t.Cleanup(registry.Close)

	notifications := service.NewNotificationService(registry, logger)
	queueService := service.NewQueueService(queueFor, notifications, logger)
	h := NewNotificationHandler(notifications, queueService, logger)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userID", "user-1")
		c.Next()
	})
	router.POST("/notifications", h.ShowNotification)
	router.GET("/notifications", h.GetNotifications)
	router.PUT("/notifications/:id/read", h.DismissNotification)
	router.PUT("/notifications/groups/:group/read", h.DismissGroup)
	router.DELETE("/notifications", h.ClearNotifications)
	router.POST("/connectivity", h.ReportConnectivity)
	router.POST("/queue/drain", h.DrainQueue)
	return router
}

func doJSON(router *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestShowAndListNotifications(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, "POST", "/notifications", `{"title":"Task updated","message":"done","type":"success"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var created model.Notification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "success", created.Type)

	w = doJSON(router, "GET", "/notifications", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list model.NotificationListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Unread)
	require.Len(t, list.Notifications, 1)
	assert.Equal(t, "Task updated", list.Notifications[0].Title)
}

func TestShowRejectsInvalidPayload(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, "POST", "/notifications", `{"message":"no title"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, "POST", "/notifications", `{"title":"x","type":"shouting"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDismissNotification(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, "POST", "/notifications", `{"title":"to dismiss"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var created model.Notification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(router, "PUT", "/notifications/"+created.ID+"/read", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, "PUT", "/notifications/"+created.ID+"/read", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, "GET", "/notifications", "", nil)
	var list model.NotificationListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 0, list.Unread)
}

func TestDismissGroup(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, "POST", "/notifications", `{"title":"same","type":"info"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var created model.Notification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	doJSON(router, "POST", "/notifications", `{"title":"same","type":"info"}`, nil)

	w = doJSON(router, "PUT", "/notifications/groups/"+created.Group+"/read", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Dismissed int `json:"dismissed"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Dismissed)
}

func TestOfflineShowQueuesAndDrainDelivers(t *testing.T) {
	router := newTestRouter(t)

	offline := map[string]string{platform.HeaderOnline: "false"}
	w := doJSON(router, "POST", "/notifications", `{"title":"queued while offline"}`, offline)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"queued":true`)

	w = doJSON(router, "GET", "/notifications", "", nil)
	var list model.NotificationListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 0, list.Unread)

	w = doJSON(router, "POST", "/connectivity", `{"online":true}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pending":1`)

	w = doJSON(router, "POST", "/queue/drain", `{"user_id":"user-1"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pending":0`)

	w = doJSON(router, "GET", "/notifications", "", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Unread)
}

func TestClearNotifications(t *testing.T) {
	router := newTestRouter(t)

	doJSON(router, "POST", "/notifications", `{"title":"one"}`, nil)
	doJSON(router, "POST", "/notifications", `{"title":"two"}`, nil)

	w := doJSON(router, "DELETE", "/notifications", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, "GET", "/notifications", "", nil)
	var list model.NotificationListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 0, list.Unread)
}
