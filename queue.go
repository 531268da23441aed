/*
Copyright 2026 NexusBank Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package nexus

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/nexusbank/nexus/config"
	"github.com/nexusbank/nexus/internal/request"
	redisdb "github.com/nexusbank/nexus/internal/redisdb"
	"github.com/nexusbank/nexus/model"
	"github.com/nexusbank/nexus/store"
)

// Queue wraps the asynq client used to push notification dispatch off the
// request path.
type Queue struct {
	Client *asynq.Client
}

// NewQueue initializes a new Queue from the redis configuration.
func NewQueue(conf *config.Configuration) *Queue {
	redisOption, err := redisdb.ParseRedisURL(conf.Redis.Dns)
	if err != nil {
		log.Fatalf("Error parsing Redis URL: %v", err)
	}

	queueOptions := asynq.RedisClientOpt{Addr: redisOption.Addr, Password: redisOption.Password, DB: redisOption.DB}
	return &Queue{
		Client: asynq.NewClient(queueOptions),
	}
}

// queueNotification enqueues a notification for the worker to persist and
// forward. Review decisions must not wait for webhook round trips.
func (q *Queue) queueNotification(notification *model.Notification) error {
	cfg, err := config.Fetch()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	taskOptions := []asynq.Option{
		asynq.TaskID(notification.NotificationID),
		asynq.Queue(cfg.Queue.NotificationQueue),
	}
	task := asynq.NewTask(cfg.Queue.NotificationQueue, payload, taskOptions...)
	info, err := q.Client.Enqueue(task)
	if err != nil {
		log.Println(err, info)
		return err
	}
	return nil
}

// notify records a notification for a user. With a queue it is dispatched
// asynchronously; without one (tests, redis-less deployments) the document
// is written inline. Failures are logged, never surfaced: a lost
// notification must not fail a settled review.
func (n *Nexus) notify(ctx context.Context, uid, title, body string) {
	notification := &model.Notification{
		NotificationID: model.GenerateUUIDWithSuffix("ntf"),
		UID:            uid,
		Title:          title,
		Body:           body,
		Status:         model.NotificationUnread,
		CreatedAt:      n.clock(),
	}

	if n.queue != nil {
		if err := n.queue.queueNotification(notification); err != nil {
			logrus.Errorf("failed to queue notification: %v", err)
		}
		return
	}

	if err := n.store.Put(ctx, CollectionNotifications, notification.NotificationID, notification); err != nil {
		logrus.Errorf("failed to record notification: %v", err)
	}
}

// ProcessNotification is the asynq handler for queued notifications. It
// persists the document and forwards it to the configured webhook, if any.
func (n *Nexus) ProcessNotification(ctx context.Context, t *asynq.Task) error {
	var notification model.Notification
	if err := json.Unmarshal(t.Payload(), &notification); err != nil {
		logrus.Error(err)
		return err
	}

	if err := n.store.Put(ctx, CollectionNotifications, notification.NotificationID, &notification); err != nil {
		return err
	}

	cfg, err := config.Fetch()
	if err != nil {
		return err
	}
	if cfg.Notification.Webhook.Url == "" {
		return nil
	}

	payload, err := request.ToJsonReq(&notification)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Notification.Webhook.Url, payload)
	if err != nil {
		return err
	}
	for key, value := range cfg.Notification.Webhook.Headers {
		req.Header.Set(key, value)
	}

	var response map[string]interface{}
	resp, err := request.Call(req, &response)
	if err != nil {
		logrus.Errorf("webhook delivery failed: %v", err)
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// UnreadNotifications reports whether the user has any unread notifications.
// The flag feeds the header badge, so it is cached briefly.
func (n *Nexus) UnreadNotifications(ctx context.Context, uid string) (bool, error) {
	cacheKey := fmt.Sprintf("header:unread:%s", uid)
	if n.cache != nil {
		var cached *bool
		if err := n.cache.Get(ctx, cacheKey, &cached); err == nil && cached != nil {
			return *cached, nil
		}
	}

	count, err := n.store.Count(ctx, CollectionNotifications, store.Query{
		Eq: map[string]string{"uid": uid, "status": model.NotificationUnread},
	})
	if err != nil {
		return false, err
	}
	hasUnread := count > 0

	if n.cache != nil {
		if err := n.cache.Set(ctx, cacheKey, &hasUnread, 10*time.Second); err != nil {
			logrus.Error(err)
		}
	}
	return hasUnread, nil
}
