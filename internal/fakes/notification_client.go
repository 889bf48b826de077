package fakes

import (
	"context"
	"sync"
)

// UserNotificationClient captures messages per recipient in send order.
type UserNotificationClient struct {
	mu     sync.RWMutex
	sent   map[string][]string
	failed map[string]error
}

func NewUserNotificationClient() *UserNotificationClient {
	return &UserNotificationClient{
		sent:   make(map[string][]string),
		failed: make(map[string]error),
	}
}

// FailFor makes every NotifyUser call for name return err. Failed sends are
// not recorded.
func (c *UserNotificationClient) FailFor(name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed[name] = err
}

func (c *UserNotificationClient) NotifyUser(_ context.Context, name, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err, ok := c.failed[name]; ok {
		return err
	}
	c.sent[name] = append(c.sent[name], message)
	return nil
}

// GetNotificationsForUser returns the messages sent to name, oldest first.
// Unknown names yield an empty slice.
func (c *UserNotificationClient) GetNotificationsForUser(name string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.sent[name]))
	copy(out, c.sent[name])
	return out
}

// Total counts successful sends across all recipients.
func (c *UserNotificationClient) Total() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, msgs := range c.sent {
		n += len(msgs)
	}
	return n
}
