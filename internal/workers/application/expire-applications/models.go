// internal/workers/application/expire-applications/models.go
package expireapplications

// Input is empty; the sweep reads everything it needs from the store.
type Input struct{}

type Output struct {
	ExpiredCount          int      `json:"expiredCount"`
	ExpiredApplicationIDs []string `json:"expiredApplicationIds"`
	NotificationFailures  int      `json:"notificationFailures"`
	SweptAt               string   `json:"sweptAt"`
}
