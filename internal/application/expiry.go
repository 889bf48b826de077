// internal/application/expiry.go
package application

import (
	"fmt"
	"time"
)

// ExpiryMode selects how the sweep treats an applicant with several
// applications on both sides of the threshold.
type ExpiryMode string

const (
	// ModePerApplication expires only the applications past the threshold.
	ModePerApplication ExpiryMode = "per_application"
	// ModePerApplicant expires every application of an applicant as soon
	// as one of them is past the threshold.
	ModePerApplicant ExpiryMode = "per_applicant"
)

const DefaultThresholdMonths = 1

// ExpiryPolicy decides which stored applications a sweep expires.
type ExpiryPolicy struct {
	ThresholdMonths int
	Mode            ExpiryMode
}

func DefaultExpiryPolicy() ExpiryPolicy {
	return ExpiryPolicy{ThresholdMonths: DefaultThresholdMonths, Mode: ModePerApplication}
}

func ParseExpiryMode(s string) (ExpiryMode, error) {
	switch ExpiryMode(s) {
	case "", ModePerApplication:
		return ModePerApplication, nil
	case ModePerApplicant:
		return ModePerApplicant, nil
	default:
		return "", fmt.Errorf("unknown expiry mode %q", s)
	}
}

// Cutoff is the newest creation time that counts as expired at now.
// Calendar months are used so "one month old" follows the calendar, not a
// fixed number of hours. On Mar 31 the cutoff is the last day of February.
func (p ExpiryPolicy) Cutoff(now time.Time) time.Time {
	months := p.ThresholdMonths
	if months <= 0 {
		months = DefaultThresholdMonths
	}
	return AddMonths(now, -months)
}

// IsExpired reports whether app is at least the threshold old at now.
func (p ExpiryPolicy) IsExpired(app Application, now time.Time) bool {
	return !app.CreatedAt().After(p.Cutoff(now))
}

// Select returns the applications to expire, in the order given. Each id
// is considered once even if the store holds duplicates.
func (p ExpiryPolicy) Select(apps []Application, now time.Time) []Application {
	seen := make(map[string]struct{}, len(apps))
	unique := make([]Application, 0, len(apps))
	for _, app := range apps {
		if _, dup := seen[app.ID()]; dup {
			continue
		}
		seen[app.ID()] = struct{}{}
		unique = append(unique, app)
	}

	expiredNames := make(map[string]struct{})
	selected := make([]Application, 0)
	for _, app := range unique {
		if p.IsExpired(app, now) {
			expiredNames[app.Name()] = struct{}{}
		}
	}
	for _, app := range unique {
		if p.IsExpired(app, now) {
			selected = append(selected, app)
			continue
		}
		if p.Mode == ModePerApplicant {
			if _, ok := expiredNames[app.Name()]; ok {
				selected = append(selected, app)
			}
		}
	}
	return selected
}

// ExpiryMessage is the text sent to an applicant whose application expired.
func ExpiryMessage(app Application) string {
	return fmt.Sprintf("Your application %s has expired", app.ID())
}
