package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/session_auth/internal/models"
)

const (
	TypeRegistered = "account_registered"
	TypeLoggedIn   = "account_logged_in"
	TypeRefreshed  = "session_refreshed"
	TypeLoggedOut  = "account_logged_out"
)

// Event is the only shape that leaves the service. It never carries
// credentials, tokens or email addresses.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	AccountID string    `json:"account_id"`
	Role      string    `json:"role,omitempty"`
	At        time.Time `json:"at"`
}

func New(typ string, account *models.Account, at time.Time) Event {
	e := Event{ID: uuid.NewString(), Type: typ, At: at.UTC()}
	if account != nil {
		e.AccountID = account.ID
		e.Role = string(account.Role)
	}
	return e
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type discard struct{}

func (discard) Publish(context.Context, Event) error { return nil }

var Discard Publisher = discard{}
