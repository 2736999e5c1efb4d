package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/willcagas/goose-trials-sub001/internal/domain/model"
)

// GuestHeader carries the browser-generated guest id.
const GuestHeader = "X-Guest-ID"

// Identity is the caller as resolved from request headers.
type Identity struct {
	UserID  string
	GuestID string
}

// Subject returns the score owner for this caller. A signed-in user always wins over a guest id.
func (id Identity) Subject() (model.Subject, bool) {
	switch {
	case id.UserID != "":
		return model.User(id.UserID), true
	case id.GuestID != "":
		return model.Guest(id.GuestID), true
	}
	return model.Subject{}, false
}

type ctxKey struct{}

// FromContext returns the identity stored by Middleware.
func FromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(ctxKey{}).(Identity)
	return id
}

// WithIdentity stores id on ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// Resolve reads the bearer token and guest header. A missing token is anonymous;
// a present but bad one is an error so clients notice expired sessions.
func Resolve(r *http.Request, v *Verifier) (Identity, error) {
	var id Identity
	if h := r.Header.Get("Authorization"); h != "" {
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || v == nil {
			return Identity{}, ErrInvalidToken
		}
		userID, err := v.Verify(strings.TrimSpace(token))
		if err != nil {
			return Identity{}, err
		}
		id.UserID = userID
	}
	if g := strings.TrimSpace(r.Header.Get(GuestHeader)); g != "" {
		parsed, err := uuid.Parse(g)
		if err != nil {
			return Identity{}, ErrInvalidGuestID
		}
		id.GuestID = parsed.String()
	}
	return id, nil
}
