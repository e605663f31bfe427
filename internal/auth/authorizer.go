package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
)

// AllUsers as a key's user grants access to every user's journal.
const AllUsers = "*"

// Principal is the identity behind an API key.
type Principal struct {
	KeyName string
	UserID  string // AllUsers for admin keys
}

// CanAccess reports whether p may act on userID's journal.
func (p *Principal) CanAccess(userID string) bool {
	return p.UserID == AllUsers || p.UserID == userID
}

// Authorizer validates API keys and checks user scope in one call.
type Authorizer interface {
	// Authorize resolves apiKey and checks it may act on userID. An empty
	// userID only checks the key.
	Authorize(ctx context.Context, apiKey, userID string) (*Principal, error)
}

type keyEntry struct {
	key    []byte
	userID string
	name   string
}

// StaticAuthorizer checks keys against a fixed table loaded from configuration.
type StaticAuthorizer struct {
	keys []keyEntry
}

var _ Authorizer = (*StaticAuthorizer)(nil)

// ParseKeys builds a StaticAuthorizer from "key=userId" pairs separated by
// commas. An empty spec yields nil, meaning authentication is off.
func ParseKeys(spec string) (*StaticAuthorizer, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}
	a := &StaticAuthorizer{}
	for i, pair := range strings.Split(spec, ",") {
		key, userID, ok := strings.Cut(strings.TrimSpace(pair), "=")
		key, userID = strings.TrimSpace(key), strings.TrimSpace(userID)
		if !ok || key == "" || userID == "" {
			return nil, fmt.Errorf("api key %d: expected key=userId", i+1)
		}
		a.keys = append(a.keys, keyEntry{key: []byte(key), userID: userID, name: fmt.Sprintf("key-%d", i+1)})
	}
	return a, nil
}

func (a *StaticAuthorizer) Authorize(_ context.Context, apiKey, userID string) (*Principal, error) {
	var found *keyEntry
	for i := range a.keys {
		// scan every key so timing does not depend on the match position
		if subtle.ConstantTimeCompare(a.keys[i].key, []byte(apiKey)) == 1 {
			found = &a.keys[i]
		}
	}
	if found == nil {
		return nil, ErrInvalidAPIKey
	}
	p := &Principal{KeyName: found.name, UserID: found.userID}
	if userID != "" && !p.CanAccess(userID) {
		return nil, ErrForbidden
	}
	return p, nil
}
