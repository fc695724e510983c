package auth

import (
	"crypto/subtle"
	"errors"
	"strings"
)

// ErrUnknownClient covers both a missing client id and a wrong secret so the
// response does not reveal which one it was.
var ErrUnknownClient = errors.New("auth: unknown client or bad secret")

// Client is a registered service principal allowed to request tokens with
// the client-credentials grant.
type Client struct {
	ID     string
	Secret string
	Scopes []string
}

// ClientRegistry holds the registered service clients. The set is fixed at
// startup from configuration.
type ClientRegistry struct {
	clients map[string]Client
}

func NewClientRegistry(clients []Client) *ClientRegistry {
	m := make(map[string]Client, len(clients))
	for _, c := range clients {
		id := strings.TrimSpace(c.ID)
		if id == "" {
			continue
		}
		c.ID = id
		c.Scopes = dedupeScopes(c.Scopes)
		m[id] = c
	}
	return &ClientRegistry{clients: m}
}

// Authenticate checks the client credentials in constant time.
func (r *ClientRegistry) Authenticate(id, secret string) (Client, error) {
	c, ok := r.clients[strings.TrimSpace(id)]
	if !ok {
		// Burn the comparison anyway to keep timing uniform.
		subtle.ConstantTimeCompare([]byte(secret), []byte(secret))
		return Client{}, ErrUnknownClient
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(c.Secret)) != 1 {
		return Client{}, ErrUnknownClient
	}
	return c, nil
}

// Issue signs a token carrying the client's registered scopes.
func (r *ClientRegistry) Issue(c Client) (string, error) {
	return GenerateToken(c.ID, c.Scopes, DefaultTokenTTL)
}
