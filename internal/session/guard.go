package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/dentalscan/scanctl/internal/httpclient"
)

const bearerPrefix = "Bearer "

// Guard binds a Session to an HTTP client
type Guard struct {
	session *Session
}

// NewGuard returns a guard for s
func NewGuard(s *Session) *Guard {
	return &Guard{session: s}
}

// Attach installs the credential and 401 hooks on client
func (g *Guard) Attach(client *httpclient.Client) {
	client.AddBeforeRequestHook(g.authorize)
	client.AddAfterResponseHook(g.inspect)
}

func (g *Guard) authorize(req *http.Request) {
	if req.Header.Get("Authorization") != "" {
		return
	}
	if token := g.session.Token(); token != "" {
		req.Header.Set("Authorization", bearerPrefix+token)
	}
}

func (g *Guard) inspect(req *http.Request, resp *http.Response, err error, _ time.Duration) {
	if err != nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		return
	}
	sent, ok := strings.CutPrefix(req.Header.Get("Authorization"), bearerPrefix)
	if !ok {
		return
	}
	g.session.HandleUnauthorized(sent)
}
