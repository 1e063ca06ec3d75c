// Package handler adapts HTTP transport to the scheduling facade, the way
// internal/staff/handler adapts HTTP to the staff service layer: thin
// request structs, chi.URLParam for path segments, httputil.JSON/Error for
// responses. No business logic lives here — every method is a parse, a
// facade call, and a render.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rotakit/rotakit/internal/rota/facade"
	"github.com/rotakit/rotakit/pkg/actor"
	"github.com/rotakit/rotakit/pkg/errors"
	"github.com/rotakit/rotakit/pkg/httputil"
	"github.com/rotakit/rotakit/pkg/logger"
)

// Handler bundles every rota HTTP endpoint behind the facade.
type Handler struct {
	facade *facade.Facade
	logger *logger.Logger
}

// New constructs a Handler over an already-wired Facade.
func New(f *facade.Facade, log *logger.Logger) *Handler {
	return &Handler{facade: f, logger: log}
}

// actorFromRequest builds the Actor the facade's permission choke point
// checks. The core consumes a PermissionChecker/actor capability only
// (spec.md §1, §9) — resolving X-User-ID/X-User-Permissions into a
// concrete Actor is the transport's job, same as staff.handler reading
// X-User-ID off the header, generalized to also carry the resolved
// permission set an upstream auth gateway would normally attach.
func actorFromRequest(r *http.Request) *actor.Actor {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		return nil
	}
	var perms []string
	if raw := r.Header.Get("X-User-Permissions"); raw != "" {
		for _, p := range splitComma(raw) {
			if p != "" {
				perms = append(perms, p)
			}
		}
	}
	return &actor.Actor{
		ID:          userID,
		Email:       r.Header.Get("X-User-Email"),
		RoleName:    r.Header.Get("X-User-Role"),
		Permissions: perms,
	}
}

func splitComma(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			out = append(out, trimSpace(s[start:i]))
			start = i + 1
		}
	}
	return out
}

func trimSpace(s string) string {
	for len(s) > 0 && s[0] == ' ' {
		s = s[1:]
	}
	for len(s) > 0 && s[len(s)-1] == ' ' {
		s = s[:len(s)-1]
	}
	return s
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

func parseDateTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func queryBool(r *http.Request, key string) bool {
	return r.URL.Query().Get(key) == "true"
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func requireActor(w http.ResponseWriter, r *http.Request) *actor.Actor {
	a := actorFromRequest(r)
	if a == nil {
		httputil.Error(w, errors.Unauthorized("missing X-User-ID"))
		return nil
	}
	return a
}
