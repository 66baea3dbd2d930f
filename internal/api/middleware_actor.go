package api

import (
	"context"
	"net/http"

	"github.com/fieldserve/jobtrack-backend/internal/core"
)

type contextKey string

const actorKey contextKey = "actor"

// ActorHeader names the header carrying the acting user's ID. Session
// management is out of scope; this resolution is the seam where a real
// auth layer would sit.
const ActorHeader = "X-Actor-Id"

// ResolveActor loads the acting user named by the X-Actor-Id header and
// stores it in the request context. Paths in skipPaths pass through
// without an actor.
func ResolveActor(users core.UserService, skipPaths ...string) func(http.Handler) http.Handler {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			actorID := r.Header.Get(ActorHeader)
			if actorID == "" {
				WriteError(w, http.StatusUnauthorized,
					core.NewNotAuthorizedError("Missing "+ActorHeader+" header.", nil))
				return
			}

			actor, err := users.GetUser(r.Context(), actorID)
			if err != nil {
				WriteError(w, http.StatusUnauthorized,
					core.NewNotAuthorizedError("Unknown acting user.",
						map[string]any{"actor_id": actorID}))
				return
			}

			ctx := context.WithValue(r.Context(), actorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFrom returns the acting user resolved by ResolveActor, or nil.
func ActorFrom(ctx context.Context) *core.User {
	actor, _ := ctx.Value(actorKey).(*core.User)
	return actor
}
