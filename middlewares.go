package broadsheet

import (
	"context"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/jhchabran/broadsheet/authentication"
)

// TokenHeader carries the identity token on authenticated calls.
const TokenHeader = "X-Auth-Token"

// middleware is a convenient type for declaring middlewares.
type middleware func(httprouter.Handle) httprouter.Handle

// contextKey is a type for storing values in each request context.
type contextKey string

// String returns a stringified context key.
func (k contextKey) String() string { return string(k) }

// ctxKeyUser is the context key for storing the current user record in a
// context. Identity is bound per request invocation, never in shared state,
// so concurrent requests stay isolated.
var ctxKeyUser = contextKey("user")

// ctxUser is a helper func to fetch the current user from the context.
// It returns nil for anonymous requests.
func ctxUser(ctx context.Context) *User {
	v := ctx.Value(ctxKeyUser)
	if v != nil {
		return v.(*User)
	} else {
		return nil
	}
}

// viewer returns the username of the current user, or the empty string for
// anonymous requests. Stores use it to derive MyVote.
func viewer(ctx context.Context) string {
	if u := ctxUser(ctx); u != nil {
		return u.Username
	}
	return ""
}

// withMiddlewares is a helper function to declare routes with middlewares more easily.
// The caller declares its routes in the body on the f function, calling f's argument on its
// httprouter.Handle to wrap them.
func withMiddlewares(f func(middleware), middlewares ...middleware) {
	wrapper := func(handle httprouter.Handle) httprouter.Handle {
		h := handle
		for i := len(middlewares) - 1; i >= 0; i-- {
			m := middlewares[i]
			h = m(h)
		}
		return h
	}

	f(wrapper)
}

// requireUserMiddleware authenticates the request from its token header and
// stores the resolved user record in the request context. It halts the chain
// with an unauthorized response when the header is missing, the token does
// not verify, or the token's subject no longer resolves to an existing user.
func (s *Server) requireUserMiddleware() middleware {
	return func(next httprouter.Handle) httprouter.Handle {
		return httprouter.Handle(func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
			token := r.Header.Get(TokenHeader)
			if token == "" {
				Unauthenticated("Please provide " + TokenHeader + " header.").RespondError(w, r)
				return
			}

			user, rerr := s.resolveToken(token)
			if rerr != nil {
				s.logger.Debug().Err(rerr).Msg("rejecting token")
				rerr.RespondError(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUser, user)
			next(w, r.WithContext(ctx), p)
		})
	}
}

// loadUserMiddleware binds the current user into the request context when a
// valid token header is present, and lets the request through as anonymous
// otherwise. Public read endpoints use it so MyVote can be derived for
// authenticated readers.
func (s *Server) loadUserMiddleware() middleware {
	return func(next httprouter.Handle) httprouter.Handle {
		return httprouter.Handle(func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
			token := r.Header.Get(TokenHeader)
			if token == "" {
				next(w, r, p)
				return
			}

			user, rerr := s.resolveToken(token)
			if rerr != nil {
				s.logger.Debug().Err(rerr).Msg("ignoring token on public endpoint")
				next(w, r, p)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUser, user)
			next(w, r.WithContext(ctx), p)
		})
	}
}

// resolveToken verifies a token and resolves its subject to a user record.
// An UnauthenticatedError describes any failure; its message distinguishes
// expired from invalid tokens.
func (s *Server) resolveToken(token string) (*User, *UnauthenticatedError) {
	username, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, authentication.ErrTokenExpired) {
			return nil, Unauthenticated("Token has expired.")
		}
		return nil, Unauthenticated("Invalid token provided.")
	}

	user, err := s.store.FindUser(username)
	if err != nil {
		// a token whose subject no longer resolves is as good as forged
		return nil, Unauthenticated("Invalid token provided.")
	}

	return user, nil
}
