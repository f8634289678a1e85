package broadsheet

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"

	"github.com/jhchabran/broadsheet/authentication"
)

// stubStore resolves users from a map, which is all the middlewares need.
type stubStore struct {
	Store
	users map[string]*User
}

func (s *stubStore) FindUser(username string) (*User, error) {
	if u, ok := s.users[username]; ok {
		return u, nil
	}
	return nil, ErrNotFound
}

func newStubServer(users map[string]*User) *Server {
	return NewServer(
		&ServerConfig{TokenTTL: time.Hour},
		zerolog.Nop(),
		&stubStore{users: users},
		authentication.NewTokenService([]byte("test-secret")),
	)
}

func TestWithMiddlewares(t *testing.T) {
	c := qt.New(t)

	handler := func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {}

	c.Run("calls middlewares", func(c *qt.C) {
		s1 := false
		m1 := func(h httprouter.Handle) httprouter.Handle { s1 = true; return h }

		withMiddlewares(func(m middleware) { m(handler) }, m1)
		c.Assert(s1, qt.IsTrue)
	})

	c.Run("passing m1, m2, m3 run them in that order", func(c *qt.C) {
		trace := []int{}
		m1 := func(h httprouter.Handle) httprouter.Handle {
			return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
				trace = append(trace, 1)
				h(w, r, p)
			}
		}
		m2 := func(h httprouter.Handle) httprouter.Handle {
			return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
				trace = append(trace, 2)
				h(w, r, p)
			}
		}
		m3 := func(h httprouter.Handle) httprouter.Handle {
			return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
				trace = append(trace, 3)
				h(w, r, p)
			}
		}

		var h httprouter.Handle
		withMiddlewares(func(m middleware) { h = m(handler) },
			m1,
			m2,
			m3)

		h(httptest.NewRecorder(), &http.Request{}, httprouter.Params{})

		c.Assert(trace, qt.DeepEquals, []int{1, 2, 3})
	})
}

func TestRequireUserMiddleware(t *testing.T) {
	c := qt.New(t)

	alice := &User{Username: "alice"}
	s := newStubServer(map[string]*User{"alice": alice})

	var seen *User
	handler := s.requireUserMiddleware()(func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		seen = ctxUser(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	c.Run("missing header", func(c *qt.C) {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest("GET", "/", nil), httprouter.Params{})

		c.Assert(rec.Code, qt.Equals, http.StatusUnauthorized)
	})

	c.Run("garbage token", func(c *qt.C) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(TokenHeader, "not-a-token")
		handler(rec, req, httprouter.Params{})

		c.Assert(rec.Code, qt.Equals, http.StatusUnauthorized)
	})

	c.Run("expired token", func(c *qt.C) {
		token, err := s.tokens.Issue("alice", -time.Minute)
		c.Assert(err, qt.IsNil)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(TokenHeader, token)
		handler(rec, req, httprouter.Params{})

		c.Assert(rec.Code, qt.Equals, http.StatusUnauthorized)
	})

	c.Run("token for a user that no longer exists", func(c *qt.C) {
		token, err := s.tokens.Issue("ghost", time.Hour)
		c.Assert(err, qt.IsNil)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(TokenHeader, token)
		handler(rec, req, httprouter.Params{})

		c.Assert(rec.Code, qt.Equals, http.StatusUnauthorized)
	})

	c.Run("valid token", func(c *qt.C) {
		token, err := s.tokens.Issue("alice", time.Hour)
		c.Assert(err, qt.IsNil)

		seen = nil
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(TokenHeader, token)
		handler(rec, req, httprouter.Params{})

		c.Assert(rec.Code, qt.Equals, http.StatusOK)
		c.Assert(seen, qt.Equals, alice)
	})
}

func TestLoadUserMiddleware(t *testing.T) {
	c := qt.New(t)

	alice := &User{Username: "alice"}
	s := newStubServer(map[string]*User{"alice": alice})

	var seen *User
	handler := s.loadUserMiddleware()(func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		seen = ctxUser(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	c.Run("missing header passes through as anonymous", func(c *qt.C) {
		seen = nil
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest("GET", "/", nil), httprouter.Params{})

		c.Assert(rec.Code, qt.Equals, http.StatusOK)
		c.Assert(seen, qt.IsNil)
	})

	c.Run("bad token passes through as anonymous", func(c *qt.C) {
		seen = nil
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(TokenHeader, "not-a-token")
		handler(rec, req, httprouter.Params{})

		c.Assert(rec.Code, qt.Equals, http.StatusOK)
		c.Assert(seen, qt.IsNil)
	})

	c.Run("valid token binds the user", func(c *qt.C) {
		token, err := s.tokens.Issue("alice", time.Hour)
		c.Assert(err, qt.IsNil)

		seen = nil
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(TokenHeader, token)
		handler(rec, req, httprouter.Params{})

		c.Assert(rec.Code, qt.Equals, http.StatusOK)
		c.Assert(seen, qt.Equals, alice)
	})
}
