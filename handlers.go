package broadsheet

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/jhchabran/broadsheet/authentication"
)

// AuthHeader carries base64("username:password") credentials on token
// issuance requests.
const AuthHeader = "X-Auth"

// respondError translates an error into its HTTP response. Typed errors
// respond for themselves; store sentinels get mapped to their HTTP-shaped
// counterparts; anything else is a 500, logged but never leaked.
func (s *Server) respondError(res http.ResponseWriter, req *http.Request, err error) {
	var responder ErrorResponder
	if errors.As(err, &responder) && responder.RespondError(res, req) {
		return
	}

	switch {
	case errors.Is(err, ErrNotFound):
		respondMessage(res, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	case errors.Is(err, ErrUsernameTaken), errors.Is(err, ErrNameTaken), errors.Is(err, ErrTitleTaken):
		Conflict(err.Error()).RespondError(res, req)
	case errors.Is(err, ErrAlreadyVoted), errors.Is(err, ErrNotSubscribed):
		UnprocessableEntity(err.Error()).RespondError(res, req)
	default:
		s.logger.Error().Err(err).Str("path", req.URL.Path).Msg("request failed")
		respondMessage(res, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

// presentUser assembles the full user projection, with its derived karma and
// subscription list.
func (s *Server) presentUser(user *User) (*userPresenter, error) {
	karma, err := s.store.UserKarma(user.Username)
	if err != nil {
		return nil, err
	}

	subs, err := s.store.ListSubscriptions(user.Username)
	if err != nil {
		return nil, err
	}

	return newUserPresenter(user, karma, subs), nil
}

// HandleCreateToken handles requests to issue a new identity token. The
// credentials travel in the AuthHeader as base64("username:password"); an
// optional expires_in field in the body overrides the configured ttl.
func (s *Server) HandleCreateToken() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		auth := req.Header.Get(AuthHeader)
		if auth == "" {
			BadRequest("Missing " + AuthHeader + " header.").RespondError(res, req)
			return
		}

		decoded, err := base64.StdEncoding.DecodeString(auth)
		if err != nil {
			BadRequest(AuthHeader + " must be a base64 string.").RespondError(res, req)
			return
		}

		username, password, ok := strings.Cut(string(decoded), ":")
		if !ok {
			BadRequest("Malformed " + AuthHeader + " header.").RespondError(res, req)
			return
		}

		user, err := s.store.FindUser(username)
		if err != nil && !errors.Is(err, ErrNotFound) {
			s.respondError(res, req, err)
			return
		}
		if user == nil || !authentication.CheckPassword(user.PasswordHash, password) {
			Unauthenticated("Invalid username or password.").RespondError(res, req)
			return
		}

		var body struct {
			ExpiresIn int `json:"expires_in"`
		}
		if err := decodeJSON(req, &body); err != nil {
			BadRequest("Cannot parse request body.").RespondError(res, req)
			return
		}

		expiresIn := int(s.config.TokenTTL.Minutes())
		if body.ExpiresIn > 0 {
			expiresIn = body.ExpiresIn
		}

		token, err := s.tokens.Issue(user.Username, time.Duration(expiresIn)*time.Minute)
		if err != nil {
			s.respondError(res, req, err)
			return
		}

		respondJSON(res, http.StatusCreated, &tokenPresenter{Token: token, ExpiresIn: expiresIn})
	}
}

// HandleCreateUser handles registration requests.
func (s *Server) HandleCreateUser() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := decodeJSON(req, &body); err != nil {
			BadRequest("Cannot parse request body.").RespondError(res, req)
			return
		}

		if err := ValidateNewUser(body.Username, body.Password); err != nil {
			s.respondError(res, req, err)
			return
		}

		hash, err := authentication.HashPassword(body.Password)
		if err != nil {
			s.respondError(res, req, err)
			return
		}

		user := NewUser(body.Username)
		user.PasswordHash = hash

		if err := s.store.CreateUser(user); err != nil {
			s.respondError(res, req, err)
			return
		}

		respondJSON(res, http.StatusCreated, newUserPresenter(user, 0, nil))
	}
}

// HandleListUsers handles requests listing all users.
func (s *Server) HandleListUsers() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		users, err := s.store.ListUsers()
		if err != nil {
			s.respondError(res, req, err)
			return
		}

		presenters := make([]*userPresenter, len(users))
		for i, user := range users {
			presenters[i], err = s.presentUser(user)
			if err != nil {
				s.respondError(res, req, err)
				return
			}
		}

		respondJSON(res, http.StatusOK, presenters)
	}
}

// HandleShowUser handles requests for a single user, karma included.
func (s *Server) HandleShowUser() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, params httprouter.Params) {
		user, err := s.store.FindUser(params.ByName("username"))
		if err != nil {
			s.respondError(res, req, Maybe404(err))
			return
		}

		presenter, err := s.presentUser(user)
		if err != nil {
			s.respondError(res, req, err)
			return
		}

		respondJSON(res, http.StatusOK, presenter)
	}
}

// HandleUpdateUser handles password changes. The authenticated identity must
// match the target username; changing someone else's password is forbidden.
func (s *Server) HandleUpdateUser() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, params httprouter.Params) {
		user := ctxUser(req.Context())

		if user.Username != params.ByName("username") {
			Forbidden("You may only change your own password.").RespondError(res, req)
			return
		}

		var body struct {
			Password string `json:"password"`
		}
		if err := decodeJSON(req, &body); err != nil {
			BadRequest("Cannot parse request body.").RespondError(res, req)
			return
		}

		if err := ValidatePassword(body.Password); err != nil {
			s.respondError(res, req, err)
			return
		}

		hash, err := authentication.HashPassword(body.Password)
		if err != nil {
			s.respondError(res, req, err)
			return
		}

		if err := s.store.UpdateUserPassword(user.Username, hash); err != nil {
			s.respondError(res, req, err)
			return
		}

		presenter, err := s.presentUser(user)
		if err != nil {
			s.respondError(res, req, err)
			return
		}

		respondJSON(res, http.StatusOK, presenter)
	}
}

// HandleCreateSubreddit handles subreddit creation; the creator is
// auto-subscribed atomically with the creation itself.
func (s *Server) HandleCreateSubreddit() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		user := ctxUser(req.Context())

		var body struct {
			Name string `json:"name"`
		}
		if err := decodeJSON(req, &body); err != nil {
			BadRequest("Cannot parse request body.").RespondError(res, req)
			return
		}

		sub, err := NewSubreddit(body.Name)
		if err != nil {
			s.respondError(res, req, err)
			return
		}

		if err := s.store.CreateSubreddit(sub, user.Username); err != nil {
			s.respondError(res, req, err)
			return
		}

		respondJSON(res, http.StatusCreated, newSubredditPresenter(sub))
	}
}

// HandleListSubreddits handles requests listing all subreddits.
func (s *Server) HandleListSubreddits() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		subs, err := s.store.ListSubreddits()
		if err != nil {
			s.respondError(res, req, err)
			return
		}

		presenters := make([]*subredditPresenter, len(subs))
		for i, sub := range subs {
			presenters[i] = newSubredditPresenter(sub)
		}

		respondJSON(res, http.StatusOK, presenters)
	}
}

// HandleShowSubreddit handles requests for a single subreddit and its posts,
// in insertion order.
func (s *Server) HandleShowSubreddit() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, params httprouter.Params) {
		sub, err := s.store.FindSubreddit(params.ByName("name"))
		if err != nil {
			s.respondError(res, req, Maybe404(err))
			return
		}

		posts, err := s.store.ListPosts(sub.Name, viewer(req.Context()))
		if err != nil {
			s.respondError(res, req, err)
			return
		}

		respondJSON(res, http.StatusOK, newSubredditDetailPresenter(sub, posts))
	}
}

// HandleSubscribe handles subscription requests. Subscribing twice is a
// no-op, membership has set semantics.
func (s *Server) HandleSubscribe() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, params httprouter.Params) {
		user := ctxUser(req.Context())

		sub, err := s.store.FindSubreddit(params.ByName("name"))
		if err != nil {
			s.respondError(res, req, Maybe404(err))
			return
		}

		if err := s.store.Subscribe(sub.Name, user.Username); err != nil {
			s.respondError(res, req, err)
			return
		}

		respondJSON(res, http.StatusCreated, newSubredditPresenter(sub))
	}
}

// HandleUnsubscribe handles unsubscription requests; unsubscribing while not
// a member is a state conflict.
func (s *Server) HandleUnsubscribe() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, params httprouter.Params) {
		user := ctxUser(req.Context())

		sub, err := s.store.FindSubreddit(params.ByName("name"))
		if err != nil {
			s.respondError(res, req, Maybe404(err))
			return
		}

		if err := s.store.Unsubscribe(sub.Name, user.Username); err != nil {
			s.respondError(res, req, err)
			return
		}

		respondJSON(res, http.StatusOK, newSubredditPresenter(sub))
	}
}

// HandleCreatePost handles post submissions. The post and its founding
// self-upvote commit together or not at all.
func (s *Server) HandleCreatePost() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, params httprouter.Params) {
		user := ctxUser(req.Context())

		sub, err := s.store.FindSubreddit(params.ByName("name"))
		if err != nil {
			s.respondError(res, req, Maybe404(err))
			return
		}

		var body struct {
			Title string `json:"title"`
			Body  string `json:"body"`
		}
		if err := decodeJSON(req, &body); err != nil {
			BadRequest("Cannot parse request body.").RespondError(res, req)
			return
		}

		post, err := NewPost(sub.Name, user.Username, body.Title, body.Body)
		if err != nil {
			s.respondError(res, req, err)
			return
		}

		if err := s.store.InsertEntry(post); err != nil {
			s.respondError(res, req, err)
			return
		}

		respondJSON(res, http.StatusCreated, newEntryPresenter(&EntrySeenByUser{Entry: *post, MyVote: 1}))
	}
}

// HandleShowPost handles requests for a single post and its comments.
func (s *Server) HandleShowPost() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, params httprouter.Params) {
		post, err := s.store.FindPost(params.ByName("name"), params.ByName("title"), viewer(req.Context()))
		if err != nil {
			s.respondError(res, req, Maybe404(err))
			return
		}

		comments, err := s.store.ListComments(post.ID, viewer(req.Context()))
		if err != nil {
			s.respondError(res, req, err)
			return
		}

		respondJSON(res, http.StatusOK, newPostDetailPresenter(post, comments))
	}
}

// HandleCreateComment handles comment submissions on a post, with the same
// founding-vote atomicity as posts.
func (s *Server) HandleCreateComment() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, params httprouter.Params) {
		user := ctxUser(req.Context())

		post, err := s.store.FindPost(params.ByName("name"), params.ByName("title"), "")
		if err != nil {
			s.respondError(res, req, Maybe404(err))
			return
		}

		var body struct {
			Body string `json:"body"`
		}
		if err := decodeJSON(req, &body); err != nil {
			BadRequest("Cannot parse request body.").RespondError(res, req)
			return
		}

		comment, err := NewComment(post.ID, user.Username, body.Body)
		if err != nil {
			s.respondError(res, req, err)
			return
		}

		if err := s.store.InsertEntry(comment); err != nil {
			s.respondError(res, req, err)
			return
		}

		respondJSON(res, http.StatusCreated, newEntryPresenter(&EntrySeenByUser{Entry: *comment, MyVote: 1}))
	}
}

// HandleCastVote handles vote submissions on an entry. A single handler
// serves both directions, registered once per route with the direction bound.
func (s *Server) HandleCastVote(up bool) httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, params httprouter.Params) {
		user := ctxUser(req.Context())

		id, err := strconv.ParseInt(params.ByName("id"), 10, 64)
		if err != nil {
			BadRequest("Cannot parse entry id.").RespondError(res, req)
			return
		}

		if _, err := s.store.FindEntry(id, ""); err != nil {
			s.respondError(res, req, Maybe404(err))
			return
		}

		if err := s.store.CastVote(id, user.Username, up); err != nil {
			s.respondError(res, req, err)
			return
		}

		entry, err := s.store.FindEntry(id, user.Username)
		if err != nil {
			s.respondError(res, req, err)
			return
		}

		respondJSON(res, http.StatusCreated, newEntryPresenter(entry))
	}
}

// HandleRetractVote handles vote deletions. Removing a vote that doesn't
// exist is a no-op, the response is the same either way.
func (s *Server) HandleRetractVote() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, params httprouter.Params) {
		user := ctxUser(req.Context())

		id, err := strconv.ParseInt(params.ByName("id"), 10, 64)
		if err != nil {
			BadRequest("Cannot parse entry id.").RespondError(res, req)
			return
		}

		if _, err := s.store.FindEntry(id, ""); err != nil {
			s.respondError(res, req, Maybe404(err))
			return
		}

		if err := s.store.RetractVote(id, user.Username); err != nil {
			s.respondError(res, req, err)
			return
		}

		res.WriteHeader(http.StatusNoContent)
	}
}

// HandleShowComment handles requests for a single comment.
func (s *Server) HandleShowComment() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, params httprouter.Params) {
		id, err := strconv.ParseInt(params.ByName("id"), 10, 64)
		if err != nil {
			BadRequest("Cannot parse comment id.").RespondError(res, req)
			return
		}

		comment, err := s.store.FindEntry(id, viewer(req.Context()))
		if err != nil {
			s.respondError(res, req, Maybe404(err))
			return
		}

		if comment.Kind != KindComment {
			respondMessage(res, http.StatusNotFound, http.StatusText(http.StatusNotFound))
			return
		}

		respondJSON(res, http.StatusOK, newEntryPresenter(comment))
	}
}
