package integration

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"

	qt "github.com/frankban/quicktest"
)

type entryResponse struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Subreddit string `json:"subreddit"`
	Body      string `json:"body"`
	BodyHTML  string `json:"body_html"`
	Author    string `json:"author"`
	Upvotes   int64  `json:"upvotes"`
	Downvotes int64  `json:"downvotes"`
	Score     int64  `json:"score"`
	MyVote    int64  `json:"myvote"`
	URL       string `json:"url"`
}

type userResponse struct {
	Username      string `json:"username"`
	Karma         int64  `json:"karma"`
	Subscriptions []struct {
		Name string `json:"name"`
	} `json:"subscriptions"`
}

func TestAccounts(t *testing.T) {
	c := qt.New(t)

	c.Run("registration and tokens", func(c *qt.C) {
		tc := newTestContext(c)
		tc.prepareServer()

		tc.signup("alice", "password1")

		c.Run("duplicate username", func(c *qt.C) {
			resp := tc.do("POST", "/users", "", map[string]string{"username": "alice", "password": "password1"})
			defer resp.Body.Close()
			c.Assert(resp.StatusCode, qt.Equals, http.StatusConflict)
		})

		c.Run("username too short", func(c *qt.C) {
			resp := tc.do("POST", "/users", "", map[string]string{"username": "al", "password": "password1"})
			defer resp.Body.Close()
			c.Assert(resp.StatusCode, qt.Equals, http.StatusBadRequest)
		})

		c.Run("password too short", func(c *qt.C) {
			resp := tc.do("POST", "/users", "", map[string]string{"username": "bobby", "password": "short"})
			defer resp.Body.Close()
			c.Assert(resp.StatusCode, qt.Equals, http.StatusBadRequest)
		})

		c.Run("token with valid credentials", func(c *qt.C) {
			token := tc.login("alice", "password1")
			c.Assert(token, qt.Not(qt.Equals), "")
		})

		c.Run("token with wrong password", func(c *qt.C) {
			req, err := http.NewRequest("POST", tc.url("/tokens"), nil)
			c.Assert(err, qt.IsNil)
			req.Header.Set("X-Auth", "YWxpY2U6d3JvbmdwYXNzd29yZA==") // alice:wrongpassword
			resp, err := http.DefaultClient.Do(req)
			c.Assert(err, qt.IsNil)
			defer resp.Body.Close()
			c.Assert(resp.StatusCode, qt.Equals, http.StatusUnauthorized)
		})

		c.Run("token without credentials", func(c *qt.C) {
			resp := tc.do("POST", "/tokens", "", nil)
			defer resp.Body.Close()
			c.Assert(resp.StatusCode, qt.Equals, http.StatusBadRequest)
		})
	})

	c.Run("password change", func(c *qt.C) {
		tc := newTestContext(c)
		tc.prepareServer()

		tc.signup("alice", "password1")
		tc.signup("bobby", "password1")
		aliceToken := tc.login("alice", "password1")
		bobbyToken := tc.login("bobby", "password1")

		c.Run("requires a token", func(c *qt.C) {
			resp := tc.do("PUT", "/u/alice", "", map[string]string{"password": "password2"})
			defer resp.Body.Close()
			c.Assert(resp.StatusCode, qt.Equals, http.StatusUnauthorized)
		})

		c.Run("cannot change someone else's password", func(c *qt.C) {
			resp := tc.do("PUT", "/u/alice", bobbyToken, map[string]string{"password": "password2"})
			defer resp.Body.Close()
			c.Assert(resp.StatusCode, qt.Equals, http.StatusForbidden)
		})

		c.Run("changes its own password", func(c *qt.C) {
			resp := tc.do("PUT", "/u/alice", aliceToken, map[string]string{"password": "password2"})
			defer resp.Body.Close()
			c.Assert(resp.StatusCode, qt.Equals, http.StatusOK)

			// the new password is effective immediately
			tc.login("alice", "password2")
		})
	})
}

func TestSubreddits(t *testing.T) {
	c := qt.New(t)

	c.Run("creation and subscriptions", func(c *qt.C) {
		tc := newTestContext(c)
		tc.prepareServer()

		tc.signup("alice", "password1")
		tc.signup("bobby", "password1")
		aliceToken := tc.login("alice", "password1")
		bobbyToken := tc.login("bobby", "password1")

		resp := tc.do("POST", "/subreddits", aliceToken, map[string]string{"name": "funny"})
		resp.Body.Close()
		c.Assert(resp.StatusCode, qt.Equals, http.StatusCreated)

		c.Run("creator is subscribed", func(c *qt.C) {
			var user userResponse
			resp := tc.do("GET", "/u/alice", "", nil)
			c.Assert(resp.StatusCode, qt.Equals, http.StatusOK)
			tc.decode(resp, &user)

			c.Assert(user.Subscriptions, qt.HasLen, 1)
			c.Assert(user.Subscriptions[0].Name, qt.Equals, "funny")
		})

		c.Run("duplicate name", func(c *qt.C) {
			resp := tc.do("POST", "/subreddits", aliceToken, map[string]string{"name": "funny"})
			defer resp.Body.Close()
			c.Assert(resp.StatusCode, qt.Equals, http.StatusConflict)
		})

		c.Run("requires a token", func(c *qt.C) {
			resp := tc.do("POST", "/subreddits", "", map[string]string{"name": "serious"})
			defer resp.Body.Close()
			c.Assert(resp.StatusCode, qt.Equals, http.StatusUnauthorized)
		})

		c.Run("unknown subreddit is a 404", func(c *qt.C) {
			resp := tc.do("GET", "/r/nope", "", nil)
			defer resp.Body.Close()
			c.Assert(resp.StatusCode, qt.Equals, http.StatusNotFound)
		})

		c.Run("subscribing twice is a no-op", func(c *qt.C) {
			resp := tc.do("POST", "/r/funny/subscribe", bobbyToken, nil)
			resp.Body.Close()
			c.Assert(resp.StatusCode, qt.Equals, http.StatusCreated)

			resp = tc.do("POST", "/r/funny/subscribe", bobbyToken, nil)
			resp.Body.Close()
			c.Assert(resp.StatusCode, qt.Equals, http.StatusCreated)

			var user userResponse
			resp = tc.do("GET", "/u/bobby", "", nil)
			tc.decode(resp, &user)
			c.Assert(user.Subscriptions, qt.HasLen, 1)
		})

		c.Run("unsubscribing while not a member", func(c *qt.C) {
			resp := tc.do("DELETE", "/r/funny/subscribe", bobbyToken, nil)
			resp.Body.Close()
			c.Assert(resp.StatusCode, qt.Equals, http.StatusOK)

			resp = tc.do("DELETE", "/r/funny/subscribe", bobbyToken, nil)
			defer resp.Body.Close()
			c.Assert(resp.StatusCode, qt.Equals, http.StatusUnprocessableEntity)
		})
	})
}

func TestPostsAndVotes(t *testing.T) {
	c := qt.New(t)

	tc := newTestContext(c)
	tc.prepareServer()

	tc.signup("alice", "password1")
	tc.signup("bobby", "password1")
	aliceToken := tc.login("alice", "password1")
	bobbyToken := tc.login("bobby", "password1")

	resp := tc.do("POST", "/subreddits", aliceToken, map[string]string{"name": "funny"})
	resp.Body.Close()
	c.Assert(resp.StatusCode, qt.Equals, http.StatusCreated)

	var post entryResponse
	resp = tc.do("POST", "/r/funny", aliceToken, map[string]string{
		"title": "Hello world!",
		"body":  "This is a body.",
	})
	c.Assert(resp.StatusCode, qt.Equals, http.StatusCreated)
	tc.decode(resp, &post)

	postPath := "/r/funny/posts/" + url.PathEscape("Hello world!")

	c.Run("creating a post upvotes it on behalf of its author", func(c *qt.C) {
		c.Assert(post.Upvotes, qt.Equals, int64(1))
		c.Assert(post.MyVote, qt.Equals, int64(1))
		c.Assert(post.Score, qt.Equals, int64(1))
		c.Assert(post.Author, qt.Equals, "alice")
	})

	c.Run("duplicate title in the same subreddit", func(c *qt.C) {
		resp := tc.do("POST", "/r/funny", bobbyToken, map[string]string{
			"title": "Hello world!",
			"body":  "Another body here.",
		})
		defer resp.Body.Close()
		c.Assert(resp.StatusCode, qt.Equals, http.StatusConflict)
	})

	c.Run("title too short", func(c *qt.C) {
		resp := tc.do("POST", "/r/funny", aliceToken, map[string]string{
			"title": "hey",
			"body":  "This is a body.",
		})
		defer resp.Body.Close()
		c.Assert(resp.StatusCode, qt.Equals, http.StatusBadRequest)
	})

	c.Run("anonymous viewers see no myvote", func(c *qt.C) {
		var seen entryResponse
		resp := tc.do("GET", postPath, "", nil)
		c.Assert(resp.StatusCode, qt.Equals, http.StatusOK)
		tc.decode(resp, &seen)

		c.Assert(seen.Upvotes, qt.Equals, int64(1))
		c.Assert(seen.MyVote, qt.Equals, int64(0))
		c.Assert(seen.BodyHTML, qt.Equals, "<p>This is a body.</p>\n")
	})

	c.Run("downvoting", func(c *qt.C) {
		var seen entryResponse
		resp := tc.do("POST", fmt.Sprintf("/entry/%d/down", post.ID), bobbyToken, nil)
		c.Assert(resp.StatusCode, qt.Equals, http.StatusCreated)
		tc.decode(resp, &seen)

		c.Assert(seen.Upvotes, qt.Equals, int64(1))
		c.Assert(seen.Downvotes, qt.Equals, int64(1))
		c.Assert(seen.Score, qt.Equals, int64(0))
		c.Assert(seen.MyVote, qt.Equals, int64(-1))

		var alice userResponse
		resp = tc.do("GET", "/u/alice", "", nil)
		tc.decode(resp, &alice)
		c.Assert(alice.Karma, qt.Equals, int64(0))
	})

	c.Run("voting twice", func(c *qt.C) {
		resp := tc.do("POST", fmt.Sprintf("/entry/%d/down", post.ID), bobbyToken, nil)
		resp.Body.Close()
		c.Assert(resp.StatusCode, qt.Equals, http.StatusUnprocessableEntity)

		resp = tc.do("POST", fmt.Sprintf("/entry/%d/up", post.ID), bobbyToken, nil)
		defer resp.Body.Close()
		c.Assert(resp.StatusCode, qt.Equals, http.StatusUnprocessableEntity)
	})

	c.Run("retracting then revoting", func(c *qt.C) {
		resp := tc.do("DELETE", fmt.Sprintf("/entry/%d/down", post.ID), bobbyToken, nil)
		resp.Body.Close()
		c.Assert(resp.StatusCode, qt.Equals, http.StatusNoContent)

		var seen entryResponse
		resp = tc.do("POST", fmt.Sprintf("/entry/%d/up", post.ID), bobbyToken, nil)
		c.Assert(resp.StatusCode, qt.Equals, http.StatusCreated)
		tc.decode(resp, &seen)
		c.Assert(seen.Upvotes, qt.Equals, int64(2))
		c.Assert(seen.Score, qt.Equals, int64(2))

		var alice userResponse
		resp = tc.do("GET", "/u/alice", "", nil)
		tc.decode(resp, &alice)
		c.Assert(alice.Karma, qt.Equals, int64(2))
	})

	c.Run("voting on a missing entry", func(c *qt.C) {
		resp := tc.do("POST", "/entry/424242/up", bobbyToken, nil)
		defer resp.Body.Close()
		c.Assert(resp.StatusCode, qt.Equals, http.StatusNotFound)
	})

	c.Run("commenting", func(c *qt.C) {
		var comment entryResponse
		resp := tc.do("POST", postPath, bobbyToken, map[string]string{"body": "nice post"})
		c.Assert(resp.StatusCode, qt.Equals, http.StatusCreated)
		tc.decode(resp, &comment)

		c.Assert(comment.Upvotes, qt.Equals, int64(1))
		c.Assert(comment.Author, qt.Equals, "bobby")

		c.Run("shows up under its post", func(c *qt.C) {
			var seen struct {
				entryResponse
				Comments []entryResponse `json:"comments"`
			}
			resp := tc.do("GET", postPath, "", nil)
			c.Assert(resp.StatusCode, qt.Equals, http.StatusOK)
			tc.decode(resp, &seen)

			c.Assert(seen.Comments, qt.HasLen, 1)
			c.Assert(seen.Comments[0].Body, qt.Equals, "nice post")
		})

		c.Run("is addressable on its own", func(c *qt.C) {
			var seen entryResponse
			resp := tc.do("GET", fmt.Sprintf("/comments/%d", comment.ID), "", nil)
			c.Assert(resp.StatusCode, qt.Equals, http.StatusOK)
			tc.decode(resp, &seen)
			c.Assert(seen.Body, qt.Equals, "nice post")
		})

		c.Run("a post id is not a comment id", func(c *qt.C) {
			resp := tc.do("GET", fmt.Sprintf("/comments/%d", post.ID), "", nil)
			defer resp.Body.Close()
			c.Assert(resp.StatusCode, qt.Equals, http.StatusNotFound)
		})

		c.Run("empty body", func(c *qt.C) {
			resp := tc.do("POST", postPath, bobbyToken, map[string]string{"body": ""})
			defer resp.Body.Close()
			c.Assert(resp.StatusCode, qt.Equals, http.StatusBadRequest)
		})
	})
}
