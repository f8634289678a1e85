package broadsheet

import (
	"fmt"
	"net/url"
	"time"
)

// Presenters project domain entities into their JSON response shapes,
// including the hyperlinks to related resources.

type tokenPresenter struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

type subredditPresenter struct {
	Name            string `json:"name"`
	URL             string `json:"url"`
	SubscriptionURL string `json:"subscription_url"`
}

func newSubredditPresenter(sub *Subreddit) *subredditPresenter {
	return &subredditPresenter{
		Name:            sub.Name,
		URL:             "/r/" + url.PathEscape(sub.Name),
		SubscriptionURL: "/r/" + url.PathEscape(sub.Name) + "/subscribe",
	}
}

type subredditDetailPresenter struct {
	subredditPresenter
	Posts []*entryPresenter `json:"posts"`
}

func newSubredditDetailPresenter(sub *Subreddit, posts []*EntrySeenByUser) *subredditDetailPresenter {
	pp := make([]*entryPresenter, len(posts))
	for i, post := range posts {
		pp[i] = newEntryPresenter(post)
	}

	return &subredditDetailPresenter{
		subredditPresenter: *newSubredditPresenter(sub),
		Posts:              pp,
	}
}

type userPresenter struct {
	Username      string                `json:"username"`
	Karma         int64                 `json:"karma"`
	URL           string                `json:"url"`
	Subscriptions []*subredditPresenter `json:"subscriptions"`
}

func newUserPresenter(user *User, karma int64, subscriptions []*Subreddit) *userPresenter {
	subs := make([]*subredditPresenter, len(subscriptions))
	for i, sub := range subscriptions {
		subs[i] = newSubredditPresenter(sub)
	}

	return &userPresenter{
		Username:      user.Username,
		Karma:         karma,
		URL:           "/u/" + url.PathEscape(user.Username),
		Subscriptions: subs,
	}
}

type entryPresenter struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title,omitempty"`
	Subreddit   string    `json:"subreddit,omitempty"`
	Body        string    `json:"body"`
	BodyHTML    string    `json:"body_html"`
	Author      string    `json:"author"`
	Upvotes     int64     `json:"upvotes"`
	Downvotes   int64     `json:"downvotes"`
	Score       int64     `json:"score"`
	MyVote      int64     `json:"myvote"`
	CreatedAt   time.Time `json:"created_at"`
	URL         string    `json:"url"`
	UpvoteURL   string    `json:"upvote_url"`
	DownvoteURL string    `json:"downvote_url"`
}

func newEntryPresenter(e *EntrySeenByUser) *entryPresenter {
	p := &entryPresenter{
		ID:          e.ID,
		Body:        e.Body,
		BodyHTML:    renderBody(e.Body),
		Author:      e.Author,
		Upvotes:     e.Upvotes,
		Downvotes:   e.Downvotes,
		Score:       e.Score(),
		MyVote:      e.MyVote,
		CreatedAt:   e.CreatedAt,
		UpvoteURL:   fmt.Sprintf("/entry/%d/up", e.ID),
		DownvoteURL: fmt.Sprintf("/entry/%d/down", e.ID),
	}

	if e.Kind == KindPost {
		p.Title = e.Title.String
		p.Subreddit = e.Subreddit.String
		p.URL = fmt.Sprintf("/r/%s/posts/%s", url.PathEscape(e.Subreddit.String), url.PathEscape(e.Title.String))
	} else {
		p.URL = fmt.Sprintf("/comments/%d", e.ID)
	}

	return p
}

type postDetailPresenter struct {
	entryPresenter
	Comments []*entryPresenter `json:"comments"`
}

func newPostDetailPresenter(post *EntrySeenByUser, comments []*EntrySeenByUser) *postDetailPresenter {
	cc := make([]*entryPresenter, len(comments))
	for i, comment := range comments {
		cc[i] = newEntryPresenter(comment)
	}

	return &postDetailPresenter{
		entryPresenter: *newEntryPresenter(post),
		Comments:       cc,
	}
}
