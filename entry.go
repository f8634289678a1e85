package broadsheet

import (
	"database/sql"
	"time"
)

// Entry kinds. Posts and comments share the entries table and a single id
// sequence, so a vote can address either through one foreign key.
const (
	KindPost    = "post"
	KindComment = "comment"
)

const (
	// MinTitleLen is the minimum accepted post title length.
	MinTitleLen = 5
	// MinPostBodyLen is the minimum accepted post body length.
	MinPostBodyLen = 10
)

// An Entry is any votable, authored content. Posts carry a title and belong
// to a subreddit; comments carry a post id instead. Upvotes and Downvotes are
// derived by the store from the votes table, they are never written directly.
type Entry struct {
	ID        int64          `db:"id"`
	Kind      string         `db:"kind"`
	Subreddit sql.NullString `db:"subreddit_name"`
	PostID    sql.NullInt64  `db:"post_id"`
	Title     sql.NullString `db:"title"`
	Body      string         `db:"body"`
	Author    string         `db:"author"`
	Upvotes   int64          `db:"upvotes"`
	Downvotes int64          `db:"downvotes"`
	CreatedAt time.Time      `db:"created_at"`
}

// Score is the derived net vote count.
func (e *Entry) Score() int64 {
	return e.Upvotes - e.Downvotes
}

// An EntrySeenByUser decorates an Entry with the requesting identity's own
// vote: +1 upvoted, -1 downvoted, 0 none. Always 0 for anonymous viewers.
type EntrySeenByUser struct {
	Entry
	MyVote int64 `db:"myvote"`
}

// NewPost builds a post entry, enforcing the title and body business rules.
func NewPost(subreddit string, author string, title string, body string) (*Entry, error) {
	if len(title) < MinTitleLen {
		return nil, Validation("Title must be at least %d characters long.", MinTitleLen)
	}
	if len(body) < MinPostBodyLen {
		return nil, Validation("Body must be at least %d characters long.", MinPostBodyLen)
	}

	return &Entry{
		Kind:      KindPost,
		Subreddit: sql.NullString{String: subreddit, Valid: true},
		Title:     sql.NullString{String: title, Valid: true},
		Body:      body,
		Author:    author,
		CreatedAt: NowFunc(),
	}, nil
}

// NewComment builds a comment entry attached to a post.
func NewComment(postID int64, author string, body string) (*Entry, error) {
	if body == "" {
		return nil, Validation("Body cannot be empty.")
	}

	return &Entry{
		Kind:      KindComment,
		PostID:    sql.NullInt64{Int64: postID, Valid: true},
		Body:      body,
		Author:    author,
		CreatedAt: NowFunc(),
	}, nil
}
