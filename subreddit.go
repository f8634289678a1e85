package broadsheet

import (
	"time"
)

// A Subreddit is identified by its name. The name is immutable once created,
// there is no update operation anywhere in the system.
type Subreddit struct {
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

func NewSubreddit(name string) (*Subreddit, error) {
	if name == "" {
		return nil, Validation("Subreddit name cannot be empty.")
	}

	return &Subreddit{
		Name:      name,
		CreatedAt: NowFunc(),
	}, nil
}
