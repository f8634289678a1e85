package broadsheet

// A Store is responsible of persisting and querying the domain entities.
//
// Multi-entity mutations (entry plus its founding vote, subreddit plus the
// creator's subscription) must be atomic: implementations run them inside a
// single transaction. Vote uniqueness must be enforced by the store itself,
// not only pre-checked, so that concurrent duplicate votes cannot both
// succeed; implementations return ErrAlreadyVoted for the loser.
//
// The viewer argument on read operations is the username of the requesting
// identity, used to derive MyVote; an empty string means anonymous.
type Store interface {
	Connect() error

	CreateUser(user *User) error
	FindUser(username string) (*User, error)
	ListUsers() ([]*User, error)
	UpdateUserPassword(username string, passwordHash string) error
	UserKarma(username string) (int64, error)

	CreateSubreddit(sub *Subreddit, creator string) error
	FindSubreddit(name string) (*Subreddit, error)
	ListSubreddits() ([]*Subreddit, error)
	ListSubscriptions(username string) ([]*Subreddit, error)
	Subscribe(name string, username string) error
	Unsubscribe(name string, username string) error

	InsertEntry(entry *Entry) error
	FindEntry(id int64, viewer string) (*EntrySeenByUser, error)
	FindPost(subreddit string, title string, viewer string) (*EntrySeenByUser, error)
	ListPosts(subreddit string, viewer string) ([]*EntrySeenByUser, error)
	ListComments(postID int64, viewer string) ([]*EntrySeenByUser, error)

	CastVote(entryID int64, username string, up bool) error
	RetractVote(entryID int64, username string) error
}
