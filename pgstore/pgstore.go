package pgstore

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jhchabran/broadsheet"
)

// A PGStore is responsible of interacting with the storage layer using a
// Postgresql database. Multi-entity mutations run inside a single
// transaction, and the vote uniqueness invariant is backed by a unique
// constraint rather than an application-level pre-check, so concurrent
// duplicate votes cannot both commit.
type PGStore struct {
	dbString string
	db       *sqlx.DB
}

// New returns a PGStore configured for a given address string, using the
// "user=postgres dbname=broadsheet ..." format.
func New(addr string) *PGStore {
	return &PGStore{
		dbString: addr,
	}
}

// Connect establish a connection with the database using the address given at
// initialization.
func (s *PGStore) Connect() error {
	db, err := sqlx.Connect("postgres", s.dbString)
	if err != nil {
		return err
	}

	s.db = db

	return nil
}

// DB returns the existing connection, making it suitable to perform requests
// not already supported by the store interface. If called while not
// connected, it will return nil.
func (s *PGStore) DB() *sqlx.DB {
	return s.db
}

// isUniqueViolation reports whether err is a postgres unique-constraint
// violation. Each call site knows which uniqueness rule its statement can
// trip and maps accordingly.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (s *PGStore) CreateUser(user *broadsheet.User) error {
	_, err := s.db.Exec("INSERT INTO users (username, password_hash, created_at) VALUES ($1, $2, $3)",
		user.Username, user.PasswordHash, user.CreatedAt)
	if isUniqueViolation(err) {
		return broadsheet.ErrUsernameTaken
	}

	return err
}

func (s *PGStore) FindUser(username string) (*broadsheet.User, error) {
	user := broadsheet.User{}
	err := s.db.Get(&user, "SELECT * FROM users WHERE username = $1", username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, broadsheet.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (s *PGStore) ListUsers() ([]*broadsheet.User, error) {
	users := []*broadsheet.User{}
	err := s.db.Select(&users, "SELECT * FROM users ORDER BY created_at ASC, username ASC")
	if err != nil {
		return nil, err
	}

	return users, nil
}

func (s *PGStore) UpdateUserPassword(username string, passwordHash string) error {
	result, err := s.db.Exec("UPDATE users SET password_hash = $1 WHERE username = $2", passwordHash, username)
	if err != nil {
		return err
	}

	count, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return broadsheet.ErrNotFound
	}

	return nil
}

// UserKarma computes the sum of net votes across all entries the user
// authored; zero when none exist.
func (s *PGStore) UserKarma(username string) (int64, error) {
	var karma int64
	err := s.db.Get(&karma,
		`SELECT COALESCE(SUM(CASE WHEN v.up THEN 1 ELSE -1 END), 0)
		 FROM votes v
		 JOIN entries e ON e.id = v.entry_id
		 WHERE e.author = $1`, username)
	if err != nil {
		return 0, err
	}

	return karma, nil
}

// CreateSubreddit persists the subreddit and subscribes its creator, both in
// the same transaction.
func (s *PGStore) CreateSubreddit(sub *broadsheet.Subreddit, creator string) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec("INSERT INTO subreddits (name, created_at) VALUES ($1, $2)", sub.Name, sub.CreatedAt)
	if isUniqueViolation(err) {
		return broadsheet.ErrNameTaken
	}
	if err != nil {
		return err
	}

	_, err = tx.Exec("INSERT INTO subscriptions (username, subreddit_name, created_at) VALUES ($1, $2, $3)",
		creator, sub.Name, sub.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *PGStore) FindSubreddit(name string) (*broadsheet.Subreddit, error) {
	sub := broadsheet.Subreddit{}
	err := s.db.Get(&sub, "SELECT * FROM subreddits WHERE name = $1", name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, broadsheet.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &sub, nil
}

func (s *PGStore) ListSubreddits() ([]*broadsheet.Subreddit, error) {
	subs := []*broadsheet.Subreddit{}
	err := s.db.Select(&subs, "SELECT * FROM subreddits ORDER BY created_at ASC, name ASC")
	if err != nil {
		return nil, err
	}

	return subs, nil
}

func (s *PGStore) ListSubscriptions(username string) ([]*broadsheet.Subreddit, error) {
	subs := []*broadsheet.Subreddit{}
	err := s.db.Select(&subs,
		`SELECT subreddits.* FROM subreddits
		 JOIN subscriptions ON subscriptions.subreddit_name = subreddits.name
		 WHERE subscriptions.username = $1
		 ORDER BY subscriptions.created_at ASC`, username)
	if err != nil {
		return nil, err
	}

	return subs, nil
}

// Subscribe adds the user to the subreddit's members. Membership has set
// semantics: subscribing twice is a no-op.
func (s *PGStore) Subscribe(name string, username string) error {
	_, err := s.db.Exec(
		`INSERT INTO subscriptions (username, subreddit_name, created_at) VALUES ($1, $2, $3)
		 ON CONFLICT (username, subreddit_name) DO NOTHING`,
		username, name, broadsheet.NowFunc())

	return err
}

func (s *PGStore) Unsubscribe(name string, username string) error {
	result, err := s.db.Exec("DELETE FROM subscriptions WHERE username = $1 AND subreddit_name = $2", username, name)
	if err != nil {
		return err
	}

	count, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return broadsheet.ErrNotSubscribed
	}

	return nil
}

// InsertEntry persists an entry along with its founding self-upvote; both
// commit together or not at all.
func (s *PGStore) InsertEntry(entry *broadsheet.Entry) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var id int64
	err = tx.Get(&id,
		`INSERT INTO entries (kind, subreddit_name, post_id, title, body, author, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		entry.Kind, entry.Subreddit, entry.PostID, entry.Title, entry.Body, entry.Author, entry.CreatedAt)
	if isUniqueViolation(err) {
		return broadsheet.ErrTitleTaken
	}
	if err != nil {
		return err
	}

	_, err = tx.Exec("INSERT INTO votes (entry_id, username, up, created_at) VALUES ($1, $2, true, $3)",
		id, entry.Author, entry.CreatedAt)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	entry.ID = id
	entry.Upvotes = 1
	entry.Downvotes = 0

	return nil
}

// entrySelect derives upvotes, downvotes and the viewer's own vote in the
// same query. $1 is always the viewer's username, empty for anonymous.
const entrySelect = `
SELECT e.id, e.kind, e.subreddit_name, e.post_id, e.title, e.body, e.author, e.created_at,
       COUNT(v.id) FILTER (WHERE v.up) AS upvotes,
       COUNT(v.id) FILTER (WHERE NOT v.up) AS downvotes,
       COALESCE(MAX(CASE WHEN v.username = $1 THEN CASE WHEN v.up THEN 1 ELSE -1 END END), 0) AS myvote
FROM entries e
LEFT JOIN votes v ON v.entry_id = e.id
`

func (s *PGStore) FindEntry(id int64, viewer string) (*broadsheet.EntrySeenByUser, error) {
	entry := broadsheet.EntrySeenByUser{}
	err := s.db.Get(&entry, entrySelect+"WHERE e.id = $2 GROUP BY e.id", viewer, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, broadsheet.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

func (s *PGStore) FindPost(subreddit string, title string, viewer string) (*broadsheet.EntrySeenByUser, error) {
	entry := broadsheet.EntrySeenByUser{}
	err := s.db.Get(&entry,
		entrySelect+"WHERE e.kind = 'post' AND e.subreddit_name = $2 AND e.title = $3 GROUP BY e.id",
		viewer, subreddit, title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, broadsheet.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// ListPosts returns a subreddit's posts in insertion order.
func (s *PGStore) ListPosts(subreddit string, viewer string) ([]*broadsheet.EntrySeenByUser, error) {
	entries := []*broadsheet.EntrySeenByUser{}
	err := s.db.Select(&entries,
		entrySelect+"WHERE e.kind = 'post' AND e.subreddit_name = $2 GROUP BY e.id ORDER BY e.id ASC",
		viewer, subreddit)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// ListComments returns a post's comments in insertion order.
func (s *PGStore) ListComments(postID int64, viewer string) ([]*broadsheet.EntrySeenByUser, error) {
	entries := []*broadsheet.EntrySeenByUser{}
	err := s.db.Select(&entries,
		entrySelect+"WHERE e.kind = 'comment' AND e.post_id = $2 GROUP BY e.id ORDER BY e.id ASC",
		viewer, postID)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// CastVote inserts a vote. The unique constraint on (entry_id, username) is
// what rejects a second vote, in either direction, including under
// concurrency.
func (s *PGStore) CastVote(entryID int64, username string, up bool) error {
	_, err := s.db.Exec("INSERT INTO votes (entry_id, username, up, created_at) VALUES ($1, $2, $3, $4)",
		entryID, username, up, broadsheet.NowFunc())
	if isUniqueViolation(err) {
		return broadsheet.ErrAlreadyVoted
	}

	return err
}

// RetractVote deletes any vote by this voter on this entry. Deleting a vote
// that doesn't exist is a no-op, not an error.
func (s *PGStore) RetractVote(entryID int64, username string) error {
	_, err := s.db.Exec("DELETE FROM votes WHERE entry_id = $1 AND username = $2", entryID, username)
	return err
}
