package emerald

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the persistence boundary for posts, comments, bookings, and
// users. Implementations must provide atomic single-row inserts and deletes;
// no client-side locking is layered on top.
type Store interface {
	SavePost(p BlogPost) error
	ListPosts() ([]BlogPost, error)
	GetPost(id string) (BlogPost, error)
	DeletePost(id string) error

	SaveComment(cm Comment) error
	ListComments(postID string) ([]Comment, error)

	SaveBooking(b Booking) error
	ListBookings() ([]Booking, error)

	SaveUser(u User) error
	GetUserByEmail(email string) (User, error)

	Close() error
}

// SQLiteStore is the default Store, backed by a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the SQLite database at path, ensures the
// data directory exists, and runs schema migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Enable WAL mode for concurrent read/write access, set a busy timeout
	// so writers wait instead of returning SQLITE_BUSY immediately, and tune
	// performance: synchronous=NORMAL is safe with WAL and avoids an fsync
	// per transaction; larger cache and mmap reduce disk I/O.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
		PRAGMA mmap_size=268435456;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    image_url TEXT NOT NULL DEFAULT '',
    audio_url TEXT NOT NULL DEFAULT '',
    likes INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS comments (
    id TEXT PRIMARY KEY,
    post_id TEXT NOT NULL,
    text TEXT NOT NULL,
    user_id TEXT NOT NULL,
    username TEXT NOT NULL DEFAULT 'Anonymous',
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_id, created_at);

CREATE TABLE IF NOT EXISTS bookings (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    phone TEXT NOT NULL,
    message TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'pending',
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SavePost inserts a post row.
func (s *SQLiteStore) SavePost(p BlogPost) error {
	_, err := s.db.Exec(`INSERT INTO posts (id, title, content, image_url, audio_url, likes, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Content, p.ImageURL, p.AudioURL, p.Likes, p.CreatedAt.UnixNano())
	return err
}

// ListPosts returns all posts ordered by creation time descending.
func (s *SQLiteStore) ListPosts() ([]BlogPost, error) {
	rows, err := s.db.Query(`SELECT id, title, content, image_url, audio_url, likes, created_at FROM posts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []BlogPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// GetPost returns a single post by id.
func (s *SQLiteStore) GetPost(id string) (BlogPost, error) {
	row := s.db.QueryRow(`SELECT id, title, content, image_url, audio_url, likes, created_at FROM posts WHERE id = ?`, id)
	return scanPost(row)
}

// DeletePost removes a post by id. Deleting a missing id is not an error.
func (s *SQLiteStore) DeletePost(id string) error {
	_, err := s.db.Exec(`DELETE FROM posts WHERE id = ?`, id)
	return err
}

// SaveComment inserts a comment row.
func (s *SQLiteStore) SaveComment(cm Comment) error {
	_, err := s.db.Exec(`INSERT INTO comments (id, post_id, text, user_id, username, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		cm.ID, cm.PostID, cm.Text, cm.UserID, cm.Username, cm.CreatedAt.UnixNano())
	return err
}

// ListComments returns the comments of a post ordered by creation time ascending.
func (s *SQLiteStore) ListComments(postID string) ([]Comment, error) {
	rows, err := s.db.Query(`SELECT id, post_id, text, user_id, username, created_at FROM comments WHERE post_id = ? ORDER BY created_at ASC, id ASC`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var cm Comment
		var nanos int64
		if err := rows.Scan(&cm.ID, &cm.PostID, &cm.Text, &cm.UserID, &cm.Username, &nanos); err != nil {
			return nil, err
		}
		cm.CreatedAt = time.Unix(0, nanos).UTC()
		comments = append(comments, cm)
	}
	return comments, rows.Err()
}

// SaveBooking inserts a booking row.
func (s *SQLiteStore) SaveBooking(b Booking) error {
	_, err := s.db.Exec(`INSERT INTO bookings (id, name, email, phone, message, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Email, b.Phone, b.Message, b.Status, b.CreatedAt.UnixNano())
	return err
}

// ListBookings returns all bookings, newest first.
func (s *SQLiteStore) ListBookings() ([]Booking, error) {
	rows, err := s.db.Query(`SELECT id, name, email, phone, message, status, created_at FROM bookings ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []Booking
	for rows.Next() {
		var b Booking
		var nanos int64
		if err := rows.Scan(&b.ID, &b.Name, &b.Email, &b.Phone, &b.Message, &b.Status, &nanos); err != nil {
			return nil, err
		}
		b.CreatedAt = time.Unix(0, nanos).UTC()
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// SaveUser inserts a user row. The email column is unique.
func (s *SQLiteStore) SaveUser(u User) error {
	_, err := s.db.Exec(`INSERT INTO users (id, email, name, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt.UnixNano())
	return err
}

// GetUserByEmail returns the user with the given email, or ErrNotFound.
func (s *SQLiteStore) GetUserByEmail(email string) (User, error) {
	var u User
	var nanos int64
	err := s.db.QueryRow(`SELECT id, email, name, password_hash, created_at FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &nanos)
	if err != nil {
		return User{}, err
	}
	u.CreatedAt = time.Unix(0, nanos).UTC()
	return u, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (BlogPost, error) {
	var p BlogPost
	var nanos int64
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &p.ImageURL, &p.AudioURL, &p.Likes, &nanos); err != nil {
		return BlogPost{}, err
	}
	p.CreatedAt = time.Unix(0, nanos).UTC()
	return p, nil
}
