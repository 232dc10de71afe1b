package emerald

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is a Store backed by a Postgres database, for deployments
// that keep content in a hosted relational service instead of a local file.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database at url and runs schema
// migrations.
func NewPostgresStore(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS posts (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    image_url TEXT NOT NULL DEFAULT '',
    audio_url TEXT NOT NULL DEFAULT '',
    likes INTEGER NOT NULL DEFAULT 0,
    created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS comments (
    id TEXT PRIMARY KEY,
    post_id TEXT NOT NULL,
    text TEXT NOT NULL,
    user_id TEXT NOT NULL,
    username TEXT NOT NULL DEFAULT 'Anonymous',
    created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_id, created_at);

CREATE TABLE IF NOT EXISTS bookings (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    phone TEXT NOT NULL,
    message TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'pending',
    created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at BIGINT NOT NULL
);
`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SavePost inserts a post row.
func (s *PostgresStore) SavePost(p BlogPost) error {
	_, err := s.pool.Exec(context.Background(),
		`INSERT INTO posts (id, title, content, image_url, audio_url, likes, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.Title, p.Content, p.ImageURL, p.AudioURL, p.Likes, p.CreatedAt.UnixNano())
	return err
}

// ListPosts returns all posts ordered by creation time descending.
func (s *PostgresStore) ListPosts() ([]BlogPost, error) {
	rows, err := s.pool.Query(context.Background(),
		`SELECT id, title, content, image_url, audio_url, likes, created_at FROM posts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []BlogPost
	for rows.Next() {
		var p BlogPost
		var nanos int64
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.ImageURL, &p.AudioURL, &p.Likes, &nanos); err != nil {
			return nil, err
		}
		p.CreatedAt = time.Unix(0, nanos).UTC()
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// GetPost returns a single post by id, or ErrNotFound.
func (s *PostgresStore) GetPost(id string) (BlogPost, error) {
	var p BlogPost
	var nanos int64
	err := s.pool.QueryRow(context.Background(),
		`SELECT id, title, content, image_url, audio_url, likes, created_at FROM posts WHERE id = $1`, id).
		Scan(&p.ID, &p.Title, &p.Content, &p.ImageURL, &p.AudioURL, &p.Likes, &nanos)
	if err != nil {
		return BlogPost{}, mapNoRows(err)
	}
	p.CreatedAt = time.Unix(0, nanos).UTC()
	return p, nil
}

// DeletePost removes a post by id. Deleting a missing id is not an error.
func (s *PostgresStore) DeletePost(id string) error {
	_, err := s.pool.Exec(context.Background(), `DELETE FROM posts WHERE id = $1`, id)
	return err
}

// SaveComment inserts a comment row.
func (s *PostgresStore) SaveComment(cm Comment) error {
	_, err := s.pool.Exec(context.Background(),
		`INSERT INTO comments (id, post_id, text, user_id, username, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		cm.ID, cm.PostID, cm.Text, cm.UserID, cm.Username, cm.CreatedAt.UnixNano())
	return err
}

// ListComments returns the comments of a post ordered by creation time ascending.
func (s *PostgresStore) ListComments(postID string) ([]Comment, error) {
	rows, err := s.pool.Query(context.Background(),
		`SELECT id, post_id, text, user_id, username, created_at FROM comments WHERE post_id = $1 ORDER BY created_at ASC, id ASC`, postID)
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
func (s *PostgresStore) SaveBooking(b Booking) error {
	_, err := s.pool.Exec(context.Background(),
		`INSERT INTO bookings (id, name, email, phone, message, status, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		b.ID, b.Name, b.Email, b.Phone, b.Message, b.Status, b.CreatedAt.UnixNano())
	return err
}

// ListBookings returns all bookings, newest first.
func (s *PostgresStore) ListBookings() ([]Booking, error) {
	rows, err := s.pool.Query(context.Background(),
		`SELECT id, name, email, phone, message, status, created_at FROM bookings ORDER BY created_at DESC, id DESC`)
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
func (s *PostgresStore) SaveUser(u User) error {
	_, err := s.pool.Exec(context.Background(),
		`INSERT INTO users (id, email, name, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt.UnixNano())
	return err
}

// GetUserByEmail returns the user with the given email, or ErrNotFound.
func (s *PostgresStore) GetUserByEmail(email string) (User, error) {
	var u User
	var nanos int64
	err := s.pool.QueryRow(context.Background(),
		`SELECT id, email, name, password_hash, created_at FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &nanos)
	if err != nil {
		return User{}, mapNoRows(err)
	}
	u.CreatedAt = time.Unix(0, nanos).UTC()
	return u, nil
}

// mapNoRows normalizes the pgx no-rows sentinel to ErrNotFound so callers
// handle both backends the same way.
func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
