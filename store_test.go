package emerald

import (
	"path/filepath"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test_emerald.db")

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func TestNewSQLiteStore(t *testing.T) {
	s := setupTestStore(t)

	if s == nil {
		t.Fatal("store should not be nil")
	}
	if s.db == nil {
		t.Fatal("db should not be nil")
	}
}

func TestSaveAndGetPost(t *testing.T) {
	s := setupTestStore(t)

	post := BlogPost{
		ID:        "p1",
		Title:     "Managing Anxiety",
		Content:   "Grounding techniques for anxious moments.",
		ImageURL:  "http://localhost:3000/media/emerald-blogs/1-calm.jpg",
		AudioURL:  "http://localhost:3000/media/emerald-blogs/2-calm.mp3",
		CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	if err := s.SavePost(post); err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}

	got, err := s.GetPost("p1")
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}

	if got.Title != post.Title {
		t.Errorf("Title = %q, want %q", got.Title, post.Title)
	}
	if got.Content != post.Content {
		t.Errorf("Content = %q, want %q", got.Content, post.Content)
	}
	if got.ImageURL != post.ImageURL {
		t.Errorf("ImageURL = %q, want %q", got.ImageURL, post.ImageURL)
	}
	if got.AudioURL != post.AudioURL {
		t.Errorf("AudioURL = %q, want %q", got.AudioURL, post.AudioURL)
	}
	if got.Likes != 0 {
		t.Errorf("Likes = %d, want 0", got.Likes)
	}
	if !got.CreatedAt.Equal(post.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, post.CreatedAt)
	}
}

func TestGetPostNotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetPost("nonexistent")
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListPostsNewestFirst(t *testing.T) {
	s := setupTestStore(t)

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	posts := []BlogPost{
		{ID: "p1", Title: "First", Content: "c1", CreatedAt: base},
		{ID: "p2", Title: "Second", Content: "c2", CreatedAt: base.Add(time.Second)},
		{ID: "p3", Title: "Third", Content: "c3", CreatedAt: base.Add(2 * time.Second)},
	}
	for _, p := range posts {
		if err := s.SavePost(p); err != nil {
			t.Fatalf("SavePost failed: %v", err)
		}
	}

	got, err := s.ListPosts()
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListPosts count = %d, want 3", len(got))
	}
	if got[0].ID != "p3" || got[2].ID != "p1" {
		t.Errorf("posts not ordered newest first: %s, %s, %s", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestDeletePost(t *testing.T) {
	s := setupTestStore(t)

	post := BlogPost{ID: "p1", Title: "To Delete", Content: "c", CreatedAt: time.Now().UTC()}
	if err := s.SavePost(post); err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}

	if err := s.DeletePost("p1"); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}

	if _, err := s.GetPost("p1"); err != ErrNotFound {
		t.Errorf("post should not exist after delete, got err: %v", err)
	}
}

func TestDeleteNonexistentPost(t *testing.T) {
	s := setupTestStore(t)

	if err := s.DeletePost("nonexistent"); err != nil {
		t.Errorf("DeletePost on nonexistent should not error, got: %v", err)
	}
}

func TestCommentsOrderedOldestFirst(t *testing.T) {
	s := setupTestStore(t)

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	comments := []Comment{
		{ID: "c2", PostID: "p1", Text: "second", UserID: "u1", Username: "Ann", CreatedAt: base.Add(time.Second)},
		{ID: "c1", PostID: "p1", Text: "first", UserID: "u1", Username: "Ann", CreatedAt: base},
		{ID: "c3", PostID: "p2", Text: "other post", UserID: "u2", Username: "Ben", CreatedAt: base},
	}
	for _, cm := range comments {
		if err := s.SaveComment(cm); err != nil {
			t.Fatalf("SaveComment failed: %v", err)
		}
	}

	got, err := s.ListComments("p1")
	if err != nil {
		t.Fatalf("ListComments failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListComments count = %d, want 2", len(got))
	}
	if got[0].ID != "c1" || got[1].ID != "c2" {
		t.Errorf("comments not ordered oldest first: %s, %s", got[0].ID, got[1].ID)
	}
}

func TestBookingRoundTrip(t *testing.T) {
	s := setupTestStore(t)

	b := Booking{
		ID:        "b1",
		Name:      "Jo",
		Email:     "jo@example.com",
		Phone:     "123",
		Message:   "Evening slot please",
		Status:    BookingStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.SaveBooking(b); err != nil {
		t.Fatalf("SaveBooking failed: %v", err)
	}

	got, err := s.ListBookings()
	if err != nil {
		t.Fatalf("ListBookings failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ListBookings count = %d, want 1", len(got))
	}
	if got[0].Status != BookingStatusPending {
		t.Errorf("Status = %q, want %q", got[0].Status, BookingStatusPending)
	}
	if got[0].Message != b.Message {
		t.Errorf("Message = %q, want %q", got[0].Message, b.Message)
	}
}

func TestUserByEmail(t *testing.T) {
	s := setupTestStore(t)

	u := User{
		ID:           "u1",
		Email:        "jo@example.com",
		Name:         "Jo",
		PasswordHash: "not-a-real-hash",
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.SaveUser(u); err != nil {
		t.Fatalf("SaveUser failed: %v", err)
	}

	got, err := s.GetUserByEmail("jo@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if got.ID != "u1" || got.Name != "Jo" {
		t.Errorf("unexpected user: %+v", got)
	}

	if _, err := s.GetUserByEmail("nobody@example.com"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// Email is unique.
	dup := User{ID: "u2", Email: "jo@example.com", Name: "Jo 2", PasswordHash: "x", CreatedAt: time.Now().UTC()}
	if err := s.SaveUser(dup); err == nil {
		t.Error("expected duplicate email insert to fail")
	}
}
