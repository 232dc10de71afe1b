package emerald

import (
	"errors"
	"testing"
	"time"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	return NewRepository(setupTestStore(t), time.Minute)
}

var (
	adminActor = Actor{Authenticated: true, Email: "owner@example.com", UserID: "admin-1", Role: RoleAdmin}
	userActor  = Actor{Authenticated: true, Email: "visitor@example.com", UserID: "user-1", Name: "Vi", Role: RoleUser}
)

func TestCreatePostValidation(t *testing.T) {
	repo := setupTestRepo(t)

	var ve *ValidationError
	if _, err := repo.CreatePost(adminActor, "", "body", "", ""); !errors.As(err, &ve) {
		t.Errorf("empty title: expected ValidationError, got %v", err)
	}
	if _, err := repo.CreatePost(adminActor, "Title", "", "", ""); !errors.As(err, &ve) {
		t.Errorf("empty content: expected ValidationError, got %v", err)
	}
	if _, err := repo.CreatePost(adminActor, "   ", "\t\n", "", ""); !errors.As(err, &ve) {
		t.Errorf("whitespace-only fields: expected ValidationError, got %v", err)
	}
}

func TestCreatePostRequiresAdmin(t *testing.T) {
	repo := setupTestRepo(t)

	var ae *AuthorizationError
	if _, err := repo.CreatePost(userActor, "Title", "Body", "", ""); !errors.As(err, &ae) {
		t.Errorf("user actor: expected AuthorizationError, got %v", err)
	}
	if _, err := repo.CreatePost(Actor{Role: RoleAnonymous}, "Title", "Body", "", ""); !errors.As(err, &ae) {
		t.Errorf("anonymous actor: expected AuthorizationError, got %v", err)
	}
}

func TestCreatePostAppearsFirst(t *testing.T) {
	repo := setupTestRepo(t)

	if _, err := repo.CreatePost(adminActor, "Older", "Body", "", ""); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	id, err := repo.CreatePost(adminActor, "Newer", "Body", "", "")
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	posts, err := repo.ListPosts()
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("ListPosts count = %d, want 2", len(posts))
	}
	if posts[0].ID != id {
		t.Errorf("newest post should be first, got %q", posts[0].Title)
	}
	if posts[0].Likes != 0 {
		t.Errorf("new post Likes = %d, want 0", posts[0].Likes)
	}
}

func TestListPostsIdempotent(t *testing.T) {
	repo := setupTestRepo(t)

	for _, title := range []string{"One", "Two", "Three"} {
		if _, err := repo.CreatePost(adminActor, title, "Body", "", ""); err != nil {
			t.Fatalf("CreatePost failed: %v", err)
		}
	}

	first, err := repo.ListPosts()
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	second, err := repo.ListPosts()
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("order differs at %d: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
}

func TestDeletePostAuthorizationAndIdempotence(t *testing.T) {
	repo := setupTestRepo(t)

	id, err := repo.CreatePost(adminActor, "Title", "Body", "", "")
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	var ae *AuthorizationError
	if err := repo.DeletePost(userActor, id); !errors.As(err, &ae) {
		t.Errorf("user delete: expected AuthorizationError, got %v", err)
	}

	if err := repo.DeletePost(adminActor, id); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	if _, err := repo.GetPost(id); err != ErrNotFound {
		t.Errorf("deleted post should be gone, got %v", err)
	}

	// Deleting a missing id is a silent success.
	if err := repo.DeletePost(adminActor, "nonexistent"); err != nil {
		t.Errorf("delete of missing id should succeed, got %v", err)
	}
}

func TestCreateCommentValidation(t *testing.T) {
	repo := setupTestRepo(t)

	var ve *ValidationError
	if _, err := repo.CreateComment("p1", "   ", "u1", "name"); !errors.As(err, &ve) {
		t.Errorf("empty text: expected ValidationError, got %v", err)
	}

	var ae *AuthorizationError
	if _, err := repo.CreateComment("p1", "hi", "", "name"); !errors.As(err, &ae) {
		t.Errorf("missing author: expected AuthorizationError, got %v", err)
	}
}

func TestCreateCommentDefaultsUsername(t *testing.T) {
	repo := setupTestRepo(t)

	cm, err := repo.CreateComment("p1", "hello", "u1", "  ")
	if err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}
	if cm.Username != "Anonymous" {
		t.Errorf("Username = %q, want %q", cm.Username, "Anonymous")
	}

	got, err := repo.ListComments("p1")
	if err != nil {
		t.Fatalf("ListComments failed: %v", err)
	}
	if len(got) != 1 || got[0].Text != "hello" {
		t.Errorf("unexpected comments: %+v", got)
	}
}

func TestSubscribeCommentsDelivery(t *testing.T) {
	repo := setupTestRepo(t)

	sub := repo.SubscribeComments("p1")
	defer sub.Close()
	other := repo.SubscribeComments("p2")
	defer other.Close()

	if _, err := repo.CreateComment("p1", "hello", "u1", "Vi"); err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}

	select {
	case cm := <-sub.C:
		if cm.Text != "hello" || cm.PostID != "p1" {
			t.Errorf("unexpected event: %+v", cm)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive the comment")
	}

	select {
	case cm := <-other.C:
		t.Errorf("comment leaked to another post's subscriber: %+v", cm)
	default:
	}

	// Exactly one event.
	select {
	case cm := <-sub.C:
		t.Errorf("unexpected extra event: %+v", cm)
	default:
	}
}
