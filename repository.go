package emerald

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository is the content boundary over posts and comments. Authorization
// is enforced here, not in the handlers: privileged operations take the
// resolved Actor and refuse anything below admin.
type Repository struct {
	store  Store
	cache  *PostCache
	broker *CommentBroker
}

// NewRepository wraps a Store with the post cache and the live comment
// broker.
func NewRepository(store Store, cacheTTL time.Duration) *Repository {
	return &Repository{
		store:  store,
		cache:  NewPostCache(store, cacheTTL),
		broker: NewCommentBroker(),
	}
}

// CreatePost inserts a new post and returns its id. Title and content must
// be non-empty after trimming; only admins may create posts.
func (r *Repository) CreatePost(actor Actor, title, content, imageURL, audioURL string) (string, error) {
	if actor.Role != RoleAdmin {
		return "", &AuthorizationError{Action: "create posts"}
	}
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" {
		return "", &ValidationError{Field: "title"}
	}
	if content == "" {
		return "", &ValidationError{Field: "content"}
	}
	p := BlogPost{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		ImageURL:  imageURL,
		AudioURL:  audioURL,
		Likes:     0,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.store.SavePost(p); err != nil {
		return "", fmt.Errorf("save post: %w", err)
	}
	r.cache.Invalidate()
	return p.ID, nil
}

// ListPosts returns all posts ordered by creation time descending.
func (r *Repository) ListPosts() ([]BlogPost, error) {
	return r.cache.ListPosts()
}

// GetPost returns a single post by id, or ErrNotFound.
func (r *Repository) GetPost(id string) (BlogPost, error) {
	return r.cache.GetPost(id)
}

// DeletePost removes a post. Only admins may delete; deleting an id that
// does not exist succeeds silently.
func (r *Repository) DeletePost(actor Actor, id string) error {
	if actor.Role != RoleAdmin {
		return &AuthorizationError{Action: "delete posts"}
	}
	if err := r.store.DeletePost(id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	r.cache.Invalidate()
	return nil
}

// ListComments returns the comments of a post ordered by creation time
// ascending.
func (r *Repository) ListComments(postID string) ([]Comment, error) {
	return r.store.ListComments(postID)
}

// CreateComment inserts a comment and fans it out to live subscribers of the
// post. Text must be non-empty after trimming and the author must be
// authenticated. An empty display name becomes "Anonymous".
func (r *Repository) CreateComment(postID, text, authorID, displayName string) (Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Comment{}, &ValidationError{Field: "text"}
	}
	if authorID == "" {
		return Comment{}, &AuthorizationError{Action: "comment"}
	}
	if strings.TrimSpace(displayName) == "" {
		displayName = "Anonymous"
	}
	cm := Comment{
		ID:        uuid.NewString(),
		PostID:    postID,
		Text:      text,
		UserID:    authorID,
		Username:  displayName,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.store.SaveComment(cm); err != nil {
		return Comment{}, fmt.Errorf("save comment: %w", err)
	}
	r.broker.Publish(cm)
	return cm, nil
}

// SubscribeComments opens a live channel of comments inserted on postID
// after this call. The returned subscription must be closed by the caller.
func (r *Repository) SubscribeComments(postID string) *CommentSubscription {
	return r.broker.Subscribe(postID)
}
