package emerald

import "sync"

// subscriptionBuffer bounds how far a subscriber may lag before events are
// dropped for it. Publishing never blocks on a slow consumer.
const subscriptionBuffer = 16

// CommentBroker fans out inserted comments to live subscribers, filtered by
// post id. Insert events only; there are no update or delete events.
type CommentBroker struct {
	mu   sync.Mutex
	subs map[string]map[int]chan Comment
	next int
}

// NewCommentBroker creates an empty broker.
func NewCommentBroker() *CommentBroker {
	return &CommentBroker{subs: make(map[string]map[int]chan Comment)}
}

// CommentSubscription is a live, post-scoped comment channel. It must be
// closed when no longer needed; an unclosed subscription is held by the
// broker for the life of the process.
type CommentSubscription struct {
	// C delivers comments inserted after the subscription began.
	C <-chan Comment

	once   sync.Once
	cancel func()
}

// Close releases the subscription and closes C. Safe to call more than once.
func (s *CommentSubscription) Close() {
	s.once.Do(s.cancel)
}

// Subscribe registers a live channel for comments on postID.
func (b *CommentBroker) Subscribe(postID string) *CommentSubscription {
	ch := make(chan Comment, subscriptionBuffer)

	b.mu.Lock()
	if b.subs[postID] == nil {
		b.subs[postID] = make(map[int]chan Comment)
	}
	id := b.next
	b.next++
	b.subs[postID][id] = ch
	b.mu.Unlock()

	return &CommentSubscription{
		C: ch,
		cancel: func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if set, ok := b.subs[postID]; ok {
				if _, ok := set[id]; ok {
					delete(set, id)
					close(ch)
				}
				if len(set) == 0 {
					delete(b.subs, postID)
				}
			}
		},
	}
}

// Publish delivers an inserted comment to every subscriber of its post.
// Subscribers whose buffer is full miss the event rather than stalling the
// writer.
func (b *CommentBroker) Publish(cm Comment) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[cm.PostID] {
		select {
		case ch <- cm:
		default:
		}
	}
}

// SubscriberCount reports how many live subscriptions exist for a post.
func (b *CommentBroker) SubscriberCount(postID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[postID])
}
