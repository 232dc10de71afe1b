package emerald

import "time"

// BlogPost is the core content type. Posts are created and deleted by
// admins and never edited in place.
type BlogPost struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	AudioURL  string    `json:"audioUrl,omitempty"`
	Likes     int       `json:"likes"`
	CreatedAt time.Time `json:"createdAt"`
}

// Comment is a child record of a BlogPost, ordered by creation time ascending.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	Text      string    `json:"text"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// BookingStatusPending is the initial status of every booking. Status
// transitions happen outside this system.
const BookingStatusPending = "pending"

// Booking is a session-booking request captured by the intake endpoint.
type Booking struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// User is an account that can log in and comment. PasswordHash is a bcrypt
// hash and never leaves the store layer.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// MediaUpload pairs a generated object key with its resolved public URL.
// Only the URL is ever persisted, on the record that references the media.
type MediaUpload struct {
	Key string `json:"key"`
	URL string `json:"url"`
}
