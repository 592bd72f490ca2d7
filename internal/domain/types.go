package domain

import "time"

type TripStatus string

const (
	TripFuture TripStatus = "future"
	TripTaken  TripStatus = "taken"
)

type TripVisibility string

const (
	TripPublic  TripVisibility = "public"
	TripPrivate TripVisibility = "private"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Bio          string    `json:"bio"`
	CreatedAt    time.Time `json:"createdAt"`
}

// OnlineUser is the projection returned by the online-users view.
type OnlineUser struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Bio      string    `json:"bio"`
	LastSeen time.Time `json:"lastSeen"`
}

// Message is a direct message between two users. Records are append-only;
// the read flag is the only mutable field and flips unread -> read exactly
// once, when the addressed recipient retrieves the conversation.
type Message struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	Content     string    `json:"content"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"createdAt"`
	// Seq is the store-wide monotonic sequence that breaks createdAt ties.
	Seq int64 `json:"-"`
}

type Trip struct {
	ID             string           `json:"id"`
	OwnerID        string           `json:"userId"`
	Title          string           `json:"title"`
	Destination    string           `json:"destination"`
	StartDate      string           `json:"startDate"`
	EndDate        string           `json:"endDate"`
	Status         TripStatus       `json:"status"`
	Visibility     TripVisibility   `json:"visibility"`
	Description    string           `json:"description"`
	CoverPhoto     string           `json:"coverPhoto"`
	Weather        string           `json:"weather"`
	OverallComment string           `json:"overallComment"`
	Airlines       []string         `json:"airlines"`
	Accommodations []string         `json:"accommodations"`
	TripImages     []string         `json:"tripImages"`
	SharedWith     []string         `json:"sharedWith"`
	Segments       []map[string]any `json:"segments"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}
