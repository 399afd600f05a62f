package model

import "time"

// CommentToken is a single-use invitation to submit one testimonial.
type CommentToken struct {
	ID          string     `db:"id" json:"id"`
	Token       string     `db:"token" json:"token"`
	ClientName  string     `db:"client_name" json:"clientName"`
	ClientEmail string     `db:"client_email" json:"clientEmail"`
	Language    Language   `db:"language" json:"language"`
	ExpiresAt   time.Time  `db:"expires_at" json:"expiresAt"`
	Used        bool       `db:"used" json:"used"`
	UsedAt      *time.Time `db:"used_at" json:"usedAt,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
}

type CreateCommentTokenParams struct {
	Token       string
	ClientName  string
	ClientEmail string
	Language    Language
	ExpiresAt   time.Time
}

// IsExpired checks if the token has expired
func (t *CommentToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IsConsumable checks if the token can still be exchanged for a testimonial
func (t *CommentToken) IsConsumable() bool {
	return !t.Used && !t.IsExpired()
}
