package model

import "time"

// Testimonial is a client comment, hidden until an admin approves it.
type Testimonial struct {
	ID         string            `db:"id" json:"id"`
	TokenID    *string           `db:"token_id" json:"tokenId,omitempty"`
	ClientName string            `db:"client_name" json:"clientName"`
	Comment    string            `db:"comment" json:"comment"`
	Language   Language          `db:"language" json:"language"`
	Status     TestimonialStatus `db:"status" json:"status"`
	CreatedAt  time.Time         `db:"created_at" json:"createdAt"`
	ApprovedAt *time.Time        `db:"approved_at" json:"approvedAt,omitempty"`
}

// PendingItem is the admin list projection of a pending testimonial.
type PendingItem struct {
	ID         string    `db:"id" json:"id"`
	ClientName string    `db:"client_name" json:"clientName"`
	Comment    string    `db:"comment" json:"comment"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// PublicTestimonial is what the public site shows.
type PublicTestimonial struct {
	ClientName string    `db:"client_name" json:"clientName"`
	Comment    string    `db:"comment" json:"comment"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// PendingPage is one window of the pending list plus whether rows follow it.
type PendingPage struct {
	Items   []PendingItem `json:"items"`
	HasMore bool          `json:"hasMore"`
}

type CreateTestimonialParams struct {
	TokenID    string
	ClientName string
	Comment    string
	Language   Language
}
