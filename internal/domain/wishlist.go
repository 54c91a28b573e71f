package domain

import "time"

// WishlistEntry is one saved product. Membership is keyed by the product ID;
// the entry ID is the upstream row identifier and is placeholder-local until
// the server confirms the add.
type WishlistEntry struct {
	ID          string    `json:"id"`
	Placeholder bool      `json:"-"`
	Product     Product   `json:"product"`
	AddedAt     time.Time `json:"added_at"`
}
