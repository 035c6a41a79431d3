package domain

import "time"

// User exists as the owning side of the ticket foreign key. This service
// does not manage accounts beyond that reference.
type User struct {
	ID        int64
	FullName  string
	Email     string
	CreatedAt time.Time
}
