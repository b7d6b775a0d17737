package domain

import "time"

type Customer struct {
	ID        int64
	Name      string
	Email     string
	Phone     *string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
