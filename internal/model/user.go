package model

import "time"

type User struct {
	ID           string    `json:"_id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	DateJoined   time.Time `json:"dateJoined"`
}

// SafeUser is the only user shape that leaves the service layer.
type SafeUser struct {
	ID         string    `json:"_id,omitempty"`
	Username   string    `json:"username"`
	DateJoined time.Time `json:"dateJoined"`
}

func (u User) Safe() SafeUser {
	return SafeUser{
		ID:         u.ID,
		Username:   u.Username,
		DateJoined: u.DateJoined,
	}
}
