package model

import "time"

type User struct {
	ID             int64
	Email          string
	Password       string // hashed
	Settings       Settings
	Created        time.Time
	FailedAttempts int64
}

// IsLinked reports whether the user has a FABID link stored in its settings.
func (u *User) IsLinked() bool {
	return u != nil && u.Settings.Fabid != nil
}

// Clone returns a copy of the user that shares no settings state with u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Settings = u.Settings.Clone()
	return &c
}
