package models

// User is the placeholder account record. Password is stored as given.
type User struct {
	ID       string `db:"id"`
	Username string `db:"username"`
	Password string `db:"password"`
}

// NewUser carries the caller supplied fields of a user to be created.
type NewUser struct {
	Username string
	Password string
}
