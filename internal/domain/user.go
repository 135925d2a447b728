package domain

// User is owned by the authentication subsystem and is read-only here.
type User struct {
	ID    string
	Name  string
	Email string
}
