package models

// Actor identifies the admin performing an operation. Every mutating call
// receives the actor explicitly; there is no ambient "current admin".
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
