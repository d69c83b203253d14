package model

// User represents an account issued by the platform's auth provider.
// User lifecycle is owned entirely by the platform; the service layer
// only ever reads these.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}
