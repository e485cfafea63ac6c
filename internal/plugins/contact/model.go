// Package contact stores messages sent through the public contact form and
// exposes them to admins.
package contact

import "time"

// Message is one row in the contacts table.
type Message struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	IPAddress string    `json:"ip_address"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmitRequest is the body of POST /api/contact.
type SubmitRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// submission is validated after sanitizing, so length rules apply to what
// will actually be stored.
type submission struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"required,min=5"`
}

// Counts feeds the admin dashboard.
type Counts struct {
	Total  int
	Unread int
}
