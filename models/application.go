package models

// Application is the typed view of a guide application. Only the email is
// read by the server; the rest of the body is stored as sent and later
// copied into the guides collection on acceptance.
type Application struct {
	Email string `json:"email" binding:"required,email"`
}
