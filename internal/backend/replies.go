package backend

import "fmt"

// Reply texts of the backend services. The web client decides success by
// looking for a keyword in these, so they are part of the wire contract.
const (
	ReplyLoginFailed       = "Invalid username or password."
	ReplyAccountCreated    = "Account created successfully."
	ReplyAccountFailed     = "Error creating account (username may be taken)."
	ReplyNotLoggedIn       = "Please log in first."
	ReplyInserted          = "Data inserted OK."
	ReplyDatabaseError     = "Database error occurred."
	ReplyBadRequest        = "Invalid request body."
	ReplyNotFound          = "Not Found"
	loginSucceededTemplate = "Login successful! Your user ID is %d."
)

// LoginSucceeded is the reply to a successful login.
func LoginSucceeded(userID int64) string {
	return fmt.Sprintf(loginSucceededTemplate, userID)
}
