package service

// IEmailService sends outbound account mail. The SMTP transport lives behind
// this interface so tests can swap in a recorder.
type IEmailService interface {
	SendConfirmationEmail(username, token, address string) error
}
