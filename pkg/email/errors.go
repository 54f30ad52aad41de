package email

import "errors"

var (
	ErrInvalidParams     = errors.New("invalid email parameters")
	ErrInvalidConfig     = errors.New("invalid email configuration")
	ErrFailedToSendEmail = errors.New("failed to send email")
)
