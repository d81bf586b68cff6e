package core

import "net/mail"

type (
	// EmailMessage is a plain-text message. Notification mails sent by the
	// calendar (invitations, reminders) are short generated bodies, so no
	// template machinery is involved.
	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		Body    string
	}

	// EmailService is any service that can send emails. Sends are
	// best-effort, non-blocking side effects: implementations dispatch
	// concurrently and report failures to their logger instead of
	// returning them.
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return m.Body != "" }
