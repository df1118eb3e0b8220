package intake

import "orderconv/internal"

// OrderFile is one named document buffer ready for the conversion
// pipeline.
type OrderFile struct {
	Name string
	Data []byte
}

// MailConnector fetches raw order mails from an inbox provider.
type MailConnector interface {
	FetchInbox(label string, max int) ([]internal.FetchedMailMessage, error)
}
