package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"orderconv/internal"
	"orderconv/internal/config"
)

// Connector reads order mails from a Gmail account using an offline
// refresh token.
type Connector struct {
	svc      *gmailapi.Service
	markRead bool
}

func NewConnector(ctx context.Context, cfg config.Config) (*Connector, error) {
	for _, req := range []struct {
		name  string
		value string
	}{
		{"GMAIL_CLIENT_ID", cfg.GmailClientID},
		{"GMAIL_CLIENT_SECRET", cfg.GmailClientSecret},
		{"GMAIL_REFRESH_TOKEN", cfg.GmailRefreshToken},
	} {
		if err := cfg.Require(req.name, req.value); err != nil {
			return nil, err
		}
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.GmailClientID,
		ClientSecret: cfg.GmailClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.GmailRedirectURI,
		Scopes:       []string{gmailapi.GmailModifyScope},
	}
	token := &oauth2.Token{RefreshToken: cfg.GmailRefreshToken}
	client := oauthCfg.Client(ctx, token)

	svc, err := gmailapi.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("gmail service: %w", err)
	}

	return &Connector{svc: svc, markRead: cfg.GmailMarkRead}, nil
}

func (c *Connector) FetchInbox(label string, max int) ([]internal.FetchedMailMessage, error) {
	call := c.svc.Users.Messages.List("me").Q("is:unread").MaxResults(int64(max))
	if label != "" && label != "INBOX" {
		call = call.LabelIds(label)
	}
	list, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("gmail list: %w", err)
	}

	out := make([]internal.FetchedMailMessage, 0, len(list.Messages))
	for _, ref := range list.Messages {
		msg, err := c.svc.Users.Messages.Get("me", ref.Id).Format("raw").Do()
		if err != nil {
			return nil, fmt.Errorf("gmail get %s: %w", ref.Id, err)
		}
		raw, err := decodeBase64URL(msg.Raw)
		if err != nil {
			return nil, fmt.Errorf("gmail decode %s: %w", ref.Id, err)
		}

		meta, err := c.svc.Users.Messages.Get("me", ref.Id).Format("metadata").MetadataHeaders("Subject", "From", "Message-ID").Do()
		if err != nil {
			return nil, fmt.Errorf("gmail metadata %s: %w", ref.Id, err)
		}
		subject, from, messageID := headerValues(meta)
		if messageID == "" {
			messageID = "gmail-" + ref.Id
		}

		received := time.Now().UTC().Format(time.RFC3339)
		if msg.InternalDate > 0 {
			received = time.UnixMilli(msg.InternalDate).UTC().Format(time.RFC3339)
		}

		out = append(out, internal.FetchedMailMessage{
			Provider:   "gmail",
			MessageID:  messageID,
			Subject:    subject,
			From:       from,
			ReceivedAt: received,
			Raw:        raw,
		})

		if c.markRead {
			mod := &gmailapi.ModifyMessageRequest{RemoveLabelIds: []string{"UNREAD"}}
			if _, err := c.svc.Users.Messages.Modify("me", ref.Id, mod).Do(); err != nil {
				return nil, fmt.Errorf("gmail mark read %s: %w", ref.Id, err)
			}
		}
	}

	return out, nil
}

func decodeBase64URL(input string) ([]byte, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(input)
	if err == nil {
		return decoded, nil
	}
	return base64.URLEncoding.DecodeString(input)
}

func headerValues(msg *gmailapi.Message) (subject, from, messageID string) {
	if msg == nil || msg.Payload == nil {
		return "", "", ""
	}
	for _, h := range msg.Payload.Headers {
		switch h.Name {
		case "Subject":
			subject = h.Value
		case "From":
			from = h.Value
		case "Message-ID", "Message-Id":
			messageID = h.Value
		}
	}
	return subject, from, messageID
}
