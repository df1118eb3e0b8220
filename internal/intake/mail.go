package intake

import (
	"bytes"
	"strings"

	"github.com/jhillyerd/enmime"
)

// supportedAttachmentExts mirrors the pipeline's extraction paths.
var supportedAttachmentExts = []string{".pdf", ".xlsx", ".xls", ".csv", ".txt", ".html", ".htm"}

type OrderMail struct {
	Subject string
	Text    string
	Files   []OrderFile
}

func (m OrderMail) AttachmentNames() []string {
	out := make([]string, 0, len(m.Files))
	for _, f := range m.Files {
		out = append(out, f.Name)
	}
	return out
}

// ParseOrderMail unpacks a raw RFC822 message into named document
// buffers: supported attachments first, then the HTML body (tables
// forwarded inline) and the plain-text body as synthetic files.
func ParseOrderMail(raw []byte) (OrderMail, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return OrderMail{}, err
	}

	mail := OrderMail{
		Subject: env.GetHeader("Subject"),
		Text:    env.Text,
	}

	for _, att := range env.Attachments {
		name := strings.TrimSpace(att.FileName)
		if name == "" {
			name = "attachment"
		}
		if !hasSupportedExt(name) {
			continue
		}
		mail.Files = append(mail.Files, OrderFile{Name: name, Data: att.Content})
	}

	if strings.TrimSpace(env.HTML) != "" {
		mail.Files = append(mail.Files, OrderFile{Name: "body.html", Data: []byte(env.HTML)})
	}
	if len(mail.Files) == 0 && strings.TrimSpace(env.Text) != "" {
		mail.Files = append(mail.Files, OrderFile{Name: "body.txt", Data: []byte(env.Text)})
	}

	return mail, nil
}

func hasSupportedExt(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range supportedAttachmentExts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
