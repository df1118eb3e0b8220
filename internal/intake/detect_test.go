package intake

import "testing"

func TestDetectOrderMail(t *testing.T) {
	cases := []struct {
		name        string
		subject     string
		text        string
		attachments []string
		want        bool
	}{
		{
			name:        "subject keyword plus attachment",
			subject:     "Purchase order for July",
			attachments: []string{"order_sheet.xlsx"},
			want:        true,
		},
		{
			name:    "qty lines in body",
			subject: "Requirement",
			text:    "DOLO 650 10\nCROCIN SYP 5\nAZEE 500 3",
			want:    true,
		},
		{
			name:    "newsletter",
			subject: "Monthly product newsletter",
			text:    "Read about our new launches this month.",
			want:    false,
		},
		{
			name:        "unsupported attachment alone",
			subject:     "Greetings",
			attachments: []string{"photo.jpg"},
			want:        false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := DetectOrderMail(tc.subject, tc.text, tc.attachments)
			if res.IsOrder != tc.want {
				t.Fatalf("IsOrder=%v score=%v reason=%s", res.IsOrder, res.Score, res.Reason)
			}
		})
	}
}

func TestParseOrderMailPlainBody(t *testing.T) {
	raw := []byte("From: customer@example.com\r\n" +
		"To: orders@example.com\r\n" +
		"Subject: Order\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"DOLO 650 TAB 10\r\nCROCIN SYP 5\r\n")

	mail, err := ParseOrderMail(raw)
	if err != nil {
		t.Fatal(err)
	}
	if mail.Subject != "Order" {
		t.Fatalf("subject: %q", mail.Subject)
	}
	if len(mail.Files) != 1 || mail.Files[0].Name != "body.txt" {
		t.Fatalf("files: %+v", mail.AttachmentNames())
	}
}
