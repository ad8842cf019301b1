package delivery

import (
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/CorrelAid/order_mailer/models"
	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// NewMessageID returns a Message-ID in the domain of the from address. The
// same id is used for every attempt of one email so duplicates from a late
// primary delivery can be recognised by the recipient.
func NewMessageID(from string) string {
	domain := "localhost"
	if i := strings.LastIndex(from, "@"); i >= 0 && i < len(from)-1 {
		domain = from[i+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}

// BuildMessage renders email as a gomail message sent from the given account
// address.
func BuildMessage(email models.Email, from, senderName string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", from, senderName)
	m.SetHeader("To", email.To)
	m.SetHeader("Subject", email.Subject)
	if email.MessageID != "" {
		m.SetHeader("Message-ID", email.MessageID)
	}
	m.SetBody("text/plain", email.TextBody)
	m.AddAlternative("text/html", email.HTMLBody)

	for _, a := range email.Attachments {
		content := a.Content
		m.Attach(a.Filename,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
			gomail.SetHeader(map[string][]string{
				"Content-Type": {attachmentType(a.ContentType, a.Filename)},
			}),
		)
	}
	return m
}

func attachmentType(contentType, filename string) string {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType, params = "application/octet-stream", map[string]string{}
	}
	params["name"] = filename
	if formatted := mime.FormatMediaType(mediaType, params); formatted != "" {
		return formatted
	}
	return mediaType
}
