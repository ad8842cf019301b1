package delivery

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/CorrelAid/order_mailer/config"
	"gopkg.in/gomail.v2"
)

// ErrNotConfigured is returned by a transport whose account lacks credentials.
var ErrNotConfigured = errors.New("smtp account not configured")

// ErrPlaintextAuth is returned instead of sending credentials over an
// unencrypted connection to a remote server.
var ErrPlaintextAuth = errors.New("refusing to authenticate over an unencrypted connection")

// Transport sends one message through one mail account.
type Transport interface {
	Name() string
	// From is the account address used as the From header.
	From() string
	Send(ctx context.Context, msg *gomail.Message) error
}

const localName = "localhost"

// SMTPTransport delivers messages through an SMTP account. The connection is
// bound to the context: its deadline applies to all network I/O and
// cancellation aborts the conversation.
type SMTPTransport struct {
	account config.Account
}

func NewSMTPTransport(account config.Account) *SMTPTransport {
	return &SMTPTransport{account: account}
}

func (t *SMTPTransport) Name() string {
	return t.account.Name
}

func (t *SMTPTransport) From() string {
	return t.account.User
}

func (t *SMTPTransport) Send(ctx context.Context, msg *gomail.Message) error {
	if missing := t.account.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: %s account is missing %s", ErrNotConfigured, t.account.Name, strings.Join(missing, ", "))
	}
	// gomail flattens errors with %v; keep the transport error itself.
	var sendErr error
	sender := gomail.SendFunc(func(from string, to []string, m io.WriterTo) error {
		sendErr = t.send(ctx, from, to, m)
		return sendErr
	})
	if err := gomail.Send(sender, msg); err != nil {
		if sendErr != nil {
			return sendErr
		}
		return err
	}
	return nil
}

func (t *SMTPTransport) send(ctx context.Context, from string, to []string, msg io.WriterTo) error {
	addr := net.JoinHostPort(t.account.Host, strconv.Itoa(t.account.Port))

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	tlsConfig := &tls.Config{
		ServerName:         t.account.Host,
		InsecureSkipVerify: t.account.InsecureSkipVerify,
		MinVersion:         tls.VersionTLS12,
	}

	var netConn net.Conn = conn
	if t.account.Security == config.SecurityTLS {
		netConn = tls.Client(conn, tlsConfig)
	}

	c, err := smtp.NewClient(netConn, t.account.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp greeting from %s: %w", addr, err)
	}
	defer c.Close()

	if err := c.Hello(localName); err != nil {
		return fmt.Errorf("smtp hello: %w", err)
	}

	encrypted := t.account.Security == config.SecurityTLS
	// STARTTLS is opportunistic: used when the server offers it.
	if t.account.Security == config.SecuritySTARTTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("smtp starttls: %w", err)
			}
			encrypted = true
		}
	}

	if t.account.Security != config.SecurityNone {
		if ok, _ := c.Extension("AUTH"); ok {
			if !encrypted && !isLocalhost(t.account.Host) {
				return fmt.Errorf("%w: %s does not offer STARTTLS", ErrPlaintextAuth, addr)
			}
			auth := smtp.PlainAuth("", t.account.User, t.account.Password, t.account.Host)
			if err := c.Auth(auth); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}

	if err := c.Mail(from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp rcpt to %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := msg.WriteTo(w); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp end of data: %w", err)
	}

	// The message is accepted once DATA is closed; a failing QUIT does not
	// undo that.
	_ = c.Quit()
	return nil
}

// isLocalhost matches the hosts net/smtp allows PLAIN auth to without TLS.
func isLocalhost(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}
