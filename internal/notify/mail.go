package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"printwatch/internal/config"
)

// SMTPMailer sends plain-text mail with an optional jpeg attachment. It
// opens a fresh session per event; completion mail is rare enough that
// connection reuse buys nothing.
type SMTPMailer struct {
	cfg         config.SMTPConfig
	dialTimeout time.Duration
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, dialTimeout: 10 * time.Second}
}

func (m *SMTPMailer) Send(ctx context.Context, to []string, ev Event) error {
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	d := net.Dialer{Timeout: m.dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if m.cfg.Encryption == "starttls" {
		if err := c.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if m.cfg.User != "" {
		auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	from := m.cfg.From
	if from == "" {
		from = m.cfg.User
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt %s: %w", rcpt, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(buildMessage(from, ev)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// buildMessage renders the RFC 5322 message: plain text alone, or
// multipart/mixed with the snapshot attached. Recipients are blind-copied:
// they are addressed at the SMTP envelope level and never listed in a
// header, so one recipient cannot see the others.
func buildMessage(from string, ev Event) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", from)
	fmt.Fprintf(&b, "Subject: %s\r\n", ev.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")

	if ev.Frame == nil {
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		b.WriteString(ev.Body)
		b.WriteString("\r\n")
		return b.Bytes()
	}

	mw := multipart.NewWriter(&b)
	fmt.Fprintf(&b, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", mw.Boundary())

	text, _ := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=utf-8"},
	})
	fmt.Fprintf(text, "%s\r\n", ev.Body)

	img, _ := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"image/jpeg"},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {`attachment; filename="snapshot.jpg"`},
	})
	enc := base64.NewEncoder(base64.StdEncoding, &wrappedWriter{w: img})
	enc.Write(ev.Frame.Body)
	enc.Close()

	mw.Close()
	return b.Bytes()
}

// wrappedWriter folds base64 output at 76 columns as SMTP expects.
type wrappedWriter struct {
	w   io.Writer
	col int
}

func (ww *wrappedWriter) Write(p []byte) (int, error) {
	total := len(p)
	for len(p) > 0 {
		n := 76 - ww.col
		if n > len(p) {
			n = len(p)
		}
		if _, err := ww.w.Write(p[:n]); err != nil {
			return 0, err
		}
		ww.col += n
		p = p[n:]
		if ww.col == 76 {
			if _, err := ww.w.Write([]byte("\r\n")); err != nil {
				return 0, err
			}
			ww.col = 0
		}
	}
	return total, nil
}
