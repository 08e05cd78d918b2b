package mail

import (
	"gopkg.in/gomail.v2"
)

// お問い合わせメールの送信先と接続情報。
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
	to     string
}

func NewSMTPSender(host string, port int, username string, password string, from string, to string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
		to:     to,
	}
}

// お問い合わせ1件をショップ宛に送る。
func (s *SMTPSender) SendContact(name string, email string, message string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", s.to)
	m.SetHeader("Reply-To", email)
	m.SetHeader("Subject", "お問い合わせ: "+name)
	m.SetBody("text/plain", "From: "+name+" <"+email+">\n\n"+message)

	return s.dialer.DialAndSend(m)
}
