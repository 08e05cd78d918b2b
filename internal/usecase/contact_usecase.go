package usecase

import (
	"context"
	"net/http"
	"net/mail"
	"strings"
)

// お問い合わせメールを送る約束。実装はSMTP。
type ContactMailer interface {
	SendContact(name string, email string, message string) error
}

type ContactUsecase struct {
	mailer ContactMailer
}

func NewContactUsecase(mailer ContactMailer) *ContactUsecase {
	return &ContactUsecase{mailer: mailer}
}

type ContactInput struct {
	Name    string
	Email   string
	Message string
}

func (u *ContactUsecase) Send(ctx context.Context, in ContactInput) error {
	name := strings.TrimSpace(in.Name)
	message := strings.TrimSpace(in.Message)

	if name == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return NewHTTPError(http.StatusBadRequest, "invalid email")
	}
	if message == "" {
		return NewHTTPError(http.StatusBadRequest, "message required")
	}
	if len(message) > 5000 {
		return NewHTTPError(http.StatusBadRequest, "message too long")
	}

	if err := u.mailer.SendContact(name, in.Email, message); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "mail error")
	}
	return nil
}
