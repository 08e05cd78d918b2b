package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type ContactMailerMock struct{ mock.Mock }

func (m *ContactMailerMock) SendContact(name string, email string, message string) error {
	args := m.Called(name, email, message)
	return args.Error(0)
}

func TestContactUsecase_Send_Success(t *testing.T) {
	mailer := new(ContactMailerMock)
	mailer.On("SendContact", "Taro", "taro@example.com", "Hello").Return(nil)

	uc := usecase.NewContactUsecase(mailer)

	err := uc.Send(context.Background(), usecase.ContactInput{
		Name:    "  Taro  ",
		Email:   "taro@example.com",
		Message: " Hello ",
	})
	assert.NoError(t, err)
	mailer.AssertExpectations(t)
}

func TestContactUsecase_Send_NameRequired(t *testing.T) {
	mailer := new(ContactMailerMock)
	uc := usecase.NewContactUsecase(mailer)

	err := uc.Send(context.Background(), usecase.ContactInput{
		Name:    "   ",
		Email:   "taro@example.com",
		Message: "Hello",
	})
	assertErrContains(t, err, "name required")
	mailer.AssertNotCalled(t, "SendContact", mock.Anything, mock.Anything, mock.Anything)
}

func TestContactUsecase_Send_InvalidEmail(t *testing.T) {
	mailer := new(ContactMailerMock)
	uc := usecase.NewContactUsecase(mailer)

	err := uc.Send(context.Background(), usecase.ContactInput{
		Name:    "Taro",
		Email:   "not-an-email",
		Message: "Hello",
	})
	assertErrContains(t, err, "invalid email")
}

func TestContactUsecase_Send_MessageTooLong(t *testing.T) {
	mailer := new(ContactMailerMock)
	uc := usecase.NewContactUsecase(mailer)

	err := uc.Send(context.Background(), usecase.ContactInput{
		Name:    "Taro",
		Email:   "taro@example.com",
		Message: strings.Repeat("a", 5001),
	})
	assertErrContains(t, err, "message too long")
}

func TestContactUsecase_Send_MailerError(t *testing.T) {
	mailer := new(ContactMailerMock)
	mailer.On("SendContact", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("dial tcp: connection refused"))

	uc := usecase.NewContactUsecase(mailer)

	err := uc.Send(context.Background(), usecase.ContactInput{
		Name:    "Taro",
		Email:   "taro@example.com",
		Message: "Hello",
	})
	assertErrContains(t, err, "mail error")
}
