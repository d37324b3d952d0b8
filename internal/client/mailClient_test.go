package client

import (
	"context"
	"testing"
	"time"

	"storefront/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMailer_WithoutHostLogsOnly(t *testing.T) {
	mailer, err := NewMailer(&config.SMTP{}, discardLogger)
	require.NoError(t, err)

	_, ok := mailer.(*logMailerImpl)
	assert.True(t, ok)
	assert.NoError(t, mailer.Send(context.Background(), &Email{To: "a@example.com", Subject: "hi", Text: "hello"}))
}

func TestNewMailer_SMTP(t *testing.T) {
	mailer, err := NewMailer(&config.SMTP{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "user",
		Password: "pass",
		From:     "shop@example.com",
		Timeout:  time.Second,
	}, discardLogger)
	require.NoError(t, err)

	_, ok := mailer.(*smtpMailerImpl)
	assert.True(t, ok)
}

func TestSMTPMailer_RejectsBadAddress(t *testing.T) {
	mailer, err := NewMailer(&config.SMTP{Host: "smtp.example.com", Port: 587, From: "shop@example.com", Timeout: time.Second}, discardLogger)
	require.NoError(t, err)

	err = mailer.Send(context.Background(), &Email{To: "not an address", Subject: "hi", Text: "hello"})
	assert.Error(t, err)
}
