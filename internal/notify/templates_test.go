package notify

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trekbook/internal/refund"
)

func TestConfirmationMessage(t *testing.T) {
	subject, body := confirmationMessage(sampleBooking())

	assert.Equal(t, "Booking Received - Hampta Pass (TRK3-B7-20261110-AB12)", subject)
	assert.Contains(t, body, "Hi Asha Rao,")
	assert.Contains(t, body, "Dates: Nov 10, 2026 - Nov 15, 2026")
	assert.Contains(t, body, "Participants: 2")
	assert.Contains(t, body, "Total: 1260.00")
	assert.Contains(t, body, "Balance due: 1260.00 (by Nov 3, 2026)")
}

func TestCancellationMessage(t *testing.T) {
	q := refund.Quote{DaysUntilTrek: 20, RefundPercentage: 75, RefundAmount: decimal.NewFromInt(945), CancellationFee: decimal.NewFromInt(315)}

	subject, body := cancellationMessage(sampleBooking(), q)

	assert.Equal(t, "Booking Cancelled - Hampta Pass (TRK3-B7-20261110-AB12)", subject)
	assert.Contains(t, body, "Reason: Family emergency")
	assert.Contains(t, body, "Refund: 75% (945.00)")
	assert.Contains(t, body, "Cancellation fee: 315.00")
}

func TestSMTPMessage(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{From: "noreply@trekbook.in", FromName: "Trekbook"})

	msg := string(s.message("asha@example.com", "Asha Rao", "Hello", "Body text"))

	assert.Contains(t, msg, "From: \"Trekbook\" <noreply@trekbook.in>\r\n")
	assert.Contains(t, msg, "To: \"Asha Rao\" <asha@example.com>\r\n")
	assert.Contains(t, msg, "Subject: Hello\r\n")
	assert.Contains(t, msg, "\r\n\r\nBody text")
}

func TestSMTPMessage_NameCannotAddHeaders(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{From: "noreply@trekbook.in", FromName: "Trekbook"})

	msg := string(s.message(
		"asha@example.com",
		"Asha\r\nBcc: attacker@evil.example",
		"Booking Received\r\nX-Injected: yes",
		"Body text",
	))

	head, body, found := strings.Cut(msg, "\r\n\r\n")
	require.True(t, found)
	assert.Equal(t, "Body text", body)

	lines := strings.Split(head, "\r\n")
	require.Len(t, lines, 5)
	for _, line := range lines {
		assert.NotContains(t, line, "\n")
		assert.False(t, strings.HasPrefix(line, "Bcc:"), line)
		assert.False(t, strings.HasPrefix(line, "X-Injected:"), line)
	}
	assert.Equal(t, "To: \"Asha Bcc: attacker@evil.example\" <asha@example.com>", lines[1])
}

func TestSMTPMessage_EncodesNonASCII(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{From: "noreply@trekbook.in", FromName: "Trekbook"})

	msg := string(s.message("jose@example.com", "José", "Reserva confirmada ✓", "Body"))

	assert.Contains(t, msg, "Subject: =?utf-8?q?")
	assert.NotContains(t, msg, "José")
}
