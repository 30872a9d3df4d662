// Package email delivers workflow notification mail. Templates are embedded
// so a deployment never depends on files next to the binary.
package email

import "context"

// Tender carries the fields every notification template shows.
type Tender struct {
	TenderNo   string
	TenderName string
}

type Sender interface {
	SendRAScheduledEmail(ctx context.Context, to []string, cc []string, tender Tender, startTime, endTime string) error
	SendRAResultEmail(ctx context.Context, toEmails []string, tender Tender, result string) error
	SendTQReceivedEmail(ctx context.Context, toEmail string, tender Tender, deadline string) error
	SendTQRepliedEmail(ctx context.Context, toEmail string, tender Tender) error
	SendTQMissedEmail(ctx context.Context, toEmails []string, tender Tender, reason string) error
	SendTQQualifiedEmail(ctx context.Context, toEmails []string, tender Tender, qualified bool) error
}

// NoopSender is used when email delivery is disabled.
type NoopSender struct{}

func (NoopSender) SendRAScheduledEmail(ctx context.Context, to []string, cc []string, tender Tender, startTime, endTime string) error {
	return nil
}

func (NoopSender) SendRAResultEmail(ctx context.Context, toEmails []string, tender Tender, result string) error {
	return nil
}

func (NoopSender) SendTQReceivedEmail(ctx context.Context, toEmail string, tender Tender, deadline string) error {
	return nil
}

func (NoopSender) SendTQRepliedEmail(ctx context.Context, toEmail string, tender Tender) error {
	return nil
}

func (NoopSender) SendTQMissedEmail(ctx context.Context, toEmails []string, tender Tender, reason string) error {
	return nil
}

func (NoopSender) SendTQQualifiedEmail(ctx context.Context, toEmails []string, tender Tender, qualified bool) error {
	return nil
}
