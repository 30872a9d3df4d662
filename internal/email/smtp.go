package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"

	"tender_portal_backend/platform/config"
)

// SMTPSender delivers notification mail over a direct SMTP connection via
// go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

func (s *SMTPSender) send(ctx context.Context, to []string, cc []string, subject, htmlContent string) error {
	if len(to) == 0 {
		return nil
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(to...); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	if len(cc) > 0 {
		if err := msg.Cc(cc...); err != nil {
			return fmt.Errorf("smtp cc: %w", err)
		}
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendRAScheduledEmail(ctx context.Context, to []string, cc []string, tender Tender, startTime, endTime string) error {
	content, err := renderEmailTemplate("ra_scheduled.html", raScheduledEmailData{
		baseEmailData: baseEmailData{
			Title:      "Reverse auction scheduled",
			Heading:    "Reverse auction scheduled",
			TenderNo:   tender.TenderNo,
			TenderName: tender.TenderName,
		},
		StartTime: startTime,
		EndTime:   endTime,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, to, cc, fmt.Sprintf(subjectRAScheduledFmt, tender.TenderNo), content)
}

func (s *SMTPSender) SendRAResultEmail(ctx context.Context, toEmails []string, tender Tender, result string) error {
	var heading, subject string
	switch result {
	case "Won":
		heading = "Reverse auction won"
		subject = fmt.Sprintf(subjectRAWonFmt, tender.TenderNo)
	case "H1 Elimination":
		heading = "Eliminated at H1"
		subject = fmt.Sprintf(subjectRAH1Fmt, tender.TenderNo)
	default:
		heading = "Reverse auction lost"
		subject = fmt.Sprintf(subjectRALostFmt, tender.TenderNo)
	}

	content, err := renderEmailTemplate("ra_result.html", raResultEmailData{
		baseEmailData: baseEmailData{
			Title:      heading,
			Heading:    heading,
			TenderNo:   tender.TenderNo,
			TenderName: tender.TenderName,
		},
		Result: result,
		Won:    result == "Won",
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmails, nil, subject, content)
}

func (s *SMTPSender) SendTQReceivedEmail(ctx context.Context, toEmail string, tender Tender, deadline string) error {
	content, err := renderEmailTemplate("tq_received.html", tqReceivedEmailData{
		baseEmailData: baseEmailData{
			Title:      "Technical query received",
			Heading:    "Technical query received",
			TenderNo:   tender.TenderNo,
			TenderName: tender.TenderName,
		},
		Deadline: deadline,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, []string{toEmail}, nil, fmt.Sprintf(subjectTQReceivedFmt, tender.TenderNo), content)
}

func (s *SMTPSender) SendTQRepliedEmail(ctx context.Context, toEmail string, tender Tender) error {
	content, err := renderEmailTemplate("tq_replied.html", tqRepliedEmailData{
		baseEmailData: baseEmailData{
			Title:      "Technical query replied",
			Heading:    "Technical query replied",
			TenderNo:   tender.TenderNo,
			TenderName: tender.TenderName,
		},
	})
	if err != nil {
		return err
	}
	return s.send(ctx, []string{toEmail}, nil, fmt.Sprintf(subjectTQRepliedFmt, tender.TenderNo), content)
}

func (s *SMTPSender) SendTQMissedEmail(ctx context.Context, toEmails []string, tender Tender, reason string) error {
	content, err := renderEmailTemplate("tq_missed.html", tqMissedEmailData{
		baseEmailData: baseEmailData{
			Title:      "Technical query deadline missed",
			Heading:    "Technical query deadline missed",
			TenderNo:   tender.TenderNo,
			TenderName: tender.TenderName,
		},
		Reason: reason,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmails, nil, fmt.Sprintf(subjectTQMissedFmt, tender.TenderNo), content)
}

func (s *SMTPSender) SendTQQualifiedEmail(ctx context.Context, toEmails []string, tender Tender, qualified bool) error {
	heading := "Tender disqualified"
	subject := fmt.Sprintf(subjectDisqualifiedFmt, tender.TenderNo)
	if qualified {
		heading = "Tender technically qualified"
		subject = fmt.Sprintf(subjectQualifiedFmt, tender.TenderNo)
	}

	content, err := renderEmailTemplate("tq_qualification.html", qualificationEmailData{
		baseEmailData: baseEmailData{
			Title:      heading,
			Heading:    heading,
			TenderNo:   tender.TenderNo,
			TenderName: tender.TenderName,
		},
		Qualified: qualified,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmails, nil, subject, content)
}
