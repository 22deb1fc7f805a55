package filter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/emailguard/threat-analyzer/internal/core"
)

// SMTPFilter implements a Postfix-style content filter: it accepts mail on
// a local SMTP port, analyzes it, annotates it with threat headers, and
// optionally relays it onward or rejects it.
type SMTPFilter struct {
	service       *core.EmailSecurityService
	logger        *zap.Logger
	listenAddr    string
	server        *smtp.Server
	blockThreats  bool
	levelHeader   string
	scoreHeader   string
	reasonHeader  string
	relayAddr     string
	relayPort     int
	relayEnabled  bool
	subjectPrefix string
	modifySubject bool
}

// NewSMTPFilter creates a new SMTP content filter
func NewSMTPFilter(
	service *core.EmailSecurityService,
	logger *zap.Logger,
	listenAddr string,
	blockThreats bool,
	levelHeader string,
	scoreHeader string,
	reasonHeader string,
	relayAddr string,
	relayPort int,
	relayEnabled bool,
	subjectPrefix string,
	modifySubject bool,
) *SMTPFilter {
	if subjectPrefix == "" && modifySubject {
		subjectPrefix = "[**THREAT**] "
	}

	return &SMTPFilter{
		service:       service,
		logger:        logger,
		listenAddr:    listenAddr,
		blockThreats:  blockThreats,
		levelHeader:   levelHeader,
		scoreHeader:   scoreHeader,
		reasonHeader:  reasonHeader,
		relayAddr:     relayAddr,
		relayPort:     relayPort,
		relayEnabled:  relayEnabled,
		subjectPrefix: subjectPrefix,
		modifySubject: modifySubject,
	}
}

// Start starts the SMTP filter service
func (f *SMTPFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})

	f.server.Addr = f.listenAddr
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	f.logger.Info("SMTP filter starting", zap.String("address", f.listenAddr))

	go func() {
		if err := f.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				f.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the SMTP filter service
func (f *SMTPFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessEmail analyzes one email and returns the verdict
func (f *SMTPFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.EmailAnalysisResult, error) {
	return f.service.AnalyzeEmail(ctx, email)
}

// annotate injects the threat verdict headers (and optional subject tag)
// into the raw message data
func (f *SMTPFilter) annotate(data []byte, result *core.EmailAnalysisResult) []byte {
	var headers bytes.Buffer
	fmt.Fprintf(&headers, "%s: %s\r\n", f.levelHeader, result.OverallThreatLevel)
	fmt.Fprintf(&headers, "%s: %.2f\r\n", f.scoreHeader, result.Confidence)
	if result.WarningMessage != "" {
		fmt.Fprintf(&headers, "%s: %s\r\n", f.reasonHeader, result.WarningMessage)
	}

	annotated := append(headers.Bytes(), data...)

	if f.modifySubject && result.QuarantineRecommended {
		annotated = prefixSubject(annotated, f.subjectPrefix)
	}
	return annotated
}

// prefixSubject rewrites the Subject header line with the given prefix
func prefixSubject(data []byte, prefix string) []byte {
	lines := bytes.SplitN(data, []byte("\r\n\r\n"), 2)
	head := string(lines[0])
	rest := ""
	if len(lines) == 2 {
		rest = string(lines[1])
	}

	headerLines := strings.Split(head, "\r\n")
	for i, line := range headerLines {
		if strings.HasPrefix(strings.ToLower(line), "subject:") {
			subject := strings.TrimSpace(line[len("subject:"):])
			if !strings.HasPrefix(subject, prefix) {
				headerLines[i] = "Subject: " + prefix + subject
			}
			break
		}
	}

	out := strings.Join(headerLines, "\r\n")
	if rest != "" {
		out += "\r\n\r\n" + rest
	}
	return []byte(out)
}

// relay forwards the annotated message to the downstream MTA
func (f *SMTPFilter) relay(sender string, recipients []string, data []byte) error {
	addr := fmt.Sprintf("%s:%d", f.relayAddr, f.relayPort)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to relay: %w", err)
	}
	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	for _, rcpt := range recipients {
		if err := c.Rcpt(rcpt, nil); err != nil {
			return fmt.Errorf("RCPT TO failed: %w", err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA failed: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("failed to write message data: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish message data: %w", err)
	}

	return c.Quit()
}

// smtpBackend creates sessions for the filter server
type smtpBackend struct {
	filter *SMTPFilter
}

func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{filter: b.filter}, nil
}

// smtpSession handles one SMTP transaction
type smtpSession struct {
	filter     *SMTPFilter
	sender     string
	recipients []string
}

func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

func (s *smtpSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read message data: %w", err)
	}

	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		s.filter.logger.Warn("Failed to parse message, forwarding unanalyzed", zap.Error(err))
		return s.forward(data, nil)
	}

	email, err := EmailFromMessage(msg)
	if err != nil {
		s.filter.logger.Warn("Failed to extract message content, forwarding unanalyzed", zap.Error(err))
		return s.forward(data, nil)
	}
	if email.SenderEmail == "" {
		email.SenderEmail = s.sender
	}

	result, err := s.filter.service.AnalyzeEmail(context.Background(), email)
	if err != nil {
		// Analysis must never block delivery
		s.filter.logger.Error("Analysis failed, forwarding unanalyzed", zap.Error(err))
		return s.forward(data, nil)
	}

	s.filter.logger.Info("Email analyzed",
		zap.String("sender", email.SenderEmail),
		zap.String("threat_level", string(result.OverallThreatLevel)),
		zap.Float64("confidence", result.Confidence),
		zap.Bool("quarantine", result.QuarantineRecommended))

	if s.filter.blockThreats && result.ActionRecommended == core.ActionBlock {
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      "Message rejected due to security policy",
		}
	}

	return s.forward(data, result)
}

func (s *smtpSession) forward(data []byte, result *core.EmailAnalysisResult) error {
	if result != nil {
		data = s.filter.annotate(data, result)
	}
	if !s.filter.relayEnabled {
		return nil
	}
	if err := s.filter.relay(s.sender, s.recipients, data); err != nil {
		s.filter.logger.Error("Failed to relay message", zap.Error(err))
		return err
	}
	return nil
}

func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

func (s *smtpSession) Logout() error {
	return nil
}
