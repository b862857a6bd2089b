// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package email

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

const (
	mixedBoundary       = "===============mixed0123456789=="
	alternativeBoundary = "===============alt0123456789=="
	base64LineLength    = 76
	icsFilename         = "invite.ics"
)

// outgoingMessage is one meeting email to every recipient.
type outgoingMessage struct {
	From       string
	Recipients []string
	Subject    string
	Content    *RenderedEmail
	Calendar   string
	Method     string
}

// buildEmailMessage builds the complete email message: the text and HTML
// bodies as alternatives, followed by the calendar invite.
func buildEmailMessage(msg outgoingMessage) string {
	var message strings.Builder

	// Email headers
	message.WriteString(fmt.Sprintf("From: %s\r\n", msg.From))
	message.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(msg.Recipients, ", ")))
	message.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject)))
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=\"%s\"\r\n", mixedBoundary))
	message.WriteString("\r\n")

	// Bodies
	message.WriteString(fmt.Sprintf("--%s\r\n", mixedBoundary))
	message.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", alternativeBoundary))
	message.WriteString("\r\n")

	message.WriteString(fmt.Sprintf("--%s\r\n", alternativeBoundary))
	message.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	message.WriteString("\r\n")
	message.WriteString(msg.Content.Text)
	message.WriteString("\r\n")

	message.WriteString(fmt.Sprintf("--%s\r\n", alternativeBoundary))
	message.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	message.WriteString("\r\n")
	message.WriteString(msg.Content.HTML)
	message.WriteString("\r\n")
	message.WriteString(fmt.Sprintf("--%s--\r\n", alternativeBoundary))

	// Calendar invite
	message.WriteString(fmt.Sprintf("--%s\r\n", mixedBoundary))
	message.WriteString(fmt.Sprintf("Content-Type: text/calendar; charset=\"UTF-8\"; method=%s; name=\"%s\"\r\n", msg.Method, icsFilename))
	message.WriteString("Content-Class: urn:content-classes:calendarmessage\r\n")
	message.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=\"%s\"\r\n", icsFilename))
	message.WriteString("Content-Transfer-Encoding: base64\r\n")
	message.WriteString("\r\n")
	message.WriteString(wrapBase64(msg.Calendar))
	message.WriteString(fmt.Sprintf("--%s--\r\n", mixedBoundary))

	return message.String()
}

func wrapBase64(content string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(content))
	var wrapped strings.Builder
	for len(encoded) > base64LineLength {
		wrapped.WriteString(encoded[:base64LineLength])
		wrapped.WriteString("\r\n")
		encoded = encoded[base64LineLength:]
	}
	wrapped.WriteString(encoded)
	wrapped.WriteString("\r\n")
	return wrapped.String()
}

// sendEmailMessage sends a pre-built email message via SMTP
func sendEmailMessage(config SMTPConfig, recipients []string, message string) error {
	addr := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))

	var auth smtp.Auth
	if config.Username != "" && config.Password != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}

	err := smtp.SendMail(addr, auth, config.From, recipients, []byte(message))
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
