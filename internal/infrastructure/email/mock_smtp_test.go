// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package email

import (
	"bufio"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// mockSMTPServer speaks just enough SMTP for net/smtp.SendMail and records
// the envelope and data of every delivered message.
type mockSMTPServer struct {
	listener net.Listener
	// rejectMail, when set, answers MAIL FROM with this reply
	rejectMail string

	mu         sync.Mutex
	from       string
	recipients []string
	messages   []string
}

func newMockSMTPServer(t *testing.T, rejectMail string) *mockSMTPServer {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := &mockSMTPServer{listener: listener, rejectMail: rejectMail}
	go server.serve()
	t.Cleanup(func() { _ = listener.Close() })
	return server
}

// config returns an SMTP configuration pointing at the server.
func (s *mockSMTPServer) config(t *testing.T) SMTPConfig {
	host, portStr, err := net.SplitHostPort(s.listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return SMTPConfig{Host: host, Port: port, From: "meeting@openeuler.org"}
}

func (s *mockSMTPServer) delivered() (string, []string, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.from, append([]string(nil), s.recipients...), append([]string(nil), s.messages...)
}

func (s *mockSMTPServer) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return // Server closed
		}
		go s.handleConnection(conn)
	}
}

func (s *mockSMTPServer) handleConnection(conn net.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	reader := bufio.NewReader(conn)
	reply := func(line string) { _, _ = conn.Write([]byte(line + "\r\n")) }
	reply("220 localhost SMTP ready")

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0])

		switch verb {
		case "EHLO", "HELO":
			reply("250 localhost")
		case "MAIL":
			if s.rejectMail != "" {
				reply(s.rejectMail)
				continue
			}
			s.mu.Lock()
			s.from = address(line)
			s.mu.Unlock()
			reply("250 OK")
		case "RCPT":
			s.mu.Lock()
			s.recipients = append(s.recipients, address(line))
			s.mu.Unlock()
			reply("250 OK")
		case "DATA":
			reply("354 Start mail input")
			var data strings.Builder
			for {
				body, err := reader.ReadString('\n')
				if err != nil {
					return
				}
				body = strings.TrimRight(body, "\r\n")
				if body == "." {
					break
				}
				data.WriteString(strings.TrimPrefix(body, "."))
				data.WriteString("\r\n")
			}
			s.mu.Lock()
			s.messages = append(s.messages, data.String())
			s.mu.Unlock()
			reply("250 OK")
		case "QUIT":
			reply("221 Bye")
			return
		default:
			reply("250 OK")
		}
	}
}

func address(line string) string {
	start, end := strings.Index(line, "<"), strings.LastIndex(line, ">")
	if start < 0 || end < start {
		return ""
	}
	return line[start+1 : end]
}
