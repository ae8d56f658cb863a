// mailer/mailer.go
package mailer

import (
	"fmt"
	"log"
	"os"

	"gorm.io/gorm"
)

// Message is one outbound notification email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Transport delivers a message. Exactly one transport is active per
// deployment, selected by MAIL_TRANSPORT at startup.
type Transport interface {
	Send(msg Message) error
}

// DispatchResult is what approval flows record on the entity. A failed send
// never propagates as an error: the approval stands regardless of mail.
type DispatchResult struct {
	Sent  bool   `json:"sent"`
	Error string `json:"error,omitempty"`
}

// Dispatcher wraps the configured transport and converts faults into results.
type Dispatcher struct {
	transport Transport
}

func NewDispatcher(t Transport) *Dispatcher {
	return &Dispatcher{transport: t}
}

// NewDispatcherFromEnv selects the transport from MAIL_TRANSPORT:
// "smtp" (default), "http" (managed mail function), or "outbox" (durable
// queue in the database, drained by the outbox worker).
func NewDispatcherFromEnv(db *gorm.DB) (*Dispatcher, error) {
	mode := os.Getenv("MAIL_TRANSPORT")
	switch mode {
	case "", "smtp":
		return NewDispatcher(NewSMTPTransportFromEnv()), nil
	case "http":
		t, err := NewHTTPTransportFromEnv()
		if err != nil {
			return nil, err
		}
		return NewDispatcher(t), nil
	case "outbox":
		return NewDispatcher(NewOutboxTransport(db)), nil
	default:
		return nil, fmt.Errorf("unknown MAIL_TRANSPORT %q (use smtp, http, or outbox)", mode)
	}
}

// Dispatch attempts delivery and always returns a structured result.
func (d *Dispatcher) Dispatch(msg Message) DispatchResult {
	if err := d.transport.Send(msg); err != nil {
		log.Printf("❌ [MAIL] send to %s failed: %v", msg.To, err)
		return DispatchResult{Sent: false, Error: err.Error()}
	}
	return DispatchResult{Sent: true}
}
