// mailer/http.go
package mailer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"union-registration-system/utils"
)

// HTTPTransport queues a send through an external managed mail function
// (serverless relay). Authenticated with a bearer service token, same as the
// other service-to-service calls in this system.
type HTTPTransport struct {
	endpoint     string
	serviceToken string
	client       *http.Client
}

func NewHTTPTransportFromEnv() (*HTTPTransport, error) {
	endpoint := os.Getenv("MAIL_FUNCTION_URL")
	if endpoint == "" {
		return nil, fmt.Errorf("MAIL_FUNCTION_URL not set for http mail transport")
	}
	return &HTTPTransport{
		endpoint:     endpoint,
		serviceToken: os.Getenv("MAIL_FUNCTION_TOKEN"),
		client:       utils.HTTPClient,
	}, nil
}

func (t *HTTPTransport) Send(msg Message) error {
	payload, err := json.Marshal(map[string]string{
		"to":      msg.To,
		"subject": msg.Subject,
		"html":    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("failed to encode mail payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if t.serviceToken != "" {
		req.Header.Set("Authorization", "Bearer "+t.serviceToken)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("mail function call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mail function returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
