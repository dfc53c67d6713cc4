package conversation

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"tutor-voice/internal/domain"
)

const conversationPath = "/api/voice/conversation"

// maxResponseBytes bounds the reply body; synthesized audio dominates it.
const maxResponseBytes = 32 * 1024 * 1024

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout})
}

func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type conversationResponse struct {
	Query    string `json:"query"`
	Response string `json:"response"`
	Audio    string `json:"audio,omitempty"`
}

// Submit sends one query. Failures are reported once and wrap
// domain.ErrSubmission; nothing is retried.
func (c *Client) Submit(ctx context.Context, mode domain.Mode, q domain.Query) (*domain.Reply, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	body, contentType, err := encodeQuery(mode, q)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+conversationPath, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: sending request: %w", domain.ErrSubmission, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", domain.ErrSubmission, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: conversation API error %d: %s", domain.ErrSubmission, resp.StatusCode, snippet(respBody))
	}

	var result conversationResponse
	if err := sonic.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", domain.ErrSubmission, err)
	}

	return &domain.Reply{
		Query:       result.Query,
		Response:    result.Response,
		AudioBase64: result.Audio,
	}, nil
}

func encodeQuery(mode domain.Mode, q domain.Query) (io.Reader, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("mode", string(mode)); err != nil {
		return nil, "", fmt.Errorf("writing mode field: %w", err)
	}

	if q.Audio.Empty() {
		if err := writer.WriteField("text", q.Text); err != nil {
			return nil, "", fmt.Errorf("writing text field: %w", err)
		}
	} else {
		part, err := writer.CreatePart(audioPartHeader(q.Audio))
		if err != nil {
			return nil, "", fmt.Errorf("creating form file: %w", err)
		}
		if _, err = part.Write(q.Audio.Data); err != nil {
			return nil, "", fmt.Errorf("writing audio: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("closing writer: %w", err)
	}

	return body, writer.FormDataContentType(), nil
}

func audioPartHeader(blob *domain.AudioBlob) textproto.MIMEHeader {
	mimeType := blob.MIMEType
	if mimeType == "" {
		mimeType = domain.MIMETypeWebM
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio"; filename="%s"`, blob.Filename()))
	h.Set("Content-Type", mimeType)
	return h
}

func snippet(b []byte) string {
	const max = 200
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
