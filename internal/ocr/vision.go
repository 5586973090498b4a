package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"document-analyzer/internal/domain"
)

const visionEndpoint = "https://vision.googleapis.com/v1/images:annotate"

// VisionEngine recognizes text in images through the Cloud Vision
// annotate API, authenticated with application default credentials.
type VisionEngine struct {
	tokenSource oauth2.TokenSource
	client      *http.Client
	logger      domain.Logger
}

// NewVisionEngine creates a Vision OCR engine. It fails when no default
// credentials are available, which callers treat as OCR being
// unconfigured rather than a startup error.
func NewVisionEngine(ctx context.Context, logger domain.Logger) (*VisionEngine, error) {
	creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return nil, fmt.Errorf("finding default credentials: %w", err)
	}
	return &VisionEngine{
		tokenSource: creds.TokenSource,
		client:      &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
	}, nil
}

type annotateImage struct {
	Content string `json:"content"`
}

type annotateFeature struct {
	Type string `json:"type"`
}

type annotateEntry struct {
	Image    annotateImage     `json:"image"`
	Features []annotateFeature `json:"features"`
}

type annotateRequest struct {
	Requests []annotateEntry `json:"requests"`
}

type annotateResponse struct {
	Responses []struct {
		FullTextAnnotation struct {
			Text  string `json:"text"`
			Pages []struct {
				Confidence float64 `json:"confidence"`
			} `json:"pages"`
		} `json:"fullTextAnnotation"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

// Recognize runs document text detection on one image and returns the
// recognized text with the page-level confidence reported by the API.
func (e *VisionEngine) Recognize(ctx context.Context, image []byte) (string, float64, error) {
	payload, err := json.Marshal(annotateRequest{
		Requests: []annotateEntry{{
			Image:    annotateImage{Content: base64.StdEncoding.EncodeToString(image)},
			Features: []annotateFeature{{Type: "DOCUMENT_TEXT_DETECTION"}},
		}},
	})
	if err != nil {
		return "", 0, fmt.Errorf("encoding annotate request: %w", err)
	}

	token, err := e.tokenSource.Token()
	if err != nil {
		return "", 0, fmt.Errorf("fetching access token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, visionEndpoint, bytes.NewReader(payload))
	if err != nil {
		return "", 0, fmt.Errorf("building annotate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	token.SetAuthHeader(req)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("calling vision api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("reading vision response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("vision api status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var parsed annotateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", 0, fmt.Errorf("decoding vision response: %w", err)
	}
	if len(parsed.Responses) == 0 {
		return "", 0, fmt.Errorf("vision api returned no responses")
	}
	if apiErr := parsed.Responses[0].Error; apiErr != nil {
		return "", 0, fmt.Errorf("vision api error %d: %s", apiErr.Code, apiErr.Message)
	}

	annotation := parsed.Responses[0].FullTextAnnotation
	confidence := 0.0
	if len(annotation.Pages) > 0 {
		for _, p := range annotation.Pages {
			confidence += p.Confidence
		}
		confidence /= float64(len(annotation.Pages))
	} else if annotation.Text != "" {
		// Older responses omit page confidence; trust non-empty text.
		confidence = 1.0
	}

	return annotation.Text, confidence, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
