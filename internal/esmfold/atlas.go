package esmfold

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultAtlasURL is the public ESM Atlas fold endpoint.
	DefaultAtlasURL = "https://api.esmatlas.com/foldSequence/v1/"

	defaultRecycles = 4
	atlasConfidence = 0.80
)

// AtlasClient calls the ESM Atlas API. The per-call deadline comes from the
// caller's context; the embedded http.Client timeout is only a hard upper
// bound against a hung transport.
type AtlasClient struct {
	baseURL  string
	recycles int
	http     *http.Client
}

type AtlasOption func(*AtlasClient)

func WithAtlasURL(raw string) AtlasOption {
	return func(c *AtlasClient) { c.baseURL = strings.TrimSpace(raw) }
}

func WithRecycles(n int) AtlasOption {
	return func(c *AtlasClient) {
		if n > 0 {
			c.recycles = n
		}
	}
}

func WithHTTPClient(h *http.Client) AtlasOption {
	return func(c *AtlasClient) { c.http = h }
}

func NewAtlasClient(opts ...AtlasOption) *AtlasClient {
	c := &AtlasClient{
		baseURL:  DefaultAtlasURL,
		recycles: defaultRecycles,
		http:     &http.Client{Timeout: 310 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type atlasResponse struct {
	PDB string `json:"pdb"`
}

// Fold submits the sequence and returns the predicted structure.
func (c *AtlasClient) Fold(ctx context.Context, sequence string) (Prediction, error) {
	form := url.Values{}
	form.Set("sequence", sequence)
	form.Set("num_recycles", strconv.Itoa(c.recycles))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Prediction{}, fmt.Errorf("build fold request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return Prediction{}, fmt.Errorf("call fold api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return Prediction{}, fmt.Errorf("read fold response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		detail := strings.TrimSpace(string(body))
		if len(detail) > 200 {
			detail = detail[:200]
		}
		return Prediction{}, fmt.Errorf("fold api returned status %d: %s", resp.StatusCode, detail)
	}

	var decoded atlasResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		// The endpoint sometimes answers with the raw PDB text instead of
		// the JSON envelope.
		if looksLikePDB(string(body)) {
			return Prediction{PDB: string(body), Method: MethodAtlas, Confidence: atlasConfidence}, nil
		}
		return Prediction{}, fmt.Errorf("decode fold response: %w", err)
	}
	if strings.TrimSpace(decoded.PDB) == "" {
		return Prediction{}, fmt.Errorf("fold response carries no structure")
	}
	return Prediction{PDB: decoded.PDB, Method: MethodAtlas, Confidence: atlasConfidence}, nil
}

func looksLikePDB(body string) bool {
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "ATOM") || strings.HasPrefix(line, "HEADER") {
			return true
		}
	}
	return false
}
