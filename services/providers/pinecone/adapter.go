package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/collectedworks/backend/internal/rag"
	"github.com/collectedworks/backend/services/providers"
)

const (
	defaultEmbedURL   = "https://api.pinecone.io/embed"
	defaultEmbedModel = "multilingual-e5-large"
	apiVersion        = "2024-10"

	// Input role markers for the asymmetric embedding model. The model is
	// trained with distinct prefixes for queries and stored passages;
	// swapping them degrades match quality without a visible error, so the
	// two paths never share an entry point.
	inputTypeQuery   = "query"
	inputTypePassage = "passage"
)

// Config holds the Pinecone adapter configuration
type Config struct {
	APIKey     string
	IndexHost  string
	EmbedURL   string
	EmbedModel string
	Dimension  int
	Namespace  string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// Adapter implements embedding, vector search and upsert against a hosted
// Pinecone index and its inference endpoint
type Adapter struct {
	config     Config
	httpClient *http.Client
}

// NewAdapter creates a new Pinecone adapter
func NewAdapter(config Config) *Adapter {
	if config.EmbedURL == "" {
		config.EmbedURL = defaultEmbedURL
	}
	if config.EmbedModel == "" {
		config.EmbedModel = defaultEmbedModel
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 1 * time.Second
	}

	return &Adapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Name returns the provider name
func (a *Adapter) Name() string {
	return "pinecone"
}

// EmbedQuery embeds a user query string into a single dense vector
func (a *Adapter) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := a.embed(ctx, []string{text}, inputTypeQuery)
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, providers.NewProviderError(a.Name(), "EMBED_COUNT", fmt.Sprintf("expected 1 embedding, got %d", len(vectors)), 0, false, nil)
	}
	return vectors[0], nil
}

// EmbedPassages embeds stored-passage texts in a single batch. Used by the
// ingestion pipeline only; never for queries.
func (a *Adapter) EmbedPassages(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := a.embed(ctx, texts, inputTypePassage)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, providers.NewProviderError(a.Name(), "EMBED_COUNT", fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(vectors)), 0, false, nil)
	}
	return vectors, nil
}

// Search queries the index for the topK nearest stored chunks. Results come
// back ordered by descending similarity; an empty match set is valid.
// Metadata is validated here, once, at the boundary: matches without text
// are dropped, a missing work title defaults to rag.UnknownWorkTitle.
func (a *Adapter) Search(ctx context.Context, vector []float32, topK int) ([]rag.SearchResult, error) {
	reqBody := queryRequest{
		Vector:          vector,
		TopK:            topK,
		IncludeMetadata: true,
		Namespace:       a.config.Namespace,
	}

	respBody, err := a.doJSON(ctx, http.MethodPost, a.config.IndexHost+"/query", reqBody)
	if err != nil {
		return nil, err
	}

	var queryResp queryResponse
	if err := json.Unmarshal(respBody, &queryResp); err != nil {
		return nil, providers.NewProviderError(a.Name(), "UNMARSHAL_ERROR", "Failed to unmarshal query response", 0, false, err)
	}

	results := make([]rag.SearchResult, 0, len(queryResp.Matches))
	for _, m := range queryResp.Matches {
		if m.Metadata.Text == "" {
			continue
		}
		title := m.Metadata.WorkTitle
		if title == "" {
			title = rag.UnknownWorkTitle
		}
		results = append(results, rag.SearchResult{
			Text:      m.Metadata.Text,
			WorkTitle: title,
			Chapter:   m.Metadata.Chapter,
			Concepts:  m.Metadata.Concepts,
			Score:     m.Score,
		})
	}

	return results, nil
}

// Upsert writes one batch of vectors with metadata into the index
func (a *Adapter) Upsert(ctx context.Context, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}

	reqBody := upsertRequest{
		Vectors:   vectors,
		Namespace: a.config.Namespace,
	}

	respBody, err := a.doJSON(ctx, http.MethodPost, a.config.IndexHost+"/vectors/upsert", reqBody)
	if err != nil {
		return err
	}

	var upsertResp upsertResponse
	if err := json.Unmarshal(respBody, &upsertResp); err != nil {
		return providers.NewProviderError(a.Name(), "UNMARSHAL_ERROR", "Failed to unmarshal upsert response", 0, false, err)
	}
	if upsertResp.UpsertedCount != len(vectors) {
		return providers.NewProviderError(a.Name(), "UPSERT_COUNT", fmt.Sprintf("upserted %d of %d vectors", upsertResp.UpsertedCount, len(vectors)), 0, false, nil)
	}
	return nil
}

// IsAvailable checks if the index is reachable
func (a *Adapter) IsAvailable(ctx context.Context) bool {
	_, err := a.doJSON(ctx, http.MethodPost, a.config.IndexHost+"/describe_index_stats", struct{}{})
	return err == nil
}

// embed calls the inference endpoint with the given role marker
func (a *Adapter) embed(ctx context.Context, texts []string, inputType string) ([][]float32, error) {
	inputs := make([]embedInput, len(texts))
	for i, t := range texts {
		inputs[i] = embedInput{Text: t}
	}

	reqBody := embedRequest{
		Model:  a.config.EmbedModel,
		Inputs: inputs,
		Parameters: embedParameters{
			InputType: inputType,
			Truncate:  "END",
		},
	}

	respBody, err := a.doJSON(ctx, http.MethodPost, a.config.EmbedURL, reqBody)
	if err != nil {
		return nil, err
	}

	var embedResp embedResponse
	if err := json.Unmarshal(respBody, &embedResp); err != nil {
		return nil, providers.NewProviderError(a.Name(), "UNMARSHAL_ERROR", "Failed to unmarshal embed response", 0, false, err)
	}

	vectors := make([][]float32, len(embedResp.Data))
	for i, d := range embedResp.Data {
		if a.config.Dimension > 0 && len(d.Values) != a.config.Dimension {
			return nil, providers.NewProviderError(a.Name(), "DIMENSION_MISMATCH", fmt.Sprintf("embedding dimension %d, want %d", len(d.Values), a.config.Dimension), 0, false, nil)
		}
		vectors[i] = d.Values
	}
	return vectors, nil
}

// doJSON executes one JSON request with the adapter's retry loop.
// 5xx and 429 responses are retried with a delay growing per attempt.
func (a *Adapter) doJSON(ctx context.Context, method, url string, body interface{}) ([]byte, error) {
	reqBytes, err := json.Marshal(body)
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "MARSHAL_ERROR", "Failed to marshal request", 0, false, err)
	}

	var httpResp *http.Response
	var lastErr error

	for attempt := 0; attempt <= a.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := a.config.RetryDelay * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, providers.NewProviderError(a.Name(), "CANCELLED", "Request cancelled", 0, false, ctx.Err())
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(reqBytes))
		if err != nil {
			return nil, providers.NewProviderError(a.Name(), "REQUEST_ERROR", "Failed to create request", 0, false, err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Api-Key", a.config.APIKey)
		httpReq.Header.Set("X-Pinecone-API-Version", apiVersion)

		httpResp, lastErr = a.httpClient.Do(httpReq)
		if lastErr == nil && httpResp.StatusCode < 500 && httpResp.StatusCode != http.StatusTooManyRequests {
			break
		}

		// Keep the final response so its status reaches the caller.
		if httpResp != nil && attempt < a.config.MaxRetries {
			httpResp.Body.Close()
			httpResp = nil
		}
	}

	if lastErr != nil {
		return nil, providers.NewProviderError(a.Name(), "HTTP_ERROR", "HTTP request failed", 0, true, lastErr)
	}
	if httpResp == nil {
		return nil, providers.NewProviderError(a.Name(), "HTTP_ERROR", "Retries exhausted", 0, true, nil)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "READ_ERROR", "Failed to read response", httpResp.StatusCode, false, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, a.handleErrorResponse(httpResp.StatusCode, respBody)
	}

	return respBody, nil
}

// handleErrorResponse maps Pinecone error bodies to provider errors
func (a *Adapter) handleErrorResponse(statusCode int, body []byte) error {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return providers.NewProviderError(a.Name(), "UNKNOWN_ERROR", string(body), statusCode, statusCode >= 500, nil)
	}

	retryable := statusCode >= 500 || statusCode == http.StatusTooManyRequests

	return providers.NewProviderError(
		a.Name(),
		errResp.Error.Code,
		errResp.Error.Message,
		statusCode,
		retryable,
		nil,
	)
}

// Wire types

// ChunkMetadata is the metadata stored alongside each vector. Text and
// WorkTitle are required by the ingestion contract; the rest is optional.
type ChunkMetadata struct {
	Text        string   `json:"text"`
	SourceFile  string   `json:"source_file,omitempty"`
	WorkTitle   string   `json:"work_title"`
	Chapter     string   `json:"chapter,omitempty"`
	ChunkIndex  int      `json:"chunk_index"`
	TotalChunks int      `json:"total_chunks"`
	Concepts    []string `json:"concepts,omitempty"`
}

// Vector is one stored item: id, values and metadata
type Vector struct {
	ID       string        `json:"id"`
	Values   []float32     `json:"values"`
	Metadata ChunkMetadata `json:"metadata"`
}

type embedInput struct {
	Text string `json:"text"`
}

type embedParameters struct {
	InputType string `json:"input_type"`
	Truncate  string `json:"truncate"`
}

type embedRequest struct {
	Model      string          `json:"model"`
	Inputs     []embedInput    `json:"inputs"`
	Parameters embedParameters `json:"parameters"`
}

type embedResponse struct {
	Data []struct {
		Values []float32 `json:"values"`
	} `json:"data"`
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
	Namespace       string    `json:"namespace,omitempty"`
}

type queryResponse struct {
	Matches []struct {
		ID       string        `json:"id"`
		Score    float64       `json:"score"`
		Metadata ChunkMetadata `json:"metadata"`
	} `json:"matches"`
}

type upsertRequest struct {
	Vectors   []Vector `json:"vectors"`
	Namespace string   `json:"namespace,omitempty"`
}

type upsertResponse struct {
	UpsertedCount int `json:"upsertedCount"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
