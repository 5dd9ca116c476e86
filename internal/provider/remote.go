package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"estimator/internal/features"
)

// RemoteClient queries a separate inference service that hosts the model.
type RemoteClient struct {
	baseURL    string
	httpClient *http.Client
	columns    []string
	info       ModelInfo
}

// SchemaResponse is returned by GET {base}/schema.
type SchemaResponse struct {
	Name         string   `json:"name"`
	Kind         string   `json:"kind,omitempty"`
	FeatureNames []string `json:"feature_names,omitempty"`
	Metrics      Metrics  `json:"metrics"`
	TrainedOn    int      `json:"trained_on,omitempty"`
	Updated      string   `json:"updated,omitempty"`
}

// PredictRequest is sent to POST {base}/predict.
type PredictRequest struct {
	Columns []string    `json:"columns"`
	Rows    [][]float64 `json:"rows"`
}

// PredictResponse is returned by POST {base}/predict.
type PredictResponse struct {
	Predictions []float64 `json:"predictions"`
}

// NewRemoteClient connects to the inference service and reads its schema.
func NewRemoteClient(ctx context.Context, baseURL string, timeout time.Duration) (*RemoteClient, error) {
	c := &RemoteClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}

	var schema SchemaResponse
	if err := c.do(ctx, http.MethodGet, "/schema", nil, &schema); err != nil {
		return nil, unavailable("load schema", err)
	}

	c.columns = schema.FeatureNames
	kind := schema.Kind
	if kind == "" {
		kind = "remote"
	}
	c.info = ModelInfo{
		Name:      schema.Name,
		Kind:      kind,
		Source:    c.baseURL,
		Columns:   len(schema.FeatureNames),
		Metrics:   schema.Metrics,
		TrainedOn: schema.TrainedOn,
		Updated:   schema.Updated,
	}
	return c, nil
}

// Predict sends one row to the inference service.
func (c *RemoteClient) Predict(ctx context.Context, in features.Record) (float64, error) {
	req := PredictRequest{
		Columns: in.Names(),
		Rows:    [][]float64{in.Values()},
	}

	var resp PredictResponse
	if err := c.do(ctx, http.MethodPost, "/predict", req, &resp); err != nil {
		return 0, unavailable("predict", err)
	}
	if len(resp.Predictions) != 1 {
		return 0, unavailable("predict", eris.Errorf("expected 1 prediction, got %d", len(resp.Predictions)))
	}
	return resp.Predictions[0], nil
}

// ExpectedColumns returns the columns published by the service.
func (c *RemoteClient) ExpectedColumns() []string {
	if c.columns == nil {
		return nil
	}
	cols := make([]string, len(c.columns))
	copy(cols, c.columns)
	return cols
}

// Info describes the remote model.
func (c *RemoteClient) Info() ModelInfo {
	return c.info
}

func (c *RemoteClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		reqBody, err := json.Marshal(body)
		if err != nil {
			return eris.Wrap(err, "failed to marshal request")
		}
		reader = bytes.NewReader(reqBody)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return eris.Wrap(err, "failed to create request")
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return eris.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "failed to read response")
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s failed with status %d: %s", method, path, resp.StatusCode, truncate(string(respBody), 200))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrap(err, "failed to unmarshal response")
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

var _ Provider = (*RemoteClient)(nil)
