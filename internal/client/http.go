package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/alfredjeanlab/quorum/internal/model"
)

// HTTPClient implements QuorumClient using the quorum HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Proposals ---

func (c *HTTPClient) CreateProposal(ctx context.Context, req *CreateProposalRequest) (*model.Proposal, error) {
	var p model.Proposal
	if err := c.doJSON(ctx, http.MethodPost, "/v1/proposals", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) GetProposal(ctx context.Context, id string) (*model.Proposal, error) {
	var p model.Proposal
	if err := c.doJSON(ctx, http.MethodGet, "/v1/proposals/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) ListProposals(ctx context.Context, req *ListProposalsRequest) (*ListProposalsResponse, error) {
	q := url.Values{}
	if len(req.Status) > 0 {
		q.Set("status", strings.Join(req.Status, ","))
	}
	if req.CircleID != "" {
		q.Set("circle_id", req.CircleID)
	}
	if req.StencilID != "" {
		q.Set("stencil_id", req.StencilID)
	}
	if req.SubmittedBy != "" {
		q.Set("submitted_by", req.SubmittedBy)
	}
	if req.Sort != "" {
		q.Set("sort", req.Sort)
	}
	if req.Limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", req.Limit))
	}
	if req.Offset > 0 {
		q.Set("offset", fmt.Sprintf("%d", req.Offset))
	}

	path := "/v1/proposals"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp ListProposalsResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) ApproveProposal(ctx context.Context, id string, req *DecisionRequest) (*model.Proposal, error) {
	var p model.Proposal
	if err := c.doJSON(ctx, http.MethodPost, "/v1/proposals/"+url.PathEscape(id)+"/approve", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) VetoProposal(ctx context.Context, id string, req *DecisionRequest) (*model.Proposal, error) {
	var p model.Proposal
	if err := c.doJSON(ctx, http.MethodPost, "/v1/proposals/"+url.PathEscape(id)+"/veto", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// --- Audit trail ---

func (c *HTTPClient) ListAuditEvents(ctx context.Context, proposalID string) ([]*model.AuditEvent, error) {
	var resp struct {
		Events []*model.AuditEvent `json:"events"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/proposals/"+url.PathEscape(proposalID)+"/audit", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// --- Variance ---

func (c *HTTPClient) CreateBudget(ctx context.Context, proposalID string, req *CreateBudgetRequest) (*model.VarianceRecord, error) {
	var v model.VarianceRecord
	if err := c.doJSON(ctx, http.MethodPost, "/v1/proposals/"+url.PathEscape(proposalID)+"/variance", req, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *HTTPClient) UpdateVariance(ctx context.Context, proposalID string, req *UpdateVarianceRequest) (*model.VarianceRecord, error) {
	var v model.VarianceRecord
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/proposals/"+url.PathEscape(proposalID)+"/variance", req, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *HTTPClient) GetVarianceData(ctx context.Context, proposalID string) (*model.VarianceSnapshot, error) {
	var snap model.VarianceSnapshot
	if err := c.doJSON(ctx, http.MethodGet, "/v1/proposals/"+url.PathEscape(proposalID)+"/variance", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// --- Milestones ---

func (c *HTTPClient) CreateMilestone(ctx context.Context, proposalID string, req *CreateMilestoneRequest) (*model.Milestone, error) {
	var m model.Milestone
	if err := c.doJSON(ctx, http.MethodPost, "/v1/proposals/"+url.PathEscape(proposalID)+"/milestones", req, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *HTTPClient) UpdateMilestone(ctx context.Context, milestoneID string, req *UpdateMilestoneRequest) (*model.Milestone, error) {
	var m model.Milestone
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/milestones/"+url.PathEscape(milestoneID), req, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with a JSON body and decodes the JSON
// response into result (when non-nil). Error responses become *APIError.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	// 204 No Content — success with no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

var _ QuorumClient = (*HTTPClient)(nil)
