package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/equityflow-dev/equityflow/internal/model"
)

// Remote is a Ledger that talks to an equityflow service over HTTP.
// Typed store errors survive the round trip: the service encodes wire
// reason codes and Remote rebuilds the matching error values, so
// callers cannot tell a remote ledger from a local one.
type Remote struct {
	base   string
	client *http.Client
}

// OpenRemote returns a client for the service at baseURL.
func OpenRemote(baseURL string) *Remote {
	return &Remote{
		base:   strings.TrimRight(baseURL, "/"),
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// BatchReceipt is the wire form of a BatchResult.
type BatchReceipt struct {
	Committed []string       `json:"committed"`
	Failed    []BatchFailure `json:"failed,omitempty"`
}

// BatchFailure is one rejected batch item on the wire.
type BatchFailure struct {
	Index  int    `json:"index"`
	TxID   string `json:"tx_id,omitempty"`
	Reason string `json:"reason"`
	Error  string `json:"error,omitempty"`
}

// Receipt converts a result to its wire form.
func (r BatchResult) Receipt() BatchReceipt {
	receipt := BatchReceipt{Committed: r.Committed}
	for _, f := range r.Failed {
		receipt.Failed = append(receipt.Failed, BatchFailure{
			Index:  f.Index,
			TxID:   f.TxID,
			Reason: f.Reason(),
			Error:  f.Err.Error(),
		})
	}
	return receipt
}

// Result rebuilds the typed result from its wire form.
func (r BatchReceipt) Result() BatchResult {
	result := BatchResult{Committed: r.Committed}
	for _, f := range r.Failed {
		result.Failed = append(result.Failed, ItemError{
			Index: f.Index,
			TxID:  f.TxID,
			Err:   FromReason(f.Reason, f.TxID, f.Error),
		})
	}
	return result
}

type wireError struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func (r *Remote) ListTransactions(ctx context.Context, f Filter) ([]model.Transaction, error) {
	path := "/v1/transactions"
	if f.ProjectID != "" {
		path += "?project_id=" + url.QueryEscape(f.ProjectID)
	}
	var txns []model.Transaction
	if err := r.get(ctx, path, &txns); err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *Remote) ListAccounts(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	if err := r.get(ctx, "/v1/accounts", &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *Remote) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := r.get(ctx, "/v1/categories", &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *Remote) ListProjects(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	if err := r.get(ctx, "/v1/projects", &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *Remote) CreateAccount(ctx context.Context, a model.Account) (model.Account, error) {
	var created model.Account
	if _, err := r.post(ctx, "/v1/accounts", a, &created, http.StatusCreated); err != nil {
		return model.Account{}, err
	}
	return created, nil
}

// CreateCategory seeds reference data; not part of the Ledger
// interface.
func (r *Remote) CreateCategory(ctx context.Context, c model.Category) (model.Category, error) {
	var created model.Category
	if _, err := r.post(ctx, "/v1/categories", c, &created, http.StatusCreated); err != nil {
		return model.Category{}, err
	}
	return created, nil
}

func (r *Remote) CreateProject(ctx context.Context, p model.Project) (model.Project, error) {
	var created model.Project
	if _, err := r.post(ctx, "/v1/projects", p, &created, http.StatusCreated); err != nil {
		return model.Project{}, err
	}
	return created, nil
}

// SubmitBatch posts the batch and maps the service's receipt back to a
// BatchResult. A 200 is full success, a 207 is partial, a 422 means
// nothing was committed.
func (r *Remote) SubmitBatch(ctx context.Context, txns []model.Transaction) (BatchResult, error) {
	var receipt BatchReceipt
	status, err := r.post(ctx, "/v1/batches", txns, &receipt,
		http.StatusOK, http.StatusMultiStatus, http.StatusUnprocessableEntity)
	if err != nil {
		return BatchResult{}, err
	}
	result := receipt.Result()
	if status == http.StatusOK {
		return result, nil
	}
	return result, result.Err()
}

// Ping checks that the service is reachable.
func (r *Remote) Ping(ctx context.Context) error {
	var status struct {
		Status string `json:"status"`
	}
	return r.get(ctx, "/v1/healthz", &status)
}

func (r *Remote) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return &UnavailableError{Ref: r.base, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return r.asError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// post sends in as JSON and decodes the body into out when the status
// is one of accept. Other statuses become typed errors. The status is
// returned so callers can branch on which accepted code arrived.
func (r *Remote) post(ctx context.Context, path string, in, out any, accept ...int) (int, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.base+path, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, &UnavailableError{Ref: r.base, Err: err}
	}
	defer resp.Body.Close()

	for _, code := range accept {
		if resp.StatusCode != code {
			continue
		}
		if out == nil {
			return resp.StatusCode, nil
		}
		return resp.StatusCode, json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode, r.asError(resp)
}

func (r *Remote) asError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var we wireError
	if err := json.Unmarshal(raw, &we); err == nil && we.Error != "" {
		if resp.StatusCode == http.StatusServiceUnavailable || we.Reason == ReasonUnavailable {
			return &UnavailableError{Ref: r.base, Err: errors.New(we.Error)}
		}
		return FromReason(we.Reason, "", we.Error)
	}
	return fmt.Errorf("%s: unexpected status %s", r.base, resp.Status)
}
