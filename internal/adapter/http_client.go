// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Maxim Karev

package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sethvargo/go-retry"

	"github.com/mkarev/go-ledger-sync/models"
)

// HTTPClientConfig configures the resty transport.
type HTTPClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

type httpRemoteAdapter struct {
	client *resty.Client

	mu    sync.RWMutex
	token string
}

// NewHTTPRemoteAdapter builds the resty-backed transport to the
// authoritative server.
func NewHTTPRemoteAdapter(cfg HTTPClientConfig) RemoteAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout)

	return &httpRemoteAdapter{client: cli}
}

func (h *httpRemoteAdapter) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

func (h *httpRemoteAdapter) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

type whoamiResponse struct {
	PrincipalID string `json:"principal_id"`
}

// Whoami resolves the current principal. The endpoint call is retried a few
// times because it runs at the head of every sync cycle, often right after a
// network change; if the server does not expose it, the principal is read
// from the token's subject claim instead.
func (h *httpRemoteAdapter) Whoami(ctx context.Context) (string, error) {
	var principal string

	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := h.authedRequest(ctx).Get("/api/auth/whoami")
		if err != nil {
			return retry.RetryableError(fmt.Errorf("whoami request: %w", err))
		}
		if err = mapHTTPError(resp); err != nil {
			if !IsTerminal(err) {
				return retry.RetryableError(err)
			}
			return err
		}

		var wr whoamiResponse
		if err = json.Unmarshal(resp.Body(), &wr); err != nil {
			return fmt.Errorf("decode whoami response: %w", err)
		}

		principal = wr.PrincipalID
		return nil
	})

	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) && remoteErr.Status == http.StatusNotFound {
		return parsePrincipalFromJWT(h.Token())
	}
	if err != nil {
		return "", err
	}
	if principal == "" {
		return parsePrincipalFromJWT(h.Token())
	}

	return principal, nil
}

func (h *httpRemoteAdapter) CreateEntity(ctx context.Context, entity string, entityID string, payload map[string]any) (models.RemoteRecord, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{"entity_id": entityID, "payload": payload}).
		Post("/api/" + entity + "/")
	if err != nil {
		return models.RemoteRecord{}, fmt.Errorf("create %s request: %w", entity, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.RemoteRecord{}, err
	}

	return decodeRemoteRecord(resp.Body())
}

func (h *httpRemoteAdapter) UpdateEntity(ctx context.Context, entity string, entityID string, payload map[string]any) (models.RemoteRecord, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{"payload": payload}).
		Put("/api/" + entity + "/" + entityID)
	if err != nil {
		return models.RemoteRecord{}, fmt.Errorf("update %s request: %w", entity, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.RemoteRecord{}, err
	}

	return decodeRemoteRecord(resp.Body())
}

func (h *httpRemoteAdapter) DeleteEntity(ctx context.Context, entity string, entityID string) error {
	resp, err := h.authedRequest(ctx).
		Delete("/api/" + entity + "/" + entityID)
	if err != nil {
		return fmt.Errorf("delete %s request: %w", entity, err)
	}

	// a record already gone remotely counts as a confirmed delete
	if resp.StatusCode() == http.StatusNotFound {
		return nil
	}

	return mapHTTPError(resp)
}

func (h *httpRemoteAdapter) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}

func decodeRemoteRecord(body []byte) (models.RemoteRecord, error) {
	if len(body) == 0 {
		return models.RemoteRecord{}, nil
	}

	var record models.RemoteRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return models.RemoteRecord{}, fmt.Errorf("decode remote record: %w", err)
	}
	return record, nil
}

func mapHTTPError(resp *resty.Response) error {
	status := resp.StatusCode()
	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		return nil
	}

	if status == http.StatusUnauthorized {
		return ErrUnauthorized
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		body = http.StatusText(status)
	}

	return &RemoteError{
		Status:   status,
		Msg:      body,
		Terminal: status >= http.StatusBadRequest && status < http.StatusInternalServerError,
	}
}

func parsePrincipalFromJWT(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrUnauthorized
	}

	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("token has no subject")
	}

	return sub, nil
}
