package documents

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SupabaseStore talks to the Supabase storage HTTP API for one bucket.
type SupabaseStore struct {
	BaseURL   string
	SecretKey string // service_role key
	Bucket    string
	Client    *http.Client
}

func (s *SupabaseStore) objectURL(path string) (string, error) {
	if s.BaseURL == "" {
		return "", fmt.Errorf("supabase: SUPABASE_URL is not set")
	}
	if s.SecretKey == "" {
		return "", fmt.Errorf("supabase: SUPABASE_SECRET_KEY is not set")
	}
	base := strings.TrimRight(s.BaseURL, "/")
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", base, s.Bucket, strings.TrimLeft(path, "/")), nil
}

func (s *SupabaseStore) do(ctx context.Context, method, path string, body []byte, contentType string) ([]byte, error) {
	if s.Client == nil {
		s.Client = &http.Client{Timeout: 30 * time.Second}
	}
	url, err := s.objectURL(path)
	if err != nil {
		return nil, err
	}
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return nil, err
	}
	// Same headers as @supabase/supabase-js: apikey plus bearer with the same key.
	req.Header.Set("apikey", s.SecretKey)
	req.Header.Set("Authorization", "Bearer "+s.SecretKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if method == http.MethodPost {
		req.Header.Set("x-upsert", "false")
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyStr := string(respBody)
		// Storage answers 400 with a not_found body for missing objects.
		if resp.StatusCode == http.StatusBadRequest && strings.Contains(bodyStr, "not_found") {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("supabase error: status %d body: %s", resp.StatusCode, bodyStr)
	}
	return respBody, nil
}

func (s *SupabaseStore) Put(ctx context.Context, path string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.do(ctx, http.MethodPost, path, data, contentType)
	return err
}

func (s *SupabaseStore) Get(ctx context.Context, path string) ([]byte, error) {
	return s.do(ctx, http.MethodGet, path, nil, "")
}

func (s *SupabaseStore) Delete(ctx context.Context, path string) error {
	_, err := s.do(ctx, http.MethodDelete, path, nil, "")
	if err == ErrNotFound {
		return nil
	}
	return err
}
