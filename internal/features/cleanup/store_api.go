package cleanup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// StoreApiClient notifies the head-office API that this branch or POS
// machine has been uninstalled, so the deployment can be re-registered
// later.
type StoreApiClient struct {
	httpClient *http.Client
	logger     *slog.Logger
}

func NewStoreApiClient(logger *slog.Logger) *StoreApiClient {
	return &StoreApiClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// UninstallPos marks one POS machine of a branch as uninstalled.
func (c *StoreApiClient) UninstallPos(
	ctx context.Context,
	baseUrl string,
	branchCode string,
	posNumber string,
) error {
	return c.put(ctx, baseUrl, "api/PosMachine/UnInstalledPos", map[string]string{
		"branchCode": branchCode,
		"posNumber":  posNumber,
	})
}

// UninstallBranch marks the whole branch as uninstalled.
func (c *StoreApiClient) UninstallBranch(
	ctx context.Context,
	baseUrl string,
	branchCode string,
) error {
	return c.put(ctx, baseUrl, "api/Branch/UnInstalledBranch", map[string]string{
		"branchCode": branchCode,
	})
}

// IsBranchInstalled asks the head office whether the branch still counts
// as installed, used to verify the uninstall went through.
func (c *StoreApiClient) IsBranchInstalled(
	ctx context.Context,
	baseUrl string,
	branchCode string,
) (bool, error) {
	endpoint, err := joinUrl(baseUrl, "api/Branch/GetInstallBranch")
	if err != nil {
		return false, err
	}
	endpoint += "?branchCode=" + url.QueryEscape(branchCode)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return false, fmt.Errorf("store API request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return false, fmt.Errorf("store API returned status %d", response.StatusCode)
	}

	var installed bool
	if err := json.NewDecoder(response.Body).Decode(&installed); err != nil {
		return false, fmt.Errorf("store API returned an unexpected payload: %w", err)
	}
	return installed, nil
}

func (c *StoreApiClient) put(
	ctx context.Context,
	baseUrl string,
	path string,
	payload map[string]string,
) error {
	endpoint, err := joinUrl(baseUrl, path)
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	request, err := http.NewRequestWithContext(
		ctx, http.MethodPut, endpoint, bytes.NewReader(body),
	)
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("store API request failed: %w", err)
	}
	defer response.Body.Close()
	io.Copy(io.Discard, response.Body)

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("store API returned status %d for %s", response.StatusCode, path)
	}

	c.logger.Info("Store API call succeeded", "path", path)
	return nil
}

func joinUrl(baseUrl, path string) (string, error) {
	parsed, err := url.Parse(baseUrl)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("invalid store API base URL %q", baseUrl)
	}

	return strings.TrimRight(parsed.String(), "/") + "/" + strings.TrimLeft(path, "/"), nil
}
