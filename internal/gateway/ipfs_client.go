package gateway

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"

	"pinbot/internal/providers"
	"pinbot/internal/structures"
)

type StorageClientInterface interface {
	// Pin asks the gateway to retain the content behind cid.
	Pin(ctx context.Context, cid string) error
	// Unpin removes the pin. A "not pinned" rejection counts as success
	// because the end state matches the intent.
	Unpin(ctx context.Context, cid string) error
	// Fetch resolves the content's display name and opens a byte stream.
	// The caller owns the stream and chooses where it lands on disk.
	Fetch(ctx context.Context, cid string) (io.ReadCloser, string, error)
	// ListPinned returns every CID currently pinned on the gateway.
	ListPinned(ctx context.Context) (map[string]struct{}, error)
	// Stat returns the cumulative size of the content in bytes.
	Stat(ctx context.Context, cid string) (int64, error)
	// Add uploads a local file to the gateway and returns its CID.
	Add(ctx context.Context, name string, r io.Reader) (string, error)
}

type StorageClient struct {
	baseURL    string
	httpClient *http.Client
	logger     providers.Logger
}

func NewStorageClient(conf *structures.Config, logger providers.Logger) StorageClientInterface {
	return &StorageClient{
		baseURL: strings.TrimRight(conf.Ipfs.ApiUrl, "/"),
		// No client-wide timeout: Fetch streams arbitrarily large content.
		// Cancellation comes from the request context.
		httpClient: &http.Client{},
		logger:     logger,
	}
}

func (c *StorageClient) post(ctx context.Context, path, cid string) (*http.Response, error) {
	endpoint := c.baseURL + path
	if cid != "" {
		endpoint += "?arg=" + url.QueryEscape(cid)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storage gateway unreachable: %w", err)
	}
	return resp, nil
}

func (c *StorageClient) Pin(ctx context.Context, cid string) error {
	resp, err := c.post(ctx, "/api/v0/pin/add", cid)
	if err != nil {
		return err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return readGatewayError(resp)
	}
	return nil
}

func (c *StorageClient) Unpin(ctx context.Context, cid string) error {
	resp, err := c.post(ctx, "/api/v0/pin/rm", cid)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusOK {
		drainAndClose(resp.Body)
		return nil
	}

	gwErr := readGatewayError(resp)
	_ = resp.Body.Close()
	if strings.Contains(strings.ToLower(gwErr.Reason), "not pinned") {
		return nil
	}
	return gwErr
}

func (c *StorageClient) Fetch(ctx context.Context, cid string) (io.ReadCloser, string, error) {
	name, err := c.resolveName(ctx, cid)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.post(ctx, "/api/v0/get", cid)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode != http.StatusOK {
		gwErr := readGatewayError(resp)
		_ = resp.Body.Close()
		return nil, "", gwErr
	}
	return resp.Body, name, nil
}

// resolveName asks /api/v0/ls for the content's link name. Content without
// links (a bare file) is named after its CID.
func (c *StorageClient) resolveName(ctx context.Context, cid string) (string, error) {
	resp, err := c.post(ctx, "/api/v0/ls", cid)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", readGatewayError(resp)
	}

	var listing struct {
		Objects []struct {
			Links []struct {
				Name string `json:"Name"`
			} `json:"Links"`
		} `json:"Objects"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return "", fmt.Errorf("malformed ls response for %s: %w", cid, err)
	}
	if len(listing.Objects) == 0 {
		return "", fmt.Errorf("no objects found for %s", cid)
	}
	if links := listing.Objects[0].Links; len(links) > 0 && links[0].Name != "" {
		return links[0].Name, nil
	}
	return cid, nil
}

func (c *StorageClient) ListPinned(ctx context.Context) (map[string]struct{}, error) {
	resp, err := c.post(ctx, "/api/v0/pin/ls", "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readGatewayError(resp)
	}

	var listing struct {
		Keys map[string]struct {
			Type string `json:"Type"`
		} `json:"Keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("malformed pin/ls response: %w", err)
	}

	pinned := make(map[string]struct{}, len(listing.Keys))
	for cid := range listing.Keys {
		pinned[cid] = struct{}{}
	}
	return pinned, nil
}

func (c *StorageClient) Stat(ctx context.Context, cid string) (int64, error) {
	resp, err := c.post(ctx, "/api/v0/object/stat", cid)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, readGatewayError(resp)
	}

	var stat struct {
		CumulativeSize int64 `json:"CumulativeSize"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stat); err != nil {
		return 0, fmt.Errorf("malformed object/stat response for %s: %w", cid, err)
	}
	return stat.CumulativeSize, nil
}

func (c *StorageClient) Add(ctx context.Context, name string, r io.Reader) (string, error) {
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		part, err := form.CreateFormFile("file", name)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(form.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v0/add", pr)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("storage gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", readGatewayError(resp)
	}

	var added struct {
		Hash string `json:"Hash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&added); err != nil {
		return "", fmt.Errorf("malformed add response: %w", err)
	}
	if added.Hash == "" {
		return "", fmt.Errorf("add response missing hash")
	}
	return added.Hash, nil
}
