package imagestore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Image is a reference to a file held by the external image host.
type Image struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

// Store is the contract the product handlers use; Client talks to the real
// host, tests plug in a stub.
type Store interface {
	Upload(ctx context.Context, file io.Reader, folder string) (*Image, error)
	Destroy(ctx context.Context, publicID string) error
}

type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Upload(ctx context.Context, file io.Reader, folder string) (*Image, error) {
	publicID := folder + "/" + uuid.NewString()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		defer pw.Close()
		if err := mw.WriteField("public_id", publicID); err != nil {
			pw.CloseWithError(err)
			return
		}
		part, err := mw.CreateFormFile("file", publicID)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/upload", pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("imagestore: upload failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, fmt.Errorf("imagestore: upload: %s: %s", res.Status, body)
	}

	var img Image
	if err := json.NewDecoder(res.Body).Decode(&img); err != nil {
		return nil, fmt.Errorf("imagestore: decode response: %w", err)
	}
	return &img, nil
}

func (c *Client) Destroy(ctx context.Context, publicID string) error {
	endpoint := c.BaseURL + "/images/" + url.PathEscape(publicID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	res, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("imagestore: destroy failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusNoContent && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("imagestore: destroy: %s", res.Status)
	}
	return nil
}
