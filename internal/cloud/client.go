/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Client talks to a Server.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a client. baseURL may include a trailing slash; it will
// be normalized. A zero timeout means 10s.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&e)
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("server %s %s: %w", method, u.Path, ErrNotFound)
		}
		if e.Error != "" {
			return nil, fmt.Errorf("server %s %s: %s: %s", method, u.Path, resp.Status, e.Error)
		}
		return nil, fmt.Errorf("server %s %s: %s", method, u.Path, resp.Status)
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, dest any) error {
	var (
		body io.Reader
		ct   string
	)
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body, ct = bytes.NewReader(b), "application/json"
	}
	resp, err := c.do(ctx, method, path, body, ct)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if dest == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// RequestToken asks the server for a token and stores it on the client.
func (c *Client) RequestToken(ctx context.Context, subject, email string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	in := map[string]any{"subject": subject, "email": email}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/token", in, &out); err != nil {
		return "", err
	}
	c.Token = out.Token
	return out.Token, nil
}

// ListDrawings returns the caller's uploads.
func (c *Client) ListDrawings(ctx context.Context) ([]Drawing, error) {
	var list []Drawing
	if err := c.doJSON(ctx, http.MethodGet, "/api/drawings", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// UploadDrawing posts the PNG at filePath. The server takes the user from
// the token, so userID is only used by *Store.
func (c *Client) UploadDrawing(ctx context.Context, _ string, title, filePath string) (Drawing, error) {
	img, err := os.ReadFile(filePath)
	if err != nil {
		return Drawing{}, fmt.Errorf("read %s: %w", filePath, err)
	}
	resp, err := c.do(ctx, http.MethodPost, "/api/drawings?title="+url.QueryEscape(title), bytes.NewReader(img), "image/png")
	if err != nil {
		return Drawing{}, err
	}
	defer resp.Body.Close()
	var d Drawing
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		return Drawing{}, fmt.Errorf("decode upload: %w", err)
	}
	return d, nil
}

// FetchImage downloads the PNG for a drawing id.
func (c *Client) FetchImage(ctx context.Context, id string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/drawings/"+url.PathEscape(id)+"/image", nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// FetchURL downloads the image behind an ImageURL as returned by the
// server, e.g. on a Share. The host part is ignored and the request goes to
// BaseURL with the client's token.
func (c *Client) FetchURL(ctx context.Context, imageURL string) ([]byte, error) {
	u, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("image url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	n := len(parts)
	if n < 4 || parts[n-4] != "api" || parts[n-3] != "drawings" || parts[n-1] != "image" || parts[n-2] == "" {
		return nil, fmt.Errorf("image url %q: not a drawing image", imageURL)
	}
	return c.FetchImage(ctx, parts[n-2])
}

// SharedWith lists shares addressed to email; empty means the token's own address.
func (c *Client) SharedWith(ctx context.Context, email string) ([]Share, error) {
	path := "/api/shared"
	if email != "" {
		path += "?email=" + url.QueryEscape(email)
	}
	var list []Share
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Share shares an uploaded image with receiverEmail.
func (c *Client) Share(ctx context.Context, receiverEmail, imageURL, title string) (Share, error) {
	in := map[string]string{"receiver_email": receiverEmail, "image_url": imageURL, "title": title}
	var sh Share
	if err := c.doJSON(ctx, http.MethodPost, "/api/shared", in, &sh); err != nil {
		return Share{}, err
	}
	return sh, nil
}

// Unshare revokes every share of imageURL made by the caller.
func (c *Client) Unshare(ctx context.Context, imageURL string) (int64, error) {
	var out struct {
		Removed int64 `json:"removed"`
	}
	if err := c.doJSON(ctx, http.MethodDelete, "/api/shared?image_url="+url.QueryEscape(imageURL), nil, &out); err != nil {
		return 0, err
	}
	return out.Removed, nil
}
