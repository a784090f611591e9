package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// maxDocumentBytes caps remote annotation documents.
const maxDocumentBytes = 4 << 20

const acceptYAML = "application/yaml, application/x-yaml;q=0.9, application/json;q=0.8, */*;q=0.1"

func readFile(_ context.Context, path string) ([]byte, error) {
	if path == "" {
		return nil, errors.New("file path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(abs)
}

func fsReader(files fs.FS) fetcher {
	return func(_ context.Context, name string) ([]byte, error) {
		if files == nil {
			return nil, errors.New("filesystem is not configured")
		}
		if name == "" {
			return nil, errors.New("fs path is required")
		}
		return fs.ReadFile(files, name)
	}
}

func httpReader(client *http.Client, timeout time.Duration) fetcher {
	return func(ctx context.Context, url string) ([]byte, error) {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", acceptYAML)

		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("unexpected status %s", resp.Status)
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes+1))
		if err != nil {
			return nil, err
		}
		if len(data) > maxDocumentBytes {
			return nil, fmt.Errorf("document exceeds %d bytes", maxDocumentBytes)
		}
		return data, nil
	}
}
