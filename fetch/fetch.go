// Package fetch downloads the public raw inputs of a run.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/zalepa/urnas/outfile"
)

// Result describes one download.
type Result struct {
	URL     string
	Path    string
	Bytes   int64
	Skipped bool
}

// File downloads url to dest. An existing dest is left alone unless force is
// set. The file only appears at dest once the body has been read completely.
func File(ctx context.Context, client *http.Client, url, dest string, force bool) (Result, error) {
	res := Result{URL: url, Path: dest}
	if !force {
		if _, err := os.Stat(dest); err == nil {
			res.Skipped = true
			return res, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return res, err
		}
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return res, fmt.Errorf("request %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return res, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return res, fmt.Errorf("get %s: status %d", url, resp.StatusCode)
	}

	err = outfile.Write(dest, func(w io.Writer) error {
		n, err := io.Copy(w, resp.Body)
		res.Bytes = n
		return err
	})
	if err != nil {
		return res, fmt.Errorf("download %s: %w", url, err)
	}
	return res, nil
}
