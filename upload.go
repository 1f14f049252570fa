package driftline

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/driftline/driftline-go/pkg/types"
)

// UploadProgress receives periodic samples of an upload's stream
// position. Percent is -1 when the total size is unknown.
type UploadProgress func(transferred, total int64, percent float64)

const defaultProgressInterval = 500 * time.Millisecond

// countingReader tracks how many bytes have been read through it.
type countingReader struct {
	r io.Reader
	n atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}

// UploadFile streams a file to a channel.
func (c *Client) UploadFile(ctx context.Context, channelID, filename string, r io.Reader) (types.FileInfo, error) {
	return c.rest.UploadFile(ctx, channelID, filename, r)
}

// UploadFileWithProgress streams a file to a channel, sampling the
// stream position on a fixed interval and reporting it through
// progress. Pass size 0 when the total length is unknown.
func (c *Client) UploadFileWithProgress(ctx context.Context, channelID, filename string, r io.Reader, size int64, progress UploadProgress) (types.FileInfo, error) {
	if progress == nil {
		return c.rest.UploadFile(ctx, channelID, filename, r)
	}

	counter := &countingReader{r: r}
	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(defaultProgressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				report(progress, counter.n.Load(), size)
			}
		}
	}()

	info, err := c.rest.UploadFile(ctx, channelID, filename, counter)
	if err != nil {
		return types.FileInfo{}, err
	}
	report(progress, counter.n.Load(), size)
	return info, nil
}

func report(progress UploadProgress, transferred, total int64) {
	percent := -1.0
	if total > 0 {
		percent = float64(transferred) / float64(total) * 100
		if percent > 100 {
			percent = 100
		}
	}
	progress(transferred, total, percent)
}
