package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"nexus-admin-backend/internal/models"

	"github.com/gabriel-vasile/mimetype"
)

// ReceiptReader converts uploaded receipt files into self-contained data URLs
type ReceiptReader struct {
	maxBytes     int64
	allowedTypes []string
}

// NewReceiptReader creates a reader accepting files up to maxBytes whose
// detected type matches one of allowedTypes ("image/png" or "image/*").
func NewReceiptReader(maxBytes int64, allowedTypes []string) *ReceiptReader {
	return &ReceiptReader{
		maxBytes:     maxBytes,
		allowedTypes: allowedTypes,
	}
}

// ReceiptTask is a single in-flight read of a receipt file
type ReceiptTask struct {
	done    chan struct{}
	cancel  context.CancelFunc
	dataURL string
	err     error
}

// ReadAsDataURL starts reading r in the background
func (rr *ReceiptReader) ReadAsDataURL(ctx context.Context, r io.Reader) *ReceiptTask {
	ctx, cancel := context.WithCancel(ctx)
	task := &ReceiptTask{
		done:   make(chan struct{}),
		cancel: cancel,
	}

	go func() {
		defer close(task.done)
		defer cancel()
		task.dataURL, task.err = rr.read(ctx, r)
	}()

	return task
}

// Wait blocks until the read finishes or ctx is done
func (t *ReceiptTask) Wait(ctx context.Context) (string, error) {
	select {
	case <-t.done:
		return t.dataURL, t.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Cancel aborts the read; Wait then reports context.Canceled unless it already finished
func (t *ReceiptTask) Cancel() {
	t.cancel()
}

// Done is closed once the read has finished
func (t *ReceiptTask) Done() <-chan struct{} {
	return t.done
}

func (rr *ReceiptReader) read(ctx context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(&ctxReader{ctx: ctx, r: r}, rr.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read receipt: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", models.ErrEmptyReceipt
	}
	if int64(len(data)) > rr.maxBytes {
		return "", fmt.Errorf("%w: limit is %d bytes", models.ErrReceiptTooLarge, rr.maxBytes)
	}

	mediaType := strings.TrimSpace(strings.SplitN(mimetype.Detect(data).String(), ";", 2)[0])
	if !rr.allowed(mediaType) {
		return "", fmt.Errorf("%w: %s", models.ErrUnsupportedReceipt, mediaType)
	}

	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func (rr *ReceiptReader) allowed(mediaType string) bool {
	for _, pattern := range rr.allowedTypes {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
			if strings.HasPrefix(mediaType, prefix+"/") {
				return true
			}
			continue
		}
		if pattern == mediaType {
			return true
		}
	}
	return false
}

// ctxReader stops reading once its context is done
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
