// Package upload drives the three-phase chunked upload protocol: negotiate
// a transfer destination through the envelope pipeline, PUT the payload to
// it chunk by chunk, then post the completion endpoint for the final
// envelope.
package upload

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/docker/go-units"

	"github.com/KarpelesLab/swiftrest/rest"
	"github.com/KarpelesLab/swiftrest/resterror"
)

// Negotiation is the destination record returned by the negotiate phase;
// consumed once by the transfer phase, then discarded.
type Negotiation struct {
	PUT       string `json:"PUT"`
	Complete  string `json:"Complete"`
	Blocksize int64  `json:"Blocksize"`
}

// ProgressFunc observes transfer progress as a completed fraction in (0,1],
// invoked once after each successful chunk.
type ProgressFunc func(fraction float64)

// Coordinator uploads payloads through a rest.Client. Chunks transfer
// strictly in order and sequentially; the receiving side accumulates by
// byte offset.
type Coordinator struct {
	client   *rest.Client
	logger   log.Logger
	progress ProgressFunc
}

// New creates a Coordinator. progress may be nil.
func New(client *rest.Client, progress ProgressFunc) *Coordinator {
	return &Coordinator{
		client:   client,
		logger:   client.Logger(),
		progress: progress,
	}
}

// UploadFile uploads the file at path, closing it when done. The completion
// envelope's data decodes into target when target is non-nil.
func (c *Coordinator) UploadFile(ctx context.Context, endpoint string, params map[string]any, path string, target any) error {
	src, err := FromFile(path)
	if err != nil {
		return resterror.UploadFailed(fmt.Sprintf("open payload: %s", err))
	}
	defer func() {
		if err := src.Close(); err != nil {
			c.logger.Warnf("failed to close upload payload: %s", err)
		}
	}()
	return c.Upload(ctx, endpoint, params, src, target)
}

// Upload runs the negotiate, transfer and complete phases for src.
func (c *Coordinator) Upload(ctx context.Context, endpoint string, params map[string]any, src Source, target any) error {
	if src == nil || src.Size() <= 0 {
		return resterror.UploadFailed("empty upload payload")
	}

	neg, err := c.negotiate(ctx, endpoint, params, src)
	if err != nil {
		return err
	}
	if err := c.transfer(ctx, neg, src); err != nil {
		return err
	}

	c.logger.Debugf("Completing upload via %s", neg.Complete)
	_, err = c.client.Post(ctx, neg.Complete, nil, target)
	return err
}

func (c *Coordinator) negotiate(ctx context.Context, endpoint string, params map[string]any, src Source) (Negotiation, error) {
	merged := make(map[string]any, len(params)+4)
	for k, v := range params {
		merged[k] = v
	}
	merged["filename"] = src.Name()
	merged["size"] = src.Size()
	merged["type"] = src.ContentType()
	merged["lastModified"] = src.LastModified().UnixMilli()

	var neg Negotiation
	if _, err := c.client.Post(ctx, endpoint, merged, &neg); err != nil {
		return Negotiation{}, err
	}
	if neg.PUT == "" || neg.Complete == "" {
		return Negotiation{}, resterror.UploadFailed("negotiation response missing transfer URLs")
	}
	if neg.Blocksize <= 0 {
		neg.Blocksize = src.Size()
	}
	return neg, nil
}

func (c *Coordinator) transfer(ctx context.Context, neg Negotiation, src Source) error {
	size := src.Size()
	blockSize := neg.Blocksize
	total := int((size + blockSize - 1) / blockSize)

	c.logger.Debugf("Uploading %s in %d chunk(s) of up to %s",
		units.HumanSize(float64(size)), total, units.HumanSize(float64(blockSize)))

	for i := 0; i < total; i++ {
		start := int64(i) * blockSize
		length := blockSize
		if start+length > size {
			length = size - start
		}
		reader, err := src.Chunk(start, length)
		if err != nil {
			return resterror.UploadFailed(fmt.Sprintf("read chunk %d: %s", i+1, err))
		}
		data, err := io.ReadAll(reader)
		if err != nil {
			return resterror.UploadFailed(fmt.Sprintf("read chunk %d: %s", i+1, err))
		}

		header := http.Header{}
		header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/*", start, start+length-1))
		header.Set("Content-Type", src.ContentType())

		if err := c.client.RawPut(ctx, neg.PUT, data, header); err != nil {
			return err
		}

		c.logger.Debugf("Uploaded chunk %d/%d (%s)", i+1, total, units.HumanSize(float64(length)))
		if c.progress != nil {
			c.progress(float64(i+1) / float64(total))
		}
	}
	return nil
}
