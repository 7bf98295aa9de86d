package s3fs

import (
	"context"
	"encoding/xml"

	"github.com/objectfs/iofs/pkg/errors"
)

// completedPart records one successfully uploaded part, in the shape
// CompleteMultipartUpload's request body needs.
type completedPart struct {
	PartNumber int
	ETag       string
}

// createMultipartUpload issues CreateMultipartUpload and returns the upload
// ID the subsequent UploadPart/CompleteMultipartUpload calls reference.
func (b *Backend) createMultipartUpload(ctx context.Context, key string) (string, error) {
	query := urlValues("uploads", "")
	body, _, err := b.doRequest(ctx, "POST", "CreateMultipartUpload", key, query, nil, nil)
	if err != nil {
		b.logger.Warn("multipart upload initiation failed", "key", key, "error", err)
		return "", err
	}

	var result initiateMultipartUploadResult
	if err := xml.Unmarshal(body, &result); err != nil {
		return "", errors.New(errors.InvalidData, "malformed CreateMultipartUpload response").
			WithComponent("s3fs").WithOperation("CreateMultipartUpload").WithCause(err)
	}
	b.logger.Info("multipart upload started", "key", key, "upload_id", result.UploadID)
	return result.UploadID, nil
}

// uploadPart issues UploadPart for the given 1-indexed part number and
// returns the ETag S3 assigns it, which CompleteMultipartUpload must echo
// back verbatim.
func (b *Backend) uploadPart(ctx context.Context, key, uploadID string, partNumber int, data []byte) (string, error) {
	query := urlValues("partNumber", itoa(partNumber))
	query.Set("uploadId", uploadID)

	_, headers, err := b.doRequest(ctx, "PUT", "UploadPart", key, query, data, nil)
	if err != nil {
		b.logger.Warn("multipart part upload failed", "key", key, "upload_id", uploadID, "part", partNumber, "error", err)
		return "", err
	}
	if b.metrics != nil {
		b.metrics.recordUpload(len(data))
	}

	etag, _ := lookupHeader(headers, "ETag")
	b.logger.Debug("multipart part uploaded", "key", key, "upload_id", uploadID, "part", partNumber, "bytes", len(data))
	return etag, nil
}

// completeMultipartUpload issues CompleteMultipartUpload with the sequence of
// part ETags collected by uploadPart.
func (b *Backend) completeMultipartUpload(ctx context.Context, key, uploadID string, parts []completedPart) error {
	query := urlValues("uploadId", uploadID)

	marshaled := completeMultipartUpload{}
	for _, p := range parts {
		marshaled.Parts = append(marshaled.Parts, completedPartMarshal{PartNumber: p.PartNumber, ETag: p.ETag})
	}
	body, err := xml.Marshal(marshaled)
	if err != nil {
		return errors.New(errors.InvalidData, "failed to marshal CompleteMultipartUpload request").
			WithComponent("s3fs").WithOperation("CompleteMultipartUpload").WithCause(err)
	}

	_, _, err = b.doRequest(ctx, "POST", "CompleteMultipartUpload", key, query, body, nil)
	if err != nil {
		b.logger.Warn("multipart upload completion failed", "key", key, "upload_id", uploadID, "error", err)
		return err
	}
	b.logger.Info("multipart upload completed", "key", key, "upload_id", uploadID, "parts", len(parts))
	return nil
}

// abortMultipartUpload is a best-effort cleanup call issued after a part
// upload or completion fails partway through; its own failure is swallowed,
// since the caller already has the real error to report.
func (b *Backend) abortMultipartUpload(ctx context.Context, key, uploadID string) {
	query := urlValues("uploadId", uploadID)
	b.logger.Warn("aborting multipart upload", "key", key, "upload_id", uploadID)
	if _, _, err := b.doRequest(ctx, "DELETE", "AbortMultipartUpload", key, query, nil, nil); err != nil {
		b.logger.Warn("multipart upload abort failed", "key", key, "upload_id", uploadID, "error", err)
	}
}
