package sink

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// SinkS3 accumulates appended bytes and uploads them as a single object on
// Flush. S3 has no append primitive, so the document is buffered locally;
// nothing is visible in the bucket until Flush succeeds, which also makes
// the buffer a natural discard point when an export is restarted.
type SinkS3 struct {
	client s3API

	bucket      string
	bucketPtr   *string
	key         string
	contentType string

	buf bytes.Buffer
}

func NewSinkS3(client s3API, bucket, key, contentType string) *SinkS3 {
	if client == nil {
		panic("s3 client is required")
	}
	if strings.TrimSpace(bucket) == "" {
		panic("bucket is required")
	}
	key = strings.TrimLeft(key, "/")
	if key == "" {
		panic("key is required")
	}
	if contentType == "" {
		contentType = "text/csv"
	}

	s := &SinkS3{
		client:      client,
		bucket:      bucket,
		key:         key,
		contentType: contentType,
	}
	// Stable pointer, avoids an aws.String allocation per upload.
	s.bucketPtr = &s.bucket
	return s
}

func (s *SinkS3) Append(ctx context.Context, p []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.buf.Write(p)
	return nil
}

// Flush uploads the accumulated document. The buffer is kept on failure so
// a caller may retry Flush against the same bytes.
func (s *SinkS3) Flush(ctx context.Context) error {
	cl := int64(s.buf.Len())

	var body bytes.Reader
	body.Reset(s.buf.Bytes())

	input := s3.PutObjectInput{
		Bucket:        s.bucketPtr,
		Key:           &s.key,
		Body:          &body,
		ContentLength: &cl,
		ContentType:   &s.contentType,
	}

	if _, err := s.client.PutObject(ctx, &input); err != nil {
		return fmt.Errorf("put s3 object key=%q: %w", s.key, err)
	}

	s.buf.Reset()
	return nil
}

// Len returns the number of bytes buffered and not yet flushed.
func (s *SinkS3) Len() int { return s.buf.Len() }
