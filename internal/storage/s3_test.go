package storage

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	key         string
	body        []byte
	contentType string
	expires     time.Duration
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.key = aws.ToString(in.Key)
	f.contentType = aws.ToString(in.ContentType)
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) PresignGetObject(_ context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	opts := s3.PresignOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	f.expires = opts.Expires
	return &v4.PresignedHTTPRequest{URL: "https://bucket.example/" + aws.ToString(in.Key) + "?sig"}, nil
}

func TestS3ArchivePut(t *testing.T) {
	fake := &fakeS3{}
	a := &S3Archive{svc: fake, presign: fake, bucket: "reports", now: time.Now}

	url, err := a.Put(context.Background(), "ST01/2025-03-01/transactions.csv", []byte("a,b\r\n"), "text/csv")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	if fake.key != "ST01/2025-03-01/transactions.csv" || string(fake.body) != "a,b\r\n" || fake.contentType != "text/csv" {
		t.Errorf("uploaded %q %q %q", fake.key, fake.body, fake.contentType)
	}
	if fake.expires != presignExpiry {
		t.Errorf("expires = %v, want %v", fake.expires, presignExpiry)
	}
	if url != "https://bucket.example/ST01/2025-03-01/transactions.csv?sig" {
		t.Errorf("url = %s", url)
	}
}
