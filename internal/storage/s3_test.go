package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

type apiError struct {
	code string
}

func (e *apiError) Error() string                 { return e.code }
func (e *apiError) ErrorCode() string             { return e.code }
func (e *apiError) ErrorMessage() string          { return e.code }
func (e *apiError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

var errNoSuchKey = &apiError{code: "NoSuchKey"}

type mockS3 struct {
	objects map[string][]byte
	getErr  error
}

func newMockS3() *mockS3 {
	return &mockS3{objects: make(map[string][]byte)}
}

func (m *mockS3) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	key := *params.Bucket + "/" + *params.Key
	data, ok := m.objects[key]
	if !ok {
		return nil, errNoSuchKey
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func TestObjectDownloaderFetchesObject(t *testing.T) {
	mock := newMockS3()
	mock.objects["audio/call.wav"] = []byte("RIFF fake wav payload")
	d := newObjectDownloader(mock, 10)

	dest := filepath.Join(t.TempDir(), "call.wav")
	sizeMB, err := d.Download(context.Background(), "minio://audio/call.wav", dest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sizeMB <= 0 {
		t.Fatalf("expected positive size, got %v", sizeMB)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(data) != "RIFF fake wav payload" {
		t.Fatalf("unexpected file contents: %q", data)
	}
}

func TestObjectDownloaderNotFound(t *testing.T) {
	d := newObjectDownloader(newMockS3(), 10)

	dest := filepath.Join(t.TempDir(), "missing.wav")
	_, err := d.Download(context.Background(), "minio://audio/missing.wav", dest)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestObjectDownloaderRejectsOversizedObject(t *testing.T) {
	mock := newMockS3()
	mock.objects["audio/big.wav"] = bytes.Repeat([]byte("a"), 2*1024*1024)
	d := newObjectDownloader(mock, 1)

	dest := filepath.Join(t.TempDir(), "big.wav")
	_, err := d.Download(context.Background(), "minio://audio/big.wav", dest)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Fatal("oversized download must not leave a file behind")
	}
}

func TestObjectDownloaderRejectsBadURLs(t *testing.T) {
	d := newObjectDownloader(newMockS3(), 10)
	dest := filepath.Join(t.TempDir(), "out.wav")

	for _, url := range []string{
		"minio:///just-a-key",
		"minio://bucket-only",
		"ftp://host/file.wav",
	} {
		if _, err := d.Download(context.Background(), url, dest); err == nil {
			t.Fatalf("expected error for url %q", url)
		}
	}
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(errNoSuchKey) {
		t.Fatal("NoSuchKey must be a not-found error")
	}
	if !isNotFound(&apiError{code: "NotFound"}) {
		t.Fatal("NotFound must be a not-found error")
	}
	if isNotFound(&apiError{code: "AccessDenied"}) {
		t.Fatal("AccessDenied is not a not-found error")
	}
	if isNotFound(errors.New("plain error")) {
		t.Fatal("non-API errors are not not-found errors")
	}
}
