package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/beehiiv-forecast/internal/config"
)

func sampleOutput() Output {
	return Output{
		RunID:       "run-42",
		GeneratedAt: time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC),
		Text:        "REPORT\n",
		JSON:        []byte(`{"run_id":"run-42"}`),
	}
}

func TestLocalWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	w := NewLocalWriter(dir)

	locations, err := w.Write(context.Background(), sampleOutput())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "report.txt"), filepath.Join(dir, "data.json")}, locations)

	text, err := os.ReadFile(filepath.Join(dir, "report.txt"))
	require.NoError(t, err)
	assert.Equal(t, "REPORT\n", string(text))

	data, err := os.ReadFile(filepath.Join(dir, "data.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"run_id":"run-42"}`, string(data))
}

func TestLocalWriter_Overwrites(t *testing.T) {
	dir := t.TempDir()
	w := NewLocalWriter(dir)

	_, err := w.Write(context.Background(), sampleOutput())
	require.NoError(t, err)

	out := sampleOutput()
	out.Text = "SECOND\n"
	_, err = w.Write(context.Background(), out)
	require.NoError(t, err)

	text, err := os.ReadFile(filepath.Join(dir, "report.txt"))
	require.NoError(t, err)
	assert.Equal(t, "SECOND\n", string(text))
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]string
	types   map[string]string
	err     error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string]string{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = string(body)
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Writer(t *testing.T) {
	fake := newFakeS3()
	w := NewS3WriterWithClient(fake, "reports", "/beehiiv-forecast/")

	locations, err := w.Write(context.Background(), sampleOutput())
	require.NoError(t, err)
	assert.Len(t, locations, 4)
	assert.Equal(t, "s3://reports/beehiiv-forecast/2026-02-03/run-42/report.txt", locations[0])

	assert.Equal(t, "REPORT\n", fake.objects["reports/beehiiv-forecast/2026-02-03/run-42/report.txt"])
	assert.Equal(t, `{"run_id":"run-42"}`, fake.objects["reports/beehiiv-forecast/2026-02-03/run-42/data.json"])
	assert.Equal(t, "REPORT\n", fake.objects["reports/beehiiv-forecast/latest/report.txt"])
	assert.Equal(t, "application/json", fake.types["reports/beehiiv-forecast/latest/data.json"])
}

func TestS3Writer_Error(t *testing.T) {
	fake := newFakeS3()
	fake.err = errors.New("access denied")
	w := NewS3WriterWithClient(fake, "reports", "")

	_, err := w.Write(context.Background(), sampleOutput())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2026-02-03/run-42/report.txt")
}

func TestNew(t *testing.T) {
	w, err := New(context.Background(), config.StorageConfig{Type: "local", LocalPath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalWriter{}, w)

	_, err = New(context.Background(), config.StorageConfig{Type: "dynamodb"})
	assert.Error(t, err)
}
