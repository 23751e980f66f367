package preview

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/postmaster/pkg/mailer"
)

func sampleEmail() *mailer.Email {
	return &mailer.Email{
		MessageID: "6f1c/../mid",
		From:      "team@acme.test",
		To:        []string{"a@example.com"},
		Subject:   "Hi",
		HTML:      "<p>hi</p>",
		Text:      "hi",
	}
}

func TestDirSink_Store(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "previews")
	sink, err := NewDirSink(dir)
	require.NoError(t, err)

	require.NoError(t, sink.Store(context.Background(), sampleEmail()))

	doc, err := os.ReadFile(filepath.Join(dir, "6f1c_.._mid.json"))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(doc, &got))
	require.Equal(t, "6f1c/../mid", got["messageId"])
	require.Equal(t, "Hi", got["envelope"].(map[string]any)["subject"])

	html, err := os.ReadFile(filepath.Join(dir, "6f1c_.._mid.html"))
	require.NoError(t, err)
	require.Equal(t, "<p>hi</p>", string(html))
}

func TestDirSink_Store_RequiresID(t *testing.T) {
	t.Parallel()

	sink, err := NewDirSink(t.TempDir())
	require.NoError(t, err)

	require.ErrorIs(t, sink.Store(context.Background(), &mailer.Email{}), ErrNoMessageID)
}

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, _ := io.ReadAll(params.Body)
	args := m.Called(aws.ToString(params.Key), aws.ToString(params.ContentType), string(body))
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func TestS3Sink_Store(t *testing.T) {
	t.Parallel()

	client := &mockS3{}
	client.On("PutObject", "previews/2026/03/01/mid-1.json", "application/json", mock.Anything).
		Return(&s3.PutObjectOutput{}, nil)
	client.On("PutObject", "previews/2026/03/01/mid-1.html", "text/html; charset=utf-8", "<p>hi</p>").
		Return(&s3.PutObjectOutput{}, nil)

	sink := NewS3SinkWithClient(client, "bucket", "previews")
	sink.now = func() time.Time { return time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC) }

	email := sampleEmail()
	email.MessageID = "mid-1"
	require.NoError(t, sink.Store(context.Background(), email))
	client.AssertExpectations(t)
}

func TestS3Sink_Store_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "access denied", err: &smithy.GenericAPIError{Code: "AccessDenied"}, want: ErrAccessDenied},
		{name: "other", err: errors.New("connection reset"), want: ErrUploadFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := &mockS3{}
			client.On("PutObject", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)

			err := NewS3SinkWithClient(client, "bucket", "").Store(context.Background(), sampleEmail())
			require.ErrorIs(t, err, tt.want)
			client.AssertNumberOfCalls(t, "PutObject", 1)
		})
	}
}

func TestNewS3Sink_RequiresBucket(t *testing.T) {
	t.Parallel()

	_, err := NewS3Sink(Config{})
	require.ErrorIs(t, err, ErrBucketRequired)
}

func TestConfig_Enabled(t *testing.T) {
	t.Parallel()

	require.False(t, Config{}.Enabled())
	require.True(t, Config{Dir: "/tmp/x"}.Enabled())
	require.True(t, Config{Bucket: "b"}.Enabled())
}
