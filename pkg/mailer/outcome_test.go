package mailer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

type recipientOutcome struct {
	email  *Email
	id     string
	status int
}

func (o recipientOutcome) StatusCode() int         { return o.status }
func (o recipientOutcome) MessageID() string       { return o.id }
func (o recipientOutcome) OriginalMessage() *Email { return o.email }

type jsonOutcome struct {
	ID string
}

func (o jsonOutcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"provider_id": o.ID})
}

func TestNormalizeOutcome_Sequence(t *testing.T) {
	t.Parallel()

	email := &Email{HTML: "<p>hi</p>"}
	raw := []recipientOutcome{
		{email: email, id: "p-1", status: 250},
		{email: email, id: "p-2", status: 550},
	}

	out := NormalizeOutcome(raw, "mid-1")

	require.Equal(t, SentDescriptor{Message: "<p>hi</p>"}, out.Sent)
	require.Equal(t, 250, out.Status)
	require.Equal(t, MailResult{MessageID: "p-1", StatusCode: 250}, out.Result)
}

func TestNormalizeOutcome_EmptySequence(t *testing.T) {
	t.Parallel()

	out := NormalizeOutcome([]any{}, "mid-1")

	require.Equal(t, SentDescriptor{Message: ""}, out.Sent)
	require.Equal(t, 0, out.Status)
	require.Equal(t, MailResult{MessageID: "mid-1", StatusCode: 0}, out.Result)
}

func TestNormalizeOutcome_SequenceOfMaps(t *testing.T) {
	t.Parallel()

	raw := []any{
		map[string]any{
			"statusCode":      float64(202),
			"originalMessage": map[string]any{"html": "<b>x</b>"},
		},
	}

	out := NormalizeOutcome(raw, "mid-1")

	require.Equal(t, SentDescriptor{Message: "<b>x</b>"}, out.Sent)
	require.Equal(t, 202, out.Status)
	require.Equal(t, MailResult{MessageID: "mid-1", StatusCode: 202}, out.Result)
}

func TestNormalizeOutcome_SingleValuePassesThrough(t *testing.T) {
	t.Parallel()

	raw := map[string]any{"statusCode": 200, "messageId": "provider-9"}

	out := NormalizeOutcome(raw, "mid-1")

	require.Equal(t, raw, out.Sent)
	require.Equal(t, 200, out.Status)
	require.Equal(t, MailResult{MessageID: "provider-9", StatusCode: 200}, out.Result)
}

func TestNormalizeOutcome_JSONMarshaler(t *testing.T) {
	t.Parallel()

	out := NormalizeOutcome(jsonOutcome{ID: "abc"}, "mid-1")

	require.Equal(t, jsonOutcome{ID: "abc"}, out.Sent)
	require.Equal(t, 0, out.Status)
	require.JSONEq(t, `{"provider_id":"abc"}`, string(out.Result.(json.RawMessage)))
}

func TestNormalizeOutcome_FirstElementJSONMarshaler(t *testing.T) {
	t.Parallel()

	out := NormalizeOutcome([]jsonOutcome{{ID: "first"}, {ID: "second"}}, "mid-1")

	require.Equal(t, SentDescriptor{}, out.Sent)
	require.JSONEq(t, `{"provider_id":"first"}`, string(out.Result.(json.RawMessage)))
}

func TestNormalizeOutcome_Nil(t *testing.T) {
	t.Parallel()

	out := NormalizeOutcome(nil, "mid-1")

	require.Nil(t, out.Sent)
	require.Equal(t, 0, out.Status)
	require.Equal(t, MailResult{MessageID: "mid-1"}, out.Result)
}

func TestNormalizeOutcome_BytesAreNotSequence(t *testing.T) {
	t.Parallel()

	out := NormalizeOutcome([]byte("queued"), "mid-1")

	require.Equal(t, []byte("queued"), out.Sent)
	require.Equal(t, MailResult{MessageID: "mid-1"}, out.Result)
}
