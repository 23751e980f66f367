package mailer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockHook is a mock implementation of RenderHook.
type MockHook struct {
	mock.Mock
}

func (m *MockHook) Render(ctx context.Context, req RenderRequest) (*RenderResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*RenderResult)
	return res, args.Error(1)
}

type inlinerFunc func(ctx context.Context, html string) (string, error)

func (f inlinerFunc) Inline(ctx context.Context, html string) (string, error) {
	return f(ctx, html)
}

func TestDelegate_Render_DispatchesRequest(t *testing.T) {
	t.Parallel()

	hook := &MockHook{}
	content := map[string]any{"name": "Alice"}
	merge := map[string]any{"footer": true}

	hook.On("Render", mock.Anything, RenderRequest{
		Code:    "welcome",
		Owner:   "acme",
		Orbit:   "trial",
		Part:    "text",
		Content: content,
		Merge:   merge,
	}).Return(Rendered(map[string]string{"text": "Hello Alice"}), nil)

	d := NewDelegate(hook, nil)
	out, ok, err := d.Render(context.Background(), "welcome~acme~trial/text", content, merge)

	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Hello Alice", out)
	hook.AssertExpectations(t)
}

func TestDelegate_Render_NilResult(t *testing.T) {
	t.Parallel()

	hook := &MockHook{}
	hook.On("Render", mock.Anything, mock.Anything).Return(nil, nil)

	d := NewDelegate(hook, nil)
	out, ok, err := d.Render(context.Background(), "welcome/html", nil, nil)

	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, out)
}

func TestDelegate_Render_FailureCarriesWhy(t *testing.T) {
	t.Parallel()

	hook := &MockHook{}
	hook.On("Render", mock.Anything, mock.Anything).Return(Failure("bad-data"), nil)

	d := NewDelegate(hook, nil)
	_, _, err := d.Render(context.Background(), "welcome/html", nil, nil)

	require.ErrorIs(t, err, ErrRenderFailed)
	require.Contains(t, err.Error(), "bad-data")

	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	require.Equal(t, "bad-data", renderErr.Why)
	require.Equal(t, "welcome", renderErr.Code)
	require.Equal(t, "html", renderErr.Part)
}

func TestDelegate_Render_FailureWithoutWhy(t *testing.T) {
	t.Parallel()

	hook := &MockHook{}
	hook.On("Render", mock.Anything, mock.Anything).Return(Failure(""), nil)

	d := NewDelegate(hook, nil)
	_, _, err := d.Render(context.Background(), "welcome/html", nil, nil)

	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	require.Equal(t, "unknown", renderErr.Why)
}

func TestDelegate_Render_MissingPart(t *testing.T) {
	t.Parallel()

	hook := &MockHook{}
	hook.On("Render", mock.Anything, mock.Anything).
		Return(Rendered(map[string]string{"html": "<p>hi</p>"}), nil)

	d := NewDelegate(hook, nil)
	out, ok, err := d.Render(context.Background(), "welcome/text", nil, nil)

	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, out)
}

func TestDelegate_Render_HookError(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	hook := &MockHook{}
	hook.On("Render", mock.Anything, mock.Anything).Return(nil, boom)

	d := NewDelegate(hook, nil)
	_, _, err := d.Render(context.Background(), "welcome/html", nil, nil)

	require.ErrorIs(t, err, ErrHookFailed)
	require.ErrorIs(t, err, boom)
}

func TestDelegate_Render_MalformedView(t *testing.T) {
	t.Parallel()

	hook := &MockHook{}
	d := NewDelegate(hook, nil)

	_, _, err := d.Render(context.Background(), "welcome", nil, nil)

	require.ErrorIs(t, err, ErrMalformedToken)
	hook.AssertNotCalled(t, "Render")
}

func TestDelegate_Render_InlinesHTMLOnly(t *testing.T) {
	t.Parallel()

	hook := &MockHook{}
	hook.On("Render", mock.Anything, mock.Anything).
		Return(Rendered(map[string]string{"html": "<p>hi</p>", "text": "hi"}), nil)

	var calls int
	inliner := inlinerFunc(func(_ context.Context, html string) (string, error) {
		calls++
		return strings.ToUpper(html), nil
	})

	d := NewDelegate(hook, inliner)

	html, ok, err := d.Render(context.Background(), "welcome/html", nil, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "<P>HI</P>", html)

	text, ok, err := d.Render(context.Background(), "welcome/text", nil, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hi", text)

	require.Equal(t, 1, calls)
}

func TestDelegate_Render_InlineFailure(t *testing.T) {
	t.Parallel()

	hook := &MockHook{}
	hook.On("Render", mock.Anything, mock.Anything).
		Return(Rendered(map[string]string{"html": "<p>hi</p>"}), nil)

	inliner := inlinerFunc(func(context.Context, string) (string, error) {
		return "", errors.New("bad css")
	})

	d := NewDelegate(hook, inliner)
	_, _, err := d.Render(context.Background(), "welcome/html", nil, nil)

	require.ErrorIs(t, err, ErrRenderFailed)
}

func TestDelegate_DefaultsToDefaultHook(t *testing.T) {
	t.Parallel()

	d := NewDelegate(nil, nil)

	html, ok, err := d.Render(context.Background(), "x/html", map[string]any{"a": 1}, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `NO RENDER DEFINED FOR x, content was: {"a":1}`, html)

	text, ok, err := d.Render(context.Background(), "x/text", map[string]any{"a": 1}, nil)
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, text)
}
