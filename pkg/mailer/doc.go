// Package mailer sends templated email through a pluggable render hook and
// records delivery history.
//
// # Template tokens
//
// A template is addressed by a code and two optional scoping dimensions:
// the owner (tenant) and the orbit (sub-context). They are packed into a
// single token:
//
//	EncodeTemplate("welcome", "", "")          // welcome
//	EncodeTemplate("welcome", "acme", "")      // welcome~acme
//	EncodeTemplate("welcome", "acme", "trial") // welcome~acme~trial
//	EncodeTemplate("welcome", "", "trial")     // welcome~~trial
//
// A view adds the part name: "welcome~acme~trial/html". DecodeTemplate and
// ParseView reverse the encoding.
//
// # Render hooks
//
// Rendering is delegated to a RenderHook, called once per part ("html",
// "text", optionally "subject"):
//
//	hook := mailer.RenderHookFunc(func(ctx context.Context, req mailer.RenderRequest) (*mailer.RenderResult, error) {
//		if req.Code != "welcome" {
//			return nil, nil // no opinion
//		}
//		return mailer.Rendered(map[string]string{
//			"html": "<p>Hello " + req.Content["name"].(string) + "</p>",
//			"text": "Hello " + req.Content["name"].(string),
//		}), nil
//	})
//
// A nil result leaves the part empty. mailer.Failure("why") aborts the send
// with a *RenderError. Without a hook, DefaultHook produces a diagnostic
// HTML body.
//
// HTML parts go through an Inliner; CSSInliner inlines stylesheets into
// style attributes.
//
// # Sending
//
//	m := mailer.New(sender, cfg,
//		mailer.WithRenderHook(hook),
//		mailer.WithInliner(mailer.NewCSSInliner(assets)),
//		mailer.WithHistoryStore(store),
//		mailer.WithLogger(log),
//	)
//
//	resp, err := m.Send(ctx, mailer.SendRequest{
//		Code:    "welcome",
//		Owner:   "acme",
//		To:      mailer.Addresses{"user@example.com"},
//		Subject: "Welcome",
//		Content: map[string]any{"name": "Alice"},
//	})
//
// Sender outcomes differ between transports and are normalized by
// NormalizeOutcome into a descriptor, a status code and a result.
//
// # History
//
// When enabled, each send produces a HistoryRecord written in the
// background. Config.History is the global default; SendRequest.History
// overrides it per request (see ShouldRecord). Call Mailer.Wait on shutdown
// to flush pending writes.
//
// # Errors
//
//   - ErrNoRecipient: No recipient specified
//   - ErrInvalidRequest: Code, owner or orbit are missing or malformed
//   - ErrMalformedToken: Template token or view cannot be decoded
//   - ErrRenderFailed: Hook reported ok=false (see RenderError)
//   - ErrHookFailed: Hook returned an error
//   - ErrSendFailed: Transport rejected the message
package mailer
