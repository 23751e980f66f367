package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/postmaster/pkg/mailer"
)

// renderRequest is the body of POST /v1/mail/render.
type renderRequest struct {
	Content map[string]any `json:"content"`
	Merge   map[string]any `json:"merge"`
	Code    string         `json:"code" validate:"required,excludesall=~/"`
	Owner   string         `json:"owner" validate:"excludesall=~/"`
	Orbit   string         `json:"orbit" validate:"excludesall=~/"`
	Part    string         `json:"part" validate:"required,excludesall=~/"`
}

func (s *Server) send(w http.ResponseWriter, r *http.Request) error {
	var req mailer.SendRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}

	resp, err := s.mailer.Send(r.Context(), req)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, resp)
	return nil
}

func (s *Server) render(w http.ResponseWriter, r *http.Request) error {
	var req renderRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}

	res, err := s.mailer.Render(r.Context(), mailer.RenderRequest{
		Code:    req.Code,
		Owner:   req.Owner,
		Orbit:   req.Orbit,
		Part:    req.Part,
		Content: req.Content,
		Merge:   req.Merge,
	})
	if err != nil {
		return errors.Join(mailer.ErrHookFailed, err)
	}
	// A nil result encodes as null: the hook has no opinion.
	writeJSON(w, http.StatusOK, res)
	return nil
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &HTTPError{Code: http.StatusRequestEntityTooLarge, Message: "request body too large", Err: err}
		}
		return badRequest("invalid JSON body", err)
	}
	return s.validator.Validate(dst)
}
