// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/onboard/internal/api/problem"
	"github.com/ManuGH/onboard/internal/health"
	"github.com/ManuGH/onboard/internal/onboarding/model"
	"github.com/ManuGH/onboard/internal/onboarding/store"
	"github.com/ManuGH/onboard/internal/onboarding/validate"
	"github.com/ManuGH/onboard/internal/persistence"
	"github.com/ManuGH/onboard/internal/persistence/kv"
)

var june2024 = time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

type harness struct {
	t       *testing.T
	srv     *Server
	store   *store.Store
	backend kv.Backend
	handler http.Handler
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	backend := kv.NewMemory()
	st := store.Open(context.Background(), persistence.NewAdapter(backend),
		store.WithClock(func() time.Time { return june2024 }))
	srv := New(cfg, st, health.NewManager("test"))
	return &harness{t: t, srv: srv, store: st, backend: backend, handler: srv.Handler()}
}

func (h *harness) do(method, target string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) login() {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/login", loginRequest{Username: "user123", Password: "password123"})
	require.Equal(h.t, http.StatusSeeOther, rec.Code)
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, location, rec.Header().Get("Location"))
	var body redirectBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, location, body.Redirect)
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func validProfileBody() map[string]any {
	return map[string]any{"name": "Ada", "age": 36, "email": "ada@example.com"}
}

func validPaymentBody() map[string]any {
	return map[string]any{"cardNumber": "4111111111111111", "expiryDate": "0624", "cvv": "123"}
}

func TestRootAndUnknownRedirectToLogin(t *testing.T) {
	h := newHarness(t, Config{})
	assertRedirect(t, h.do(http.MethodGet, "/", nil), "/login")
	assertRedirect(t, h.do(http.MethodGet, "/nope", nil), "/login")
	assertRedirect(t, h.do(http.MethodGet, "/onboarding/step-9", nil), "/login")
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	h := newHarness(t, Config{})
	assertRedirect(t, h.do(http.MethodGet, "/onboarding", nil), "/login?from=%2Fonboarding")
	assertRedirect(t, h.do(http.MethodGet, "/onboarding/step-2", nil), "/login?from=%2Fonboarding%2Fstep-2")
	assertRedirect(t, h.do(http.MethodGet, "/home", nil), "/login?from=%2Fhome")
	assertRedirect(t, h.do(http.MethodPost, "/onboarding/step-1", validProfileBody()), "/login?from=%2Fonboarding%2Fstep-1")
	assertRedirect(t, h.do(http.MethodGet, "/api/v1/progress", nil), "/login")
}

func TestLogin_Failure(t *testing.T) {
	h := newHarness(t, Config{})

	rec := h.do(http.MethodPost, "/login", loginRequest{Username: "x", Password: "y"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	view := decodeBody[loginView](t, rec)
	require.NotNil(t, view.Error)
	assert.Equal(t, "Invalid credentials. Try user123 / password123.", *view.Error)

	rec = h.do(http.MethodGet, "/login", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view = decodeBody[loginView](t, rec)
	require.NotNil(t, view.Error, "error stays until cleared")

	rec = h.do(http.MethodPost, "/login/clear-error", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, h.store.Session().LastError)
}

func TestLogin_SuccessRedirects(t *testing.T) {
	h := newHarness(t, Config{})
	assertRedirect(t, h.do(http.MethodPost, "/login", loginRequest{Username: "user123", Password: "password123"}),
		"/onboarding/step-1")
	assertRedirect(t, h.do(http.MethodGet, "/login", nil), "/onboarding/step-1")
	assertRedirect(t, h.do(http.MethodGet, "/onboarding", nil), "/onboarding/step-1")
}

func TestLogin_FromIsBestEffort(t *testing.T) {
	h := newHarness(t, Config{})
	creds := loginRequest{Username: "user123", Password: "password123"}

	// home is not reachable before completion
	assertRedirect(t, h.do(http.MethodPost, "/login?from=%2Fhome", creds), "/onboarding/step-1")
	// off-site targets are ignored
	assertRedirect(t, h.do(http.MethodPost, "/login?from=%2F%2Fevil.example", creds), "/onboarding/step-1")
	// a reachable step is honored
	assertRedirect(t, h.do(http.MethodPost, "/login?from=%2Fonboarding%2Fstep-1", creds), "/onboarding/step-1")
}

func TestLogin_BadBody(t *testing.T) {
	h := newHarness(t, Config{})
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, problem.ContentType, rec.Header().Get("Content-Type"))
}

func TestLogin_RateLimited(t *testing.T) {
	h := newHarness(t, Config{LoginPerMinute: 2})
	for i := 0; i < 2; i++ {
		rec := h.do(http.MethodPost, "/login", loginRequest{Username: "x", Password: "y"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := h.do(http.MethodPost, "/login", loginRequest{Username: "user123", Password: "password123"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, h.store.Session().IsAuthenticated)
}

func TestFullFlow(t *testing.T) {
	h := newHarness(t, Config{})
	h.login()

	rec := h.do(http.MethodGet, "/onboarding/step-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[stepView](t, rec)
	assert.Equal(t, model.StepProfile, view.Step)
	assert.Equal(t, "Personal Profile", view.Title)

	assertRedirect(t, h.do(http.MethodPost, "/onboarding/step-1", validProfileBody()), "/onboarding/step-2")
	assertRedirect(t, h.do(http.MethodPost, "/onboarding/step-2", songsRequest{Songs: []string{"A", "a", "A", "B", " "}}),
		"/onboarding/step-3")
	assert.Equal(t, []string{"A", "a", "B"}, h.store.Progression().Songs)

	assertRedirect(t, h.do(http.MethodPost, "/onboarding/step-3", validPaymentBody()), "/onboarding/step-4")
	pay := h.store.Progression().Payment
	assert.Equal(t, "4111 1111 1111 1111", pay.CardNumber)
	assert.Equal(t, "06/24", pay.ExpiryDate)

	assertRedirect(t, h.do(http.MethodPost, "/onboarding/step-4", nil), "/home")
	assert.True(t, h.store.Progression().IsComplete)

	rec = h.do(http.MethodGet, "/home", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	home := decodeBody[homeView](t, rec)
	assert.Equal(t, "You're all set, user123. Explore the app and personalize your experience.", home.Message)

	assertRedirect(t, h.do(http.MethodGet, "/onboarding/step-2", nil), "/home")
	assertRedirect(t, h.do(http.MethodGet, "/login", nil), "/home")

	// the same backend restores the finished state
	restored := store.Open(context.Background(), persistence.NewAdapter(h.backend))
	assert.True(t, restored.Progression().IsComplete)
	assert.True(t, restored.Session().IsAuthenticated)
}

func TestSubmitProfile_ValidationErrors(t *testing.T) {
	h := newHarness(t, Config{})
	h.login()

	rec := h.do(http.MethodPost, "/onboarding/step-1", map[string]any{"name": " ", "age": "abc", "email": "nope"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody[struct {
		Fields map[string]string `json:"fields"`
	}](t, rec)
	assert.Equal(t, map[string]string{
		validate.FieldName:  "Your name is required.",
		validate.FieldAge:   "Age must be a number.",
		validate.FieldEmail: "Enter a valid email address.",
	}, body.Fields)

	p := h.store.Progression()
	assert.Equal(t, model.StepProfile, p.CurrentStep)
	assert.Zero(t, p.CompletedSteps.Len())
}

func TestSubmitPayment_AllFieldsReported(t *testing.T) {
	h := newHarness(t, Config{})
	h.login()
	assertRedirect(t, h.do(http.MethodPost, "/onboarding/step-1", validProfileBody()), "/onboarding/step-2")
	assertRedirect(t, h.do(http.MethodPost, "/onboarding/step-2", songsRequest{Songs: []string{"A"}}), "/onboarding/step-3")

	rec := h.do(http.MethodPost, "/onboarding/step-3", map[string]any{"cardNumber": "4111 1111 1111", "expiryDate": "05/24", "cvv": "1"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody[struct {
		Fields map[string]string `json:"fields"`
	}](t, rec)
	assert.Equal(t, "Enter a 16-digit card number.", body.Fields[validate.FieldCardNumber])
	assert.Equal(t, "This card is expired.", body.Fields[validate.FieldExpiryDate])
	assert.Equal(t, "Security code must be 3 or 4 digits.", body.Fields[validate.FieldCVV])
}

func TestSkipAheadIsRedirected(t *testing.T) {
	h := newHarness(t, Config{})
	h.login()

	assertRedirect(t, h.do(http.MethodPost, "/onboarding/step-3", validPaymentBody()), "/onboarding/step-1")
	assertRedirect(t, h.do(http.MethodGet, "/onboarding/step-4", nil), "/onboarding/step-1")
	assertRedirect(t, h.do(http.MethodPost, "/onboarding/step-4", nil), "/onboarding/step-1")
	assert.Zero(t, h.store.Progression().CompletedSteps.Len())
}

func TestBackNavigationMovesPointer(t *testing.T) {
	h := newHarness(t, Config{})
	h.login()
	assertRedirect(t, h.do(http.MethodPost, "/onboarding/step-1", validProfileBody()), "/onboarding/step-2")

	rec := h.do(http.MethodGet, "/onboarding/step-1/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[stepView](t, rec)
	assert.Equal(t, model.StepProfile, view.Progress.CurrentStep)
	assert.Equal(t, model.StepProfile, h.store.Progression().CurrentStep)

	// step 2 was never completed and is ahead of the pointer now
	assertRedirect(t, h.do(http.MethodGet, "/onboarding/step-3", nil), "/onboarding/step-1")
	// completed steps stay reachable
	rec = h.do(http.MethodGet, "/onboarding/step-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSongsView_Prefill(t *testing.T) {
	h := newHarness(t, Config{})
	h.login()
	assertRedirect(t, h.do(http.MethodPost, "/onboarding/step-1", validProfileBody()), "/onboarding/step-2")

	rec := h.do(http.MethodGet, "/onboarding/step-2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		Form songsForm `json:"form"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.Equal(t, []string{""}, view.Form.CustomSongs)
	assert.Len(t, view.Form.TopSongs, 8)
	assert.Equal(t, validate.MaxCustomSongs, view.Form.MaxCustomSongs)
}

func TestProgress(t *testing.T) {
	h := newHarness(t, Config{})
	h.login()
	assertRedirect(t, h.do(http.MethodPost, "/onboarding/step-1", validProfileBody()), "/onboarding/step-2")

	rec := h.do(http.MethodGet, "/api/v1/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decodeBody[progressView](t, rec)
	assert.Equal(t, model.StepSongs, p.CurrentStep)
	assert.Equal(t, 4, p.TotalSteps)
	assert.Equal(t, model.StepSetOf(model.StepProfile), p.CompletedSteps)
	require.Len(t, p.Steps, 4)
	assert.True(t, p.Steps[0].Completed)
	assert.True(t, p.Steps[1].Active)
	assert.True(t, p.Steps[1].Reachable)
	assert.False(t, p.Steps[2].Reachable)
	assert.Equal(t, "Payment Information", p.Steps[2].Title)
}

func TestResetAndLogout(t *testing.T) {
	h := newHarness(t, Config{})
	h.login()
	assertRedirect(t, h.do(http.MethodPost, "/onboarding/step-1", validProfileBody()), "/onboarding/step-2")

	assertRedirect(t, h.do(http.MethodPost, "/onboarding/reset", nil), "/onboarding/step-1")
	assert.Equal(t, model.DefaultProgression(), h.store.Progression())
	assert.True(t, h.store.Session().IsAuthenticated)

	assertRedirect(t, h.do(http.MethodPost, "/logout", nil), "/login")
	assertRedirect(t, h.do(http.MethodGet, "/onboarding/step-1", nil), "/login?from=%2Fonboarding%2Fstep-1")
	assertRedirect(t, h.do(http.MethodPost, "/onboarding/reset", nil), "/login")
}

func photoRequest(t *testing.T, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="photo"; filename="me.png"`)
	if contentType != "" {
		hdr.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/onboarding/step-1/photo", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadPhoto(t *testing.T) {
	h := newHarness(t, Config{})
	h.login()

	t.Run("accepted", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.handler.ServeHTTP(rec, photoRequest(t, "image/png", pngHeader))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decodeBody[photoResponse](t, rec)
		assert.True(t, strings.HasPrefix(resp.Photo, "data:image/png;base64,"))

		body := validProfileBody()
		body["profilePicture"] = resp.Photo
		assertRedirect(t, h.do(http.MethodPost, "/onboarding/step-1", body), "/onboarding/step-2")
		require.NotNil(t, h.store.Progression().Profile.Photo)
	})

	t.Run("sniffed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.handler.ServeHTTP(rec, photoRequest(t, "", pngHeader))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("wrong type", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.handler.ServeHTTP(rec, photoRequest(t, "text/plain", []byte("hello")))
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Please choose an image file.")
	})

	t.Run("too large", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.handler.ServeHTTP(rec, photoRequest(t, "image/png", make([]byte, validate.MaxPhotoBytes+1)))
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Profile photos must be 2 MB or smaller.")
	})

	t.Run("not multipart", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/onboarding/step-1/photo", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUploadPhoto_CancelledMidBody(t *testing.T) {
	h := newHarness(t, Config{})
	h.login()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodPost, "/onboarding/step-1/photo", pr).WithContext(ctx)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	headWritten := make(chan struct{})
	cancelled := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="photo"; filename="me.png"`)
		hdr.Set("Content-Type", "image/png")
		part, err := mw.CreatePart(hdr)
		if err != nil {
			return
		}
		if _, err := part.Write(pngHeader); err != nil {
			return
		}
		close(headWritten)
		<-cancelled
		// The handler stops reading, so these writes may fail.
		_, _ = part.Write(make([]byte, 64<<10))
		_ = mw.Close()
		_ = pw.Close()
	}()

	rec := httptest.NewRecorder()
	served := make(chan struct{})
	go func() {
		defer close(served)
		h.handler.ServeHTTP(rec, req)
	}()

	<-headWritten
	require.Eventually(t, func() bool { return h.srv.PhotosPending() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	close(cancelled)

	select {
	case <-served:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after cancellation")
	}
	_ = pr.CloseWithError(io.ErrClosedPipe)
	<-writerDone

	assert.Zero(t, rec.Body.Len(), "abandoned upload writes no body")
	assert.Zero(t, h.srv.PhotosPending())
	assert.Nil(t, h.store.Progression().Profile.Photo)
}

func TestSubmitProfile_RefusedWhilePhotoPending(t *testing.T) {
	h := newHarness(t, Config{})
	h.login()

	pr, pw := io.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = h.srv.photos.Read(context.Background(), "image/png", -1, pr)
	}()
	require.Eventually(t, func() bool { return h.srv.PhotosPending() == 1 }, time.Second, 5*time.Millisecond)

	rec := h.do(http.MethodPost, "/onboarding/step-1", validProfileBody())
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(http.MethodGet, "/onboarding/step-1", nil)
	var view struct {
		Form profileForm `json:"form"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.EqualValues(t, 1, view.Form.PhotoPending)

	require.NoError(t, pw.Close())
	<-done
	require.Eventually(t, func() bool { return h.srv.PhotosPending() == 0 }, time.Second, 5*time.Millisecond)
	assertRedirect(t, h.do(http.MethodPost, "/onboarding/step-1", validProfileBody()), "/onboarding/step-2")
}

func TestOperationalEndpoints(t *testing.T) {
	h := newHarness(t, Config{})

	rec := h.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "onboard_")

	rec = h.do(http.MethodPut, "/login", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(problem.HeaderRequestID))
}
