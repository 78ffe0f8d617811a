package dispatch_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/blocks/internal/dispatch"
	"github.com/dmitrymomot/blocks/middlewares"
	"github.com/dmitrymomot/blocks/pkg/logger"
	"github.com/dmitrymomot/blocks/pkg/request"
)

func handler(d *dispatch.Dispatcher) http.Handler {
	cfg := request.DefaultConfig()
	cfg.URLFormat = request.FormatPathInfo
	return middlewares.ControlPanel(nil, "admin")(
		middlewares.Classify(request.New(cfg))(d),
	)
}

func do(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func text(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	})
}

func TestDispatcher_Modes(t *testing.T) {
	t.Parallel()

	h := handler(dispatch.New(
		dispatch.WithSite(text("site")),
		dispatch.WithControlPanel(text("cp")),
		dispatch.WithResources(fstest.MapFS{
			"css/site.css": {Data: []byte("body{}")},
		}),
		dispatch.WithAction("entries/save", func(w http.ResponseWriter, _ *http.Request) error {
			_, _ = w.Write([]byte("saved"))
			return nil
		}),
		dispatch.WithAction("plugin/forms/submissions/save", func(w http.ResponseWriter, _ *http.Request) error {
			_, _ = w.Write([]byte("submitted"))
			return nil
		}),
		dispatch.WithAction("users", func(w http.ResponseWriter, _ *http.Request) error {
			_, _ = w.Write([]byte("users index"))
			return nil
		}),
	))

	tests := []struct {
		target   string
		wantCode int
		wantBody string
	}{
		{"/", http.StatusOK, "site"},
		{"/blog/post", http.StatusOK, "site"},
		{"/admin/entries", http.StatusOK, "cp"},
		{"/resources/css/site.css", http.StatusOK, "body{}"},
		{"/actions/entries/save", http.StatusOK, "saved"},
		{"/actions/plugin/forms/submissions/save", http.StatusOK, "submitted"},
		{"/actions/users", http.StatusOK, "users index"},
		{"/actions/users/index", http.StatusOK, "users index"},
		{"/actions/entries/delete", http.StatusNotFound, "Action not found: entries/delete\n"},
		{"/resources/css/missing.css", http.StatusNotFound, "Resource not found: css/missing.css\n"},
		{"/resources/css", http.StatusNotFound, "Resource not found: css\n"},
		{"/resources", http.StatusNotFound, "Not Found\n"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			t.Parallel()

			rec := do(h, http.MethodGet, tt.target)
			require.Equal(t, tt.wantCode, rec.Code)
			require.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestDispatcher_PostAction(t *testing.T) {
	t.Parallel()

	h := handler(dispatch.New(
		dispatch.WithAction("entries/save", func(w http.ResponseWriter, r *http.Request) error {
			_, _ = w.Write([]byte("saved " + r.PostFormValue("title")))
			return nil
		}),
	))

	t.Run("url encoded", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/blog", bytes.NewBufferString("actions=entries/save&title=hello"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "saved hello", rec.Body.String())
	})

	t.Run("multipart with file", func(t *testing.T) {
		t.Parallel()

		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		require.NoError(t, mw.WriteField("actions", "entries/save"))
		require.NoError(t, mw.WriteField("title", "upload"))
		fw, err := mw.CreateFormFile("image", "cover.png")
		require.NoError(t, err)
		_, err = fw.Write([]byte{0x89, 'P', 'N', 'G'})
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/contact", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "saved upload", rec.Body.String())
	})
}

func TestDispatcher_Logout(t *testing.T) {
	t.Parallel()

	h := handler(dispatch.New(dispatch.WithSessionCookie("sid")))

	rec := do(h, http.MethodGet, "/logout")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "sid", cookies[0].Name)
	require.Negative(t, cookies[0].MaxAge)
}

func TestDispatcher_MissingHandlers(t *testing.T) {
	t.Parallel()

	h := handler(dispatch.New())

	require.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/blog").Code)
	require.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/admin").Code)
	require.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/resources/app.js").Code)
}

func TestDispatcher_ResourceMethod(t *testing.T) {
	t.Parallel()

	h := handler(dispatch.New(dispatch.WithResources(fstest.MapFS{"app.js": {Data: []byte("1")}})))
	require.Equal(t, http.StatusMethodNotAllowed, do(h, http.MethodPost, "/resources/app.js").Code)
	require.Equal(t, http.StatusOK, do(h, http.MethodHead, "/resources/app.js").Code)
}

func TestDispatcher_Unclassified(t *testing.T) {
	t.Parallel()

	rec := do(dispatch.New(dispatch.WithSite(text("site"))), http.MethodGet, "/")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDispatcher_ActionError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, logger.Config{})

	h := handler(dispatch.New(
		dispatch.WithLogger(log),
		dispatch.WithAction("entries/save", func(http.ResponseWriter, *http.Request) error {
			return errors.New("database is gone")
		}),
	))

	rec := do(h, http.MethodGet, "/actions/entries/save")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Internal Server Error\n", rec.Body.String())
	require.Contains(t, buf.String(), `"level":"ERROR"`)
	require.Contains(t, buf.String(), "database is gone")
}

func TestErrorHandler(t *testing.T) {
	t.Parallel()

	t.Run("http error logged as warning", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		eh := dispatch.NewErrorHandler(logger.NewWithWriter(&buf, logger.Config{}))

		rec := httptest.NewRecorder()
		cause := errors.New("no such row")
		eh.Handle(rec, httptest.NewRequest(http.MethodGet, "/x", nil), dispatch.ErrNotFound("Entry not found", dispatch.WithError(cause)))

		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "Entry not found\n", rec.Body.String())

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		require.Equal(t, "WARN", entry["level"])
		require.Equal(t, "404 - Entry not found", entry["msg"])
		require.Equal(t, "no such row", entry["cause"])
	})

	t.Run("wrapped http error", func(t *testing.T) {
		t.Parallel()

		eh := dispatch.NewErrorHandler(nil)
		rec := httptest.NewRecorder()
		err := errors.Join(errors.New("context"), dispatch.ErrBadRequest("Bad title"))
		eh.Handle(rec, httptest.NewRequest(http.MethodGet, "/", nil), err)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("panic", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		eh := dispatch.NewErrorHandler(logger.NewWithWriter(&buf, logger.Config{}))
		rec := httptest.NewRecorder()
		eh.Handle(rec, httptest.NewRequest(http.MethodGet, "/", nil), &middlewares.PanicError{Value: "boom", Stack: []byte("goroutine 7 [running]:")})

		require.Equal(t, http.StatusInternalServerError, rec.Code)

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		require.Equal(t, "ERROR", entry["level"])
		require.Equal(t, "panic: boom", entry["msg"])
		require.Equal(t, "goroutine 7 [running]:", entry["stack"])
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		eh := dispatch.NewErrorHandler(nil)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()
		eh.Handle(rec, req, dispatch.ErrNotFound(""))

		require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		require.JSONEq(t, `{"error":"Not Found","status":404}`, rec.Body.String())
	})

	t.Run("nil error", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		dispatch.NewErrorHandler(nil).Handle(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Zero(t, rec.Body.Len())
	})
}
