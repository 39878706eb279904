package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestMiddleware(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Middleware Suite")
}

var _ = Describe("LoggingMiddleware", func() {
	var (
		logBuf  *bytes.Buffer
		handler http.Handler
	)

	BeforeEach(func() {
		logBuf = &bytes.Buffer{}
		logger := slog.New(slog.NewTextHandler(logBuf, nil))

		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"tx-1"}`))
		})
		handler = LoggingMiddleware(logger)(inner)
	})

	It("should log the request and response pair", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/organizations/org-1/transactions/income", strings.NewReader(`{"amount":"100"}`))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusCreated))
		Expect(logBuf.String()).To(ContainSubstring("incoming request"))
		Expect(logBuf.String()).To(ContainSubstring("status_code=201"))
	})

	It("should redact credentials from logged bodies", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"fadhil@mail.com","password":"hunter2"}`))
		req.Header.Set("Authorization", "Bearer topsecret")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		Expect(logBuf.String()).NotTo(ContainSubstring("hunter2"))
		Expect(logBuf.String()).NotTo(ContainSubstring("topsecret"))
		Expect(logBuf.String()).To(ContainSubstring("[FILTERED]"))
	})
})

var _ = Describe("TraceID", func() {
	It("should mint a trace id and echo it back", func() {
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
		rec := httptest.NewRecorder()

		TraceID(inner).ServeHTTP(rec, req)

		Expect(rec.Header().Get("X-Trace-ID")).NotTo(BeEmpty())
	})

	It("should keep a caller-supplied trace id", func() {
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
		req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
		req.Header.Set("X-Trace-ID", "trace-abc")
		rec := httptest.NewRecorder()

		TraceID(inner).ServeHTTP(rec, req)

		Expect(rec.Header().Get("X-Trace-ID")).To(Equal("trace-abc"))
	})
})
