package middleware

import (
	"bufio"
	"net"
	"net/http"
)

// FlushableResponseWriter records the status and body size written by a handler
// while keeping the Flusher and Hijacker behavior of the wrapped writer.
type FlushableResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
	flusher      http.Flusher
	hijacker     http.Hijacker
}

func NewFlushableResponseWriter(w http.ResponseWriter) *FlushableResponseWriter {
	wrapper := &FlushableResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}

	if flusher, ok := w.(http.Flusher); ok {
		wrapper.flusher = flusher
	}

	if hijacker, ok := w.(http.Hijacker); ok {
		wrapper.hijacker = hijacker
	}

	return wrapper
}

// WriteHeader records the first status only, matching net/http semantics.
func (f *FlushableResponseWriter) WriteHeader(code int) {
	if f.wroteHeader {
		return
	}

	f.wroteHeader = true
	f.statusCode = code
	f.ResponseWriter.WriteHeader(code)
}

func (f *FlushableResponseWriter) Write(b []byte) (int, error) {
	f.wroteHeader = true

	n, err := f.ResponseWriter.Write(b)
	f.bytesWritten += int64(n)

	return n, err
}

func (f *FlushableResponseWriter) Flush() {
	if f.flusher != nil {
		f.flusher.Flush()
	}
}

func (f *FlushableResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if f.hijacker != nil {
		return f.hijacker.Hijack()
	}

	return nil, nil, http.ErrNotSupported
}

func (f *FlushableResponseWriter) StatusCode() int {
	return f.statusCode
}

func (f *FlushableResponseWriter) BytesWritten() int64 {
	return f.bytesWritten
}

func (f *FlushableResponseWriter) Unwrap() http.ResponseWriter {
	return f.ResponseWriter
}
