package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// httpServer is a minimal wrapper around net/http.Server so qrld can
// Serve and gracefully Close the HTTP/JSON gateway the same way it
// manages the gRPC server's listener lifecycle.
type httpServer struct {
	inner *http.Server
}

func newHTTPServer(addr string, router *mux.Router) *httpServer {
	return &httpServer{
		inner: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

func (s *httpServer) Serve() error {
	err := s.inner.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *httpServer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.inner.Shutdown(ctx)
}
