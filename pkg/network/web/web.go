// Copyright 2021 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// WebServer is the struct that holds all necessary information
// for a single port on which web services are served on
type WebServer struct {
	Mux      *http.ServeMux
	Serv     *http.Server
	Listener net.Listener
}

// NewWebserver returns a pointer to a new WebServer struct and
// initialises it with a new http.ServeMux
func NewWebserver() *WebServer {
	return &WebServer{
		Mux:      http.NewServeMux(),
		Serv:     nil,
		Listener: nil,
	}
}

// SetServer fills the WebServer struct and starts a net.Listener on
// addr. A port of 0 picks one at random.
func (w *WebServer) SetServer(addr string) error {
	w.Serv = &http.Server{
		Addr:              addr,
		Handler:           w.Mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	var err error
	w.Listener, err = net.Listen("tcp", addr)
	return err
}

// Serve serves HTTP until ctx is done, then shuts the server down.
func (w *WebServer) Serve(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		errc <- w.Serv.Serve(w.Listener)
	}()
	select {
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return w.Serv.Shutdown(sctx)
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
