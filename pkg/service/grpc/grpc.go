// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grpc

import (
	"context"
	"errors"
	"net"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/u-root/nuvwdt/config"
	"github.com/u-root/nuvwdt/pkg/hardware/region"
	"github.com/u-root/nuvwdt/pkg/logger"
	"github.com/u-root/nuvwdt/pkg/watchdog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type rpcWatchdog interface {
	Info() watchdog.Info
	BootStatus() uint32
	SetTimeout(uint) (uint, error)
	Timeout() uint
	SetPretimeout(uint) error
	Pretimeout() uint
	Start() error
	Stop() error
	Ping() error
	TimeLeft() (uint, error)
}

type wdtServer struct {
	wdt     rpcWatchdog
	version *config.Version
}

var (
	log = logger.LogContainer.GetSimpleLogger()

	rpcErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nuvwdt",
		Subsystem: "rpc",
		Name:      "watchdog_errors_total",
		Help:      "Watchdog operations that failed, by returned code",
	}, []string{"code"})
)

func init() {
	prometheus.MustRegister(rpcErrors)
}

// toStatus maps watchdog and hardware errors to gRPC codes.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	code := codes.Internal
	switch {
	case errors.Is(err, region.ErrBusy):
		code = codes.Unavailable
	case errors.Is(err, watchdog.ErrInvalidTimeout):
		code = codes.InvalidArgument
	case errors.Is(err, watchdog.ErrNowayout):
		code = codes.FailedPrecondition
	case errors.Is(err, watchdog.ErrNotSupported):
		code = codes.Unimplemented
	}
	rpcErrors.WithLabelValues(code.String()).Inc()
	return status.Error(code, err.Error())
}

func (m *wdtServer) GetSupport(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	info := m.wdt.Info()
	s, err := structpb.NewStruct(map[string]interface{}{
		"options":          float64(info.Options),
		"firmware_version": float64(info.FirmwareVersion),
		"identity":         info.Identity,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return s, nil
}

func (m *wdtServer) GetBootStatus(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.UInt32Value, error) {
	return wrapperspb.UInt32(m.wdt.BootStatus()), nil
}

func (m *wdtServer) SetTimeout(ctx context.Context, r *wrapperspb.UInt32Value) (*wrapperspb.UInt32Value, error) {
	t, err := m.wdt.SetTimeout(uint(r.GetValue()))
	if err != nil {
		return nil, toStatus(err)
	}
	log.Infof("Timeout set to %d sec", t)
	return wrapperspb.UInt32(uint32(t)), nil
}

func (m *wdtServer) GetTimeout(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.UInt32Value, error) {
	return wrapperspb.UInt32(uint32(m.wdt.Timeout())), nil
}

func (m *wdtServer) SetPretimeout(ctx context.Context, r *wrapperspb.UInt32Value) (*wrapperspb.UInt32Value, error) {
	if err := m.wdt.SetPretimeout(uint(r.GetValue())); err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.UInt32(uint32(m.wdt.Pretimeout())), nil
}

func (m *wdtServer) GetPretimeout(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.UInt32Value, error) {
	return wrapperspb.UInt32(uint32(m.wdt.Pretimeout())), nil
}

func (m *wdtServer) Start(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := m.wdt.Start(); err != nil {
		return nil, toStatus(err)
	}
	log.Infof("Watchdog started, timeout %d sec", m.wdt.Timeout())
	return &emptypb.Empty{}, nil
}

func (m *wdtServer) Stop(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := m.wdt.Stop(); err != nil {
		return nil, toStatus(err)
	}
	log.Info("Watchdog stopped")
	return &emptypb.Empty{}, nil
}

func (m *wdtServer) Keepalive(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := m.wdt.Ping(); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (m *wdtServer) GetTimeLeft(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.UInt32Value, error) {
	t, err := m.wdt.TimeLeft()
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.UInt32(uint32(t)), nil
}

func (m *wdtServer) GetVersion(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(map[string]interface{}{
		"version":  m.version.Version,
		"git_hash": m.version.GitHash,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return s, nil
}

func (m *wdtServer) newServer() *grpc.Server {
	gServ := grpc.NewServer(
		grpc.UnaryInterceptor(grpc_prometheus.UnaryServerInterceptor),
		grpc.StreamInterceptor(grpc_prometheus.StreamServerInterceptor),
	)
	RegisterWatchdogServer(gServ, m)
	grpc_prometheus.Register(gServ)
	return gServ
}

// Server serves the watchdog service on a listener.
type Server struct {
	g *grpc.Server
	l net.Listener
}

// NewServer creates the gRPC server for wdt. It does not serve until
// Serve is called.
func NewServer(l net.Listener, wdt rpcWatchdog, v *config.Version) *Server {
	s := &wdtServer{wdt: wdt, version: v}
	return &Server{g: s.newServer(), l: l}
}

// Serve blocks until ctx is done or the listener fails.
func (s *Server) Serve(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		log.Infof("gRPC listening on %v", s.l.Addr())
		errc <- s.g.Serve(s.l)
	}()
	select {
	case <-ctx.Done():
		s.g.GracefulStop()
		<-errc
		return nil
	case err := <-errc:
		return err
	}
}

func (s *Server) Addr() net.Addr {
	return s.l.Addr()
}
