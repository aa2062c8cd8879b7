// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the full gRPC service name. All messages are protobuf
// well-known types, so no generated code is needed.
const ServiceName = "nuvwdt.Watchdog"

// WatchdogServer is the server API for the nuvwdt.Watchdog service.
type WatchdogServer interface {
	GetSupport(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetBootStatus(context.Context, *emptypb.Empty) (*wrapperspb.UInt32Value, error)
	SetTimeout(context.Context, *wrapperspb.UInt32Value) (*wrapperspb.UInt32Value, error)
	GetTimeout(context.Context, *emptypb.Empty) (*wrapperspb.UInt32Value, error)
	SetPretimeout(context.Context, *wrapperspb.UInt32Value) (*wrapperspb.UInt32Value, error)
	GetPretimeout(context.Context, *emptypb.Empty) (*wrapperspb.UInt32Value, error)
	Start(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Stop(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Keepalive(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	GetTimeLeft(context.Context, *emptypb.Empty) (*wrapperspb.UInt32Value, error)
	GetVersion(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

func RegisterWatchdogServer(s *grpc.Server, srv WatchdogServer) {
	s.RegisterService(&watchdogServiceDesc, srv)
}

type call func(srv WatchdogServer, ctx context.Context, in interface{}) (interface{}, error)

func unary(method string, newIn func() interface{}, f call) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := newIn()
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return f(srv.(WatchdogServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + method,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return f(srv.(WatchdogServer), ctx, req)
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func newEmpty() interface{}  { return new(emptypb.Empty) }
func newUint32() interface{} { return new(wrapperspb.UInt32Value) }

var watchdogServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WatchdogServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetSupport", newEmpty, func(s WatchdogServer, ctx context.Context, in interface{}) (interface{}, error) {
			return s.GetSupport(ctx, in.(*emptypb.Empty))
		}),
		unary("GetBootStatus", newEmpty, func(s WatchdogServer, ctx context.Context, in interface{}) (interface{}, error) {
			return s.GetBootStatus(ctx, in.(*emptypb.Empty))
		}),
		unary("SetTimeout", newUint32, func(s WatchdogServer, ctx context.Context, in interface{}) (interface{}, error) {
			return s.SetTimeout(ctx, in.(*wrapperspb.UInt32Value))
		}),
		unary("GetTimeout", newEmpty, func(s WatchdogServer, ctx context.Context, in interface{}) (interface{}, error) {
			return s.GetTimeout(ctx, in.(*emptypb.Empty))
		}),
		unary("SetPretimeout", newUint32, func(s WatchdogServer, ctx context.Context, in interface{}) (interface{}, error) {
			return s.SetPretimeout(ctx, in.(*wrapperspb.UInt32Value))
		}),
		unary("GetPretimeout", newEmpty, func(s WatchdogServer, ctx context.Context, in interface{}) (interface{}, error) {
			return s.GetPretimeout(ctx, in.(*emptypb.Empty))
		}),
		unary("Start", newEmpty, func(s WatchdogServer, ctx context.Context, in interface{}) (interface{}, error) {
			return s.Start(ctx, in.(*emptypb.Empty))
		}),
		unary("Stop", newEmpty, func(s WatchdogServer, ctx context.Context, in interface{}) (interface{}, error) {
			return s.Stop(ctx, in.(*emptypb.Empty))
		}),
		unary("Keepalive", newEmpty, func(s WatchdogServer, ctx context.Context, in interface{}) (interface{}, error) {
			return s.Keepalive(ctx, in.(*emptypb.Empty))
		}),
		unary("GetTimeLeft", newEmpty, func(s WatchdogServer, ctx context.Context, in interface{}) (interface{}, error) {
			return s.GetTimeLeft(ctx, in.(*emptypb.Empty))
		}),
		unary("GetVersion", newEmpty, func(s WatchdogServer, ctx context.Context, in interface{}) (interface{}, error) {
			return s.GetVersion(ctx, in.(*emptypb.Empty))
		}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "nuvwdt/watchdog",
}

// WatchdogClient is the client API for the nuvwdt.Watchdog service.
type WatchdogClient struct {
	cc grpc.ClientConnInterface
}

func NewWatchdogClient(cc grpc.ClientConnInterface) *WatchdogClient {
	return &WatchdogClient{cc}
}

func (c *WatchdogClient) invoke(ctx context.Context, method string, in, out interface{}, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...)
}

func (c *WatchdogClient) GetSupport(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	return out, c.invoke(ctx, "GetSupport", &emptypb.Empty{}, out, opts...)
}

func (c *WatchdogClient) GetBootStatus(ctx context.Context, opts ...grpc.CallOption) (uint32, error) {
	return c.getUint32(ctx, "GetBootStatus", opts...)
}

func (c *WatchdogClient) SetTimeout(ctx context.Context, seconds uint32, opts ...grpc.CallOption) (uint32, error) {
	return c.setUint32(ctx, "SetTimeout", seconds, opts...)
}

func (c *WatchdogClient) GetTimeout(ctx context.Context, opts ...grpc.CallOption) (uint32, error) {
	return c.getUint32(ctx, "GetTimeout", opts...)
}

func (c *WatchdogClient) SetPretimeout(ctx context.Context, seconds uint32, opts ...grpc.CallOption) (uint32, error) {
	return c.setUint32(ctx, "SetPretimeout", seconds, opts...)
}

func (c *WatchdogClient) GetPretimeout(ctx context.Context, opts ...grpc.CallOption) (uint32, error) {
	return c.getUint32(ctx, "GetPretimeout", opts...)
}

func (c *WatchdogClient) Start(ctx context.Context, opts ...grpc.CallOption) error {
	return c.invoke(ctx, "Start", &emptypb.Empty{}, new(emptypb.Empty), opts...)
}

func (c *WatchdogClient) Stop(ctx context.Context, opts ...grpc.CallOption) error {
	return c.invoke(ctx, "Stop", &emptypb.Empty{}, new(emptypb.Empty), opts...)
}

func (c *WatchdogClient) Keepalive(ctx context.Context, opts ...grpc.CallOption) error {
	return c.invoke(ctx, "Keepalive", &emptypb.Empty{}, new(emptypb.Empty), opts...)
}

func (c *WatchdogClient) GetTimeLeft(ctx context.Context, opts ...grpc.CallOption) (uint32, error) {
	return c.getUint32(ctx, "GetTimeLeft", opts...)
}

func (c *WatchdogClient) GetVersion(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	return out, c.invoke(ctx, "GetVersion", &emptypb.Empty{}, out, opts...)
}

func (c *WatchdogClient) getUint32(ctx context.Context, method string, opts ...grpc.CallOption) (uint32, error) {
	out := new(wrapperspb.UInt32Value)
	if err := c.invoke(ctx, method, &emptypb.Empty{}, out, opts...); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}

func (c *WatchdogClient) setUint32(ctx context.Context, method string, v uint32, opts ...grpc.CallOption) (uint32, error) {
	out := new(wrapperspb.UInt32Value)
	if err := c.invoke(ctx, method, wrapperspb.UInt32(v), out, opts...); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}
