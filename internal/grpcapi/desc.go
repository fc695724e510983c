package grpcapi

import (
	"context"

	"google.golang.org/grpc"
)

// unaryHandler adapts a typed service method to the grpc.MethodDesc handler
// shape. The descriptors here play the role generated code normally would.
func unaryHandler[Srv any, Req any, Resp any](service, method string, call func(Srv, context.Context, *Req) (*Resp, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	full := MethodName(service, method)
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(Srv), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(Srv), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
