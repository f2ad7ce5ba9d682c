package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "focextractor.v1.ExtractionService"

	methodExtractDocuments = "/" + ServiceName + "/ExtractDocuments"
	methodGetRun           = "/" + ServiceName + "/GetRun"
	methodExportRun        = "/" + ServiceName + "/ExportRun"
)

// ExtractionServer is the daemon's RPC surface. Messages are google.protobuf.Struct so the
// service needs no generated stubs; field names are documented on each handler.
type ExtractionServer interface {
	ExtractDocuments(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ExtractionServiceDesc is registered with grpc.Server.RegisterService.
var ExtractionServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ExtractionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ExtractDocuments", Handler: unaryHandler(methodExtractDocuments, ExtractionServer.ExtractDocuments)},
		{MethodName: "GetRun", Handler: unaryHandler(methodGetRun, ExtractionServer.GetRun)},
		{MethodName: "ExportRun", Handler: unaryHandler(methodExportRun, ExtractionServer.ExportRun)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "focextractor/v1/extraction.proto",
}

func RegisterExtractionServer(s grpc.ServiceRegistrar, srv ExtractionServer) {
	s.RegisterService(&ExtractionServiceDesc, srv)
}

type structMethod func(ExtractionServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call structMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ExtractionServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ExtractionServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ExtractionClient calls ExtractionServer over a client connection.
type ExtractionClient struct {
	cc grpc.ClientConnInterface
}

func NewExtractionClient(cc grpc.ClientConnInterface) *ExtractionClient {
	return &ExtractionClient{cc: cc}
}

func (c *ExtractionClient) ExtractDocuments(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodExtractDocuments, in, opts)
}

func (c *ExtractionClient) GetRun(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodGetRun, in, opts)
}

func (c *ExtractionClient) ExportRun(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodExportRun, in, opts)
}

func (c *ExtractionClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
