package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "notebook.v1.NotebookService"

// Full method names.
const (
	GetNoteMethod      = "/" + ServiceName + "/GetNote"
	ListNotesMethod    = "/" + ServiceName + "/ListNotes"
	ListSectionsMethod = "/" + ServiceName + "/ListSections"
	ListPagesMethod    = "/" + ServiceName + "/ListPages"
	GetPageMethod      = "/" + ServiceName + "/GetPage"
)

// NotebookServiceServer is the read API over the note hierarchy. Requests and
// responses are google.protobuf.Struct; collections come back as {"items": [...]}.
type NotebookServiceServer interface {
	GetNote(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListNotes(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListSections(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListPages(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetPage(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(NotebookServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(NotebookServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(NotebookServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// NotebookServiceDesc describes NotebookService for grpc.Server registration.
var NotebookServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*NotebookServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetNote", Handler: unaryHandler(GetNoteMethod, NotebookServiceServer.GetNote)},
		{MethodName: "ListNotes", Handler: unaryHandler(ListNotesMethod, NotebookServiceServer.ListNotes)},
		{MethodName: "ListSections", Handler: unaryHandler(ListSectionsMethod, NotebookServiceServer.ListSections)},
		{MethodName: "ListPages", Handler: unaryHandler(ListPagesMethod, NotebookServiceServer.ListPages)},
		{MethodName: "GetPage", Handler: unaryHandler(GetPageMethod, NotebookServiceServer.GetPage)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "notebook/v1/notebook.proto",
}

// RegisterNotebookServiceServer registers srv on s.
func RegisterNotebookServiceServer(s grpc.ServiceRegistrar, srv NotebookServiceServer) {
	s.RegisterService(&NotebookServiceDesc, srv)
}

// Client calls NotebookService over a connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetNote(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, GetNoteMethod, in, opts...)
}

func (c *Client) ListNotes(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ListNotesMethod, in, opts...)
}

func (c *Client) ListSections(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ListSectionsMethod, in, opts...)
}

func (c *Client) ListPages(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ListPagesMethod, in, opts...)
}

func (c *Client) GetPage(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, GetPageMethod, in, opts...)
}
