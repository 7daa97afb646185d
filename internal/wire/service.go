package wire

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "otpmail.MessageService"

// Full method names, as seen by interceptors.
const (
	SendMethod               = "/" + ServiceName + "/Send"
	DecryptMethod            = "/" + ServiceName + "/Decrypt"
	DownloadAttachmentMethod = "/" + ServiceName + "/DownloadAttachment"
	ListSentMethod           = "/" + ServiceName + "/ListSent"
	ListInboxMethod          = "/" + ServiceName + "/ListInbox"
	PingMethod               = "/" + ServiceName + "/Ping"
)

type MessageServiceServer interface {
	Send(context.Context, *SendRequest) (*SendResponse, error)
	Decrypt(context.Context, *MessageRequest) (*DecryptResponse, error)
	DownloadAttachment(context.Context, *MessageRequest) (*AttachmentResponse, error)
	ListSent(context.Context, *ListRequest) (*ListResponse, error)
	ListInbox(context.Context, *ListRequest) (*ListResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
}

// unary adapts a typed method to a grpc.MethodHandler.
func unary[Req, Resp any](fullMethod string, call func(MessageServiceServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(MessageServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(MessageServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MessageServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Send", Handler: unary(SendMethod, MessageServiceServer.Send)},
		{MethodName: "Decrypt", Handler: unary(DecryptMethod, MessageServiceServer.Decrypt)},
		{MethodName: "DownloadAttachment", Handler: unary(DownloadAttachmentMethod, MessageServiceServer.DownloadAttachment)},
		{MethodName: "ListSent", Handler: unary(ListSentMethod, MessageServiceServer.ListSent)},
		{MethodName: "ListInbox", Handler: unary(ListInboxMethod, MessageServiceServer.ListInbox)},
		{MethodName: "Ping", Handler: unary(PingMethod, MessageServiceServer.Ping)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "otpmail/message_service",
}

// RegisterMessageServiceServer registers srv on s.
func RegisterMessageServiceServer(s grpc.ServiceRegistrar, srv MessageServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
