package wire

import (
	"context"

	"google.golang.org/grpc"
)

// MessageServiceClient calls otpmail.MessageService using the JSON codec.
type MessageServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewMessageServiceClient(cc grpc.ClientConnInterface) *MessageServiceClient {
	return &MessageServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *MessageServiceClient, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MessageServiceClient) Send(ctx context.Context, in *SendRequest, opts ...grpc.CallOption) (*SendResponse, error) {
	return invoke[SendResponse](ctx, c, SendMethod, in, opts)
}

func (c *MessageServiceClient) Decrypt(ctx context.Context, in *MessageRequest, opts ...grpc.CallOption) (*DecryptResponse, error) {
	return invoke[DecryptResponse](ctx, c, DecryptMethod, in, opts)
}

func (c *MessageServiceClient) DownloadAttachment(ctx context.Context, in *MessageRequest, opts ...grpc.CallOption) (*AttachmentResponse, error) {
	return invoke[AttachmentResponse](ctx, c, DownloadAttachmentMethod, in, opts)
}

func (c *MessageServiceClient) ListSent(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*ListResponse, error) {
	return invoke[ListResponse](ctx, c, ListSentMethod, in, opts)
}

func (c *MessageServiceClient) ListInbox(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*ListResponse, error) {
	return invoke[ListResponse](ctx, c, ListInboxMethod, in, opts)
}

func (c *MessageServiceClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c, PingMethod, in, opts)
}
