package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
)

func TestCodec_Registered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	require.NotNil(t, c)
	assert.Equal(t, CodecName, c.Name())
}

func TestCodec_AttachmentContentIsBase64(t *testing.T) {
	c := jsonCodec{}
	b, err := c.Marshal(&SendRequest{To: "b@x", Body: "hi", Attachment: &Attachment{Name: "a", Content: []byte{0xff, 0x00}}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"to":"b@x","body":"hi","attachment":{"name":"a","content":"/wA="}}`, string(b))

	var got SendRequest
	require.NoError(t, c.Unmarshal(b, &got))
	assert.Equal(t, []byte{0xff, 0x00}, got.Attachment.Content)
}

func TestServiceDesc_Methods(t *testing.T) {
	names := map[string]bool{}
	for _, m := range ServiceDesc.Methods {
		names[m.MethodName] = true
	}
	for _, want := range []string{"Send", "Decrypt", "DownloadAttachment", "ListSent", "ListInbox", "Ping"} {
		assert.True(t, names[want], want)
	}
	assert.Equal(t, "/otpmail.MessageService/Ping", PingMethod)
}
