package dagpb

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/forestrie/go-repocar/contentid"
)

func strp(s string) *string  { return &s }
func u64p(v uint64) *uint64 { return &v }

func leaf(t *testing.T, data string) cid.Cid {
	t.Helper()
	c, _, err := Sum(&Node{Data: []byte(data), HasData: true})
	require.NoError(t, err)
	return c
}

func TestEncodeDataOnly(t *testing.T) {
	b, err := Encode(&Node{Data: []byte("test"), HasData: true})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0a, 0x04, 't', 'e', 's', 't'}, b)

	c, err := contentid.Sum(b, 0, contentid.DagPB)
	require.NoError(t, err)
	s := contentid.Encode(c)
	assert.True(t, strings.HasPrefix(s, "Qm"))

	info, err := contentid.Decode(s)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), info.Version)
	assert.Equal(t, uint64(contentid.SHA2_256), info.HashAlgo)
}

func TestEmptyNode(t *testing.T) {
	b, err := Encode(&Node{})
	require.NoError(t, err)
	assert.Empty(t, b)

	n, err := Decode(nil)
	require.NoError(t, err)
	assert.False(t, n.HasData)
	assert.Empty(t, n.Links)

	// present but empty Data is distinct from absent Data
	b, err = Encode(&Node{HasData: true})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0a, 0x00}, b)
}

func TestRoundTrip(t *testing.T) {
	a, b := leaf(t, "a"), leaf(t, "b")
	n := &Node{
		Links: []Link{
			{Hash: b, Name: strp("zeta"), Tsize: u64p(300)},
			{Hash: a, Name: strp("alpha")},
			{Hash: a},
		},
		Data:    []byte{0x08, 0x01},
		HasData: true,
	}
	enc, err := Encode(n)
	require.NoError(t, err)
	assert.Equal(t, n.Size(), len(enc))

	got, err := Decode(enc)
	require.NoError(t, err)
	require.Len(t, got.Links, 3)

	// sorted by name, nameless first
	assert.Nil(t, got.Links[0].Name)
	assert.Equal(t, "alpha", *got.Links[1].Name)
	assert.Equal(t, "zeta", *got.Links[2].Name)
	assert.Equal(t, uint64(300), *got.Links[2].Tsize)
	assert.True(t, got.Links[2].Hash.Equals(b))
	assert.Equal(t, n.Data, got.Data)

	again, err := Encode(got)
	require.NoError(t, err)
	assert.Equal(t, enc, again)

	// links are written before data
	assert.Equal(t, byte(0x12), enc[0])
}

func TestDecodeFrom(t *testing.T) {
	enc, err := Encode(&Node{Data: []byte("payload"), HasData: true})
	require.NoError(t, err)
	r := bytes.NewReader(append(enc, 0xff))
	n, err := DecodeFrom(r, len(enc))
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), n.Data)

	_, err = DecodeFrom(bytes.NewReader(enc), len(enc)+1)
	assert.ErrorIs(t, err, ErrInvalidNode)
}

func rawLink(t *testing.T, fields ...[]byte) []byte {
	t.Helper()
	var body []byte
	for _, f := range fields {
		body = append(body, f...)
	}
	out := protowire.AppendTag(nil, fieldNodeLinks, protowire.BytesType)
	return protowire.AppendBytes(out, body)
}

func hashField(c cid.Cid) []byte {
	b := protowire.AppendTag(nil, fieldLinkHash, protowire.BytesType)
	return protowire.AppendBytes(b, c.Bytes())
}

func nameField(name string) []byte {
	b := protowire.AppendTag(nil, fieldLinkName, protowire.BytesType)
	return protowire.AppendString(b, name)
}

func tsizeField(v uint64) []byte {
	b := protowire.AppendTag(nil, fieldLinkTsize, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func dataField(d string) []byte {
	b := protowire.AppendTag(nil, fieldNodeData, protowire.BytesType)
	return protowire.AppendString(b, d)
}

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestDecodeOrdering(t *testing.T) {
	c := leaf(t, "x")
	link := rawLink(t, hashField(c))

	tests := []struct {
		name    string
		b       []byte
		wantErr bool
	}{
		{"links then data", cat(link, link, dataField("d")), false},
		{"data then links", cat(dataField("d"), link), false},
		{"duplicate data", cat(dataField("a"), dataField("b")), true},
		{"links data links", cat(link, dataField("d"), link), true},
		{"unknown field", cat(link, []byte{0x1a, 0x00}), true},
		{"varint node field", []byte{0x08, 0x01}, true},
		{"truncated", link[:len(link)-3], true},
		{"link without hash", rawLink(t, nameField("n")), true},
		{"name before hash", rawLink(t, nameField("n"), hashField(c)), true},
		{"tsize before name", rawLink(t, hashField(c), tsizeField(1), nameField("n")), true},
		{"duplicate hash", rawLink(t, hashField(c), hashField(c)), true},
		{"duplicate tsize", rawLink(t, hashField(c), tsizeField(1), tsizeField(2)), true},
		{"full link", rawLink(t, hashField(c), nameField("n"), tsizeField(9)), false},
		{"tsize as bytes", rawLink(t, hashField(c), []byte{0x1a, 0x00}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.b)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidNode)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestEncodeRequiresHash(t *testing.T) {
	_, err := Encode(&Node{Links: []Link{{Name: strp("x")}}})
	assert.ErrorIs(t, err, ErrInvalidNode)
}
