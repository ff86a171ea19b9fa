package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_AEADCodec_Roundtrip(t *testing.T) {
	req := require.New(t)
	codec, err := NewAEADCodec(make([]byte, 32))
	req.NoError(err)

	sealed, err := codec.Encode([]byte("the plan is in the vault"))
	req.NoError(err)
	req.NotContains(string(sealed), "vault")

	opened, err := codec.Decode(sealed)
	req.NoError(err)
	req.Equal("the plan is in the vault", string(opened))
}

func Test_AEADCodec_Rejects_Tampered_Values(t *testing.T) {
	req := require.New(t)
	codec, err := NewAEADCodec(make([]byte, 32))
	req.NoError(err)

	sealed, err := codec.Encode([]byte("payload"))
	req.NoError(err)
	sealed[len(sealed)-1] ^= 0xff

	_, err = codec.Decode(sealed)
	req.Error(err)
}

func Test_AEADCodec_Rejects_Bad_Key_Length(t *testing.T) {
	req := require.New(t)
	_, err := NewAEADCodec([]byte("short"))
	req.Error(err)
}

func Test_AEADCodec_Rejects_Truncated_Values(t *testing.T) {
	req := require.New(t)
	codec, err := NewAEADCodec(make([]byte, 32))
	req.NoError(err)

	_, err = codec.Decode([]byte("tiny"))
	req.Error(err)
}
