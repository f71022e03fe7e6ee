package columnarstore

import (
	"testing"

	apperrors "github.com/rxtech-lab/argo-trading/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestCompressionCopyOptionDefaultsToZSTD(t *testing.T) {
	codec, err := Compression("").copyOption()
	require.NoError(t, err)
	require.Equal(t, string(CompressionZSTD), codec)
}

func TestCompressionCopyOptionAcceptsEachKnownCodec(t *testing.T) {
	for _, c := range []Compression{CompressionZSTD, CompressionSnappy, CompressionGzip, CompressionUncompressed} {
		codec, err := c.copyOption()
		require.NoError(t, err)
		require.Equal(t, string(c), codec)
	}
}

func TestCompressionCopyOptionRejectsUnknownCodec(t *testing.T) {
	_, err := Compression("LZ4").copyOption()
	require.Error(t, err)
	require.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationInvalidType))
}
