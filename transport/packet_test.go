package transport

import (
	"testing"

	audiomixer "github.com/hfmix/audiomixer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeMixedAudioRoundTrip(t *testing.T) {
	pcm := make([]int16, audiomixer.FrameSamplesStereo)
	for i := range pcm {
		pcm[i] = int16(i - 100)
	}

	data, err := EncodeMixedAudio(42, pcm)
	require.NoError(t, err)
	assert.Len(t, data, 2+audiomixer.MixedAudioPCMBytes)

	seq, decoded, err := DecodeMixedAudio(data)
	require.NoError(t, err)
	assert.Equal(t, uint16(42), seq)
	assert.Equal(t, pcm, decoded)
}

func TestEncodeMixedAudioRejectsWrongLength(t *testing.T) {
	_, err := EncodeMixedAudio(0, make([]int16, 10))
	assert.Error(t, err)
}

func TestDecodeMixedAudioRejectsWrongLength(t *testing.T) {
	_, _, err := DecodeMixedAudio(make([]byte, 5))
	assert.Error(t, err)
}

func TestDecodeMixedAudioNegativeSamples(t *testing.T) {
	pcm := make([]int16, audiomixer.FrameSamplesStereo)
	pcm[0] = -32768
	pcm[1] = 32767

	data, err := EncodeMixedAudio(0, pcm)
	require.NoError(t, err)

	_, decoded, err := DecodeMixedAudio(data)
	require.NoError(t, err)
	assert.Equal(t, int16(-32768), decoded[0])
	assert.Equal(t, int16(32767), decoded[1])
}

func TestEncodeDecodeUpstreamAudioMonoRoundTrip(t *testing.T) {
	pcm := make([]int16, audiomixer.FrameSamplesMono)
	for i := range pcm {
		pcm[i] = int16(i * 3)
	}

	data := EncodeUpstreamAudio(7, pcm)
	assert.Len(t, data, 2+audiomixer.FrameSamplesMono*2)

	seq, decoded, err := DecodeUpstreamAudio(data)
	require.NoError(t, err)
	assert.Equal(t, uint16(7), seq)
	assert.Equal(t, pcm, decoded)
}

func TestEncodeDecodeUpstreamAudioStereoRoundTrip(t *testing.T) {
	pcm := make([]int16, audiomixer.FrameSamplesStereo)
	data := EncodeUpstreamAudio(1, pcm)

	_, decoded, err := DecodeUpstreamAudio(data)
	require.NoError(t, err)
	assert.Len(t, decoded, audiomixer.FrameSamplesStereo)
}

func TestDecodeUpstreamAudioRejectsOddLength(t *testing.T) {
	_, _, err := DecodeUpstreamAudio(make([]byte, 5))
	assert.Error(t, err)
}

func TestDecodeUpstreamAudioRejectsTooShort(t *testing.T) {
	_, _, err := DecodeUpstreamAudio(make([]byte, 1))
	assert.Error(t, err)
}
