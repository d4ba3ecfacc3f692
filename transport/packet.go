package transport

import (
	"encoding/binary"
	"fmt"

	audiomixer "github.com/hfmix/audiomixer"
)

// EncodeMixedAudio frames one listener's mixed stereo output as
// sequence (u16 little-endian) followed by 960 bytes of interleaved
// L,R 16-bit little-endian PCM. The caller's transport is expected to
// prepend its own opaque header before sending.
func EncodeMixedAudio(sequence uint16, pcm []int16) ([]byte, error) {
	if len(pcm) != audiomixer.FrameSamplesStereo {
		return nil, fmt.Errorf("encode mixed audio: expected %d samples, got %d", audiomixer.FrameSamplesStereo, len(pcm))
	}

	out := make([]byte, 2+audiomixer.MixedAudioPCMBytes)
	binary.LittleEndian.PutUint16(out[0:2], sequence)
	for i, s := range pcm {
		binary.LittleEndian.PutUint16(out[2+i*2:4+i*2], uint16(s))
	}
	return out, nil
}

// DecodeMixedAudio parses a mixed-audio packet's sequence and PCM
// payload, with any opaque transport header already stripped.
func DecodeMixedAudio(data []byte) (sequence uint16, pcm []int16, err error) {
	want := 2 + audiomixer.MixedAudioPCMBytes
	if len(data) != want {
		return 0, nil, fmt.Errorf("decode mixed audio: expected %d bytes, got %d", want, len(data))
	}

	sequence = binary.LittleEndian.Uint16(data[0:2])
	pcm = make([]int16, audiomixer.FrameSamplesStereo)
	for i := range pcm {
		pcm[i] = int16(binary.LittleEndian.Uint16(data[2+i*2 : 4+i*2]))
	}
	return sequence, pcm, nil
}

// EncodeUpstreamAudio frames one source's inbound audio the same way
// as EncodeMixedAudio: sequence (u16 LE) followed by every sample of
// pcm as 16-bit LE. The length follows len(pcm), so a mono microphone
// and a stereo injector share the same wire shape.
func EncodeUpstreamAudio(sequence uint16, pcm []int16) []byte {
	out := make([]byte, 2+len(pcm)*2)
	binary.LittleEndian.PutUint16(out[0:2], sequence)
	for i, s := range pcm {
		binary.LittleEndian.PutUint16(out[2+i*2:4+i*2], uint16(s))
	}
	return out
}

// DecodeUpstreamAudio parses an inbound source packet, inferring the
// PCM sample count from the payload length: any even-length payload
// is accepted, since the sending client's channel count is already
// known to the core from the Source it was registered with.
func DecodeUpstreamAudio(data []byte) (sequence uint16, pcm []int16, err error) {
	if len(data) < 2 || len(data)%2 != 0 {
		return 0, nil, fmt.Errorf("decode upstream audio: malformed payload of %d bytes", len(data))
	}

	sequence = binary.LittleEndian.Uint16(data[0:2])
	sampleCount := (len(data) - 2) / 2
	pcm = make([]int16, sampleCount)
	for i := range pcm {
		pcm[i] = int16(binary.LittleEndian.Uint16(data[2+i*2 : 4+i*2]))
	}
	return sequence, pcm, nil
}
