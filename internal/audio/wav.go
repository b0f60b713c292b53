package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const wavHeaderSize = 44

// Encode writes b as a PCM16 mono WAV stream.
func Encode(w io.Writer, b *Buffer) error {
	if b == nil || b.SampleRate <= 0 {
		return errors.New("wav: buffer has no sample rate")
	}
	if _, err := w.Write(wavHeader(len(b.PCM), b.SampleRate)); err != nil {
		return fmt.Errorf("wav: write header: %w", err)
	}
	if _, err := w.Write(b.PCM); err != nil {
		return fmt.Errorf("wav: write samples: %w", err)
	}
	return nil
}

// Bytes returns b encoded as a complete WAV file in memory.
func Bytes(b *Buffer) []byte {
	out := make([]byte, 0, wavHeaderSize+len(b.PCM))
	out = append(out, wavHeader(len(b.PCM), b.SampleRate)...)
	return append(out, b.PCM...)
}

func wavHeader(dataLen, sampleRate int) []byte {
	h := make([]byte, wavHeaderSize)
	le := binary.LittleEndian

	copy(h[0:4], "RIFF")
	le.PutUint32(h[4:8], uint32(36+dataLen))
	copy(h[8:12], "WAVE")

	copy(h[12:16], "fmt ")
	le.PutUint32(h[16:20], 16)
	le.PutUint16(h[20:22], 1) // PCM
	le.PutUint16(h[22:24], 1) // mono
	le.PutUint32(h[24:28], uint32(sampleRate))
	le.PutUint32(h[28:32], uint32(sampleRate*2)) // byte rate: rate * channels * 16/8
	le.PutUint16(h[32:34], 2)                    // block align
	le.PutUint16(h[34:36], 16)                   // bits per sample

	copy(h[36:40], "data")
	le.PutUint32(h[40:44], uint32(dataLen))
	return h
}

// Decode parses a RIFF/WAVE byte stream into a Buffer. Only uncompressed
// 16-bit PCM is accepted; stereo input is downmixed to mono. The RIFF chunks
// are walked explicitly because TTS servers routinely emit extra chunks
// (LIST, fact) between the header and the sample data.
func Decode(wav []byte) (*Buffer, error) {
	if len(wav) < 12 {
		return nil, errors.New("wav: too short to be a RIFF file")
	}
	if string(wav[0:4]) != "RIFF" {
		return nil, errors.New("wav: missing RIFF header")
	}
	if string(wav[8:12]) != "WAVE" {
		return nil, errors.New("wav: missing WAVE identifier")
	}

	var (
		format     int
		channels   int
		sampleRate int
		bits       int
		foundFmt   bool
	)

	offset := 12
	for offset+8 <= len(wav) {
		chunkID := string(wav[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(wav[offset+4 : offset+8]))
		body := offset + 8

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 || body+16 > len(wav) {
				return nil, errors.New("wav: truncated fmt chunk")
			}
			fmtData := wav[body:]
			format = int(binary.LittleEndian.Uint16(fmtData[0:2]))
			channels = int(binary.LittleEndian.Uint16(fmtData[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(fmtData[4:8]))
			bits = int(binary.LittleEndian.Uint16(fmtData[14:16]))
			foundFmt = true

		case "data":
			if !foundFmt {
				return nil, errors.New("wav: data chunk before fmt chunk")
			}
			if format != 1 || bits != 16 {
				return nil, fmt.Errorf("wav: unsupported encoding (format=%d, bits=%d), want 16-bit PCM", format, bits)
			}
			end := body + chunkSize
			if end > len(wav) {
				// Streaming writers sometimes lie about the data size;
				// take what is actually there.
				end = len(wav)
			}
			pcm := wav[body:end]
			switch channels {
			case 1:
			case 2:
				pcm = StereoToMono(pcm)
			default:
				return nil, fmt.Errorf("wav: unsupported channel count %d", channels)
			}
			return &Buffer{PCM: pcm, SampleRate: sampleRate}, nil
		}

		// Chunks are word-aligned: odd sizes carry one pad byte.
		offset = body + chunkSize
		if chunkSize%2 != 0 {
			offset++
		}
	}
	return nil, errors.New("wav: missing data chunk")
}
