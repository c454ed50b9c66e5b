package audioconv

import (
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// EncodeWAV16k writes pcm16k as a 16-bit mono PCM WAV file.
func EncodeWAV16k(w io.WriteSeeker, pcm16k []float32) error {
	enc := wav.NewEncoder(w, SampleRate, 16, 1, 1)

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: SampleRate},
		Data:           pcmToInts(pcm16k),
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}
