package device

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"

	"github.com/osa030/soundbox/internal/domain/clip"
)

var riffTag = []byte("RIFF")

// PCMData returns the sample bytes of a clip file in the output format of config.
// Raw PCM is returned as is. RIFF/WAVE files are decoded and resampled to the
// configured rate, then mixed down when the output is mono.
func PCMData(raw []byte, config Config) ([]byte, error) {
	if !bytes.HasPrefix(raw, riffTag) {
		return raw, nil
	}

	stream, err := wav.DecodeWithSampleRate(config.SampleRate, bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode wave data")
	}
	data := make([]byte, 0, max(stream.Length(), 0))
	buf := bytes.NewBuffer(data)
	if _, err := io.Copy(buf, stream); err != nil {
		return nil, errors.Wrap(err, "failed to read wave samples")
	}
	if config.Channels == 1 {
		return downmix(buf.Bytes()), nil
	}
	return buf.Bytes(), nil
}

// downmix averages interleaved stereo s16le frames into mono. A trailing partial
// frame is dropped.
func downmix(stereo []byte) []byte {
	frames := len(stereo) / 4
	mono := make([]byte, 0, frames*2)
	for i := range frames {
		l := int32(int16(binary.LittleEndian.Uint16(stereo[i*4:])))
		r := int32(int16(binary.LittleEndian.Uint16(stereo[i*4+2:])))
		mono = binary.LittleEndian.AppendUint16(mono, uint16(int16((l+r)/2)))
	}
	return mono
}

// Probe reads a clip file and returns a clip whose duration matches its PCM length.
func Probe(path string, config Config) (*clip.Clip, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read clip %s", path)
	}
	data, err := PCMData(raw, config)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode clip %s", path)
	}
	return clip.New(path, config.Duration(len(data))), nil
}

// loopReader replays its data forever.
type loopReader struct {
	r *bytes.Reader
}

func newLoopReader(data []byte) *loopReader {
	return &loopReader{r: bytes.NewReader(data)}
}

// Read reads from the data, rewinding at the end.
func (l *loopReader) Read(p []byte) (int, error) {
	if l.r.Size() == 0 {
		return 0, io.EOF
	}
	n, err := l.r.Read(p)
	if errors.Is(err, io.EOF) {
		if _, err := l.r.Seek(0, io.SeekStart); err != nil {
			return 0, err
		}
		return l.r.Read(p)
	}
	return n, err
}

// Seek moves within one repetition of the data.
func (l *loopReader) Seek(offset int64, whence int) (int64, error) {
	return l.r.Seek(offset, whence)
}
