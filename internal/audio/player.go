package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/medisync/dose-alert/pkg/logger"
	"github.com/medisync/dose-alert/pkg/types"
)

// Global audio context singleton
var (
	globalAudioCtx     *oto.Context
	globalAudioCtxOnce sync.Once
	audioCtxReady      bool
)

// Output plays alert sounds through the system audio device. At most one
// sound is live at a time: starting a new playback stops and unloads the
// previous one, and a sound that plays to completion unloads itself.
type Output struct {
	logger *logger.Logger

	mu      sync.Mutex
	current *playback
}

type playback struct {
	player   *oto.Player
	stopChan chan struct{}
	stopOnce sync.Once
}

// wavFormat holds WAV file format information
type wavFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// NewOutput creates a new audio output
func NewOutput(log *logger.Logger) *Output {
	return &Output{logger: log}
}

// initAudioContext initializes the global audio context once
func initAudioContext(format *wavFormat) {
	globalAudioCtxOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   format.SampleRate,
			ChannelCount: format.Channels,
			Format:       oto.FormatSignedInt16LE,
		}

		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			return
		}

		// Wait for the hardware audio devices to be ready
		<-readyChan

		globalAudioCtx = ctx
		audioCtxReady = true
	})
}

// Play plays the WAV file at the given volume fraction (0.0-1.0). Any
// sound still playing is stopped first.
func (o *Output) Play(file string, volume float64) error {
	wavData, err := os.ReadFile(file)
	if err != nil {
		return types.NewAudioPlaybackError("SOUND_READ_FAILED", fmt.Sprintf("failed to read sound file %s", file), err)
	}

	format, audioData, err := parseWAV(wavData)
	if err != nil {
		return types.NewAudioPlaybackError("SOUND_PARSE_FAILED", fmt.Sprintf("failed to parse WAV file %s", file), err)
	}

	initAudioContext(format)

	if !audioCtxReady || globalAudioCtx == nil {
		return types.NewAudioPlaybackError("AUDIO_CONTEXT_UNAVAILABLE", "audio context not ready", nil)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	// One live sound instance at a time
	if o.current != nil {
		o.current.stop()
		o.current = nil
	}

	pb := &playback{
		stopChan: make(chan struct{}),
	}
	pb.player = globalAudioCtx.NewPlayer(bytes.NewReader(audioData))
	pb.player.SetVolume(volume)
	pb.player.Play()

	o.current = pb

	// Unload on natural completion or stop request
	go func() {
		for pb.player.IsPlaying() {
			select {
			case <-pb.stopChan:
				pb.player.Close()
				return
			case <-time.After(time.Millisecond):
			}
		}

		if err := pb.player.Close(); err != nil {
			o.logger.WithError(err).Warn("Failed to close audio player")
		}

		o.mu.Lock()
		if o.current == pb {
			o.current = nil
		}
		o.mu.Unlock()
	}()

	return nil
}

// Stop stops and unloads the current sound, if any
func (o *Output) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current != nil {
		o.current.stop()
		o.current = nil
	}
}

func (pb *playback) stop() {
	pb.stopOnce.Do(func() {
		close(pb.stopChan)
	})
}

// parseWAV parses a WAV file and returns the format and audio data
func parseWAV(data []byte) (*wavFormat, []byte, error) {
	reader := bytes.NewReader(data)

	// Read RIFF header
	riff := make([]byte, 4)
	if _, err := reader.Read(riff); err != nil {
		return nil, nil, err
	}
	if string(riff) != "RIFF" {
		return nil, nil, fmt.Errorf("not a RIFF file")
	}

	// Skip file size
	reader.Seek(4, io.SeekCurrent)

	// Read WAVE header
	wave := make([]byte, 4)
	if _, err := reader.Read(wave); err != nil {
		return nil, nil, err
	}
	if string(wave) != "WAVE" {
		return nil, nil, fmt.Errorf("not a WAVE file")
	}

	format := &wavFormat{}
	var dataStart int64
	var dataSize uint32

	// Read chunks
	for {
		chunkID := make([]byte, 4)
		if _, err := reader.Read(chunkID); err != nil {
			if err == io.EOF {
				break
			}
			return nil, nil, err
		}

		var chunkSize uint32
		if err := binary.Read(reader, binary.LittleEndian, &chunkSize); err != nil {
			return nil, nil, err
		}

		switch string(chunkID) {
		case "fmt ":
			var audioFormat uint16
			binary.Read(reader, binary.LittleEndian, &audioFormat)

			var numChannels uint16
			binary.Read(reader, binary.LittleEndian, &numChannels)
			format.Channels = int(numChannels)

			var sampleRate uint32
			binary.Read(reader, binary.LittleEndian, &sampleRate)
			format.SampleRate = int(sampleRate)

			// Skip byte rate and block align
			reader.Seek(6, io.SeekCurrent)

			var bitsPerSample uint16
			binary.Read(reader, binary.LittleEndian, &bitsPerSample)
			format.BitDepth = int(bitsPerSample)

			// Skip any extra format bytes
			if remaining := int64(chunkSize) - 16; remaining > 0 {
				reader.Seek(remaining, io.SeekCurrent)
			}
		case "data":
			dataStart, _ = reader.Seek(0, io.SeekCurrent)
			dataSize = chunkSize
		default:
			reader.Seek(int64(chunkSize), io.SeekCurrent)
		}

		if dataSize > 0 {
			break
		}
	}

	if dataSize == 0 {
		return nil, nil, fmt.Errorf("no data chunk found")
	}

	audioData := make([]byte, dataSize)
	reader.Seek(dataStart, io.SeekStart)
	if _, err := io.ReadFull(reader, audioData); err != nil {
		return nil, nil, fmt.Errorf("short data chunk: %w", err)
	}

	return format, audioData, nil
}
