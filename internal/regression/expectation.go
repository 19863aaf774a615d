package regression

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// MaxPackets is how many packets an expectation may list and Verify compares.
const MaxPackets = 100

// Expectation is the root of an expectation file.
type Expectation struct {
	Format  FormatExpectation   `yaml:"format"`
	Packets []PacketExpectation `yaml:"packets,omitempty"`
}

// FormatExpectation describes the probed container.
type FormatExpectation struct {
	FormatInfo InfoExpectation    `yaml:"format_info"`
	Tracks     []TrackExpectation `yaml:"tracks"`
}

// InfoExpectation mirrors media.FormatInfo.
type InfoExpectation struct {
	Format    string `yaml:"format"`
	ShortName string `yaml:"short_name"`
	LongName  string `yaml:"long_name"`
}

// TrackExpectation describes one track. Empty strings and zero optional
// numbers mean the reader must not report a value either.
type TrackExpectation struct {
	ID          uint32       `yaml:"id"`
	CodecParams *CodecParams `yaml:"codec_params,omitempty"`
	Language    string       `yaml:"language,omitempty"`
	TimeBase    string       `yaml:"time_base,omitempty"`
	NumFrames   uint64       `yaml:"num_frames,omitempty"`
	StartTS     uint64       `yaml:"start_ts"`
	Delay       uint32       `yaml:"delay,omitempty"`
	Padding     uint32       `yaml:"padding,omitempty"`
	Flags       string       `yaml:"flags,omitempty"`
}

// CodecParams holds the codec fields of a track. Channels is either a
// channel count or a layout such as "FRONT_LEFT | FRONT_RIGHT".
// MaxFramesPerPacket and VerificationCheck are only compared when present;
// every other field follows the TrackExpectation rule.
type CodecParams struct {
	CodecType string `yaml:"codec_type"`
	Codec     string `yaml:"codec"`
	Profile   string `yaml:"profile,omitempty"`

	Level      uint32        `yaml:"level,omitempty"`
	Width      uint16        `yaml:"width,omitempty"`
	Height     uint16        `yaml:"height,omitempty"`
	VExtraData []IDExtraData `yaml:"v_extra_data,omitempty"`

	SampleRate         uint32        `yaml:"sample_rate,omitempty"`
	SampleFormat       string        `yaml:"sample_format,omitempty"`
	BitsPerSample      uint32        `yaml:"bits_per_sample,omitempty"`
	BitsPerCodedSample uint32        `yaml:"bits_per_coded_sample,omitempty"`
	Channels           string        `yaml:"channels,omitempty"`
	MaxFramesPerPacket *uint64       `yaml:"max_frames_per_packet,omitempty"`
	VerificationCheck  *string       `yaml:"verification_check,omitempty"`
	FramesPerBlock     uint64        `yaml:"frames_per_block,omitempty"`
	ExtraData          *ExtraDataLen `yaml:"extra_data,omitempty"`
}

// IDExtraData describes one identified video configuration record.
type IDExtraData struct {
	ID      string `yaml:"id"`
	DataLen int    `yaml:"data_len"`
}

// ExtraDataLen describes codec private data by its length.
type ExtraDataLen struct {
	DataLen int `yaml:"data_len"`
}

// PacketExpectation is one packet line.
type PacketExpectation struct {
	ID string `yaml:"id"`
}

// Load reads an expectation file.
func Load(path string) (*Expectation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read expectation file: %w", err)
	}
	exp, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return exp, nil
}

// Parse decodes an expectation, rejecting unknown fields, packet lines that
// do not parse, and more than MaxPackets packets.
func Parse(data []byte) (*Expectation, error) {
	var exp Expectation
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&exp); err != nil {
		return nil, fmt.Errorf("decode expectation: %w", err)
	}
	if len(exp.Packets) > MaxPackets {
		return nil, fmt.Errorf("expectation lists %d packets; only the first %d are compared, remove the rest", len(exp.Packets), MaxPackets)
	}
	for i, p := range exp.Packets {
		line, err := ParsePacketLine(p.ID)
		if err != nil {
			return nil, fmt.Errorf("packets[%d]: %w", i, err)
		}
		if line.N != i+1 {
			return nil, fmt.Errorf("packets[%d]: sequence number %d, want %d", i, line.N, i+1)
		}
	}
	return &exp, nil
}

// Marshal encodes the expectation as YAML.
func (e *Expectation) Marshal() ([]byte, error) {
	if e == nil {
		return nil, errors.New("nil expectation")
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(e); err != nil {
		return nil, fmt.Errorf("encode expectation: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode expectation: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the expectation to path, creating parent directories.
func (e *Expectation) Save(path string) error {
	data, err := e.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create expectation directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write expectation file: %w", err)
	}
	return nil
}
