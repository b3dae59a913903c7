package nnue

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Weight file format constants
const (
	MagicNumber = 0x4E4E4843 // "CHNN"
	Version     = 1
)

// FileHeader is the header of the weight file.
type FileHeader struct {
	Magic   uint32
	Version uint32
	Inputs  uint32
	Hidden  uint32
}

// Read decodes a network from r.
// File format, little endian:
//   - Header: Magic, Version, Inputs, Hidden (uint32 each)
//   - InputWeights: Inputs * Hidden * int16
//   - InputBias: Hidden * int16
//   - OutputWeights: Hidden * int16
//   - OutputBias: int32
func Read(r io.Reader) (*Network, error) {
	var h FileHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("nnue: read header: %w", err)
	}
	switch {
	case h.Magic != MagicNumber:
		return nil, fmt.Errorf("%w: magic %#x", ErrBadModel, h.Magic)
	case h.Version != Version:
		return nil, fmt.Errorf("%w: version %d", ErrBadModel, h.Version)
	case h.Inputs != NumFeatures:
		return nil, fmt.Errorf("%w: %d inputs, want %d", ErrBadModel, h.Inputs, NumFeatures)
	case h.Hidden == 0 || h.Hidden > MaxHidden:
		return nil, fmt.Errorf("%w: hidden width %d", ErrBadModel, h.Hidden)
	}

	n := NewNetwork(int(h.Hidden))
	for _, part := range []struct {
		name string
		data any
	}{
		{"input weights", n.InputWeights},
		{"input bias", n.InputBias},
		{"output weights", n.OutputWeights},
		{"output bias", &n.OutputBias},
	} {
		if err := binary.Read(r, binary.LittleEndian, part.data); err != nil {
			return nil, fmt.Errorf("nnue: read %s: %w", part.name, err)
		}
	}
	return n, nil
}

// Write encodes n to w in the format accepted by Read.
func (n *Network) Write(w io.Writer) error {
	h := FileHeader{Magic: MagicNumber, Version: Version, Inputs: NumFeatures, Hidden: uint32(n.Hidden)}
	for _, data := range []any{&h, n.InputWeights, n.InputBias, n.OutputWeights, n.OutputBias} {
		if err := binary.Write(w, binary.LittleEndian, data); err != nil {
			return fmt.Errorf("nnue: write: %w", err)
		}
	}
	return nil
}

// Load reads a network from a file. A missing file yields ErrNoModel.
func Load(path string) (*Network, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoModel, path)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	n, err := Read(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// LoadVersion loads <dir>/<version>/model.nnue.
func LoadVersion(dir, version string) (*Network, error) {
	return Load(ModelPath(dir, version))
}

// Save writes n to path, creating parent directories.
func (n *Network) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := n.Write(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Versions lists the model versions present under dir, sorted.
func Versions(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(ModelPath(dir, e.Name())); err == nil {
			out = append(out, e.Name())
		}
	}
	return out, nil
}
