package asm

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/stopnoanime/16TTAC-sim/pkg/cpu"
	"github.com/stopnoanime/16TTAC-sim/pkg/utils"
)

// WriteBinary writes words as little-endian 16-bit values.
func WriteBinary(w io.Writer, words []uint16) error {
	return binary.Write(w, binary.LittleEndian, words)
}

// ReadBinary reads an image written by WriteBinary.
func ReadBinary(r io.Reader) ([]uint16, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("binary image has odd length %d", len(data))
	}
	if len(data)/2 > MaxWords {
		return nil, fmt.Errorf("binary image too large: %d words", len(data)/2)
	}
	words := make([]uint16, len(data)/2)
	for i := range words {
		words[i] = binary.LittleEndian.Uint16(data[i*2:])
	}
	return words, nil
}

// WriteHex writes one word per line as four uppercase hex digits.
func WriteHex(w io.Writer, words []uint16) error {
	bw := bufio.NewWriter(w)
	for _, word := range words {
		if _, err := fmt.Fprintf(bw, "%04X\n", word); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadHex reads an image written by WriteHex. Blank lines are ignored.
func ReadHex(r io.Reader) ([]uint16, error) {
	var words []uint16
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		n, err := strconv.ParseUint(text, 16, 16)
		if err != nil {
			return nil, fmt.Errorf("hex image line %d: invalid word %q", line, text)
		}
		if len(words) == MaxWords {
			return nil, fmt.Errorf("hex image too large: more than %d words", MaxWords)
		}
		words = append(words, uint16(n))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

// ReadImageFile loads a binary or hex image from path.
func ReadImageFile(path string, hex bool) ([]uint16, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var words []uint16
	if hex {
		words, err = ReadHex(f)
	} else {
		words, err = ReadBinary(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return words, nil
}

// WriteImageFile stores words at path as a binary or hex image.
func WriteImageFile(path string, words []uint16, hex bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if hex {
		err = WriteHex(f, words)
	} else {
		err = WriteBinary(f, words)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// LoadFile reads a program for reg from path. Images are recognized by
// their .bin or .hex extension, anything else is assembled as source.
func LoadFile(path string, reg *cpu.Registry) ([]uint16, error) {
	format := utils.DetectFormat(path)
	if format != utils.FormatSource {
		return ReadImageFile(path, format == utils.FormatHex)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	words, _, err := Assemble(string(src), reg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return words, nil
}
