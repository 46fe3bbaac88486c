// SPDX-License-Identifier: MPL-2.0
/*
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package wav encodes a single channel of samples as a 16-bit PCM RIFF
// WAVE file.
package wav

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Header is the canonical RIFF/WAVE header for a single PCM data chunk.
type Header struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// Write encodes the samples as mono 16-bit PCM at the given sampling rate.
// The channel is peak-normalized to full scale first; an all-zero channel
// stays silent.
func Write(w io.Writer, samples []float64, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sampling rate %d", sampleRate)
	}

	peak := 0.0
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	scale := 0.0
	if peak > 0 {
		scale = 32767.0 / peak
	}

	dataSize := uint32(2 * len(samples))
	hdr := Header{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1, // PCM
		NumChannels:   1,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * 2),
		BlockAlign:    2,
		BitsPerSample: 16,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	writer := bufio.NewWriter(w)
	if err := binary.Write(writer, binary.LittleEndian, hdr); err != nil {
		return fmt.Errorf("error writing WAV header: %w", err)
	}
	for _, s := range samples {
		if err := binary.Write(writer, binary.LittleEndian, int16(math.Round(s*scale))); err != nil {
			return fmt.Errorf("error writing samples: %w", err)
		}
	}
	return writer.Flush()
}

// Read decodes a file written by Write, returning the normalized samples
// in [-1, 1] and the sampling rate.
func Read(r io.Reader) ([]float64, int, error) {
	var hdr Header
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, 0, fmt.Errorf("error reading WAV header: %w", err)
	}
	if string(hdr.ChunkID[:]) != "RIFF" || string(hdr.Format[:]) != "WAVE" {
		return nil, 0, fmt.Errorf("invalid WAV file")
	}
	if hdr.AudioFormat != 1 || hdr.BitsPerSample != 16 || hdr.NumChannels != 1 {
		return nil, 0, fmt.Errorf("unsupported WAV encoding")
	}

	n := int(hdr.Subchunk2Size / 2)
	samples := make([]float64, n)
	raw := make([]int16, n)
	if err := binary.Read(r, binary.LittleEndian, raw); err != nil {
		return nil, 0, fmt.Errorf("error reading samples: %w", err)
	}
	for i, v := range raw {
		samples[i] = float64(v) / 32768.0
	}
	return samples, int(hdr.SampleRate), nil
}
