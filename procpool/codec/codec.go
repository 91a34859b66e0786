// Licensed to LinDB under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. LinDB licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Package codec implements the wire framing and payload serialization
// used between a Pool's workers and their parent. Frames are
// length-prefixed (big-endian u32 byte count) followed by a payload
// that a Codec encodes and decodes; the Codec itself is injected so a
// caller may swap JSON for a denser format without touching the
// framing or multiplexing layers.
package codec

import (
	"encoding/binary"
	"errors"
	"io"
)

// maxFrameBytes guards against a corrupt length prefix causing an
// unbounded allocation.
const maxFrameBytes = 256 << 20

// ErrFrameTooLarge is returned by ReadFrame when the length prefix
// exceeds maxFrameBytes.
var ErrFrameTooLarge = errors.New("codec: frame exceeds maximum size")

// Codec encodes and decodes task payloads. The default is JSON; a
// msgpack or protobuf implementation can be substituted by callers
// that construct their own Pool.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(b []byte, out any) error
}

// WriteFrame writes one length-prefixed frame to w. Writes are not
// safe for concurrent use on the same w; Worker serializes its own
// outbound sink.
func WriteFrame(w io.Writer, payload []byte) error {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadFrame blocks until one full length-prefixed frame has been read
// from r, or returns the underlying error (io.EOF on clean close).
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(header[:])
	if n > maxFrameBytes {
		return nil, ErrFrameTooLarge
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
