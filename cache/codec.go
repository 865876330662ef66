package cache

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"io"

	"github.com/cespare/xxhash"
	"github.com/klauspost/compress/zstd"

	"github.com/domino14/repopt/book"
	"github.com/domino14/repopt/position"
)

// Blob layout: magic(4) + version(1) + xxhash64 of body(8) + body, where the
// body is a zstd frame holding the gob-encoded entry map.
const (
	blobMagic      = "RPBC"
	blobVersion    = uint8(1)
	blobHeaderSize = 13
)

var (
	ErrBadMagic           = errors.New("not a book cache file")
	ErrUnsupportedVersion = errors.New("unsupported book cache version")
	ErrChecksum           = errors.New("book cache checksum mismatch")
)

func encode(w io.Writer, entries map[position.Key]book.Moves) error {
	var body bytes.Buffer
	zw, err := zstd.NewWriter(&body)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(zw).Encode(entries); err != nil {
		zw.Close()
		return fmt.Errorf("encoding book cache: %w", err)
	}
	if err := zw.Close(); err != nil {
		return err
	}

	header := make([]byte, blobHeaderSize)
	copy(header, blobMagic)
	header[4] = blobVersion
	binary.BigEndian.PutUint64(header[5:], xxhash.Sum64(body.Bytes()))
	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err = w.Write(body.Bytes())
	return err
}

func decode(r io.Reader) (map[position.Key]book.Moves, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) < blobHeaderSize || string(data[:4]) != blobMagic {
		return nil, ErrBadMagic
	}
	if data[4] != blobVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, data[4])
	}
	body := data[blobHeaderSize:]
	if binary.BigEndian.Uint64(data[5:blobHeaderSize]) != xxhash.Sum64(body) {
		return nil, ErrChecksum
	}

	zr, err := zstd.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	entries := make(map[position.Key]book.Moves)
	if err := gob.NewDecoder(zr).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decoding book cache: %w", err)
	}
	return entries, nil
}
