package dataset

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// IDX container magics, per the original MNIST distribution.
const (
	idxImagesMagic = 2051
	idxLabelsMagic = 2049
)

// decodeIDXImages reads an IDX image container: a big-endian header of magic,
// count, rows and cols, followed by count*rows*cols raw pixel bytes.
func decodeIDXImages(r io.Reader) (images [][]byte, rows, cols int, err error) {
	var header [4]uint32
	for i := range header {
		if err := binary.Read(r, binary.BigEndian, &header[i]); err != nil {
			return nil, 0, 0, fmt.Errorf("read header word %d: %w", i, err)
		}
	}
	if header[0] != idxImagesMagic {
		return nil, 0, 0, fmt.Errorf("bad image magic: got %d, want %d", header[0], idxImagesMagic)
	}
	count := int(header[1])
	rows, cols = int(header[2]), int(header[3])
	if rows <= 0 || cols <= 0 {
		return nil, 0, 0, fmt.Errorf("bad image dimensions %dx%d", rows, cols)
	}

	images = make([][]byte, count)
	size := rows * cols
	for i := range images {
		images[i] = make([]byte, size)
		if _, err := io.ReadFull(r, images[i]); err != nil {
			return nil, 0, 0, fmt.Errorf("read image %d: %w", i, err)
		}
	}
	return images, rows, cols, nil
}

// decodeIDXLabels reads an IDX label container: magic, count, then count raw
// label bytes.
func decodeIDXLabels(r io.Reader) ([]byte, error) {
	var magic, count uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if magic != idxLabelsMagic {
		return nil, fmt.Errorf("bad label magic: got %d, want %d", magic, idxLabelsMagic)
	}
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, fmt.Errorf("read count: %w", err)
	}

	labels := make([]byte, count)
	if _, err := io.ReadFull(r, labels); err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	return labels, nil
}

func readIDXImageFile(path string) ([][]byte, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()
	images, rows, cols, err := decodeIDXImages(bufio.NewReader(f))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%s: %w", path, err)
	}
	return images, rows, cols, nil
}

func readIDXLabelFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	labels, err := decodeIDXLabels(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return labels, nil
}
