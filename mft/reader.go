package mft

import (
	"io"
)

// PagedReader wraps an io.ReaderAt with an LRU page cache. MFT scans
// touch each record once but the attribute list resolver jumps back
// to extension records, so caching whole pages keeps those lookups
// from hitting the underlying file again.
type PagedReader struct {
	reader   io.ReaderAt
	pagesize int64
	lru      *LRU
}

func NewPagedReader(reader io.ReaderAt, pagesize int64, cache_size int) (
	*PagedReader, error) {
	if pagesize <= 0 || pagesize&(pagesize-1) != 0 {
		return nil, InvalidHeaderError
	}

	return &PagedReader{
		reader:   reader,
		pagesize: pagesize,
		lru:      NewLRU(cache_size),
	}, nil
}

func (self *PagedReader) readPage(page int64) ([]byte, error) {
	cached, pres := self.lru.Get(page)
	if pres {
		return cached.([]byte), nil
	}

	buffer := make([]byte, self.pagesize)
	n, err := self.reader.ReadAt(buffer, page*self.pagesize)
	if err != nil && err != io.EOF {
		return nil, err
	}
	buffer = buffer[:n]

	self.lru.Add(page, buffer)
	return buffer, nil
}

func (self *PagedReader) ReadAt(buf []byte, offset int64) (int, error) {
	total := 0

	for total < len(buf) {
		page := (offset + int64(total)) / self.pagesize
		page_offset := (offset + int64(total)) % self.pagesize

		page_data, err := self.readPage(page)
		if err != nil {
			return total, err
		}

		if page_offset >= int64(len(page_data)) {
			return total, io.EOF
		}

		n := copy(buf[total:], page_data[page_offset:])
		total += n
	}

	return total, nil
}
