package mft

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

var ntfs_oem_id = []byte("NTFS    ")

// BootSector is the decoded $Boot record of an NTFS volume. It
// carries the geometry needed to locate the MFT and size its records.
type BootSector struct {
	OemId             string
	BytesPerSector    uint16
	SectorsPerCluster uint8
	TotalSectors      uint64
	MFTCluster        uint64
	MFTMirrorCluster  uint64
	// Raw clusters-per-record byte. Negative values encode a record
	// smaller than a cluster as 1 << -value bytes.
	ClustersPerRecord int8
	SerialNumber      uint64
}

func DecodeBootSector(buffer []byte) (*BootSector, error) {
	if len(buffer) < 512 {
		return nil, ShortReadError
	}

	return &BootSector{
		OemId:             string(buffer[3:11]),
		BytesPerSector:    binary.LittleEndian.Uint16(buffer[11:13]),
		SectorsPerCluster: buffer[13],
		TotalSectors:      binary.LittleEndian.Uint64(buffer[40:48]),
		MFTCluster:        binary.LittleEndian.Uint64(buffer[48:56]),
		MFTMirrorCluster:  binary.LittleEndian.Uint64(buffer[56:64]),
		ClustersPerRecord: int8(buffer[64]),
		SerialNumber:      binary.LittleEndian.Uint64(buffer[72:80]),
	}, nil
}

func (self *BootSector) ClusterSize() int64 {
	return int64(self.BytesPerSector) * int64(self.SectorsPerCluster)
}

func (self *BootSector) RecordSize() int64 {
	if self.ClustersPerRecord > 0 {
		return int64(self.ClustersPerRecord) * self.ClusterSize()
	}
	return int64(1) << uint(-self.ClustersPerRecord)
}

func (self *BootSector) MFTOffset() int64 {
	return int64(self.MFTCluster) * self.ClusterSize()
}

func (self *BootSector) Validate() error {
	if !bytes.Equal([]byte(self.OemId), ntfs_oem_id) {
		return fmt.Errorf("invalid OEM id %q: %w", self.OemId,
			InvalidHeaderError)
	}

	switch self.BytesPerSector {
	case 256, 512, 1024, 2048, 4096:
	default:
		return fmt.Errorf("invalid sector size %v: %w",
			self.BytesPerSector, InvalidHeaderError)
	}

	// Sectors per cluster must be a power of two.
	if self.SectorsPerCluster == 0 ||
		self.SectorsPerCluster&(self.SectorsPerCluster-1) != 0 {
		return fmt.Errorf("invalid sectors per cluster %v: %w",
			self.SectorsPerCluster, InvalidHeaderError)
	}

	record_size := self.RecordSize()
	if record_size < 256 || record_size > MAX_MFT_ENTRY_SIZE {
		return fmt.Errorf("invalid record size %v: %w",
			record_size, InvalidHeaderError)
	}

	if self.TotalSectors == 0 {
		return fmt.Errorf("zero total sectors: %w", InvalidHeaderError)
	}

	return nil
}
