// ram.go - a single flat, buffer-backed big-endian RAM region spanning
// the whole demo address space, the simplest possible mmap.Config a host
// can hand to SetupContext.
package main

import "github.com/retrosys/drppc/internal/mmap"

func flatRAMRegion(ram []byte) mmap.Region {
	return mmap.Region{
		Start:     0,
		End:       uint32(len(ram)),
		Ptr:       ram,
		BigEndian: true, // PowerPC's native byte order
	}
}

func mmapConfigFromRegion(r mmap.Region) mmap.Config {
	fetch := []mmap.Region{r}
	return mmap.Config{
		Fetch:     fetch,
		Read8:     fetch,
		Read16:    fetch,
		Read32:    fetch,
		Write8:    fetch,
		Write16:   fetch,
		Write32:   fetch,
		HostIsBig: false,
	}
}
