// Package crc holds link-layer checksums.
// M-Bus long frames carry an 8 bit arithmetic sum over C..data.
package crc

func Sum8(crc byte, data []byte) byte {
	for _, b := range data {
		crc += b
	}
	return crc
}
