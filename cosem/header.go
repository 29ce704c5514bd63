package cosem

import (
	"encoding/binary"
	"fmt"

	"github.com/temoto/dlms-meter/fault"
)

const (
	TagGeneralGloCiphering byte = 0xdb

	SystemTitleLength = 8
	NonceLength       = SystemTitleLength + 4
	TagLength         = 12

	SecurityAuthentication byte = 0x10
	SecurityEncryption     byte = 0x20
	securitySuiteMask      byte = 0x0f
	securityKnownBits           = SecurityAuthentication | SecurityEncryption | securitySuiteMask

	securityHeaderLength = 1 + 4 // SC IC
)

// Header of a general-glo-ciphering APDU:
//
//	DB 08 <system title> <length> SC IC(4) ciphertext [tag(12)]
//
// Slices reference the APDU given to ParseHeader.
type Header struct {
	SystemTitle [SystemTitleLength]byte
	Security    byte
	Counter     uint32
	Ciphertext  []byte
	Tag         []byte
}

func ParseHeader(apdu []byte) (Header, error) {
	h := Header{}
	if len(apdu) < 2+SystemTitleLength+1 {
		return h, fault.Framingf("apdu length=%d too short for header", len(apdu))
	}
	if apdu[0] != TagGeneralGloCiphering {
		return h, fault.Framingf("apdu tag=%02x expected=%02x", apdu[0], TagGeneralGloCiphering)
	}
	if apdu[1] != SystemTitleLength {
		return h, fault.Framingf("system title length=%d expected=%d", apdu[1], SystemTitleLength)
	}
	copy(h.SystemTitle[:], apdu[2:2+SystemTitleLength])
	pos := 2 + SystemTitleLength
	length, n, err := berLength(apdu[pos:])
	if err != nil {
		return h, fault.Framingf("apdu length field: %v", err)
	}
	pos += n
	if remain := len(apdu) - pos; length != remain {
		return h, fault.Framingf("apdu declared length=%d actual=%d", length, remain)
	}
	if length < securityHeaderLength {
		return h, fault.Framingf("apdu length=%d too short for security header", length)
	}
	h.Security = apdu[pos]
	if h.Security&^securityKnownBits != 0 || h.Security&securitySuiteMask != 0 ||
		h.Security&(SecurityAuthentication|SecurityEncryption) == 0 {
		return h, fault.Malformedf("security control=%02x not supported", h.Security)
	}
	h.Counter = binary.BigEndian.Uint32(apdu[pos+1:])
	body := apdu[pos+securityHeaderLength:]
	if h.Authenticated() {
		if len(body) < TagLength {
			return h, fault.Framingf("apdu body length=%d shorter than tag", len(body))
		}
		h.Tag = body[len(body)-TagLength:]
		body = body[:len(body)-TagLength]
	}
	h.Ciphertext = body
	return h, nil
}

func (h *Header) Authenticated() bool { return h.Security&SecurityAuthentication != 0 }
func (h *Header) Encrypted() bool     { return h.Security&SecurityEncryption != 0 }

// Manufacturer is the FLAG id in the first three system title bytes.
func (h *Header) Manufacturer() string { return string(h.SystemTitle[:3]) }

func (h *Header) Nonce() [NonceLength]byte {
	var iv [NonceLength]byte
	copy(iv[:], h.SystemTitle[:])
	binary.BigEndian.PutUint32(iv[SystemTitleLength:], h.Counter)
	return iv
}

func (h *Header) String() string {
	return fmt.Sprintf("system_title=%x manufacturer=%q sc=%02x counter=%d ciphertext=%d",
		h.SystemTitle, h.Manufacturer(), h.Security, h.Counter, len(h.Ciphertext))
}

// berLength reads A-XDR/BER length: <0x80 one byte, 0x81 n, 0x82 hi lo.
func berLength(b []byte) (length int, n int, err error) {
	if len(b) == 0 {
		return 0, 0, fault.Truncationf("length byte missing")
	}
	first := b[0]
	switch {
	case first < 0x80:
		return int(first), 1, nil
	case first == 0x81:
		if len(b) < 2 {
			return 0, 0, fault.Truncationf("length 81 missing byte")
		}
		return int(b[1]), 2, nil
	case first == 0x82:
		if len(b) < 3 {
			return 0, 0, fault.Truncationf("length 82 missing bytes")
		}
		return int(binary.BigEndian.Uint16(b[1:])), 3, nil
	}
	return 0, 0, fault.Malformedf("length prefix=%02x not supported", first)
}

func appendBerLength(b []byte, n int) []byte {
	switch {
	case n < 0x80:
		return append(b, byte(n))
	case n < 0x100:
		return append(b, 0x81, byte(n))
	}
	return append(b, 0x82, byte(n>>8), byte(n))
}
