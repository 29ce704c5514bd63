package cosem

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"

	"github.com/juju/errors"
	"github.com/temoto/dlms-meter/fault"
)

// Decrypter opens general-glo-ciphering APDUs with one fixed key.
// Suite 0 only: AES-128-GCM, 12 byte tag, AAD = SC || key.
// Not safe for concurrent use, plaintext buffer is reused.
type Decrypter struct {
	// Without it encryption-only (SC 20) APDUs are accepted, the way
	// most field meters send them.
	RequireAuthentication bool

	key    SecretKey
	block  cipher.Block
	gcm    cipher.AEAD
	aad    []byte
	sealed []byte
	plain  []byte
}

func NewDecrypter(key SecretKey, requireAuthentication bool) (*Decrypter, error) {
	if key.IsZero() {
		return nil, errors.NotValidf("key not configured")
	}
	block, err := aes.NewCipher(key.b[:])
	if err != nil {
		return nil, errors.Annotate(err, "aes")
	}
	gcm, err := cipher.NewGCMWithTagSize(block, TagLength)
	if err != nil {
		return nil, errors.Annotate(err, "gcm")
	}
	return &Decrypter{
		RequireAuthentication: requireAuthentication,
		key:                   key,
		block:                 block,
		gcm:                   gcm,
	}, nil
}

// Open verifies and decrypts, result is valid until next Open.
// Tag comparison is done by crypto/cipher in constant time.
func (self *Decrypter) Open(h *Header) ([]byte, error) {
	nonce := h.Nonce()
	self.aad = append(append(self.aad[:0], h.Security), self.key.b[:]...)

	switch {
	case h.Authenticated() && h.Encrypted():
		self.sealed = append(append(self.sealed[:0], h.Ciphertext...), h.Tag...)
		out, err := self.gcm.Open(self.plain[:0], nonce[:], self.sealed, self.aad)
		if err != nil {
			return nil, fault.Authenticationf("tag mismatch system_title=%x counter=%d bytes=%d", h.SystemTitle, h.Counter, len(h.Ciphertext))
		}
		self.plain = out
		return out, nil

	case h.Authenticated():
		// GMAC, payload travels in clear and goes into AAD
		self.aad = append(self.aad, h.Ciphertext...)
		if _, err := self.gcm.Open(nil, nonce[:], h.Tag, self.aad); err != nil {
			return nil, fault.Authenticationf("gmac mismatch system_title=%x counter=%d bytes=%d", h.SystemTitle, h.Counter, len(h.Ciphertext))
		}
		self.plain = append(self.plain[:0], h.Ciphertext...)
		return self.plain, nil

	case h.Encrypted():
		if self.RequireAuthentication {
			return nil, fault.Authenticationf("security control=%02x carries no tag, authentication required", h.Security)
		}
		self.plain = append(self.plain[:0], h.Ciphertext...)
		self.ctr(nonce).XORKeyStream(self.plain, self.plain)
		// without a tag the only evidence of the right key is the plaintext shape
		if len(self.plain) == 0 || self.plain[0] != TagDataNotification {
			return nil, fault.Authenticationf("unauthenticated plaintext does not start with data-notification system_title=%x counter=%d bytes=%d",
				h.SystemTitle, h.Counter, len(h.Ciphertext))
		}
		return self.plain, nil
	}
	return nil, fault.Malformedf("security control=%02x not supported", h.Security)
}

// GCM counter mode keystream, first block after J0.
func (self *Decrypter) ctr(nonce [NonceLength]byte) cipher.Stream {
	var iv [aes.BlockSize]byte
	copy(iv[:], nonce[:])
	binary.BigEndian.PutUint32(iv[NonceLength:], 2)
	return cipher.NewCTR(self.block, iv[:])
}

// Seal builds a general-glo-ciphering APDU, the meter side of Open.
func Seal(key SecretKey, systemTitle [SystemTitleLength]byte, security byte, counter uint32, plaintext []byte) ([]byte, error) {
	d, err := NewDecrypter(key, false)
	if err != nil {
		return nil, err
	}
	h := Header{SystemTitle: systemTitle, Security: security, Counter: counter}
	nonce := h.Nonce()
	aad := append([]byte{security}, key.b[:]...)

	var body []byte
	switch {
	case h.Authenticated() && h.Encrypted():
		body = d.gcm.Seal(nil, nonce[:], plaintext, aad)
	case h.Authenticated():
		aad = append(aad, plaintext...)
		tag := d.gcm.Seal(nil, nonce[:], nil, aad)
		body = append(append([]byte(nil), plaintext...), tag...)
	case h.Encrypted():
		body = make([]byte, len(plaintext))
		d.ctr(nonce).XORKeyStream(body, plaintext)
	default:
		return nil, errors.NotValidf("security control=%02x", security)
	}

	apdu := make([]byte, 0, 2+SystemTitleLength+3+securityHeaderLength+len(body))
	apdu = append(apdu, TagGeneralGloCiphering, SystemTitleLength)
	apdu = append(apdu, systemTitle[:]...)
	apdu = appendBerLength(apdu, securityHeaderLength+len(body))
	apdu = append(apdu, security, 0, 0, 0, 0)
	binary.BigEndian.PutUint32(apdu[len(apdu)-4:], counter)
	apdu = append(apdu, body...)
	return apdu, nil
}
