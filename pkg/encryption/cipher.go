package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	ivSize       = 12
	tagSize      = aes.BlockSize
	versionMagic = byte('G')
	// KeySize is the length of a data key in bytes.
	KeySize = 32
	// DataKeyEnv is the environment variable holding the base64 data key.
	DataKeyEnv = "CLOUDLAUNCH_DATA_KEY"
)

var (
	ErrShortCiphertext = errors.New("ciphertext is too short")
	ErrUnknownVersion  = errors.New("unknown ciphertext version")
)

// Cipher encrypts values at rest. aad binds a ciphertext to the record it
// belongs to, so a value copied to another row fails to decrypt.
type Cipher interface {
	Encrypt(aad, plainText []byte) ([]byte, error)
	Decrypt(aad, packedText []byte) ([]byte, error)
}

// AESGCM is a Cipher using AES-256-GCM with random nonces.
type AESGCM struct {
	aead cipher.AEAD
}

var _ Cipher = (*AESGCM)(nil)

func NewAESGCM(key []byte) (*AESGCM, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("data key must be %d bytes, got %d", KeySize, len(key))
	}
	c, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(c)
	if err != nil {
		return nil, err
	}
	return &AESGCM{aead: aead}, nil
}

// KeyFromEnv decodes the base64 data key in CLOUDLAUNCH_DATA_KEY.
func KeyFromEnv() ([]byte, error) {
	encoded, ok := os.LookupEnv(DataKeyEnv)
	if !ok || encoded == "" {
		return nil, fmt.Errorf("%s environment variable is required", DataKeyEnv)
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", DataKeyEnv, err)
	}
	return key, nil
}

// FromEnv builds a cipher from the key returned by KeyFromEnv.
func FromEnv() (*AESGCM, error) {
	key, err := KeyFromEnv()
	if err != nil {
		return nil, err
	}
	return NewAESGCM(key)
}

// GenerateKey returns a fresh random data key.
func GenerateKey() ([]byte, error) {
	return RandomBytes(KeySize)
}

func RandomBytes(size int) ([]byte, error) {
	value := make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, value); err != nil {
		return nil, err
	}
	return value, nil
}

func (s *AESGCM) Encrypt(aad, plainText []byte) ([]byte, error) {
	// Never use more than 2^32 random nonces with a given key because of
	// the risk of a repeat.
	nonce, err := RandomBytes(ivSize)
	if err != nil {
		return nil, err
	}
	sealed := s.aead.Seal(nil, nonce, plainText, aad)
	return pack(sealed, nonce), nil
}

func (s *AESGCM) Decrypt(aad, packedText []byte) ([]byte, error) {
	if len(packedText) < 1+tagSize+ivSize {
		return nil, ErrShortCiphertext
	}
	if packedText[0] != versionMagic {
		return nil, ErrUnknownVersion
	}
	sealed, nonce := unpack(packedText)
	return s.aead.Open(nil, nonce, sealed, aad)
}

// EncryptString encrypts a string and returns it base64 encoded, ready to be
// stored in a text column.
func EncryptString(c Cipher, aad, plainText string) (string, error) {
	if plainText == "" {
		return "", nil
	}
	packed, err := c.Encrypt([]byte(aad), []byte(plainText))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(packed), nil
}

// DecryptString reverses EncryptString.
func DecryptString(c Cipher, aad, encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}
	packed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	plain, err := c.Decrypt([]byte(aad), packed)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// pack lays out "<version><tag><iv><ciphertext>".
func pack(sealed, nonce []byte) []byte {
	tagStart := len(sealed) - tagSize
	tag := sealed[tagStart:]
	cipherText := sealed[:tagStart]

	data := make([]byte, 0, 1+tagSize+ivSize+len(cipherText))
	data = append(data, versionMagic)
	data = append(data, tag...)
	data = append(data, nonce[:ivSize]...)
	data = append(data, cipherText...)
	return data
}

func unpack(packed []byte) (sealed, nonce []byte) {
	index := 1
	tag := packed[index : index+tagSize]
	index += tagSize
	nonce = packed[index : index+ivSize]
	index += ivSize

	sealed = make([]byte, 0, len(packed)-index+tagSize)
	sealed = append(sealed, packed[index:]...)
	sealed = append(sealed, tag...)
	return sealed, nonce
}
