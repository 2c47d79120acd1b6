package cast5

import (
	"crypto/cipher"
	"fmt"

	xcast5 "golang.org/x/crypto/cast5"
)

// KeySize is the CAST5 key size in bytes (128 bits).
const KeySize = xcast5.KeySize

// Mode is a block chaining mode.
type Mode int

const (
	// ModeECB encrypts each block independently.
	ModeECB Mode = iota
	// ModeCBC chains blocks with an IV taken from Parameters.
	ModeCBC
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ModeECB:
		return "ECB"
	case ModeCBC:
		return "CBC"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Transform is a named CAST5 block transform paired with a chaining mode.
type Transform struct {
	Name string
	Mode Mode

	// DefaultKeyBits is the key size a key generator would use.
	DefaultKeyBits int
}

// The closed set of supported transforms.
var (
	TransformECB = Transform{Name: "CAST5/ECB", Mode: ModeECB, DefaultKeyBits: DefaultKeyLength}
	TransformCBC = Transform{Name: "CAST5/CBC", Mode: ModeCBC, DefaultKeyBits: DefaultKeyLength}
)

// NeedsIV reports whether the transform requires parameters.
func (t Transform) NeedsIV() bool {
	return t.Mode == ModeCBC
}

// NewEncrypter returns a BlockMode encrypting with key. params is required
// for CBC and ignored for ECB.
func (t Transform) NewEncrypter(key []byte, params *Parameters) (cipher.BlockMode, error) {
	return t.newBlockMode(key, params, true)
}

// NewDecrypter returns a BlockMode decrypting with key. params is required
// for CBC and ignored for ECB.
func (t Transform) NewDecrypter(key []byte, params *Parameters) (cipher.BlockMode, error) {
	return t.newBlockMode(key, params, false)
}

func (t Transform) newBlockMode(key []byte, params *Parameters, encrypt bool) (cipher.BlockMode, error) {
	if len(key) != KeySize {
		return nil, NewParamsError("cipher", fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKeySize, len(key), KeySize))
	}
	block, err := xcast5.NewCipher(key)
	if err != nil {
		return nil, NewParamsError("cipher", err)
	}

	switch t.Mode {
	case ModeECB:
		if encrypt {
			return ecbEncrypter{block}, nil
		}
		return ecbDecrypter{block}, nil
	case ModeCBC:
		if params == nil || !params.Initialized() {
			return nil, NewParamsError("cipher", fmt.Errorf("%w: CBC requires initialized parameters", ErrInvalidIV))
		}
		iv := params.IV()
		if len(iv) != BlockSize {
			return nil, NewParamsError("cipher", fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidIV, len(iv), BlockSize))
		}
		if encrypt {
			return cipher.NewCBCEncrypter(block, iv), nil
		}
		return cipher.NewCBCDecrypter(block, iv), nil
	default:
		return nil, NewParamsError("cipher", fmt.Errorf("unsupported mode %v", t.Mode))
	}
}

type ecbEncrypter struct{ b cipher.Block }

func (e ecbEncrypter) BlockSize() int { return e.b.BlockSize() }

func (e ecbEncrypter) CryptBlocks(dst, src []byte) {
	if len(src)%BlockSize != 0 {
		panic("cast5: input not full blocks")
	}
	for i := 0; i < len(src); i += BlockSize {
		e.b.Encrypt(dst[i:i+BlockSize], src[i:i+BlockSize])
	}
}

type ecbDecrypter struct{ b cipher.Block }

func (d ecbDecrypter) BlockSize() int { return d.b.BlockSize() }

func (d ecbDecrypter) CryptBlocks(dst, src []byte) {
	if len(src)%BlockSize != 0 {
		panic("cast5: input not full blocks")
	}
	for i := 0; i < len(src); i += BlockSize {
		d.b.Decrypt(dst[i:i+BlockSize], src[i:i+BlockSize])
	}
}
