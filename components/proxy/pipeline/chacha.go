package pipeline

import (
	"context"
	"encoding/binary"
	"io"

	"github.com/ArunaStorage/aruna-sub004/pkg/merrors"
	"golang.org/x/crypto/chacha20poly1305"
)

// chachaPlaintextBlock and chachaCiphertextBlock are the fixed framing
// sizes from §4.8: 65536 plaintext bytes become 65564 ciphertext bytes
// (a 12-byte nonce prefix + AEAD's 16-byte tag, the 28 bytes of
// overhead the spec names).
const (
	chachaPlaintextBlock  = 65536
	chachaCiphertextBlock = 65564
	chachaNonceSize       = chacha20poly1305.NonceSize // 12
)

// ChaChaEncryptor encrypts the stream in fixed plaintext blocks, each
// becoming one self-contained AEAD frame with a monotonically
// incrementing nonce counter.
type ChaChaEncryptor struct {
	Key [chacha20poly1305.KeySize]byte
}

func (t *ChaChaEncryptor) Process(ctx context.Context, in <-chan []byte, out chan<- []byte, ctrl <-chan Message, ctrlOut chan<- Message) error {
	aead, err := chacha20poly1305.New(t.Key[:])
	if err != nil {
		defer close(out)
		defer close(ctrlOut)
		return merrors.New(merrors.KindInternal, "build chacha20poly1305 aead", err)
	}
	var counter uint64
	return copyPassthrough(ctx, in, out, ctrl, ctrlOut, func(r io.Reader, w io.Writer) error {
		buf := make([]byte, chachaPlaintextBlock)
		for {
			n, readErr := io.ReadFull(r, buf)
			if n > 0 {
				nonce := make([]byte, chachaNonceSize)
				binary.LittleEndian.PutUint64(nonce, counter)
				counter++
				sealed := aead.Seal(nonce, nonce, buf[:n], nil)
				if _, err := w.Write(sealed); err != nil {
					return err
				}
			}
			if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
				return nil
			}
			if readErr != nil {
				return readErr
			}
		}
	})
}

// ChaChaDecryptor reverses ChaChaEncryptor one ciphertext block at a time.
type ChaChaDecryptor struct {
	Key [chacha20poly1305.KeySize]byte
}

func (t *ChaChaDecryptor) Process(ctx context.Context, in <-chan []byte, out chan<- []byte, ctrl <-chan Message, ctrlOut chan<- Message) error {
	aead, err := chacha20poly1305.New(t.Key[:])
	if err != nil {
		defer close(out)
		defer close(ctrlOut)
		return merrors.New(merrors.KindInternal, "build chacha20poly1305 aead", err)
	}
	return copyPassthrough(ctx, in, out, ctrl, ctrlOut, func(r io.Reader, w io.Writer) error {
		buf := make([]byte, chachaCiphertextBlock)
		for {
			n, readErr := io.ReadFull(r, buf)
			if n > 0 {
				frame := buf[:n]
				nonce := frame[:chachaNonceSize]
				plain, err := aead.Open(nil, nonce, frame[chachaNonceSize:], nil)
				if err != nil {
					return merrors.New(merrors.KindValidation, "decrypt chacha20poly1305 block", err)
				}
				if _, err := w.Write(plain); err != nil {
					return err
				}
			}
			if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
				return nil
			}
			if readErr != nil {
				return readErr
			}
		}
	})
}
