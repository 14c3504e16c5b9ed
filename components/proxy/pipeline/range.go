package pipeline

import (
	"github.com/ArunaStorage/aruna-sub004/components/proxy/backend"
	"github.com/ArunaStorage/aruna-sub004/pkg/merrors"
)

// ComputedRange is the result of resolving a client-requested byte
// range against an object's at-rest representation (§4.8). When the
// object is encrypted, the backend can only be asked for whole
// ChaCha20-Poly1305 blocks, so the requested range is expanded to
// block boundaries; FilterStart/FilterEnd then trim the decrypted
// plaintext back down to exactly what the client asked for.
type ComputedRange struct {
	// Backend is the byte range to request from the storage backend.
	Backend backend.GetRange
	// FilterStart and FilterEnd bound the slice of the decrypted
	// plaintext (relative to the start of Backend's first block) that
	// should actually reach the client.
	FilterStart, FilterEnd int64
	// Length is the number of bytes the client will receive.
	Length int64
}

// ComputeRange resolves requested (nil meaning "whole object", sized
// plaintextSize bytes) into a ComputedRange. encrypted indicates the
// object is stored as a sequence of fixed ChaCha20-Poly1305 blocks
// (§4.7/§4.8), requiring block-aligned backend fetches.
func ComputeRange(requested *backend.GetRange, plaintextSize int64, encrypted bool) (ComputedRange, error) {
	if plaintextSize < 0 {
		return ComputedRange{}, merrors.New(merrors.KindValidation, "negative plaintext size")
	}

	start, end := int64(0), plaintextSize-1
	if requested != nil {
		start = requested.Start
		end = requested.End
		if end < 0 || end >= plaintextSize {
			end = plaintextSize - 1
		}
		if start < 0 || start > end {
			return ComputedRange{}, merrors.New(merrors.KindValidation, "invalid range request")
		}
	}
	length := end - start + 1

	if !encrypted {
		return ComputedRange{
			Backend:     backend.GetRange{Start: start, End: end},
			FilterStart: 0,
			FilterEnd:   length,
			Length:      length,
		}, nil
	}

	const blockSize = chachaPlaintextBlock
	const frameSize = chachaCiphertextBlock

	firstBlock := start / blockSize
	lastBlock := end / blockSize

	backendStart := firstBlock * frameSize
	backendEnd := (lastBlock+1)*frameSize - 1

	filterStart := start - firstBlock*blockSize
	filterEnd := filterStart + length

	return ComputedRange{
		Backend:     backend.GetRange{Start: backendStart, End: backendEnd},
		FilterStart: filterStart,
		FilterEnd:   filterEnd,
		Length:      length,
	}, nil
}
