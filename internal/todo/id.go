package todo

import (
	"crypto/rand"
	mrand "math/rand"
)

// IDLength is the number of characters in a generated id.
const IDLength = 10

const idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// 248 is the largest multiple of 62 that fits in a byte; larger bytes are
// rejected so every character is equally likely.
const idRejectAbove = 248

// GenerateID returns a short random id. Uniqueness is probabilistic only.
func GenerateID() string {
	out := make([]byte, 0, IDLength)
	buf := make([]byte, IDLength*2)
	for len(out) < IDLength {
		if _, err := rand.Read(buf); err != nil {
			for len(out) < IDLength {
				out = append(out, idAlphabet[mrand.Intn(len(idAlphabet))])
			}
			break
		}
		for _, b := range buf {
			if b >= idRejectAbove {
				continue
			}
			out = append(out, idAlphabet[int(b)%len(idAlphabet)])
			if len(out) == IDLength {
				break
			}
		}
	}
	return string(out)
}

// NewItem builds a placeholder item for the given lane.
func NewItem(status Status) Item {
	return Item{
		ID:     GenerateID(),
		Title:  NewItemTitle,
		Status: status,
	}
}
