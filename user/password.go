package user

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/crypto/bcrypt"
)

type Hasher interface {
	Hash(ctx context.Context, plain string) (string, error)
	Compare(ctx context.Context, hash string, plain string) error
}

// BcryptHasher runs at most workers bcrypt computations at a time. Callers
// waiting for a slot give up when their context ends.
type BcryptHasher struct {
	cost  int
	slots chan struct{}
}

func NewBcryptHasher(cost int, workers int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &BcryptHasher{
		cost:  cost,
		slots: make(chan struct{}, workers),
	}
}

func (h *BcryptHasher) acquire(ctx context.Context) error {
	select {
	case h.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *BcryptHasher) release() {
	<-h.slots
}

func (h *BcryptHasher) Hash(ctx context.Context, plain string) (string, error) {
	if err := h.acquire(ctx); err != nil {
		return "", err
	}
	defer h.release()

	bs, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}

		return "", err
	}

	return string(bs), nil
}

func (h *BcryptHasher) Compare(ctx context.Context, hash string, plain string) error {
	if err := h.acquire(ctx); err != nil {
		return err
	}
	defer h.release()

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if err != nil {
		var prefixErr bcrypt.InvalidHashPrefixError
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) ||
			errors.Is(err, bcrypt.ErrHashTooShort) ||
			errors.As(err, &prefixErr) {
			return ErrInvalidCredentials
		}

		return err
	}

	return nil
}
