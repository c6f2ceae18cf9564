package service

import (
	"context"
	"errors"
	"log"

	"github.com/zeroup-initiative/partner-backend/internal/repository"
	"github.com/zeroup-initiative/partner-backend/internal/reqctx"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidAmount  = errors.New("amount must be a positive number")
	ErrAlreadyDecided = errors.New("contribution already decided")
	ErrNotDeclined    = errors.New("contribution is not declined")
	ErrSuspended      = errors.New("account suspended")
	ErrUserDeleted    = errors.New("contribution owner was deleted")
	ErrDBNotReady     = repository.ErrDBNotReady
)

// BestEffort is the outcome of a side effect whose failure must not undo the
// operation that triggered it. Callers may inspect Err or ignore it; failures
// are always logged.
type BestEffort struct {
	Err error
}

func (b BestEffort) OK() bool { return b.Err == nil }

func bestEffort(ctx context.Context, what string, err error) BestEffort {
	if err != nil {
		log.Printf("[best-effort] rid=%s %s failed: %v", reqctx.RID(ctx), what, err)
	}
	return BestEffort{Err: err}
}

// joinBestEffort keeps the first failure.
func joinBestEffort(items ...BestEffort) BestEffort {
	for _, b := range items {
		if b.Err != nil {
			return b
		}
	}
	return BestEffort{}
}
