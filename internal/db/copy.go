package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/gyeh/claimledger/internal/model"
)

var errNilRecord = errors.New("nil claim record on copy channel")

// ChannelSource feeds claim records from a channel into pgx CopyFrom.
// Iteration stops when the channel closes or ctx is done.
type ChannelSource struct {
	ctx     context.Context
	ch      <-chan *model.ClaimRecord
	current *model.ClaimRecord
	err     error
}

// NewChannelSource wraps ch for use with CopyFrom.
func NewChannelSource(ctx context.Context, ch <-chan *model.ClaimRecord) *ChannelSource {
	return &ChannelSource{ctx: ctx, ch: ch}
}

func (s *ChannelSource) Next() bool {
	if s.err != nil {
		return false
	}
	select {
	case rec, ok := <-s.ch:
		if !ok {
			return false
		}
		if rec == nil {
			s.err = errNilRecord
			return false
		}
		s.current = rec
		return true
	case <-s.ctx.Done():
		s.err = s.ctx.Err()
		return false
	}
}

// Values returns the current record in model.ClaimColumns order.
func (s *ChannelSource) Values() ([]any, error) {
	return s.current.CopyValues(), nil
}

func (s *ChannelSource) Err() error {
	return s.err
}

var _ pgx.CopyFromSource = (*ChannelSource)(nil)
