package pagelog

import (
	"errors"
	"fmt"

	"github.com/hupe1980/pagelog/internal/resource"
	"github.com/hupe1980/pagelog/intervalset"
	"github.com/hupe1980/pagelog/pageid"
)

var (
	// ErrClosed is returned by operations on a closed topic.
	ErrClosed = errors.New("pagelog: topic closed")

	// ErrReservedTopicName is returned for topic names the system keeps for itself.
	ErrReservedTopicName = errors.New("pagelog: reserved topic name")

	// ErrMemoryLimitExceeded is returned when a publish or page load does not
	// fit into the configured memory limit even after evicting idle pages.
	ErrMemoryLimitExceeded = resource.ErrMemoryLimitExceeded
)

// InvalidTopicNameError describes why a topic name was rejected.
type InvalidTopicNameError struct {
	Name   string
	Reason string
}

func (e *InvalidTopicNameError) Error() string {
	return fmt.Sprintf("pagelog: invalid topic name %q: %s", e.Name, e.Reason)
}

// ErrInvalidMessageID indicates a negative message id.
//
// It matches intervalset.ErrInvalidID via errors.Is.
type ErrInvalidMessageID struct {
	ID int64
}

func (e *ErrInvalidMessageID) Error() string {
	return fmt.Sprintf("pagelog: invalid message id %d", e.ID)
}

func (e *ErrInvalidMessageID) Unwrap() error { return intervalset.ErrInvalidID }

// ErrPersistPage reports the failed write of one page. The page keeps its
// records pending and the next Persist retries them.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrPersistPage struct {
	PageID pageid.PageID
	Blob   string
	cause  error
}

func (e *ErrPersistPage) Error() string {
	return fmt.Sprintf("pagelog: persist page %d to %q: %v", e.PageID, e.Blob, e.cause)
}

func (e *ErrPersistPage) Unwrap() error { return e.cause }

// ErrLoadPage reports a failed page load.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrLoadPage struct {
	PageID pageid.PageID
	cause  error
}

func (e *ErrLoadPage) Error() string {
	return fmt.Sprintf("pagelog: load page %d: %v", e.PageID, e.cause)
}

func (e *ErrLoadPage) Unwrap() error { return e.cause }
