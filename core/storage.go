package core

import (
	"time"

	"github.com/Rican7/retry"
	"github.com/Rican7/retry/backoff"
	"github.com/Rican7/retry/strategy"
	"github.com/axiomesh/axiom-kit/storage"
	"github.com/axiomesh/axiom-kit/storage/leveldb"
	"github.com/pkg/errors"
)

// OpenStorage opens the leveldb at path, retrying while another process still
// holds the lock.
func OpenStorage(path string, attempts uint, wait time.Duration) (storage.Storage, error) {
	if attempts == 0 {
		attempts = 1
	}

	var db storage.Storage
	action := func(attempt uint) error {
		var err error
		db, err = leveldb.New(path)
		return err
	}
	if err := retry.Retry(action, strategy.Limit(attempts), strategy.Backoff(backoff.Fibonacci(wait))); err != nil {
		return nil, errors.Wrapf(err, "open storage %s", path)
	}
	return db, nil
}
