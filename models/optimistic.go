package models

import (
	"errors"

	"github.com/H2RkawaNinja/dashboard/metrics"
	"github.com/H2RkawaNinja/dashboard/utils"
)

// bounded retries for writes whose versioned read went stale
const maxStaleRetries = 3

// errStaleVersion is returned from inside a transaction when the
// UPDATE ... WHERE version = ? matched no row.
var errStaleVersion = errors.New("stale version")

var errConcurrentChange = utils.NewConflictError("Daten wurden zwischenzeitlich geändert, bitte neu laden")

// retryOnStale reruns fn after a version conflict. With an explicit client
// version a conflict is reported right away.
func retryOnStale(aggregate string, explicitVersion bool, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if !errors.Is(err, errStaleVersion) {
			return err
		}
		metrics.RecordVersionConflict(aggregate)
		if explicitVersion || attempt+1 >= maxStaleRetries {
			return errConcurrentChange
		}
	}
}
