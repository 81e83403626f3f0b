package perror_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sklam/mlvm/internal/perror"
)

func TestCollectorAggregatesAcrossWorkers(t *testing.T) {
	c := perror.New(0)

	var wg sync.WaitGroup
	jobs := []error{nil, assert.AnError, nil, assert.AnError, assert.AnError}
	wg.Add(len(jobs))
	for _, err := range jobs {
		err := err
		go func() {
			defer wg.Done()
			c.Append(err)
		}()
	}
	wg.Wait()

	errs := c.Wait()
	assert.Len(t, errs, 3)
}

func TestCollectorNoErrors(t *testing.T) {
	c := perror.New(4)
	c.Append(nil)
	errs := c.Wait()
	assert.Empty(t, errs)
}
