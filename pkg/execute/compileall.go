package execute

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/sklam/mlvm/internal/perror"
	"github.com/sklam/mlvm/pkg/ir"
)

// CompileAll builds every def in defs concurrently, mirroring the
// teacher's thread-per-unit compilation idiom but fanning out over
// Manager.BuildFunction instead of per-architecture assembly emission.
// Results are returned in the same order as defs. If any definition
// fails to build, CompileAll returns the first error reported and a nil
// slice; every definition that did build before that is discarded along
// with it, since partial results from an unmatched batch have no safe
// use on their own.
func CompileAll(m *Manager, defs []*ir.FunctionDefinition) ([]*JITFunction, error) {
	fns := make([]*JITFunction, len(defs))
	c := perror.New(len(defs))

	var wg sync.WaitGroup
	wg.Add(len(defs))
	for i, def := range defs {
		i, def := i, def
		go func() {
			defer wg.Done()
			fn, err := m.BuildFunction(def)
			if err != nil {
				c.Append(errors.Wrapf(err, "execute: %s", def.Name()))
				return
			}
			fns[i] = fn
		}()
	}
	wg.Wait()

	if errs := c.Wait(); len(errs) > 0 {
		return nil, errs[0]
	}
	return fns, nil
}
