package helpers

import (
	"strings"

	"github.com/juju/errors"
)

// FoldErrors joins messages, nil entries skipped.
// Single error is returned as is, so errors.Cause still works.
func FoldErrors(errs []error) error {
	ss := make([]string, 0, len(errs))
	var last error
	for _, e := range errs {
		if e != nil {
			ss = append(ss, e.Error())
			last = e
		}
	}
	switch len(ss) {
	case 0:
		return nil
	case 1:
		return last
	}
	return errors.Errorf("%s", strings.Join(ss, "\n"))
}
