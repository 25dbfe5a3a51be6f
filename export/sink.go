// Package export holds writers that consume the translator through its rule
// API. None of them is needed by the translator itself.
package export

import (
	"github.com/hashicorp/go-multierror"

	"github.com/notargets/gmshtranslate/utils"
)

// Sink receives the records selected by a named rule
type Sink interface {
	Node(rule string, tag int, x, y, z float64) error
	Element(rule string, tag int, etype utils.ElementType, group int, nodes []int) error
	Close() error
}

type multi []Sink

// Multi writes every record to all sinks, in order
func Multi(sinks ...Sink) Sink {
	if len(sinks) == 1 {
		return sinks[0]
	}
	return multi(sinks)
}

func (m multi) Node(rule string, tag int, x, y, z float64) error {
	for _, s := range m {
		if err := s.Node(rule, tag, x, y, z); err != nil {
			return err
		}
	}
	return nil
}

func (m multi) Element(rule string, tag int, etype utils.ElementType, group int, nodes []int) error {
	for _, s := range m {
		if err := s.Element(rule, tag, etype, group, nodes); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink, even after a failure
func (m multi) Close() error {
	var result *multierror.Error
	for _, s := range m {
		if err := s.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
