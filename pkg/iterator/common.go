package iterator

import "sqlcore/pkg/tuple"

// Iterate encapsulates the HasNext/Next loop. processFunc controls the flow:
// return (false, nil) to stop early, (true, nil) to continue, or an error to
// abort.
func Iterate(iter TupleIterator, processFunc func(*tuple.Tuple) (continueLooping bool, err error)) error {
	for {
		hasNext, err := iter.HasNext()
		if err != nil {
			return err
		}
		if !hasNext {
			return nil
		}

		tup, err := iter.Next()
		if err != nil {
			return err
		}
		if tup == nil {
			return nil
		}

		shouldContinue, err := processFunc(tup)
		if err != nil {
			return err
		}
		if !shouldContinue {
			return nil
		}
	}
}

// ForEach applies processFunc to every remaining tuple.
func ForEach(iter TupleIterator, processFunc func(*tuple.Tuple) error) error {
	return Iterate(iter, func(tup *tuple.Tuple) (bool, error) {
		return true, processFunc(tup)
	})
}

// Take returns up to n tuples from the iterator.
func Take(iter TupleIterator, n int) ([]*tuple.Tuple, error) {
	tuples := make([]*tuple.Tuple, 0, n)
	if n <= 0 {
		return tuples, nil
	}

	err := Iterate(iter, func(tup *tuple.Tuple) (bool, error) {
		tuples = append(tuples, tup)
		return len(tuples) < n, nil
	})
	return tuples, err
}

// Reduce accumulates a value by applying a function to each tuple.
func Reduce[T any](iter TupleIterator, initial T, accumulator func(T, *tuple.Tuple) (T, error)) (T, error) {
	result := initial

	err := Iterate(iter, func(tup *tuple.Tuple) (bool, error) {
		var err error
		result, err = accumulator(result, tup)
		return true, err
	})
	return result, err
}

// Count consumes the iterator and returns the number of tuples.
func Count(iter TupleIterator) (int, error) {
	return Reduce(iter, 0, func(count int, _ *tuple.Tuple) (int, error) {
		return count + 1, nil
	})
}

// Collect consumes the iterator and returns every tuple.
func Collect(iter TupleIterator) ([]*tuple.Tuple, error) {
	var results []*tuple.Tuple
	err := ForEach(iter, func(tup *tuple.Tuple) error {
		results = append(results, tup)
		return nil
	})
	return results, err
}

// Drain opens op, collects its output and closes it, returning the first
// error from any step.
func Drain(op DbIterator) (_ []*tuple.Tuple, err error) {
	if err := op.Open(); err != nil {
		return nil, err
	}
	defer func() {
		if cerr := op.Close(); err == nil {
			err = cerr
		}
	}()
	return Collect(op)
}
