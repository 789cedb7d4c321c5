package interp

import (
	"github.com/timewinder-dev/kclvm/vm"
)

// progressTable holds one progress counter per live iterator. Iterators never
// advance themselves, so each loop keeps an independent position even when
// loops nest.
type progressTable map[*vm.IterValue]int

// next returns the iterator's element at its current progress and advances
// the counter, or false when the iterator is exhausted. An exhausted iterator
// stays exhausted.
func (p progressTable) next(it *vm.IterValue) (vm.Value, bool) {
	pos, ok := p[it]
	if !ok {
		pos = it.Position()
	}
	v, ok := it.Next(pos)
	if !ok {
		p[it] = pos
		return nil, false
	}
	p[it] = pos + 1
	return v, true
}

// release forgets the counter of an iterator that has left the stack.
func (p progressTable) release(it *vm.IterValue) {
	delete(p, it)
}

// Progress reports the next position FOR_ITER will read from it.
func (m *Machine) Progress(it *vm.IterValue) int {
	if pos, ok := m.progress[it]; ok {
		return pos
	}
	return it.Position()
}
