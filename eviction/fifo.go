// This file implements FIFO eviction.

package eviction

import "container/list"

type fifo struct {
	// queue holds keys in insertion order, oldest at the front.
	queue *list.List

	// elems finds a key's queue element for O(1) removal.
	elems map[string]*list.Element
}

func newFIFO() *fifo {
	return &fifo{
		queue: list.New(),
		elems: make(map[string]*list.Element),
	}
}

// OnGet does nothing: FIFO ignores reads.
func (f *fifo) OnGet(string) {}

// OnPut appends k the first time it is stored. Later versions of the same
// key keep their original place.
func (f *fifo) OnPut(k string) {
	if _, ok := f.elems[k]; ok {
		return
	}
	f.elems[k] = f.queue.PushBack(k)
}

// Evict removes the oldest inserted key.
func (f *fifo) Evict() string {
	front := f.queue.Front()
	if front == nil {
		return ""
	}
	k := f.queue.Remove(front).(string)
	delete(f.elems, k)
	return k
}

func (f *fifo) Remove(k string) {
	if el, ok := f.elems[k]; ok {
		f.queue.Remove(el)
		delete(f.elems, k)
	}
}

func (f *fifo) Len() int { return f.queue.Len() }
