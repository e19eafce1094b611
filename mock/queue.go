package mock

import "sync"

// responseQueue is the FIFO of replies shared by every connection.
type responseQueue struct {
	mu     sync.Mutex
	items  []interface{}
	served int
}

func (q *responseQueue) push(items ...interface{}) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, items...)
}

// pop removes and returns the front of the queue, or an ExhaustedError
// if nothing is left.
func (q *responseQueue) pop() (interface{}, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, &ExhaustedError{Served: q.served}
	}
	item := q.items[0]
	q.items = q.items[1:]
	q.served++
	return item, nil
}

func (q *responseQueue) remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
