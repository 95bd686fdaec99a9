package loader

import "sync"

// Store holds the current ProductPage and notifies subscribers whenever it is
// replaced.
type Store struct {
	// publish serializes Replace so subscribers see pages in state order.
	publish sync.Mutex

	mu     sync.RWMutex
	page   ProductPage
	nextID int
	subs   map[int]func(ProductPage)
}

func NewStore() *Store {
	return &Store{
		page: EmptyPage(),
		subs: make(map[int]func(ProductPage)),
	}
}

// Snapshot returns a copy of the current page.
func (s *Store) Snapshot() ProductPage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page.clone()
}

// Subscribe registers fn to run after every replacement. The returned func
// removes it.
func (s *Store) Subscribe(fn func(ProductPage)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Replace swaps in page wholesale and notifies subscribers. Subscribers must
// not call Replace themselves.
func (s *Store) Replace(page ProductPage) {
	s.publish.Lock()
	defer s.publish.Unlock()

	s.mu.Lock()
	s.page = page.clone()
	subs := make([]func(ProductPage), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(page.clone())
	}
}

// Reset drops the page and every subscriber.
func (s *Store) Reset() {
	s.mu.Lock()
	s.page = EmptyPage()
	s.subs = make(map[int]func(ProductPage))
	s.mu.Unlock()
}
