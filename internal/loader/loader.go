// Package loader keeps one page of the product listing for a view: it loads a
// page by number, republishes the response to subscribers and passes products
// on to the cart.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bookstore_webapp/internal/clients"

	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidPage   = errors.New("page number must not be negative")
	ErrClosed        = errors.New("loader is closed")
	ErrStaleResponse = errors.New("response superseded by a newer request")
	ErrNoCart        = errors.New("no cart collaborator configured")
)

// JSONGetter fetches url and decodes the JSON body into v.
type JSONGetter interface {
	GetJSON(ctx context.Context, url string, v any) error
}

// CartAdder owns the shopping cart.
type CartAdder interface {
	AddToCart(ctx context.Context, product Product) error
}

type Policy int

const (
	// LastResponseWins applies every successful response in arrival order,
	// whichever request it answers.
	LastResponseWins Policy = iota
	// LatestRequestWins drops responses to requests that a newer load has
	// superseded.
	LatestRequestWins
)

func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "last-response":
		return LastResponseWins, nil
	case "latest-request":
		return LatestRequestWins, nil
	default:
		return LastResponseWins, fmt.Errorf("unknown load policy %q", s)
	}
}

func (p Policy) String() string {
	if p == LatestRequestWins {
		return "latest-request"
	}
	return "last-response"
}

type Options struct {
	Endpoint Endpoint
	Policy   Policy
	// Timeout bounds a single load. Zero means no timeout.
	Timeout time.Duration
	// OnError receives failures of asynchronous loads. The page state is
	// unchanged when it is called.
	OnError func(pageNo int, err error)
}

type Loader struct {
	getter JSONGetter
	cart   CartAdder
	opts   Options
	store  *Store
	log    *logrus.Logger

	mu         sync.Mutex
	pageNo     int
	generation uint64
	closed     bool

	// apply makes the generation check and the store update one step.
	apply sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(getter JSONGetter, cart CartAdder, opts Options, logger *logrus.Logger) *Loader {
	ctx, cancel := context.WithCancel(context.Background())
	return &Loader{
		getter: getter,
		cart:   cart,
		opts:   opts,
		store:  NewStore(),
		log:    logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Initialize records the page number handed over by the host and starts
// loading it.
func (l *Loader) Initialize(pageNo int) error {
	if pageNo < 0 {
		return ErrInvalidPage
	}
	l.log.Infof("Loader: Page No: %d", pageNo)
	l.setPageNo(pageNo)
	return l.LoadProducts(pageNo)
}

// GoToPage moves the view to pageNo and loads it.
func (l *Loader) GoToPage(pageNo int) error {
	if pageNo < 0 {
		return ErrInvalidPage
	}
	l.setPageNo(pageNo)
	return l.LoadProducts(pageNo)
}

// LoadProducts starts loading pageNo and returns without waiting. Failures go
// to Options.OnError.
func (l *Loader) LoadProducts(pageNo int) error {
	if pageNo < 0 {
		return ErrInvalidPage
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.generation++
	gen := l.generation
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()
		_, err := l.load(l.ctx, gen, pageNo)
		if err == nil || errors.Is(err, ErrStaleResponse) {
			return
		}
		if l.isClosed() {
			l.log.Debugf("Loader: Load of page %d ended after close: %v", pageNo, err)
			return
		}
		l.reportError(pageNo, err)
	}()
	return nil
}

// Fetch loads pageNo in the caller's goroutine and returns the outcome. On
// success the page has also been published to the store.
func (l *Loader) Fetch(ctx context.Context, pageNo int) (ProductPage, error) {
	if pageNo < 0 {
		return ProductPage{}, ErrInvalidPage
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ProductPage{}, ErrClosed
	}
	l.generation++
	gen := l.generation
	l.mu.Unlock()

	return l.load(ctx, gen, pageNo)
}

func (l *Loader) load(ctx context.Context, gen uint64, pageNo int) (ProductPage, error) {
	if l.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.opts.Timeout)
		defer cancel()
	}

	url := l.opts.Endpoint.PageURL(pageNo)
	l.log.Infof("Loader: Load products page: %d", pageNo)

	var page ProductPage
	if err := l.getter.GetJSON(ctx, url, &page); err != nil {
		return ProductPage{}, fmt.Errorf("load products page %d: %w", pageNo, err)
	}

	l.apply.Lock()
	defer l.apply.Unlock()
	if !l.accepts(gen) {
		l.log.Debugf("Loader: Dropping response for page %d (request %d superseded)", pageNo, gen)
		return page, ErrStaleResponse
	}
	l.log.Debugf("Loader: Product response for page %d with %d product(s)", pageNo, len(page.Data))
	l.store.Replace(page)
	return page, nil
}

func (l *Loader) accepts(gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	return l.opts.Policy != LatestRequestWins || gen == l.generation
}

func (l *Loader) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *Loader) reportError(pageNo int, err error) {
	entry := l.log.WithFields(logrus.Fields{"page": pageNo, "kind": errorKind(err)})
	if status := clients.StatusOf(err); status != 0 {
		entry = entry.WithField("status", status)
	}
	entry.Warnf("Loader: Keeping previous products, load failed: %v", err)
	if l.opts.OnError != nil {
		l.opts.OnError(pageNo, err)
	}
}

func errorKind(err error) string {
	var (
		netErr    *clients.NetworkError
		httpErr   *clients.HTTPError
		decodeErr *clients.DecodeError
	)
	switch {
	case errors.As(err, &httpErr):
		return "http"
	case errors.As(err, &decodeErr):
		return "decode"
	case errors.As(err, &netErr), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "network"
	default:
		return "unknown"
	}
}

// AddToCart hands product to the cart collaborator as is.
func (l *Loader) AddToCart(ctx context.Context, product Product) error {
	if l.cart == nil {
		return ErrNoCart
	}
	return l.cart.AddToCart(ctx, product)
}

func (l *Loader) PageNo() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pageNo
}

func (l *Loader) setPageNo(pageNo int) {
	l.mu.Lock()
	l.pageNo = pageNo
	l.mu.Unlock()
}

// Products returns a snapshot of the current page.
func (l *Loader) Products() ProductPage {
	return l.store.Snapshot()
}

// Subscribe calls fn with every newly published page until the returned
// func is called. fn must not call Fetch.
func (l *Loader) Subscribe(fn func(ProductPage)) func() {
	return l.store.Subscribe(fn)
}

// Wait blocks until every load started by LoadProducts has finished.
func (l *Loader) Wait() {
	l.wg.Wait()
}

// Close cancels in-flight loads, waits for them and discards the page and
// its subscribers.
func (l *Loader) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()

	l.cancel()
	l.wg.Wait()
	l.store.Reset()
}
