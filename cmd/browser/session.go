package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"bookstore_webapp/internal/loader"
)

const helpText = `commands:
  n        next page
  p        previous page
  g N      go to page N
  r        reload the current page
  a IDX    add product IDX of the current page to the cart
  h        this help
  q        quit
`

// console serializes writes from the command loop and the page subscriber.
type console struct {
	mu sync.Mutex
	w  io.Writer
}

func newConsole(w io.Writer) *console {
	return &console{w: w}
}

func (c *console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, format, args...)
}

type session struct {
	loader *loader.Loader
	out    *console
}

func newSession(l *loader.Loader, out *console) *session {
	return &session{loader: l, out: out}
}

// run opens page and executes commands read from in until q, end of input
// or ctx is done.
func (s *session) run(ctx context.Context, page int, in io.Reader) error {
	unsubscribe := s.loader.Subscribe(s.render)
	defer unsubscribe()

	if err := s.loader.Initialize(page); err != nil {
		return err
	}
	s.out.printf("type h for help\n")

	lines := make(chan string)
	done := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		done <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-done:
			s.loader.Wait()
			return err
		case line := <-lines:
			quit, err := s.exec(ctx, line)
			if err != nil {
				s.out.printf("! %v\n", err)
			}
			if quit {
				return nil
			}
		}
	}
}

func (s *session) exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch fields[0] {
	case "q", "quit":
		return true, nil
	case "h", "help":
		s.out.printf("%s", helpText)
	case "n", "next":
		return false, s.loader.GoToPage(s.loader.PageNo() + 1)
	case "p", "prev":
		if s.loader.PageNo() <= 1 {
			return false, errors.New("already on the first page")
		}
		return false, s.loader.GoToPage(s.loader.PageNo() - 1)
	case "r", "reload":
		return false, s.loader.LoadProducts(s.loader.PageNo())
	case "g", "goto":
		n, err := argument(fields, "g N")
		if err != nil {
			return false, err
		}
		return false, s.loader.GoToPage(n)
	case "a", "add":
		idx, err := argument(fields, "a IDX")
		if err != nil {
			return false, err
		}
		products := s.loader.Products().Data
		if idx < 1 || idx > len(products) {
			return false, fmt.Errorf("no product %d on this page", idx)
		}
		product := products[idx-1]
		if err := s.loader.AddToCart(ctx, product); err != nil {
			return false, err
		}
		s.out.printf("added %s to the cart\n", summarize(product).label())
	default:
		return false, fmt.Errorf("unknown command %q, type h for help", fields[0])
	}
	return false, nil
}

func argument(fields []string, usage string) (int, error) {
	if len(fields) != 2 {
		return 0, fmt.Errorf("usage: %s", usage)
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("usage: %s", usage)
	}
	return n, nil
}

type productSummary struct {
	Code  string      `json:"code"`
	Name  string      `json:"name"`
	Price json.Number `json:"price"`
	raw   string
}

func summarize(product loader.Product) productSummary {
	var p productSummary
	if err := json.Unmarshal(product, &p); err != nil || (p.Code == "" && p.Name == "") {
		return productSummary{raw: string(product)}
	}
	return p
}

func (p productSummary) label() string {
	if p.raw != "" {
		return p.raw
	}
	return p.Code + " " + p.Name
}

func (s *session) render(page loader.ProductPage) {
	var b strings.Builder
	b.WriteString("\n" + s.heading(page) + "\n")
	if len(page.Data) == 0 {
		b.WriteString("  (no products)\n")
	}
	for i, raw := range page.Data {
		p := summarize(raw)
		if p.raw != "" {
			fmt.Fprintf(&b, "  %2d. %s\n", i+1, p.raw)
			continue
		}
		fmt.Fprintf(&b, "  %2d. %-6s %s  %s\n", i+1, p.Code, p.Name, p.Price)
	}
	s.out.printf("%s", b.String())
}

func (s *session) heading(page loader.ProductPage) string {
	pageNo, ok := metaInt(page, "pageNumber")
	if !ok {
		pageNo = s.loader.PageNo()
	}
	heading := "Page " + strconv.Itoa(pageNo)
	if total, ok := metaInt(page, "totalPages"); ok {
		heading += " of " + strconv.Itoa(total)
	}
	if count, ok := metaInt(page, "totalElements"); ok {
		heading += fmt.Sprintf(" (%d products)", count)
	}
	return heading
}

func metaInt(page loader.ProductPage, key string) (int, bool) {
	raw, ok := page.Meta[key]
	if !ok {
		return 0, false
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	return n, true
}
