package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Product is an opaque record from the product listing. It is never inspected,
// only handed on.
type Product = json.RawMessage

// ProductPage is the body of a product listing response. Data holds the
// products; every other top-level field (totalElements, hasNext, ...) is kept
// verbatim in Meta so the page is republished exactly as received.
type ProductPage struct {
	Data []Product
	Meta map[string]json.RawMessage
}

// EmptyPage is the state before anything has loaded.
func EmptyPage() ProductPage {
	return ProductPage{Data: []Product{}}
}

func (p *ProductPage) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("product page must be a JSON object")
	}

	var page ProductPage
	if raw, ok := fields["data"]; ok {
		delete(fields, "data")
		if !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			if err := json.Unmarshal(raw, &page.Data); err != nil {
				return fmt.Errorf("product page data: %w", err)
			}
		}
	}
	if len(fields) > 0 {
		page.Meta = fields
	}
	*p = page
	return nil
}

func (p ProductPage) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(p.Meta)+1)
	for k, v := range p.Meta {
		fields[k] = v
	}
	data := p.Data
	if data == nil {
		data = []Product{}
	}
	fields["data"] = data
	return json.Marshal(fields)
}

// clone copies the slices and map so a snapshot cannot be changed through the store.
func (p ProductPage) clone() ProductPage {
	out := ProductPage{}
	if p.Data != nil {
		out.Data = make([]Product, len(p.Data))
		for i, product := range p.Data {
			out.Data[i] = append(Product(nil), product...)
		}
	}
	if p.Meta != nil {
		out.Meta = make(map[string]json.RawMessage, len(p.Meta))
		for k, v := range p.Meta {
			out.Meta[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}
