package delivery

import (
	"bytes"
	"html/template"
	"strings"

	"bookstore_webapp/internal/domain"
)

// DefaultKeywords is the keyword list of the site metadata.
var DefaultKeywords = []string{
	"books",
	"bookstore",
	"buy books",
	"read",
	"literature",
	"novels",
	"non-fiction",
	"bestsellers",
}

// SiteMeta is rendered into the head of every page.
type SiteMeta struct {
	Title       string
	Description string
	Creator     string
	Keywords    []string
}

const layoutHTML = `<!doctype html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Site.Title}}</title>
    <meta name="description" content="{{.Site.Description}}">
    <meta name="keywords" content="{{join .Site.Keywords ","}}">
    <meta name="creator" content="{{.Site.Creator}}">
    <meta name="publisher" content="{{.Site.Creator}}">
    <meta name="referrer" content="origin-when-cross-origin">
    <meta name="format-detection" content="telephone=no, address=no, email=no">
</head>
<body>
    <header>
        <nav>
            <a class="brand" href="/">Book Store</a>
            <a href="/products">Products</a>
            <a id="cart-link" href="/cart">Cart</a>
            <a id="orders-link" href="/orders">Orders</a>
        </nav>
    </header>
    <main>
{{template "content" .}}
    </main>
</body>
</html>
`

const productsHTML = `{{define "content"}}
        <section id="products" data-page-no="{{.PageNo}}">
            {{if .Error}}<p class="error">{{.Error}}</p>{{end}}
            <ul class="product-list">
            {{range .Products}}
                <li class="product" data-code="{{.Code}}">
                    {{if .ImageURL}}<img src="{{.ImageURL}}" alt="{{.Name}}">{{end}}
                    <h3 class="name">{{.Name}}</h3>
                    <p class="description">{{.Description}}</p>
                    <p class="price">{{.Price}}</p>
                    <form method="post" action="/cart/items">
                        <input type="hidden" name="code" value="{{.Code}}">
                        <button type="submit">Add to Cart</button>
                    </form>
                </li>
            {{end}}
            </ul>
            {{if .TotalPages}}
            <nav class="pagination">
                {{if .HasPrevious}}<a rel="first" href="/products?page=1">First</a>
                <a rel="prev" href="/products?page={{.PrevPage}}">Previous</a>{{end}}
                <span class="current">Page {{.PageNo}} of {{.TotalPages}}</span>
                {{if .HasNext}}<a rel="next" href="/products?page={{.NextPage}}">Next</a>
                <a rel="last" href="/products?page={{.TotalPages}}">Last</a>{{end}}
            </nav>
            {{end}}
        </section>
{{end}}`

const cartHTML = `{{define "content"}}
        <section id="cart" data-cart-id="{{.CartID}}">
            {{if .Items}}
            <table class="cart-items">
                <thead><tr><th>Product</th><th>Price</th><th>Quantity</th><th>Subtotal</th></tr></thead>
                <tbody>
                {{range .Items}}
                    <tr class="cart-item" data-code="{{.Code}}">
                        <td class="name">{{.Name}}</td>
                        <td class="price">{{.Price}}</td>
                        <td class="quantity">{{.Quantity}}</td>
                        <td class="subtotal">{{.Subtotal}}</td>
                    </tr>
                {{end}}
                </tbody>
            </table>
            <p class="total">Total Amount: <span id="cart-total">{{.Total}}</span></p>
            <form id="checkout" method="post" action="/orders">
                <fieldset>
                    <legend>Customer</legend>
                    <input name="name" placeholder="Name" required>
                    <input name="email" type="email" placeholder="Email" required>
                    <input name="phone" placeholder="Phone" required>
                </fieldset>
                <fieldset>
                    <legend>Delivery Address</legend>
                    <input name="addressLine1" placeholder="Address Line 1" required>
                    <input name="addressLine2" placeholder="Address Line 2">
                    <input name="city" placeholder="City" required>
                    <input name="state" placeholder="State" required>
                    <input name="zipCode" placeholder="Zip Code" required>
                    <select name="country" required>
                    {{range .Countries}}<option value="{{.}}">{{.}}</option>{{end}}
                    </select>
                </fieldset>
                <textarea name="comments" placeholder="Comments"></textarea>
                <button type="submit">Place Order</button>
            </form>
            {{else}}
            <p class="empty">Your cart is empty. <a href="/products">Continue shopping</a></p>
            {{end}}
        </section>
{{end}}`

const ordersHTML = `{{define "content"}}
        <section id="orders">
            {{if .Orders}}
            <table class="orders">
                <thead><tr><th>Order Number</th><th>Status</th></tr></thead>
                <tbody>
                {{range .Orders}}
                    <tr class="order" data-order-number="{{.OrderNumber}}">
                        <td class="number"><a href="/orders/{{.OrderNumber}}">{{.OrderNumber}}</a></td>
                        <td class="status">{{.Status}}</td>
                    </tr>
                {{end}}
                </tbody>
            </table>
            {{else}}
            <p class="empty">You have not placed any orders yet. <a href="/products">Start shopping</a></p>
            {{end}}
        </section>
{{end}}`

const orderHTML = `{{define "content"}}
        <section id="order" data-order-number="{{.OrderNumber}}">
            <h2>Order {{.OrderNumber}}</h2>
            <p class="status">{{.Status}}</p>
            <table class="order-items">
                <thead><tr><th>Product</th><th>Price</th><th>Quantity</th><th>Subtotal</th></tr></thead>
                <tbody>
                {{range .Items}}
                    <tr class="order-item" data-code="{{.Code}}">
                        <td class="name">{{.Name}}</td>
                        <td class="price">{{.Price}}</td>
                        <td class="quantity">{{.Quantity}}</td>
                        <td class="subtotal">{{.Subtotal}}</td>
                    </tr>
                {{end}}
                </tbody>
            </table>
            <p class="total">Total Amount: <span id="order-total">{{.Total}}</span></p>
            <address class="delivery">
                {{.Customer.Name}}<br>
                {{.Address.AddressLine1}}<br>
                {{if .Address.AddressLine2}}{{.Address.AddressLine2}}<br>{{end}}
                {{.Address.City}}, {{.Address.State}} {{.Address.ZipCode}}<br>
                <span class="country">{{.Address.Country}}</span>
            </address>
            {{if .Comments}}<p class="comments">{{.Comments}}</p>{{end}}
        </section>
{{end}}`

// Pages renders the server side HTML pages.
type Pages struct {
	site     SiteMeta
	products *template.Template
	cart     *template.Template
	orders   *template.Template
	order    *template.Template
}

func NewPages(site SiteMeta) *Pages {
	if site.Keywords == nil {
		site.Keywords = DefaultKeywords
	}
	layout := template.Must(template.New("layout").Funcs(template.FuncMap{
		"join": strings.Join,
	}).Parse(layoutHTML))

	return &Pages{
		site:     site,
		products: template.Must(template.Must(layout.Clone()).Parse(productsHTML)),
		cart:     template.Must(template.Must(layout.Clone()).Parse(cartHTML)),
		orders:   template.Must(template.Must(layout.Clone()).Parse(ordersHTML)),
		order:    template.Must(template.Must(layout.Clone()).Parse(orderHTML)),
	}
}

type productView struct {
	Code        string
	Name        string
	Description string
	ImageURL    string
	Price       string
}

type productsView struct {
	Site        SiteMeta
	PageNo      int
	Products    []productView
	Error       string
	TotalPages  int
	HasPrevious bool
	HasNext     bool
	PrevPage    int
	NextPage    int
}

type cartItemView struct {
	Code     string
	Name     string
	Price    string
	Quantity int
	Subtotal string
}

type cartView struct {
	Site      SiteMeta
	CartID    string
	Items     []cartItemView
	Total     string
	Countries []string
}

type ordersView struct {
	Site   SiteMeta
	Orders []domain.OrderSummary
}

type orderView struct {
	Site        SiteMeta
	OrderNumber string
	Status      domain.OrderStatus
	Items       []cartItemView
	Total       string
	Customer    domain.Customer
	Address     domain.Address
	Comments    string
}

// RenderProducts renders the products page for pageNo. result may be nil when
// the catalog could not be reached; errMsg is then shown instead.
func (p *Pages) RenderProducts(pageNo int, result *domain.PagedResult, errMsg string) ([]byte, error) {
	view := productsView{
		Site:     p.site,
		PageNo:   pageNo,
		Products: []productView{},
		Error:    errMsg,
		PrevPage: pageNo - 1,
		NextPage: pageNo + 1,
	}
	if result != nil {
		view.TotalPages = result.TotalPages
		view.HasPrevious = result.HasPrevious
		view.HasNext = result.HasNext
		for _, product := range result.Data {
			view.Products = append(view.Products, productView{
				Code:        product.Code,
				Name:        product.Name,
				Description: product.Description,
				ImageURL:    product.ImageURL,
				Price:       product.Price.StringFixed(2),
			})
		}
	}
	return execute(p.products, view)
}

func (p *Pages) RenderCart(cart *domain.Cart) ([]byte, error) {
	view := cartView{
		Site:      p.site,
		CartID:    cart.ID,
		Total:     cart.TotalAmount().StringFixed(2),
		Countries: domain.DeliveryCountries,
	}
	for _, item := range cart.Items {
		view.Items = append(view.Items, cartItemView{
			Code:     item.Code,
			Name:     item.Name,
			Price:    item.Price.StringFixed(2),
			Quantity: item.Quantity,
			Subtotal: item.Subtotal().StringFixed(2),
		})
	}
	return execute(p.cart, view)
}

func (p *Pages) RenderOrders(orders []domain.OrderSummary) ([]byte, error) {
	return execute(p.orders, ordersView{Site: p.site, Orders: orders})
}

func (p *Pages) RenderOrder(order *domain.Order) ([]byte, error) {
	view := orderView{
		Site:        p.site,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		Total:       order.TotalAmount().StringFixed(2),
		Customer:    order.Customer,
		Address:     order.DeliveryAddress,
		Comments:    order.Comments,
	}
	for _, item := range order.Items {
		view.Items = append(view.Items, cartItemView{
			Code:     item.Code,
			Name:     item.Name,
			Price:    item.Price.StringFixed(2),
			Quantity: item.Quantity,
			Subtotal: item.Subtotal().StringFixed(2),
		})
	}
	return execute(p.order, view)
}

func execute(t *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
