package domain

// LineItem is one product entry in the cart. Amount is always >= 1; an item
// whose amount would drop to zero is removed instead.
type LineItem struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	ImageURL string `json:"image_url,omitempty"`
	Amount   int    `json:"amount"`
}

// Cart is the ordered collection of line items. Insertion order is
// preserved; new items are appended at the end. Product IDs are unique
// within a cart.
type Cart struct {
	Items []LineItem `json:"items"`
}

// Stock is a read-only snapshot of available quantity for a product. It is
// fetched fresh on every add/update and never cached: stock is a ceiling,
// not a source of cart quantity.
type Stock struct {
	ProductID int64 `json:"id"`
	Amount    int   `json:"amount"`
}

// Product is a catalog record used to construct a new line item.
type Product struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	ImageURL string `json:"image_url,omitempty"`
}

// FindIndex returns the index of the line item with the given product ID,
// or -1 when absent.
func (c *Cart) FindIndex(productID int64) int {
	for i := range c.Items {
		if c.Items[i].ID == productID {
			return i
		}
	}
	return -1
}

// Amount returns the current amount for the given product, or 0 when the
// product is not in the cart.
func (c *Cart) Amount(productID int64) int {
	if i := c.FindIndex(productID); i >= 0 {
		return c.Items[i].Amount
	}
	return 0
}

// TotalAmount is the total price of all items in cents.
func (c *Cart) TotalAmount() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.Price * int64(item.Amount)
	}
	return total
}

// ItemCount is the total number of units across all line items.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Amount
	}
	return count
}

// Clone returns a deep copy. Mutations never alias a published cart.
func (c *Cart) Clone() Cart {
	items := make([]LineItem, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items}
}

// Valid reports whether the cart satisfies its invariants: every amount is
// at least 1 and no product ID repeats.
func (c Cart) Valid() bool {
	seen := make(map[int64]struct{}, len(c.Items))
	for _, item := range c.Items {
		if item.Amount < 1 {
			return false
		}
		if _, dup := seen[item.ID]; dup {
			return false
		}
		seen[item.ID] = struct{}{}
	}
	return true
}
