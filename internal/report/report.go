// Package report aggregates paid orders into sales and profit summaries.
package report

import (
	"cmp"    // Ordering helpers
	"slices" // Sorting
	"time"   // Order timestamps

	"blangkis/internal/domain" // Domain models
)

// TopN is the size of the product and user rankings
const TopN = 10

// Global holds totals over every matching order
type Global struct {
	TotalOrders       int     `json:"totalOrders"`
	TotalQty          int     `json:"totalQty"`
	TotalRevenue      float64 `json:"totalRevenue"`
	TotalProfit       float64 `json:"totalProfit"`
	AvgOrderValue     float64 `json:"avgOrderValue"`
	AvgProfitPerOrder float64 `json:"avgProfitPerOrder"`
}

// Period holds the totals of one calendar month
type Period struct {
	Period      string  `json:"period"` // YYYY-MM
	TotalOrders int     `json:"totalOrders"`
	TotalItems  int     `json:"totalItems"`
	Revenue     float64 `json:"revenue"`
	Profit      float64 `json:"profit"`
	Income      float64 `json:"income"`
}

// IncomePeriod is the income-only view of a Period
type IncomePeriod struct {
	Period string  `json:"period"`
	Income float64 `json:"income"`
}

// DetailItem is one line item of a DetailRow
type DetailItem struct {
	ProductID   uint    `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Subtotal    float64 `json:"subtotal"`
	Profit      float64 `json:"profit"`
}

// DetailRow describes one matching order
type DetailRow struct {
	OrderID     uint         `json:"orderId"`
	OrderNumber string       `json:"orderNumber"`
	CreatedAt   time.Time    `json:"createdAt"`
	UserID      uint         `json:"userId"`
	Username    string       `json:"username"`
	Status      string       `json:"status"`
	StatusLabel string       `json:"statusLabel"`
	Total       float64      `json:"total"`
	Revenue     float64      `json:"revenue"`
	Profit      float64      `json:"profit"`
	Items       []DetailItem `json:"items"`
}

// ProductRank is one entry of the best-selling products ranking
type ProductRank struct {
	ProductID   uint    `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Revenue     float64 `json:"revenue"`
	Profit      float64 `json:"profit"`
}

// UserRank is one entry of the most active buyers ranking
type UserRank struct {
	UserID     uint    `json:"userId"`
	Username   string  `json:"username"`
	OrderCount int     `json:"orderCount"`
	TotalSpent float64 `json:"totalSpent"`
}

// Complex is the full report
type Complex struct {
	Global      Global         `json:"global"`
	Periodic    []Period       `json:"periodic"`
	Detail      []DetailRow    `json:"detail"`
	TopProducts []ProductRank  `json:"topProducts"`
	TopUsers    []UserRank     `json:"topUsers"`
	StatusStats map[string]int `json:"statusStats"`
}

// Income returns the income-only view of the periodic buckets
func (c Complex) Income() []IncomePeriod {
	out := make([]IncomePeriod, 0, len(c.Periodic))
	for _, p := range c.Periodic {
		out = append(out, IncomePeriod{Period: p.Period, Income: p.Income})
	}
	return out
}

// ItemProfit returns (price - originalPrice) * quantity.
// It is zero when the product is unknown or has no cost basis.
func ItemProfit(item domain.OrderItem, product *domain.Product) float64 {
	if product == nil || product.OriginalPrice == nil {
		return 0
	}
	return (item.Price - *product.OriginalPrice) * float64(item.Quantity)
}

// PeriodKey returns the YYYY-MM bucket of t in Location
func PeriodKey(t time.Time) string {
	return t.In(Location).Format("2006-01")
}

// ProductIndex indexes products by id
func ProductIndex(products []domain.Product) map[uint]domain.Product {
	idx := make(map[uint]domain.Product, len(products))
	for _, p := range products {
		idx[p.ID] = p
	}
	return idx
}

// UserIndex indexes users by id
func UserIndex(users []domain.User) map[uint]domain.User {
	idx := make(map[uint]domain.User, len(users))
	for _, u := range users {
		idx[u.ID] = u
	}
	return idx
}

// Build computes every report section in one pass over orders
func Build(orders []domain.Order, products map[uint]domain.Product, users map[uint]domain.User, f Filter) Complex {
	c := Complex{
		Periodic:    []Period{},
		Detail:      []DetailRow{},
		TopProducts: []ProductRank{},
		TopUsers:    []UserRank{},
		StatusStats: map[string]int{},
	}
	buckets := map[string]*Period{}
	byProduct := map[uint]*ProductRank{}
	byUser := map[uint]*UserRank{}

	for _, o := range orders {
		if !f.MatchOrder(o) {
			continue
		}
		items := f.Items(o)
		if len(items) == 0 {
			continue // Product filter removed every line item
		}

		row := DetailRow{
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			CreatedAt:   o.CreatedAt,
			UserID:      o.UserID,
			Username:    users[o.UserID].Username,
			Status:      o.Status,
			StatusLabel: domain.StatusLabel(o.Status),
			Total:       o.Total,
			Items:       make([]DetailItem, 0, len(items)),
		}
		qty := 0
		for _, it := range items {
			var product *domain.Product
			if p, ok := products[it.ProductID]; ok {
				product = &p
			}
			lineRevenue := it.Price * float64(it.Quantity)
			lineProfit := ItemProfit(it, product)
			qty += it.Quantity
			row.Revenue += lineRevenue
			row.Profit += lineProfit

			name := ""
			if product != nil {
				name = product.Name
			}
			row.Items = append(row.Items, DetailItem{
				ProductID:   it.ProductID,
				ProductName: name,
				Quantity:    it.Quantity,
				Price:       it.Price,
				Subtotal:    lineRevenue,
				Profit:      lineProfit,
			})

			pr, ok := byProduct[it.ProductID]
			if !ok {
				pr = &ProductRank{ProductID: it.ProductID, ProductName: name}
				byProduct[it.ProductID] = pr
			}
			pr.Quantity += it.Quantity
			pr.Revenue += lineRevenue
			pr.Profit += lineProfit
		}

		c.Global.TotalOrders++
		c.Global.TotalQty += qty
		c.Global.TotalRevenue += row.Revenue
		c.Global.TotalProfit += row.Profit

		key := PeriodKey(o.CreatedAt)
		b, ok := buckets[key]
		if !ok {
			b = &Period{Period: key}
			buckets[key] = b
		}
		b.TotalOrders++
		b.TotalItems += qty
		b.Revenue += row.Revenue
		b.Profit += row.Profit
		b.Income += row.Revenue

		ur, ok := byUser[o.UserID]
		if !ok {
			ur = &UserRank{UserID: o.UserID, Username: row.Username}
			byUser[o.UserID] = ur
		}
		ur.OrderCount++
		ur.TotalSpent += row.Revenue

		c.StatusStats[row.StatusLabel]++
		c.Detail = append(c.Detail, row)
	}

	if c.Global.TotalOrders > 0 {
		c.Global.AvgOrderValue = c.Global.TotalRevenue / float64(c.Global.TotalOrders)
		c.Global.AvgProfitPerOrder = c.Global.TotalProfit / float64(c.Global.TotalOrders)
	}

	for _, b := range buckets {
		c.Periodic = append(c.Periodic, *b)
	}
	slices.SortFunc(c.Periodic, func(a, b Period) int { return cmp.Compare(a.Period, b.Period) })

	for _, pr := range byProduct {
		c.TopProducts = append(c.TopProducts, *pr)
	}
	slices.SortFunc(c.TopProducts, func(a, b ProductRank) int {
		return cmp.Or(cmp.Compare(b.Quantity, a.Quantity), cmp.Compare(a.ProductID, b.ProductID))
	})
	if len(c.TopProducts) > TopN {
		c.TopProducts = c.TopProducts[:TopN]
	}

	for _, ur := range byUser {
		c.TopUsers = append(c.TopUsers, *ur)
	}
	slices.SortFunc(c.TopUsers, func(a, b UserRank) int {
		return cmp.Or(
			cmp.Compare(b.OrderCount, a.OrderCount),
			cmp.Compare(b.TotalSpent, a.TotalSpent),
			cmp.Compare(a.UserID, b.UserID),
		)
	})
	if len(c.TopUsers) > TopN {
		c.TopUsers = c.TopUsers[:TopN]
	}
	return c
}
