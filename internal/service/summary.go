package service

import (
	"apikey-store/internal/dto"
	"apikey-store/internal/model"
)

// SummarizeOrders groups orders by product display name and flattens their
// keys, so keys bought across several checkouts show up together. Groups keep
// the order in which their product first appears. Orders for products that
// are not in the catalog are grouped under the product id.
func SummarizeOrders(orders []*model.Order, products []*model.Product) *dto.OrderSummary {
	names := make(map[string]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}

	summary := &dto.OrderSummary{
		OrderCount: len(orders),
		Groups:     []*dto.ProductGroup{},
	}

	groups := make(map[string]*dto.ProductGroup)
	for _, order := range orders {
		name, ok := names[order.ProductID]
		if !ok {
			name = order.ProductID
		}

		group, ok := groups[name]
		if !ok {
			group = &dto.ProductGroup{
				ProductID:   order.ProductID,
				ProductName: name,
			}
			groups[name] = group
			summary.Groups = append(summary.Groups, group)
		}

		keys := order.Credentials.Keys()
		group.Orders = append(group.Orders, dto.OrderKeys{Order: order, Keys: keys})
		group.TotalKeys += len(keys)
		group.TotalAmount += order.Amount
		summary.TotalKeys += len(keys)
	}

	switch len(orders) {
	case 0:
	case 1:
		summary.TotalAmount = orders[0].Amount
		summary.Currency = orders[0].Currency
	default:
		for _, order := range orders {
			summary.TotalAmount += order.Amount
		}
		summary.Currency = orders[0].Currency
	}

	return summary
}
