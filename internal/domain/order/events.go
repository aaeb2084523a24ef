package order

import "time"

// OrderCreatedEvent is emitted when a new order is persisted. It carries just
// enough for the stock-decrement consumer in the product context.
type OrderCreatedEvent struct {
	OrderID    string
	CustomerID string
	Items      []OrderCreatedItem
	OccurredAt time.Time
}

type OrderCreatedItem struct {
	ProductID string
	Quantity  int
}

func (OrderCreatedEvent) EventName() string { return "order.created" }

func NewOrderCreatedEvent(o *Order) OrderCreatedEvent {
	items := make([]OrderCreatedItem, 0, len(o.items))
	for _, item := range o.items {
		items = append(items, OrderCreatedItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return OrderCreatedEvent{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		Items:      items,
		OccurredAt: time.Now().UTC(),
	}
}
