package domain

import (
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"
)

// CheckoutForm is what the user fills in before placing an order.
type CheckoutForm struct {
	Address   string `json:"address" validate:"required,min=5,max=500"`
	Phone     string `json:"phone" validate:"required,phone"`
	Comment   string `json:"comment" validate:"max=1000"`
	PromoCode string `json:"promo_code" validate:"max=50"`
}

// OrderConfirmation is the backend's answer to a successful checkout.
// OrderID is empty for backends that do not assign one.
type OrderConfirmation struct {
	OrderID string          `json:"order_id"`
	Status  string          `json:"status,omitempty"`
	Total   decimal.Decimal `json:"total"`
}

// UnmarshalJSON accepts {"order_id": ...}, {"id": ...}, numeric or string ids,
// and "total" or "total_price".
func (o *OrderConfirmation) UnmarshalJSON(data []byte) error {
	var raw struct {
		OrderID    json.RawMessage  `json:"order_id"`
		ID         json.RawMessage  `json:"id"`
		Status     string           `json:"status"`
		Total      *decimal.Decimal `json:"total"`
		TotalPrice *decimal.Decimal `json:"total_price"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*o = OrderConfirmation{Status: raw.Status}
	if id := rawID(raw.OrderID); id != "" {
		o.OrderID = id
	} else {
		o.OrderID = rawID(raw.ID)
	}
	switch {
	case raw.Total != nil:
		o.Total = *raw.Total
	case raw.TotalPrice != nil:
		o.Total = *raw.TotalPrice
	}
	return nil
}

func rawID(msg json.RawMessage) string {
	if len(msg) == 0 || string(msg) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(msg, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return n.String()
	}
	return ""
}
