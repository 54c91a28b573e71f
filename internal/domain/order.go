package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus enumerates the order lifecycle states.
type OrderStatus string

const (
	OrderPending        OrderStatus = "pending"
	OrderConfirmed      OrderStatus = "confirmed"
	OrderPreparing      OrderStatus = "preparing"
	OrderReady          OrderStatus = "ready"
	OrderOutForDelivery OrderStatus = "out_for_delivery"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
)

// PaymentStatus enumerates payment states.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentApproved  PaymentStatus = "approved"
	PaymentRejected  PaymentStatus = "rejected"
	PaymentRefunded  PaymentStatus = "refunded"
	PaymentCancelled PaymentStatus = "cancelled"
)

// DeliveryMethod is how the order reaches the customer.
type DeliveryMethod string

const (
	DeliveryToAddress DeliveryMethod = "delivery"
	DeliveryPickup    DeliveryMethod = "pickup"
)

// OrderItem is one product line in a placed order.
type OrderItem struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// OrderComboItem is one combo line in a placed order.
type OrderComboItem struct {
	ID         string          `json:"id"`
	ComboID    string          `json:"combo_id"`
	ComboName  string          `json:"combo_name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// Order is a placed order as read from upstream.
type Order struct {
	ID              string           `json:"id"`
	OrderNumber     string           `json:"order_number"`
	Status          OrderStatus      `json:"status"`
	PaymentStatus   PaymentStatus    `json:"payment_status"`
	DeliveryMethod  DeliveryMethod   `json:"delivery_method"`
	CustomerName    string           `json:"customer_name"`
	CustomerEmail   string           `json:"customer_email"`
	CustomerPhone   string           `json:"customer_phone"`
	DeliveryAddress *Address         `json:"delivery_address,omitempty"`
	Subtotal        decimal.Decimal  `json:"subtotal"`
	DeliveryFee     decimal.Decimal  `json:"delivery_fee"`
	Discount        decimal.Decimal  `json:"discount"`
	Total           decimal.Decimal  `json:"total"`
	Items           []OrderItem      `json:"items"`
	ComboItems      []OrderComboItem `json:"combo_items,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	ScheduledDate   string           `json:"scheduled_date,omitempty"`
	ScheduledTime   string           `json:"scheduled_time,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	AccessToken     string           `json:"access_token,omitempty"`
}

// OrderPaymentStatus is the polling view for an order's payment.
type OrderPaymentStatus struct {
	OrderID       string        `json:"order_id"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Status        OrderStatus   `json:"status"`
}

// ContactLink is a deep link for contacting the store about an order.
type ContactLink struct {
	URL string `json:"url"`
}
