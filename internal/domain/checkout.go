package domain

import "github.com/shopspring/decimal"

// PaymentData carries the tokenized payment details collected by the app.
type PaymentData struct {
	Method       string `json:"method"`
	Type         string `json:"type,omitempty"`
	Token        string `json:"token,omitempty"`
	Installments int    `json:"installments,omitempty"`
	IssuerID     string `json:"issuer_id,omitempty"`
}

// CheckoutRequest is the order submission payload. Validation happens here,
// before anything goes upstream.
type CheckoutRequest struct {
	CustomerName    string       `json:"customer_name" validate:"required"`
	CustomerEmail   string       `json:"customer_email" validate:"required,email"`
	CustomerPhone   string       `json:"customer_phone" validate:"required"`
	CustomerCPF     string       `json:"customer_cpf,omitempty"`
	DeliveryMethod  string       `json:"delivery_method" validate:"required,oneof=delivery pickup"`
	DeliveryAddress *Address     `json:"delivery_address,omitempty" validate:"required_if=DeliveryMethod delivery"`
	DeliveryNotes   string       `json:"delivery_notes,omitempty"`
	PaymentMethod   string       `json:"payment_method" validate:"required,oneof=pix credit_card cash"`
	Payment         *PaymentData `json:"payment,omitempty"`
	CouponCode      string       `json:"coupon_code,omitempty"`
	ScheduledDate   string       `json:"scheduled_date,omitempty"`
	ScheduledTime   string       `json:"scheduled_time,omitempty"`
}

// OrderConfirmation is returned after a successful submission.
type OrderConfirmation struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	AccessToken string `json:"access_token,omitempty"`
	PaymentURL  string `json:"payment_url,omitempty"`
	QRCode      string `json:"qr_code,omitempty"`
}

// Coupon is a discount definition as validated upstream.
type Coupon struct {
	ID            string           `json:"id"`
	Code          string           `json:"code"`
	DiscountType  string           `json:"discount_type"`
	DiscountValue decimal.Decimal  `json:"discount_value"`
	MinOrderValue *decimal.Decimal `json:"min_order_value,omitempty"`
	MaxDiscount   *decimal.Decimal `json:"max_discount,omitempty"`
	IsActive      bool             `json:"is_active"`
}

// CouponResult is the outcome of validating a coupon against a subtotal.
type CouponResult struct {
	Valid    bool            `json:"valid"`
	Coupon   *Coupon         `json:"coupon,omitempty"`
	Discount decimal.Decimal `json:"discount"`
	Message  string          `json:"message,omitempty"`
}

// DeliveryInfo is the computed delivery quote.
type DeliveryInfo struct {
	Fee           decimal.Decimal `json:"fee"`
	DistanceKm    float64         `json:"distance_km"`
	EstimatedTime int             `json:"estimated_time"`
}
