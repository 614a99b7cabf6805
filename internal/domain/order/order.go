package order

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("order not found")
	ErrUnknownStatus = errors.New("unknown order status")
)

// Status follows pending -> confirmed -> processing -> shipped -> delivered,
// with cancelled as a terminal state reachable before delivery.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var lifecycle = []Status{
	StatusPending,
	StatusConfirmed,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
}

func (s Status) Valid() bool {
	return s == StatusCancelled || s.step() >= 0
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func (s Status) step() int {
	for i, v := range lifecycle {
		if v == s {
			return i
		}
	}
	return -1
}

// Progress reports how far along the lifecycle the order is, for the tracking
// view's progress bar. Cancelled orders report -1.
func (s Status) Progress() int {
	return s.step()
}

type PaymentStatus string

const (
	PaymentPaid     PaymentStatus = "paid"
	PaymentPending  PaymentStatus = "pending"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPaid, PaymentPending, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

type Item struct {
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Subtotal    float64 `json:"subtotal"`
}

type Order struct {
	OrderNumber     string        `json:"orderNumber"`
	CustomerName    string        `json:"customerName"`
	Status          Status        `json:"status"`
	Progress        int           `json:"progress"`
	Final           bool          `json:"final"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	TotalAmount     float64       `json:"totalAmount"`
	Currency        string        `json:"currency"`
	Items           []Item        `json:"items"`
	ShippingAddress string        `json:"shippingAddress"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// Derive checks the statuses written by the order service and fills the
// tracking fields computed from them.
func (o *Order) Derive() error {
	if !o.Status.Valid() {
		return fmt.Errorf("order %s: %w %q", o.OrderNumber, ErrUnknownStatus, o.Status)
	}
	if !o.PaymentStatus.Valid() {
		return fmt.Errorf("order %s: %w: payment %q", o.OrderNumber, ErrUnknownStatus, o.PaymentStatus)
	}

	o.Progress = o.Status.Progress()
	o.Final = o.Status.Terminal()
	return nil
}

// NormalizeNumber trims and upper-cases a customer supplied order number.
func NormalizeNumber(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
