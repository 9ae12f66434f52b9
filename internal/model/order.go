package model

import "time"

type PaymentMethod string

const (
	PaymentPaypal       PaymentMethod = "paypal"
	PaymentSolana       PaymentMethod = "solana"
	PaymentBitcoin      PaymentMethod = "bitcoin"
	PaymentEthereum     PaymentMethod = "ethereum"
	PaymentBNB          PaymentMethod = "bnb"
	PaymentBEP20        PaymentMethod = "bep20"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

var PaymentMethods = []PaymentMethod{
	PaymentPaypal,
	PaymentSolana,
	PaymentBitcoin,
	PaymentEthereum,
	PaymentBNB,
	PaymentBEP20,
	PaymentBankTransfer,
}

func (m PaymentMethod) Valid() bool {
	for _, pm := range PaymentMethods {
		if m == pm {
			return true
		}
	}
	return false
}

// InitialStatus is the status a new order starts in. PayPal captures are
// settled before the order is submitted; everything else waits for a manual
// or external confirmation.
func (m PaymentMethod) InitialStatus() PaymentStatus {
	if m == PaymentPaypal {
		return PaymentCompleted
	}
	return PaymentPending
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed:
		return true
	}
	return false
}

type Order struct {
	ID              string        `gorm:"primaryKey;size:64;not null" json:"id"`
	ProductID       string        `gorm:"size:64;index;not null" json:"productId"` // not enforced against products
	CustomerEmail   string        `gorm:"size:255;index;not null" json:"customerEmail"`
	CustomerName    string        `gorm:"size:255;not null" json:"customerName"`
	PaymentMethod   PaymentMethod `gorm:"size:32;not null" json:"paymentMethod"`
	PaymentStatus   PaymentStatus `gorm:"size:32;index;not null;default:pending" json:"paymentStatus"`
	TransactionLink *string       `gorm:"type:text" json:"transactionLink"`
	Amount          int64         `gorm:"not null" json:"amount"` // minor units
	Currency        string        `gorm:"size:8;not null;default:USD" json:"currency"`
	Quantity        int           `gorm:"not null;default:1" json:"quantity"`
	Credentials     Credentials   `gorm:"column:api_key" json:"apiKey"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// Clone returns a copy that shares no mutable state with o.
func (o *Order) Clone() *Order {
	c := *o
	if o.TransactionLink != nil {
		link := *o.TransactionLink
		c.TransactionLink = &link
	}
	c.Credentials = o.Credentials.Clone()
	return &c
}
