package model

// Product is one purchasable API key plan. Catalog entries are seeded once
// and never change afterwards.
type Product struct {
	ID               string   `gorm:"primaryKey;size:64;not null" json:"id" yaml:"id"`
	Name             string   `gorm:"size:255;not null" json:"name" yaml:"name"`
	Description      string   `gorm:"type:text;not null" json:"description" yaml:"description"`
	Price            int64    `gorm:"not null" json:"price" yaml:"price"` // minor units
	RequestsPerMonth int64    `gorm:"not null" json:"requestsPerMonth" yaml:"requests_per_month"`
	RateLimit        string   `gorm:"size:128;not null" json:"rateLimit" yaml:"rate_limit"`
	Features         []string `gorm:"serializer:json;type:text;not null" json:"features" yaml:"features"`
	Popular          bool     `gorm:"not null;default:false" json:"popular" yaml:"popular"`

	// catalog display order
	Position int `gorm:"not null;default:0" json:"-" yaml:"-"`
}

func (p *Product) Clone() *Product {
	c := *p
	c.Features = append([]string{}, p.Features...)
	return &c
}
