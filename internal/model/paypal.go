package model

type PaypalLink struct {
	Rel    string `json:"rel"`
	Href   string `json:"href"`
	Method string `json:"method,omitempty"`
}

// PaypalOrder is the subset of a PayPal order body the service reads back
// for logging. Responses are otherwise passed to callers untouched.
type PaypalOrder struct {
	ID     string       `json:"id"`
	Status string       `json:"status"`
	Links  []PaypalLink `json:"links"`
}

func (o *PaypalOrder) ApproveURL() string {
	for _, link := range o.Links {
		if link.Rel == "approve" || link.Rel == "payer-action" {
			return link.Href
		}
	}
	return ""
}
