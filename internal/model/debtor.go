package model

import "time"

type Debtor struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DebtorCreateRequest is the input for creating a debtor. Presence of name
// and phone is a caller concern.
type DebtorCreateRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// DebtorPatch holds the fields to overwrite; nil fields are kept. The zero
// patch only refreshes UpdatedAt.
type DebtorPatch struct {
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	Notes   *string `json:"notes,omitempty"`
}

func (p DebtorPatch) Apply(d *Debtor) {
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Phone != nil {
		d.Phone = *p.Phone
	}
	if p.Address != nil {
		d.Address = *p.Address
	}
	if p.Notes != nil {
		d.Notes = *p.Notes
	}
}
