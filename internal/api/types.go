package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// User is the public view of an account. Password hashes never leave the server.
type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	AdminID     string `json:"adminId"`
	GoogleID    string `json:"googleId,omitempty"`
	HasPassword bool   `json:"hasPassword"`
	CreatedAt   int64  `json:"createdAt"`
}

// Member is one entry of a group's member list.
type Member struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// MemberInput is a member in a request. It accepts either a bare email
// string or an {email, role} object; a missing role means viewer.
type MemberInput struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role,omitempty"`
}

func (m *MemberInput) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		var email string
		if err := json.Unmarshal(data, &email); err != nil {
			return err
		}
		*m = MemberInput{Email: email}
		return nil
	}

	type plain MemberInput
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("member must be an email or an {email, role} object: %w", err)
	}
	*m = MemberInput(p)
	return nil
}

// PaymentStatus is the group-level payment record.
type PaymentStatus struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Date     int64   `json:"date"`
	IsPaid   bool    `json:"isPaid"`
}

// Group is the public view of a group.
type Group struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Thumbnail     string        `json:"thumbnail"`
	AdminEmail    string        `json:"adminEmail"`
	Members       []Member      `json:"members"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	CreatedAt     int64         `json:"createdAt"`
	UpdatedAt     int64         `json:"updatedAt"`
}

// Split is one participant's share of an expense.
type Split struct {
	Email  string  `json:"email" validate:"required"`
	Amount float64 `json:"amount" validate:"gte=0"`
}

// Expense is the public view of an expense.
type Expense struct {
	ID          string  `json:"id"`
	GroupID     string  `json:"groupId"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	PaidBy      string  `json:"paidBy"`
	Splits      []Split `json:"splits"`
	IsSettled   bool    `json:"isSettled"`
	Date        int64   `json:"date"`
	CreatedBy   string  `json:"createdBy"`
}

// Transfer is a suggested payment that clears part of the balances.
type Transfer struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

// MessageResponse is returned by procedures with nothing else to report.
type MessageResponse struct {
	Message string `json:"message"`
}
