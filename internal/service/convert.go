package service

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/api"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
)

func toAPIUser(u *models.User) *api.User {
	role := u.Role
	if role == "" {
		role = models.RoleAdmin
	}
	return &api.User{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        string(role),
		AdminID:     u.TenantAdminID(),
		GoogleID:    u.GoogleID,
		HasPassword: u.HasPassword(),
		CreatedAt:   u.CreatedAt,
	}
}

func toAPIGroup(g *models.Group) *api.Group {
	members := make([]api.Member, len(g.Members))
	for i, m := range g.Members {
		members[i] = api.Member{Email: m.Email, Role: string(m.Role)}
	}
	return &api.Group{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Thumbnail:   g.Thumbnail,
		AdminEmail:  g.AdminEmail,
		Members:     members,
		PaymentStatus: api.PaymentStatus{
			Amount:   g.PaymentStatus.Amount.InexactFloat64(),
			Currency: g.PaymentStatus.Currency,
			Date:     g.PaymentStatus.Date,
			IsPaid:   g.PaymentStatus.IsPaid,
		},
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}

func toAPIExpense(e *models.Expense) *api.Expense {
	splits := make([]api.Split, len(e.Splits))
	for i, s := range e.Splits {
		splits[i] = api.Split{Email: s.Email, Amount: s.Amount.InexactFloat64()}
	}
	return &api.Expense{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Description: e.Description,
		Amount:      e.Amount.InexactFloat64(),
		PaidBy:      e.PaidBy,
		Splits:      splits,
		IsSettled:   e.IsSettled,
		Date:        e.Date,
		CreatedBy:   e.CreatedBy,
	}
}

func toModelSplits(splits []api.Split) []models.Split {
	out := make([]models.Split, len(splits))
	for i, s := range splits {
		out[i] = models.Split{Email: models.NormalizeEmail(s.Email), Amount: decimal.NewFromFloat(s.Amount)}
	}
	return out
}

// toModelMembers normalizes member inputs. An empty role means viewer.
func toModelMembers(in []api.MemberInput) ([]models.Member, error) {
	out := make([]models.Member, 0, len(in))
	for _, m := range in {
		role := models.RoleViewer
		if m.Role != "" {
			r, err := models.ParseRole(m.Role)
			if err != nil {
				return nil, err
			}
			role = r
		}
		out = append(out, models.Member{Email: models.NormalizeEmail(m.Email), Role: role})
	}
	return out, nil
}

func toAPIBalances(balances map[string]decimal.Decimal) map[string]float64 {
	out := make(map[string]float64, len(balances))
	for email, b := range balances {
		out[email] = b.InexactFloat64()
	}
	return out
}

func toAPITransfers(edges []calculator.DebtEdge) []api.Transfer {
	out := make([]api.Transfer, len(edges))
	for i, e := range edges {
		out[i] = api.Transfer{From: e.From, To: e.To, Amount: e.Amount.InexactFloat64()}
	}
	return out
}
