package partner

import (
	"strings"

	"github.com/erp/paysync/internal/domain/shared"
)

// Counterparty is a business partner whose open documents are synchronized.
// The code is the ERP card code and the primary key.
type Counterparty struct {
	Code string `gorm:"type:varchar(50);primaryKey" json:"code"`
	Name string `gorm:"type:varchar(200);not null;default:''" json:"name"`
}

// TableName returns the table name for GORM
func (Counterparty) TableName() string {
	return "counterparties"
}

// NewCounterparty creates a counterparty with a trimmed code and name
func NewCounterparty(code, name string) (*Counterparty, error) {
	code = strings.TrimSpace(code)
	if err := validateCounterpartyCode(code); err != nil {
		return nil, err
	}
	return &Counterparty{
		Code: code,
		Name: strings.TrimSpace(name),
	}, nil
}

func validateCounterpartyCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_INPUT", "Counterparty code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_INPUT", "Counterparty code cannot exceed 50 characters")
	}
	return nil
}

// Codes returns the codes of the given counterparties in order
func Codes(counterparties []Counterparty) []string {
	codes := make([]string, 0, len(counterparties))
	for _, c := range counterparties {
		codes = append(codes, c.Code)
	}
	return codes
}
