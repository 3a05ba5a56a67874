package dto

import "elaview/internal/domain/shared/money"

type MoneyDTO struct {
	Amount   int64   `json:"amount"`
	Currency string  `json:"currency"`
	Major    float64 `json:"major"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{
		Amount:   value.Amount,
		Currency: value.Currency,
		Major:    value.Major(),
	}
}
