package domain

import (
	"strings"
	"time"
)

// OrderStatus описывает жизненный цикл заказа. Эта система выставляет только
// pending; дальнейшие состояния меняются вне её контроля.
type OrderStatus string

const (
	// OrderStatusPending — заказ записан и ждёт подтверждения кухней.
	OrderStatusPending OrderStatus = "pending"
)

// Order — неизменяемый снимок заказа в момент оформления: данные клиента,
// строки корзины и итог, посчитанный по правилу итогового округления.
type Order struct {
	ID              string      `json:"id"`
	CustomerID      string      `json:"customer_id"`
	CustomerName    string      `json:"customer_name"`
	CollectionTime  time.Time   `json:"collection_time"`
	SpecialRequests string      `json:"special_requests,omitempty"`
	Lines           []CartLine  `json:"lines"`
	TotalMinor      int64       `json:"total_minor"`
	Status          OrderStatus `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
}

// ValidateInvariants проверяет инварианты снимка заказа и возвращает список
// всех замечаний, не останавливаясь на первом.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if strings.TrimSpace(o.CustomerName) == "" {
		errs = append(errs, ErrCustomerNameRequired)
	}
	if o.CollectionTime.IsZero() {
		errs = append(errs, ErrCollectionTimeRequired)
	}
	if len(o.Lines) == 0 {
		errs = append(errs, ErrCartEmpty)
	}

	var calc int64
	for _, line := range o.Lines {
		calc += line.TotalMinor()
	}
	if calc != o.TotalMinor {
		errs = append(errs, ErrOrderTotalMismatch)
	}

	return errs
}
