package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is one inventory record. Date and Price are free text; Price is only
// interpreted as a number when a report is generated.
type Item struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Date  string `json:"date"`
	Price string `json:"price"`
}

// Fields are the user-editable parts of an Item.
type Fields struct {
	Name  string `json:"name" validate:"required"`
	Date  string `json:"date" validate:"required"`
	Price string `json:"price" validate:"required"`
}

func (i Item) Fields() Fields {
	return Fields{Name: i.Name, Date: i.Date, Price: i.Price}
}

type Report struct {
	TotalItems  int
	TotalValue  decimal.Decimal
	LatestItem  Item
	GeneratedAt time.Time
}

type Action string

const (
	ActionAdd    Action = "add"
	ActionUpdate Action = "update"
)

// LogEntry is one row of the append-only report log written on every add or
// update in connected mode.
type LogEntry struct {
	ID        string    `json:"-"`
	Action    Action    `json:"action"`
	ItemID    string    `json:"itemId"`
	Name      string    `json:"name"`
	Date      string    `json:"date"`
	Price     string    `json:"price"`
	User      string    `json:"user"`
	Timestamp time.Time `json:"timestamp"`
}

type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
