package entity

import "time"

type Customer struct {
	ID          string
	Name        string
	PhoneNumber string
	PinHash     string
	Language    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CustomerLoginData struct {
	ID          string
	PhoneNumber string
}
