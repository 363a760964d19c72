package model

import "time"

type Merchant struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	APIKey        string    `json:"api_key"`
	APISecretHash []byte    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}
