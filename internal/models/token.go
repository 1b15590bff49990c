package models

import (
	"time"
)

type SessionToken struct {
	Token       string    `json:"token"`
	CreatedTime time.Time `json:"created_dttm_utc"`
	ExpiresTime time.Time `json:"expires_dttm_utc"`
}
