package models

import "time"

type AbusiveWord struct {
	ID        string
	Word      string
	CreatedAt time.Time
}
