package models

import "time"

type Dealer struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"index;size:150;not null" json:"name"`
	Territory string    `gorm:"index;size:100" json:"territory"`
	Address   string    `gorm:"type:text" json:"address"`
	Contact   string    `gorm:"size:150" json:"contact"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Warehouse struct {
	ID    int     `gorm:"primary_key" json:"id"`
	Name  string  `gorm:"size:100;not null" json:"name"`
	Alias *string `gorm:"size:50" json:"alias"`
}

type Transport struct {
	ID   int    `gorm:"primary_key" json:"id"`
	Name string `gorm:"size:100;not null" json:"name"`
}
