package model

type User struct {
	ID           string  `gorm:"primaryKey;size:64;not null" json:"id"`
	Username     string  `gorm:"size:128;uniqueIndex;not null" json:"username"`
	PasswordHash string  `gorm:"column:password;size:255;not null" json:"-"`
	Email        *string `gorm:"size:255" json:"email"`
}

func (u *User) Clone() *User {
	c := *u
	if u.Email != nil {
		email := *u.Email
		c.Email = &email
	}
	return &c
}
