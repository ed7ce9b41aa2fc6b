package db

import (
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Connect() {
	var err error

	dsn := os.Getenv("DB")

	// TranslateError so duplicate-key violations surface as
	// gorm.ErrDuplicatedKey regardless of driver
	DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		panic(err)
	}
}

func Sync() {
	if err := DB.AutoMigrate(&User{}, &Order{}); err != nil {
		panic(err)
	}
}
