package storage

import (
	"errors"
	"time"

	"github.com/evcc-io/ownerportal/util"
	"github.com/evcc-io/ownerportal/vehicle/mitsubishi"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Record is the persisted session of an owner portal account
type Record struct {
	User             string    `gorm:"primaryKey"`
	UID              string    `gorm:"column:uid"`
	AccessToken      string    `gorm:"column:access_token"`
	TokenTime        time.Time `gorm:"column:token_time"`
	RefreshToken     string    `gorm:"column:refresh_token"`
	RefreshTokenTime time.Time `gorm:"column:refresh_token_time"`
	UpdatedAt        time.Time
}

func (Record) TableName() string {
	return "credentials"
}

var db *gorm.DB

// Open opens the sqlite database file and migrates the schema
func Open(file string) error {
	instance, err := gorm.Open(sqlite.Open(file), &gorm.Config{
		Logger: &adapter{log: util.NewLogger("sqlite")},
	})
	if err != nil {
		return err
	}

	if err := instance.AutoMigrate(&Record{}); err != nil {
		return err
	}

	db = instance

	return nil
}

// Load returns the credentials of user. Unknown users have empty credentials.
func Load(user string) (mitsubishi.Credentials, error) {
	if db == nil {
		return mitsubishi.Credentials{}, errors.New("database not opened")
	}

	var rec Record
	if err := db.First(&rec, "user = ?", user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = nil
		}
		return mitsubishi.Credentials{}, err
	}

	return mitsubishi.Credentials{
		UID:              rec.UID,
		AccessToken:      rec.AccessToken,
		TokenTime:        rec.TokenTime,
		RefreshToken:     rec.RefreshToken,
		RefreshTokenTime: rec.RefreshTokenTime,
	}, nil
}

// Save stores the credentials of user
func Save(user string, creds mitsubishi.Credentials) error {
	if db == nil {
		return errors.New("database not opened")
	}

	rec := Record{
		User:             user,
		UID:              creds.UID,
		AccessToken:      creds.AccessToken,
		TokenTime:        creds.TokenTime,
		RefreshToken:     creds.RefreshToken,
		RefreshTokenTime: creds.RefreshTokenTime,
	}

	return db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error
}

type account string

// Account returns the credential store of user, nil if no database has been opened
func Account(user string) mitsubishi.Store {
	if db == nil {
		return nil
	}
	return account(user)
}

func (a account) Load() (mitsubishi.Credentials, error) {
	return Load(string(a))
}

func (a account) Save(creds mitsubishi.Credentials) error {
	return Save(string(a), creds)
}
