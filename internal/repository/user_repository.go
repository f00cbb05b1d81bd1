package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"linkcraft/internal/model"
)

// ErrInsufficientCredits is returned when a conditional debit finds no
// credit left to consume.
var ErrInsufficientCredits = errors.New("insufficient credits")

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *model.User) error {
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("create user failed: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByUsername(username string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by username failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by email failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByID(id uint) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by id failed: %w", err)
	}
	return &user, nil
}

// DebitCredit consumes exactly one credit. The conditional update is the
// atomic check-and-decrement that keeps the balance non-negative under
// concurrent requests: when two requests race for the last credit, only
// one row update matches and the other caller gets ErrInsufficientCredits.
func (r *UserRepository) DebitCredit(userID uint) error {
	res := r.db.Model(&model.User{}).
		Where("id = ? AND credits > 0", userID).
		UpdateColumn("credits", gorm.Expr("credits - ?", 1))
	if res.Error != nil {
		return fmt.Errorf("debit credit failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientCredits
	}
	return nil
}
