package validator

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// 入力が不正
	ErrInvalidInput = errors.New("invalid input")
)

const (
	maxProductIDLen = 120
	maxVariantAxes  = 10
	maxVariantLen   = 64
	maxEmailLen     = 254
	maxPasswordLen  = 72 // bcrypt の上限
)

var emailLike = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ログインの入力を検証
func ValidateLogin(email string, password string) error {
	email = strings.TrimSpace(email)

	// 必須チェック
	if email == "" || password == "" {
		return ErrInvalidInput
	}
	if len(email) > maxEmailLen || len(password) > maxPasswordLen {
		return ErrInvalidInput
	}

	// email形式
	if !emailLike.MatchString(email) {
		return ErrInvalidInput
	}

	return nil
}

// カートの行指定（product_id + variants）の形だけ見る。商品との照合はusecase
func ValidateCartItem(productID string, variants map[string]string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" || len(productID) > maxProductIDLen {
		return ErrInvalidInput
	}
	if len(variants) > maxVariantAxes {
		return ErrInvalidInput
	}
	for axis, option := range variants {
		if strings.TrimSpace(axis) == "" || len(axis) > maxVariantLen || len(option) > maxVariantLen {
			return ErrInvalidInput
		}
	}
	return nil
}

// checkout の email
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" || len(email) > maxEmailLen || !emailLike.MatchString(email) {
		return ErrInvalidInput
	}
	return nil
}
