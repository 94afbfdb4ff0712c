package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/lastcallsw/trackeats/internal/model"
	"github.com/lastcallsw/trackeats/internal/types"
)

// ConfirmationWindow is how long a confirmation token stays valid.
const ConfirmationWindow = 4 * time.Hour

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// AuthService is the account directory: registration, credential
// verification, and the pending -> confirmed lifecycle.
type AuthService struct {
	db        *gorm.DB
	jwtSecret string
	cipher    *Cipher
	mailer    IEmailService
}

func NewAuthService(db *gorm.DB, jwtSecret string, cipher *Cipher, mailer IEmailService) *AuthService {
	return &AuthService{
		db:        db,
		jwtSecret: jwtSecret,
		cipher:    cipher,
		mailer:    mailer,
	}
}

// Register creates a pending user and sends the confirmation email. The
// returned user carries the confirmation token until it is consumed.
func (s *AuthService) Register(ctx context.Context, username, password, email string) (*model.User, error) {
	var problems []string
	if len(username) < 3 || len(username) > 100 {
		problems = append(problems, "username must be 3 to 100 characters")
	}
	problems = append(problems, passwordProblems(password)...)
	if !emailPattern.MatchString(email) {
		problems = append(problems, "email address is not valid")
	}
	if len(problems) > 0 {
		return nil, validationf("%s", strings.Join(problems, "; "))
	}

	var existing model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&existing).Error; err == nil {
		return nil, conflictf("username already taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	encryptedEmail, err := s.cipher.Encrypt(email)
	if err != nil {
		return nil, err
	}

	token, err := newConfirmationToken()
	if err != nil {
		return nil, err
	}
	now := time.Now()

	user := model.User{
		Username:           username,
		Status:             model.StatusPending,
		Email:              encryptedEmail,
		PasswordHash:       string(hashed),
		ConfirmationToken:  &token,
		ConfirmationSentAt: &now,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}

	if err := s.mailer.SendConfirmationEmail(username, token, email); err != nil {
		// Account stays pending; the user can request a re-send.
		log.Printf("confirmation email for %s failed: %v", username, err)
	}

	return &user, nil
}

// Verify checks the credentials and returns the user. Only confirmed accounts
// may log in.
func (s *AuthService) Verify(ctx context.Context, username, password string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("invalid credentials")
		}
		return nil, err
	}
	if user.Status != model.StatusConfirmed {
		return nil, validationf("account is not confirmed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, notFoundf("invalid credentials")
	}
	return &user, nil
}

// Confirm transitions a pending user to confirmed when the token matches and
// the confirmation window has not elapsed.
func (s *AuthService) Confirm(ctx context.Context, username, token string) error {
	var user model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundf("user not found")
		}
		return err
	}
	if user.ConfirmationToken == nil || *user.ConfirmationToken != token {
		return conflictf("confirmation token does not match")
	}
	if user.ConfirmationSentAt == nil || time.Since(*user.ConfirmationSentAt) > ConfirmationWindow {
		return validationf("confirmation token has expired")
	}

	updates := map[string]interface{}{
		"status":             model.StatusConfirmed,
		"confirmation_token": nil,
	}
	res := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", user.ID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return consistencyf("confirm updated %d rows", res.RowsAffected)
	}
	return nil
}

// ResendConfirmation issues a fresh token for a still-pending user and mails
// it again. The previous token stops working immediately.
func (s *AuthService) ResendConfirmation(ctx context.Context, username string) error {
	var user model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundf("user not found")
		}
		return err
	}
	if user.Status != model.StatusPending {
		return conflictf("account is not awaiting confirmation")
	}

	token, err := newConfirmationToken()
	if err != nil {
		return err
	}
	now := time.Now()

	res := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"confirmation_token":   token,
			"confirmation_sent_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return consistencyf("resend updated %d rows", res.RowsAffected)
	}

	address, err := s.EmailAddress(&user)
	if err != nil {
		return err
	}
	if err := s.mailer.SendConfirmationEmail(username, token, address); err != nil {
		log.Printf("confirmation email for %s failed: %v", username, err)
	}
	return nil
}

// Get returns the user record for an authenticated id.
func (s *AuthService) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("user not found")
		}
		return nil, err
	}
	return &user, nil
}

// GetID resolves an authenticated username to its user id.
func (s *AuthService) GetID(ctx context.Context, username string) (uuid.UUID, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Select("id").Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, notFoundf("user not found")
		}
		return uuid.Nil, err
	}
	return user.ID, nil
}

// EmailAddress decrypts the user's stored email.
func (s *AuthService) EmailAddress(user *model.User) (string, error) {
	if len(user.Email) == 0 {
		return "", nil
	}
	return s.cipher.Decrypt(user.Email)
}

// GenerateToken issues a signed session token for the claims.
func (s *AuthService) GenerateToken(claims *types.TokenClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  claims.UserID.String(),
		"username": claims.Username,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
	})
	return token.SignedString([]byte(s.jwtSecret))
}

// ValidateToken parses and verifies a session token.
func (s *AuthService) ValidateToken(tokenString string) (*types.TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, err
	}
	username, _ := claims["username"].(string)

	return &types.TokenClaims{UserID: userID, Username: username}, nil
}

// passwordProblems lists every rule the password fails, so the caller sees all
// of them at once.
func passwordProblems(password string) []string {
	var problems []string
	if len(password) < 8 || len(password) > 100 {
		problems = append(problems, "password must be 8 to 100 characters")
	}
	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	if !lower {
		problems = append(problems, "password must contain a lowercase letter")
	}
	if !upper {
		problems = append(problems, "password must contain an uppercase letter")
	}
	if !digit {
		problems = append(problems, "password must contain a digit")
	}
	if !special {
		problems = append(problems, "password must contain a special character")
	}
	return problems
}

func newConfirmationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
