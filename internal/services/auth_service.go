package services

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"bookbus/internal/domain"
	"bookbus/internal/domain/models"
	"bookbus/internal/repositories"
	"bookbus/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	PurposeRegister = "register"

	resendCooldown = 30 * time.Second
	tokenTTL       = 24 * time.Hour
)

// Mailer delivers one-time codes.
type Mailer interface {
	SendCode(ctx context.Context, email, purpose, code string) error
}

// LogMailer writes codes to the log instead of sending mail.
type LogMailer struct{}

func (LogMailer) SendCode(_ context.Context, email, purpose, code string) error {
	logrus.WithFields(logrus.Fields{"email": email, "purpose": purpose}).Info("one-time code issued")
	logrus.WithField("email", email).Debugf("one-time code: %s", code)
	return nil
}

type RegisterInput struct {
	Name     string `json:"name"`
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// pendingUser is stored with the code until the address is verified.
type pendingUser struct {
	Name         string `json:"name"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	Role         string `json:"role"`
}

// AuthService registers users behind an emailed code and issues login tokens.
type AuthService struct {
	Users     repositories.UserRepo
	Codes     repositories.OTPRepo
	Mailer    Mailer
	Secret    []byte
	CodeTTL   time.Duration
	Now       func() time.Time
	RequestID string
}

func (s AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s AuthService) mailer() Mailer {
	if s.Mailer != nil {
		return s.Mailer
	}
	return LogMailer{}
}

// StartRegistration validates in, parks it and sends a verification code.
func (s AuthService) StartRegistration(ctx context.Context, in RegisterInput) error {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = utils.NormalizeSpace(in.Name)
	if in.Role == "" {
		in.Role = domain.RoleCustomer
	}

	switch {
	case len(in.Username) < 3:
		return domain.ValidationError{Field: "username", Msg: "must be at least 3 characters"}
	case len(in.Password) < 8:
		return domain.ValidationError{Field: "password", Msg: "must be at least 8 characters"}
	case in.Role != domain.RoleCustomer && in.Role != domain.RoleOperator:
		return domain.ValidationError{Field: "role", Msg: "must be customer or operator"}
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return domain.ValidationError{Field: "email", Msg: "is not a valid address"}
	}

	taken, err := s.Users.Exists(ctx, in.Username, in.Email)
	if err != nil {
		return err
	}
	if taken {
		return domain.ConflictError{Resource: "user", Msg: "username or email already registered"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(pendingUser{
		Name: in.Name, Username: in.Username, Email: in.Email, PasswordHash: string(hash), Role: in.Role,
	})
	if err != nil {
		return err
	}
	return s.issue(ctx, in.Email, PurposeRegister, string(payload))
}

// Resend issues a fresh code for the latest pending registration.
func (s AuthService) Resend(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	last, err := s.Codes.Latest(ctx, email, PurposeRegister)
	if err != nil {
		return err
	}
	if s.now().Sub(last.CreatedAt) < resendCooldown {
		return domain.ConflictError{Resource: "verification code", Msg: "please wait before requesting another code"}
	}
	return s.issue(ctx, email, PurposeRegister, last.Payload)
}

func (s AuthService) issue(ctx context.Context, email, purpose, payload string) error {
	code, err := sixDigits()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	now := s.now()
	ttl := s.CodeTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if _, err := s.Codes.Create(ctx, models.OneTimeCode{
		Email: email, Purpose: purpose, CodeHash: string(hash), Payload: payload,
		ExpiresAt: now.Add(ttl), CreatedAt: now,
	}); err != nil {
		return err
	}
	if err := s.mailer().SendCode(ctx, email, purpose, code); err != nil {
		return fmt.Errorf("send code: %w", err)
	}
	utils.LogEvent(s.RequestID, "auth", "issue_code", "purpose="+purpose)
	return nil
}

// Verify checks the latest code for email and creates the pending user.
func (s AuthService) Verify(ctx context.Context, email, code string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	c, err := s.Codes.Latest(ctx, email, PurposeRegister)
	if err != nil {
		return models.User{}, err
	}
	if c.Expired(s.now()) {
		return models.User{}, domain.ValidationError{Field: "code", Msg: "code has expired"}
	}
	if bcrypt.CompareHashAndPassword([]byte(c.CodeHash), []byte(strings.TrimSpace(code))) != nil {
		return models.User{}, domain.ValidationError{Field: "code", Msg: "code is incorrect"}
	}
	if err := s.Codes.MarkVerified(ctx, c.ID, s.now()); err != nil {
		return models.User{}, err
	}

	var p pendingUser
	if err := json.Unmarshal([]byte(c.Payload), &p); err != nil {
		return models.User{}, domain.InternalError{Msg: "pending registration is unreadable", Err: err}
	}
	u, err := s.Users.Create(ctx, models.User{
		Username: p.Username, Email: p.Email, Name: p.Name, PasswordHash: p.PasswordHash, Role: p.Role,
	})
	if err != nil {
		return models.User{}, err
	}
	utils.LogEvent(s.RequestID, "auth", "register", fmt.Sprintf("user_id=%d role=%s", u.ID, u.Role))
	return u, nil
}

// Login checks credentials and returns a signed token.
func (s AuthService) Login(ctx context.Context, login, password string) (string, models.User, error) {
	u, err := s.Users.GetByLogin(ctx, login)
	if domain.IsNotFound(err) {
		return "", models.User{}, domain.ErrUnauthenticated
	}
	if err != nil {
		return "", models.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", models.User{}, domain.ErrUnauthenticated
	}

	signed, err := s.token(u)
	if err != nil {
		return "", models.User{}, err
	}
	utils.LogEvent(s.RequestID, "auth", "login", fmt.Sprintf("user_id=%d", u.ID))
	return signed, u, nil
}

func (s AuthService) token(u models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": u.ID,
		"role":    u.Role,
		"exp":     s.now().Add(tokenTTL).Unix(),
	})
	return token.SignedString(s.Secret)
}

// ParseToken validates a bearer token and returns who it belongs to.
func ParseToken(secret []byte, raw string) (domain.RequestContext, error) {
	tok, err := jwt.Parse(raw, func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return domain.RequestContext{}, domain.ErrUnauthenticated
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return domain.RequestContext{}, domain.ErrUnauthenticated
	}
	id, _ := claims["user_id"].(float64)
	role, _ := claims["role"].(string)
	if id <= 0 || role == "" {
		return domain.RequestContext{}, errors.Join(domain.ErrUnauthenticated, errors.New("token misses user claims"))
	}
	return domain.RequestContext{UserID: int64(id), Role: role}, nil
}

func sixDigits() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
