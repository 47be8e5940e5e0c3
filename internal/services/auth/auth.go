// Package services содержит логику бизнес-уровня для работы с пользователями и аутентификацией.
package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/dedoc-backend/internal/lib/jwt"
	"github.com/magabrotheeeer/dedoc-backend/internal/lib/password"
	"github.com/magabrotheeeer/dedoc-backend/internal/lib/sl"
	"github.com/magabrotheeeer/dedoc-backend/internal/models"
	"github.com/magabrotheeeer/dedoc-backend/internal/storage/repository"
)

// Ошибки бизнес-уровня аутентификации.
var (
	// ErrInvalidCredentials возвращается при неверной паре логин/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUsernameTaken возвращается при регистрации с занятым именем.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrEmailTaken возвращается при регистрации с занятой почтой.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// RegisterUser сохраняет нового пользователя и возвращает его UID.
	RegisterUser(ctx context.Context, user models.User) (string, error)

	// GetUserByUsername возвращает пользователя по имени или ошибку, если не найден.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// GetUser возвращает пользователя по UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)

	// FindUserByRecoveryDetails ищет пользователя по набору идентифицирующих полей.
	FindUserByRecoveryDetails(ctx context.Context, username, email, phoneNumber string, dateOfBirth time.Time) (*models.User, error)

	// UpdatePassword заменяет хэш пароля пользователя.
	UpdatePassword(ctx context.Context, userUID, passwordHash string) error
}

// MailPublisher публикует задание на отправку письма в очередь уведомлений.
type MailPublisher interface {
	PublishEmail(msg models.EmailMessage) error
}

// AuthService отвечает за регистрацию, авторизацию и восстановление пароля.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	mail     MailPublisher
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService. mail может быть nil,
// тогда письма не отправляются.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, mail MailPublisher, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		mail:     mail,
		log:      log,
	}
}

// RegisterRequest — данные нового пользователя, прошедшие валидацию.
type RegisterRequest struct {
	FullName      string
	Username      string
	Email         string
	DateOfBirth   time.Time
	PhoneNumber   string
	State         string
	City          string
	Password      string
	TermsAccepted bool
}

// Register создает нового пользователя с хэшированием пароля и дефолтной
// ролью "user", выдает JWT и ставит приветственное письмо в очередь.
// Ошибка отправки письма логируется и не прерывает регистрацию.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (string, *models.User, error) {
	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return "", nil, err
	}
	user := models.User{
		FullName:      req.FullName,
		Username:      req.Username,
		Email:         strings.ToLower(req.Email),
		DateOfBirth:   req.DateOfBirth,
		PhoneNumber:   req.PhoneNumber,
		State:         req.State,
		City:          req.City,
		PasswordHash:  hashed,
		Role:          "user", // дефолтная роль при регистрации
		TermsAccepted: req.TermsAccepted,
		Subscription:  models.EmptySnapshot(),
	}

	uid, err := s.users.RegisterUser(ctx, user)
	if err != nil {
		if constraint, ok := repository.IsUniqueViolation(err); ok {
			if strings.Contains(constraint, "email") {
				return "", nil, ErrEmailTaken
			}
			return "", nil, ErrUsernameTaken
		}
		return "", nil, err
	}
	user.UID = uid

	token, err := s.jwtMaker.GenerateToken(user.Username, user.Role, uid)
	if err != nil {
		return "", nil, err
	}

	if s.mail != nil {
		if err := s.mail.PublishEmail(models.EmailMessage{
			Type:     models.EmailWelcome,
			To:       user.Email,
			Username: user.Username,
			FullName: user.FullName,
		}); err != nil {
			s.log.Warn("failed to enqueue welcome email",
				slog.String("username", user.Username), sl.Err(err))
		}
	}

	return token, &user, nil
}

// Login проверяет пароль пользователя и генерирует JWT.
func (s *AuthService) Login(ctx context.Context, username, rawPassword string) (string, *models.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := s.jwtMaker.GenerateToken(user.Username, user.Role, user.UID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// CurrentUser возвращает профиль пользователя по UID из токена.
func (s *AuthService) CurrentUser(ctx context.Context, userUID string) (*models.User, error) {
	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ForgotPassword сбрасывает пароль по совпадению идентифицирующих полей:
// имя, почта, телефон и дата рождения. Почтовой петли с токеном нет,
// совпадение всех четырёх полей и служит подтверждением личности.
func (s *AuthService) ForgotPassword(ctx context.Context, username, email, phoneNumber string, dateOfBirth time.Time, newPassword string) error {
	user, err := s.users.FindUserByRecoveryDetails(ctx, username, strings.ToLower(email), phoneNumber, dateOfBirth)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}

	hashed, err := password.GetHash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.UID, hashed); err != nil {
		return err
	}

	if s.mail != nil {
		if err := s.mail.PublishEmail(models.EmailMessage{
			Type:     models.EmailPasswordChanged,
			To:       user.Email,
			Username: user.Username,
			FullName: user.FullName,
		}); err != nil {
			s.log.Warn("failed to enqueue password change email",
				slog.String("username", user.Username), sl.Err(err))
		}
	}

	return nil
}
