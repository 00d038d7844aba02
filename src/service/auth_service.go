package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"todo-app/src/config"
	"todo-app/src/domain"
	"todo-app/src/models"
	"todo-app/src/repository"

	"github.com/sirupsen/logrus"
)

// defaultCategories 新規ユーザーに作成される初期カテゴリ
var defaultCategories = []struct {
	Name  string
	Color string
}{
	{Name: "Personal", Color: "#3B82F6"},
	{Name: "Work", Color: "#EF4444"},
	{Name: "Shopping", Color: "#10B981"},
	{Name: "Health", Color: "#F59E0B"},
}

// AuthService 認証サービスのインターフェース
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
	RefreshToken(refreshToken string) (*models.AuthResponse, error)
	ValidateToken(tokenString string) (*models.User, error)
}

// authService 認証サービスの実装
type authService struct {
	userRepo     repository.UserRepository
	categoryRepo domain.CategoryRepository
	jwtService   JWTService
	config       *config.Config
	logger       *logrus.Logger
}

// NewAuthService 認証サービスを作成
func NewAuthService(userRepo repository.UserRepository, categoryRepo domain.CategoryRepository, jwtService JWTService, cfg *config.Config, logger *logrus.Logger) AuthService {
	return &authService{
		userRepo:     userRepo,
		categoryRepo: categoryRepo,
		jwtService:   jwtService,
		config:       cfg,
		logger:       logger,
	}
}

// Register 新規ユーザー登録
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {
	// メールアドレスの重複チェック
	exists, err := s.userRepo.IsEmailExists(req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("email already exists")
	}

	// ユーザー名の重複チェック
	exists, err = s.userRepo.IsUsernameExists(req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username existence: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("username already exists")
	}

	// パスワードハッシュ化
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// 初期カテゴリを作成（失敗しても登録自体は成功扱い）
	s.seedDefaultCategories(ctx, user.ID)

	s.logger.WithField("user_id", user.ID).Info("新規ユーザーを登録しました")
	return s.generateAuthResponse(user)
}

// Login ユーザーログイン
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.userRepo.GetByUsername(req.Username)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	if err := s.userRepo.UpdateLastLogin(user.ID); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("最終ログイン日時の更新に失敗")
	}

	s.logger.WithField("user_id", user.ID).Info("ログインしました")
	return s.generateAuthResponse(user)
}

// RefreshToken リフレッシュトークンから新しいトークンペアを発行
func (s *authService) RefreshToken(refreshToken string) (*models.AuthResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token")
	}

	user, err := s.userRepo.GetByID(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token")
	}

	return s.generateAuthResponse(user)
}

// ValidateToken アクセストークンを検証してユーザーを返す
func (s *authService) ValidateToken(tokenString string) (*models.User, error) {
	userID, err := s.jwtService.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}

	return user, nil
}

// seedDefaultCategories 初期カテゴリを作成
func (s *authService) seedDefaultCategories(ctx context.Context, userID int) {
	now := time.Now()
	for _, c := range defaultCategories {
		category := &domain.Category{
			UserID:    userID,
			Name:      c.Name,
			Color:     c.Color,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := s.categoryRepo.Create(ctx, category); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"user_id": userID,
				"name":    c.Name,
			}).Error("初期カテゴリの作成に失敗")
		}
	}
}

// generateAuthResponse トークンペア付きの認証レスポンスを生成
func (s *authService) generateAuthResponse(user *models.User) (*models.AuthResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &models.AuthResponse{
		User:         user.ToPublic(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.config.Auth.JWTExpiresIn.Seconds()),
	}, nil
}
