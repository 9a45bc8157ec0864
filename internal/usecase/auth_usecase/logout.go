package auth

import (
	"context"
	"errors"

	"lifeline/internal/domain/model"
	"lifeline/internal/repository"
)

// LogoutUsecase は token_version を進めて発行済みのJWTを全部無効にする。
type LogoutUsecase struct {
	userRepo  repository.UserRepository
	auditRepo repository.AuditLogRepository
	clock     Clock
}

// DI
func NewLogoutUsecase(userRepo repository.UserRepository, auditRepo repository.AuditLogRepository, clock Clock) *LogoutUsecase {
	return &LogoutUsecase{userRepo: userRepo, auditRepo: auditRepo, clock: clock}
}

func (u *LogoutUsecase) Execute(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return ErrInvalidCredentials
	}

	if err := u.userRepo.IncrementTokenVersion(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}

	return u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  userID,
		Action:       model.AuditActionLogout,
		ResourceType: model.AuditResourceUser,
		ResourceID:   userID,
		CreatedAt:    u.clock.Now(),
	})
}
