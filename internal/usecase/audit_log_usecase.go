package usecase

import (
	"context"
	"net/http"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// 管理者向けの監査ログ閲覧。書き込みは各usecaseが行う。
type AuditLogUsecase struct {
	auditRepo repo.AuditLogRepository
}

func NewAuditLogUsecase(auditRepo repo.AuditLogRepository) *AuditLogUsecase {
	return &AuditLogUsecase{auditRepo: auditRepo}
}

type ListAuditLogsInput struct {
	ActorUserID  *int64
	Action       string
	ResourceType string
	ResourceID   *int64
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}

func validAuditAction(a model.AuditAction) bool {
	switch a {
	case model.AuditActionUpdateStock, model.AuditActionUpdateOrderStatus, model.AuditActionDeleteOrder:
		return true
	}
	return false
}

func validAuditResourceType(r model.AuditResourceType) bool {
	switch r {
	case model.AuditResourceProduct, model.AuditResourceOrder:
		return true
	}
	return false
}

// 監査ログ一覧（新しい順）。actionとresource_typeは既知の値だけ受ける。
func (u *AuditLogUsecase) List(ctx context.Context, adminUserID int64, in ListAuditLogsInput) ([]model.AuditLog, error) {
	if adminUserID <= 0 {
		return []model.AuditLog{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.Limit < 0 || in.Limit > 200 {
		return []model.AuditLog{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if in.Offset < 0 {
		return []model.AuditLog{}, NewHTTPError(http.StatusBadRequest, "invalid offset")
	}

	filter := repo.AuditLogFilter{
		ActorUserID: in.ActorUserID,
		ResourceID:  in.ResourceID,
		CreatedFrom: in.From,
		CreatedTo:   in.To,
		Limit:       in.Limit,
		Offset:      in.Offset,
	}

	if in.Action != "" {
		a := model.AuditAction(in.Action)
		if !validAuditAction(a) {
			return []model.AuditLog{}, NewHTTPError(http.StatusBadRequest, "invalid action")
		}
		filter.Action = &a
	}
	if in.ResourceType != "" {
		rt := model.AuditResourceType(in.ResourceType)
		if !validAuditResourceType(rt) {
			return []model.AuditLog{}, NewHTTPError(http.StatusBadRequest, "invalid resource_type")
		}
		filter.ResourceType = &rt
	}

	logs, err := u.auditRepo.List(ctx, filter)
	if err != nil {
		return []model.AuditLog{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return logs, nil
}
