package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"health-concierge/backend/internal/models"
	apperrors "health-concierge/backend/pkg/errors"
)

// GormPlanRepository implements PlanRepository backed by GORM
type GormPlanRepository struct {
	db *gorm.DB
}

// NewGormPlanRepository creates a plan repository
func NewGormPlanRepository(db *gorm.DB) *GormPlanRepository {
	return &GormPlanRepository{db: db}
}

func (r *GormPlanRepository) Create(ctx context.Context, plan *models.HealthPlan) error {
	if plan.ID == "" {
		plan.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now

	if err := r.db.WithContext(ctx).Create(plan).Error; err != nil {
		return apperrors.NewStorageError("failed to store plan", err)
	}
	return nil
}

func (r *GormPlanRepository) Update(ctx context.Context, plan *models.HealthPlan) error {
	plan.UpdatedAt = time.Now().UTC()
	if err := r.db.WithContext(ctx).Save(plan).Error; err != nil {
		return apperrors.NewStorageError("failed to update plan", err)
	}
	return nil
}

func (r *GormPlanRepository) GetByID(ctx context.Context, id string) (*models.HealthPlan, error) {
	var plan models.HealthPlan
	err := r.db.WithContext(ctx).First(&plan, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("plan not found")
		}
		return nil, apperrors.NewStorageError("failed to fetch plan", err)
	}
	return &plan, nil
}

func (r *GormPlanRepository) ListActive(ctx context.Context) ([]models.HealthPlan, error) {
	var plans []models.HealthPlan
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at DESC").
		Find(&plans).Error
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list active plans", err)
	}
	return plans, nil
}

func (r *GormPlanRepository) ListActiveBySession(ctx context.Context, sessionID string) ([]models.HealthPlan, error) {
	var plans []models.HealthPlan
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND active = ?", sessionID, true).
		Order("created_at DESC").
		Find(&plans).Error
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list session plans", err)
	}
	return plans, nil
}

func (r *GormPlanRepository) FindActiveByCondition(ctx context.Context, sessionID, condition string) (*models.HealthPlan, error) {
	var plan models.HealthPlan
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND active = ? AND LOWER(condition) = ?", sessionID, true, strings.ToLower(condition)).
		Order("created_at DESC").
		First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.NewStorageError("failed to look up plan by condition", err)
	}
	return &plan, nil
}

func (r *GormPlanRepository) Deactivate(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&models.HealthPlan{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"active":     false,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return apperrors.NewStorageError("failed to deactivate plan", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("plan not found")
	}
	return nil
}

func (r *GormPlanRepository) DeactivateBySession(ctx context.Context, sessionID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.HealthPlan{}).
		Where("session_id = ? AND active = ?", sessionID, true).
		Updates(map[string]interface{}{
			"active":     false,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, apperrors.NewStorageError("failed to deactivate session plans", result.Error)
	}
	return result.RowsAffected, nil
}

// MarkTask loads the plan, appends the date to the named task's progress
// and saves the whole task list back. The read-modify-write runs inside a
// transaction so concurrent marks do not lose entries.
func (r *GormPlanRepository) MarkTask(ctx context.Context, planID, taskName, date string) (bool, bool, error) {
	var found, added bool

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var plan models.HealthPlan
		if err := tx.First(&plan, "id = ?", planID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NewNotFoundError("plan not found")
			}
			return err
		}

		for i := range plan.Tasks {
			if plan.Tasks[i].TaskName == taskName {
				found = true
				added = plan.Tasks[i].Mark(date)
				break
			}
		}

		if !added {
			return nil
		}

		plan.UpdatedAt = time.Now().UTC()
		return tx.Save(&plan).Error
	})
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeNotFound) {
			return false, false, err
		}
		return found, added, apperrors.NewStorageError("failed to mark task progress", err)
	}
	return found, added, nil
}
