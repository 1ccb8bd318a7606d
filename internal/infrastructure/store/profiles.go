package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"elzar-backend/internal/pkg/common"
)

// CreateProfile 建立飲食設定檔，名稱必須唯一
func (s *Store) CreateProfile(ctx context.Context, name, restrictions string) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO dietary_profiles (name, dietary_restrictions)
		VALUES (?, ?)`, name, restrictions)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return 0, fmt.Errorf("profile %q already exists", name)
		}
		return 0, fmt.Errorf("failed to create profile: %w", err)
	}

	return result.LastInsertId()
}

// GetProfile 以識別碼查詢設定檔，查無時回傳 (nil, nil)
func (s *Store) GetProfile(ctx context.Context, id int64) (*common.DietaryProfile, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var p common.DietaryProfile
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, dietary_restrictions, created_at, updated_at
		FROM dietary_profiles WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.DietaryRestrictions, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile %d: %w", id, err)
	}
	return &p, nil
}

// GetAllProfiles 取得全部設定檔，依名稱排序
func (s *Store) GetAllProfiles(ctx context.Context) ([]common.DietaryProfile, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, dietary_restrictions, created_at, updated_at
		FROM dietary_profiles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	profiles := []common.DietaryProfile{}
	for rows.Next() {
		var p common.DietaryProfile
		if err := rows.Scan(&p.ID, &p.Name, &p.DietaryRestrictions, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile row: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// UpdateProfile 更新設定檔，空字串欄位維持原值，回傳是否有更新到
func (s *Store) UpdateProfile(ctx context.Context, id int64, name, restrictions string) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var updates []string
	var args []interface{}

	if name != "" {
		updates = append(updates, "name = ?")
		args = append(args, name)
	}
	if restrictions != "" {
		updates = append(updates, "dietary_restrictions = ?")
		args = append(args, restrictions)
	}
	if len(updates) == 0 {
		return false, nil
	}

	updates = append(updates, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE dietary_profiles SET %s WHERE id = ?", strings.Join(updates, ", ")),
		args...)
	if err != nil {
		return false, fmt.Errorf("failed to update profile %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DeleteProfile 刪除設定檔，回傳是否真的有刪到
func (s *Store) DeleteProfile(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := s.db.ExecContext(ctx, "DELETE FROM dietary_profiles WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete profile %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
