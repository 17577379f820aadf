package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"event_staffing_backend/internal/models"
)

// SettingRepository is the key/value application settings store.
type SettingRepository interface {
	GetSettings(ctx context.Context, executor SQLExecutor, keys ...string) (map[string]models.ApplicationSetting, error)
	GetSetting(ctx context.Context, executor SQLExecutor, key string) (*models.ApplicationSetting, error)
	UpsertSetting(ctx context.Context, executor SQLExecutor, setting *models.ApplicationSetting) (*models.ApplicationSetting, error)
}

type settingRepository struct {
	db *sql.DB
}

// NewSettingRepository creates a new instance of SettingRepository.
func NewSettingRepository(db *sql.DB) SettingRepository {
	return &settingRepository{db: db}
}

func (r *settingRepository) exec(executor SQLExecutor) SQLExecutor {
	if executor == nil {
		return r.db
	}
	return executor
}

func scanSetting(row scanner) (*models.ApplicationSetting, error) {
	var s models.ApplicationSetting
	if err := row.Scan(&s.ID, &s.SettingKey, &s.SettingValue, &s.Description, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning application setting: %v", ErrDatabaseError, err)
	}
	return &s, nil
}

// GetSettings returns the requested settings keyed by setting_key. Keys that
// are not stored are absent from the map. With no keys, every setting is
// returned.
func (r *settingRepository) GetSettings(ctx context.Context, executor SQLExecutor, keys ...string) (map[string]models.ApplicationSetting, error) {
	query := "SELECT id, setting_key, setting_value, description, created_at, updated_at FROM application_settings"
	args := make([]interface{}, 0, len(keys))
	if len(keys) > 0 {
		query += " WHERE setting_key IN ("
		for i, k := range keys {
			if i > 0 {
				query += ", "
			}
			args = append(args, k)
			query += fmt.Sprintf("$%d", i+1)
		}
		query += ")"
	}
	query += " ORDER BY setting_key"

	rows, err := r.exec(executor).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching application settings: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	settings := make(map[string]models.ApplicationSetting)
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, err
		}
		settings[s.SettingKey] = *s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating application settings: %v", ErrDatabaseError, err)
	}
	return settings, nil
}

func (r *settingRepository) GetSetting(ctx context.Context, executor SQLExecutor, key string) (*models.ApplicationSetting, error) {
	return scanSetting(r.exec(executor).QueryRowContext(ctx,
		"SELECT id, setting_key, setting_value, description, created_at, updated_at FROM application_settings WHERE setting_key = $1", key))
}

// UpsertSetting creates a new setting or updates an existing one by key.
func (r *settingRepository) UpsertSetting(ctx context.Context, executor SQLExecutor, setting *models.ApplicationSetting) (*models.ApplicationSetting, error) {
	ex := r.exec(executor)
	now := time.Now().UTC().Truncate(time.Second)

	query := `
	    INSERT INTO application_settings (setting_key, setting_value, description, created_at, updated_at)
	    VALUES ($1, $2, $3, $4, $5)
	    ON CONFLICT (setting_key)
	    DO UPDATE SET setting_value = EXCLUDED.setting_value, description = COALESCE(EXCLUDED.description, application_settings.description), updated_at = EXCLUDED.updated_at`

	if _, err := ex.ExecContext(ctx, query, setting.SettingKey, setting.SettingValue, setting.Description, now, now); err != nil {
		return nil, fmt.Errorf("%w: upserting application setting %s: %v", ErrDatabaseError, setting.SettingKey, err)
	}
	return r.GetSetting(ctx, ex, setting.SettingKey)
}
