package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

const (
	SettingStoreName         = "store_name"
	SettingStoreAddress      = "store_address"
	SettingStorePhone        = "store_phone"
	SettingReceiptFooter     = "receipt_footer"
	SettingLowStockThreshold = "low_stock_threshold"
)

var defaultSettings = map[string]string{
	SettingStoreName:         "My Store",
	SettingStoreAddress:      "",
	SettingStorePhone:        "",
	SettingReceiptFooter:     "Thank you!",
	SettingLowStockThreshold: "5",
}

type SettingsService struct {
	db  *sqlx.DB
	log logrus.FieldLogger
}

func NewSettingsService(db *sqlx.DB, log logrus.FieldLogger) *SettingsService {
	return &SettingsService{db: db, log: log}
}

// All returns every known setting with defaults filled in.
func (s *SettingsService) All(ctx context.Context) (map[string]string, error) {
	var rows []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	if err := s.db.SelectContext(ctx, &rows, `SELECT key, value FROM settings`); err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}

	out := make(map[string]string, len(defaultSettings))
	for k, v := range defaultSettings {
		out[k] = v
	}
	for _, r := range rows {
		if _, known := defaultSettings[r.Key]; known {
			out[r.Key] = r.Value
		}
	}
	return out, nil
}

func (s *SettingsService) LowStockThreshold(ctx context.Context) (int, error) {
	all, err := s.All(ctx)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(all[SettingLowStockThreshold])
	if err != nil || n < 0 {
		n, _ = strconv.Atoi(defaultSettings[SettingLowStockThreshold])
	}
	return n, nil
}

// Update writes a subset of settings in one transaction.
func (s *SettingsService) Update(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return newValidationError("no settings given")
	}

	keys := make([]string, 0, len(values))
	for k, v := range values {
		if _, known := defaultSettings[k]; !known {
			return newValidationError(fmt.Sprintf("unknown setting %q", k))
		}
		if k == SettingLowStockThreshold {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil || n < 0 {
				return newValidationError("low_stock_threshold must be a non-negative integer")
			}
			values[k] = strconv.Itoa(n)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	err := runInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		for _, k := range keys {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO settings (key, value) VALUES ($1, $2)
				ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
			`, k, values[k])
			if err != nil {
				return fmt.Errorf("upsert setting %s: %w", k, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.WithField("keys", keys).Info("settings updated")
	return nil
}
