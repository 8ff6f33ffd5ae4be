package utils

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/mmdatafocus/float_backend/config"
	"gorm.io/gorm"
)

const shopLockTTL = 30 * time.Second

// ProcessValidationErrors turns binding failures into field -> rule details.
func ProcessValidationErrors(err error) map[string]string {
	errorResponse := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errorResponse["body"] = err.Error()
		return errorResponse
	}
	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}
	return errorResponse
}

// RegisterJSONFieldNames makes validation errors report json field names.
func RegisterJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func DereferencePtr[T any](ptr *T, defaults ...T) T {
	if ptr != nil {
		return *ptr
	}
	var zero T
	if len(defaults) > 0 {
		return defaults[0]
	}
	return zero
}

// ShopLock serialises balance writers of one shop across instances. The
// returned release func must always be called. Without redis the lock is a
// no-op and database row locks alone keep balances consistent.
func ShopLock(ctx context.Context, shopId string, moduleName string, functionName string) (func(), error) {
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}, nil
	}
	logger := config.GetLogger()

	lockKey := fmt.Sprintf("shop_balance:%s", shopId)
	lock, err := locker.Obtain(ctx, lockKey, shopLockTTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 50),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		config.LogError(logger, moduleName, functionName, "could not obtain shop lock", shopId, err)
		return nil, NewConflict("shop balances are busy, please retry")
	}
	if err != nil {
		// redis trouble must not block bookkeeping; row locks still apply
		config.LogError(logger, moduleName, functionName, "error obtaining shop lock", shopId, err)
		return func() {}, nil
	}
	return func() {
		_ = lock.Release(context.Background())
	}, nil
}

func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func SplitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseDate accepts RFC3339 timestamps and plain YYYY-MM-DD dates (UTC).
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("empty date")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	return t.UTC(), nil
}
