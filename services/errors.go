package services

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrConnection 数据库不可达
	ErrConnection = errors.New("database unreachable")
	// ErrQuery 语句错误或违反约束
	ErrQuery = errors.New("query failed")
	// ErrValidation 表单缺少必填项，未访问数据库
	ErrValidation = errors.New("validation failed")
)

// classifyError 把驱动错误归类为 ErrConnection 或 ErrQuery
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrConnection) || errors.Is(err, ErrQuery) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if isConnectionError(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrConnection, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrQuery, err)
}

func isConnectionError(err error) bool {
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone)
}
