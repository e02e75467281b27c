package service

import (
	"Pulseboard/internal/model"
	"errors"
)

const (
	BadRequest          = 400
	NotFound            = 404
	Conflict            = 409
	UnprocessableEntity = 422
	InternalServerError = 500
	ServiceUnavailable  = 503
)

var (
	ErrParamInvalid      = errors.New("参数错误")
	ErrPostNotFound      = errors.New("帖子不存在")
	ErrSchemaViolation   = model.ErrSchemaViolation
	ErrStoreUnavailable  = errors.New("存储不可用")
	ErrInsertFailed      = errors.New("写入失败")
	ErrSchedulerRunning  = errors.New("scheduler already running")
	ErrSchedulerStopped  = errors.New("scheduler not running")
	ErrCSVSource         = errors.New("CSV 数据源不可用")
	ErrIngestUnavailable = errors.New("未配置数据源")
	UnExpectedError      = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:      BadRequest,
	ErrPostNotFound:      NotFound,
	ErrSchemaViolation:   UnprocessableEntity,
	ErrStoreUnavailable:  ServiceUnavailable,
	ErrInsertFailed:      InternalServerError,
	ErrSchedulerRunning:  Conflict,
	ErrSchedulerStopped:  Conflict,
	ErrCSVSource:         BadRequest,
	ErrIngestUnavailable: BadRequest,
	UnExpectedError:      InternalServerError,
}

// Code 取出错误链上第一个已登记的哨兵错误对应的业务码
func Code(err error) (int, bool) {
	for sentinel, code := range ErrorMap {
		if errors.Is(err, sentinel) {
			return code, true
		}
	}
	return 0, false
}
