package core

import "fmt"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 错误分级（见各模块约定）：
//   - 域错误（NOT_FOUND / OUT_OF_RANGE）：查询时未知的用户/物品，
//     推荐是尽力而为的服务，调用方拿到空结果或显式错误，绝不 panic
//   - 数据完整性错误（DATA_INTEGRITY）：交互数据本身非法，训练必须中止
//   - 采样耗尽（SAMPLING_EXHAUSTED）：负采样在重试预算内找不到合法负例，
//     视为数据密度问题，训练失败而非死循环
//   - 维度不匹配（DIMENSION_MISMATCH）：checkpoint 与当前配置不一致，加载失败
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "OUT_OF_RANGE"）
	Message string // 错误消息
	Module  string // 模块名称（如 "dataset", "model", "store"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError 创建新的领域错误。
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{Module: module, Code: code, Message: message}
}

// NewDomainErrorf 创建带格式化消息的领域错误。
func NewDomainErrorf(module, code, format string, args ...any) *DomainError {
	return &DomainError{Module: module, Code: code, Message: fmt.Sprintf(format, args...)}
}

// GetDomainError 获取 DomainError，如果不是则返回 nil。
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// 错误代码常量
const (
	ErrorCodeNotFound          = "NOT_FOUND"           // 资源不存在
	ErrorCodeOutOfRange        = "OUT_OF_RANGE"        // ID 超出声明的范围
	ErrorCodeDataIntegrity     = "DATA_INTEGRITY"      // 交互数据非法（训练致命）
	ErrorCodeSamplingExhausted = "SAMPLING_EXHAUSTED"  // 负采样重试预算耗尽
	ErrorCodeDimensionMismatch = "DIMENSION_MISMATCH"  // checkpoint 维度不匹配
	ErrorCodeNotSupported      = "NOT_SUPPORTED"       // 操作不支持
	ErrorCodeInvalidInput      = "INVALID_INPUT"       // 输入无效
)

// 模块名称常量
const (
	ModuleDataset = "dataset" // 交互数据模块
	ModuleModel   = "model"   // 打分模型模块
	ModuleTrain   = "train"   // 训练模块
	ModuleStore   = "store"   // 存储模块
	ModuleRecall  = "recall"  // 召回模块
)

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND。
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsOutOfRange 检查错误是否为 OUT_OF_RANGE。
func IsOutOfRange(err error) bool { return hasCode(err, ErrorCodeOutOfRange) }

// IsDataIntegrity 检查错误是否为 DATA_INTEGRITY。
func IsDataIntegrity(err error) bool { return hasCode(err, ErrorCodeDataIntegrity) }

// IsSamplingExhausted 检查错误是否为 SAMPLING_EXHAUSTED。
func IsSamplingExhausted(err error) bool { return hasCode(err, ErrorCodeSamplingExhausted) }

// IsDimensionMismatch 检查错误是否为 DIMENSION_MISMATCH。
func IsDimensionMismatch(err error) bool { return hasCode(err, ErrorCodeDimensionMismatch) }
