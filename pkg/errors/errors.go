// Package errors 存储层共享的哨兵错误。两种存储实现（远程 / 本地）都返回这些错误，
// 业务层只需 errors.Is 判断，不依赖具体驱动。
package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrRecordNotFound 记录不存在
var ErrRecordNotFound = errors.New("记录不存在")
