package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：user_courses.version 已被其他操作递增。
// UserCourseRepository.UpdateProgress 在按版本号更新命中 0 行时返回
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")
