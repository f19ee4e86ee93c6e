package util

import "errors"

var (
	ErrUserNotFound     = errors.New("用户不存在")
	ErrEmailRegistered  = errors.New("该邮箱已被注册")
	ErrPermissionDenied = errors.New("permission denied")

	// 成绩录入/订正
	ErrInvalidScore      = errors.New("成绩超出有效范围（0 ~ 总分）")
	ErrGradeNotFound     = errors.New("grade not found")
	ErrExamNotFound      = errors.New("exam not found")
	ErrStudentNotFound   = errors.New("student not found")
	ErrClassNotFound     = errors.New("班级不存在")
	ErrStudentNotInClass = errors.New("学生不在该考试对应的班级")
	ErrGradeAlreadyFinal = errors.New("成绩已录入，修改请走订正流程")

	// 分析引擎：数据不足时由调用方降级处理，不向终端用户抛出
	ErrInsufficientData       = errors.New("insufficient data for analysis")
	ErrInvalidPractice        = errors.New("练习数据不合法（答对数不能超过题目数）")
	ErrKnowledgePointNotFound = errors.New("knowledge point not found")

	// 辅导方案
	ErrPlanNotFound          = errors.New("tutoring plan not found")
	ErrModuleNotFound        = errors.New("tutoring module not found")
	ErrExerciseNotFound      = errors.New("tutoring exercise not found")
	ErrInvalidPlanTransition = errors.New("invalid tutoring plan status transition")
	ErrNoTutoringTargets     = errors.New("该学科下没有可安排的知识点")
	ErrNoRulesConfigured     = errors.New("推荐规则未配置")
	ErrPlanNotActive         = errors.New("方案未激活，无法上报进度")

	// 文本生成：超时/不可用一律回退模板文案，不作为接口错误返回
	ErrTextGenerationUnavailable = errors.New("text generation unavailable")
)
