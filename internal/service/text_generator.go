package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"smart_edu_backend/internal/model"
)

// PlanModuleBrief 单个模块的学情摘要，喂给文案生成
type PlanModuleBrief struct {
	Name  string
	Type  model.ModuleType
	Level float64 // 0~1 掌握度
}

// PlanTextInput 生成方案文案需要的学情摘要
type PlanTextInput struct {
	StudentName string
	SubjectName string
	WeakPoints  []string // 短板知识点名称
	ReviewItems []string // 需复习知识点名称
	Modules     []PlanModuleBrief
	ModuleCount int
	TotalHours  float64
}

// PlanNarrative 方案叙事文案：总述、学习目标与各模块说明
// ModuleNotes 按知识点名称索引，缺失的条目由调用方用模板补齐
type PlanNarrative struct {
	Summary     string
	Objectives  []string
	ModuleNotes map[string]string
}

// PlanTextGenerator 辅导方案文案生成器
// 实现方可能调用外部大模型，必须尊重 ctx 超时
type PlanTextGenerator interface {
	Narrative(ctx context.Context, input PlanTextInput) (PlanNarrative, error)
}

// AITextGenerator 基于大模型的文案生成
type AITextGenerator struct {
	AI      *AIService
	Timeout time.Duration
}

func NewAITextGenerator(ai *AIService, timeout time.Duration) *AITextGenerator {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &AITextGenerator{AI: ai, Timeout: timeout}
}

func (g *AITextGenerator) Narrative(ctx context.Context, input PlanTextInput) (PlanNarrative, error) {
	ctx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("请为学生「%s」撰写 %s 学科个性化辅导方案的文案。\n", input.StudentName, input.SubjectName))
	if len(input.WeakPoints) > 0 {
		sb.WriteString(fmt.Sprintf("薄弱知识点：%s。\n", strings.Join(input.WeakPoints, "、")))
	}
	if len(input.ReviewItems) > 0 {
		sb.WriteString(fmt.Sprintf("需要复习巩固：%s。\n", strings.Join(input.ReviewItems, "、")))
	}
	sb.WriteString(fmt.Sprintf("方案共 %d 个学习模块，预计 %.1f 小时：\n", input.ModuleCount, input.TotalHours))
	for _, m := range input.Modules {
		sb.WriteString(fmt.Sprintf("- 「%s」（%s，当前掌握度 %.0f%%）\n", m.Name, moduleTypeLabel(m.Type), m.Level*100))
	}
	sb.WriteString("只返回 JSON，不要任何其他文字，格式：\n")
	sb.WriteString(`{"summary": "150 字以内的方案总述，语气鼓励", "objectives": ["学习目标，3 条左右"], "modules": {"知识点名称": "该模块的一句话学习说明"}}`)

	raw, err := g.AI.Chat(ctx, sb.String(), "你是一位经验丰富的班主任，擅长为学生制定学习计划并写出温和务实的说明文字。")
	if err != nil {
		return PlanNarrative{}, err
	}

	// 模型偶尔会包一层 markdown 代码块
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var out struct {
		Summary    string            `json:"summary"`
		Objectives []string          `json:"objectives"`
		Modules    map[string]string `json:"modules"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &out); err != nil {
		return PlanNarrative{}, fmt.Errorf("解析方案文案响应失败: %w", err)
	}

	return PlanNarrative{
		Summary:     out.Summary,
		Objectives:  out.Objectives,
		ModuleNotes: out.Modules,
	}, nil
}

// TemplateTextGenerator 模板兜底文案，大模型不可用时使用
// 输出确定性文本，方案生成本身永远不会因为文案失败
type TemplateTextGenerator struct{}

func (g *TemplateTextGenerator) Narrative(_ context.Context, input PlanTextInput) (PlanNarrative, error) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("本方案针对%s的%s学习情况定制，共 %d 个学习模块，预计 %.1f 小时。",
		input.StudentName, input.SubjectName, input.ModuleCount, input.TotalHours))
	if len(input.WeakPoints) > 0 {
		sb.WriteString(fmt.Sprintf("重点攻克：%s。", strings.Join(input.WeakPoints, "、")))
	}
	if len(input.ReviewItems) > 0 {
		sb.WriteString(fmt.Sprintf("同时安排 %s 的复习巩固。", strings.Join(input.ReviewItems, "、")))
	}
	sb.WriteString("建议按模块顺序完成，每个模块结束后及时提交练习结果。")

	objectives := []string{
		fmt.Sprintf("完成全部 %d 个学习模块，合计约 %.1f 小时", input.ModuleCount, input.TotalHours),
	}
	for _, name := range input.WeakPoints {
		objectives = append(objectives, fmt.Sprintf("攻克短板知识点「%s」", name))
	}
	for _, name := range input.ReviewItems {
		objectives = append(objectives, fmt.Sprintf("复习巩固「%s」，恢复到已掌握水平", name))
	}

	notes := make(map[string]string, len(input.Modules))
	for _, m := range input.Modules {
		notes[m.Name] = moduleDescription(m.Type, m.Name, m.Level)
	}

	return PlanNarrative{
		Summary:     sb.String(),
		Objectives:  objectives,
		ModuleNotes: notes,
	}, nil
}

func moduleTypeLabel(moduleType model.ModuleType) string {
	switch moduleType {
	case model.ModuleTypeLesson:
		return "知识讲解"
	case model.ModuleTypeAssessment:
		return "掌握检验"
	default:
		return "专项练习"
	}
}

// moduleTitle 模块标题模板
func moduleTitle(moduleType model.ModuleType, kpName string) string {
	return fmt.Sprintf("%s：%s", moduleTypeLabel(moduleType), kpName)
}

// moduleDescription 模块说明模板
func moduleDescription(moduleType model.ModuleType, kpName string, level float64) string {
	switch moduleType {
	case model.ModuleTypeLesson:
		return fmt.Sprintf("「%s」当前掌握度 %.0f%%，从概念讲解入手，打牢基础后再进入练习。", kpName, level*100)
	case model.ModuleTypeAssessment:
		return fmt.Sprintf("「%s」掌握情况良好（%.0f%%），通过一组测评确认掌握程度是否稳固。", kpName, level*100)
	default:
		return fmt.Sprintf("「%s」掌握度 %.0f%%，通过针对性练习巩固薄弱环节。", kpName, level*100)
	}
}
